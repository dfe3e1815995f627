package bulletproofs

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/takakv/blsct/group"
	. "github.com/takakv/blsct/util"
)

// AppendBinary appends the wire encoding of the proof: compact-size prefixed
// V, L and R, followed by A, S, T1, T2, taux, mu, a, b and t.
func (proof *BulletProof) AppendBinary(buf []byte) []byte {
	buf = appendPoints(buf, proof.V)
	buf = appendPoints(buf, proof.InnerProductProof.L)
	buf = appendPoints(buf, proof.InnerProductProof.R)
	for _, p := range []*group.Point{&proof.A, &proof.S, &proof.T1, &proof.T2} {
		buf = append(buf, p.Bytes()...)
	}
	for _, s := range []*group.Scalar{&proof.Taux, &proof.Mu,
		&proof.InnerProductProof.A, &proof.InnerProductProof.B, &proof.Tprime} {
		buf = append(buf, s.Bytes()...)
	}
	return buf
}

func (proof *BulletProof) FromReader(r io.Reader) (err error) {
	if proof.V, err = readPoints(r, MaxM); err != nil {
		return errors.Wrap(err, "read V")
	}
	maxRounds := LogMaxM + LogN
	if proof.InnerProductProof.L, err = readPoints(r, maxRounds); err != nil {
		return errors.Wrap(err, "read L")
	}
	if proof.InnerProductProof.R, err = readPoints(r, maxRounds); err != nil {
		return errors.Wrap(err, "read R")
	}
	for _, p := range []*group.Point{&proof.A, &proof.S, &proof.T1, &proof.T2} {
		if err = p.FromReader(r); err != nil {
			return err
		}
	}
	for _, s := range []*group.Scalar{&proof.Taux, &proof.Mu,
		&proof.InnerProductProof.A, &proof.InnerProductProof.B, &proof.Tprime} {
		if err = s.FromReader(r); err != nil {
			return err
		}
	}
	return nil
}

func (proof *BulletProof) MarshalBinary() ([]byte, error) {
	return proof.AppendBinary(nil), nil
}

func (proof *BulletProof) UnmarshalBinary(b []byte) error {
	r := bytes.NewReader(b)
	if err := proof.FromReader(r); err != nil {
		return err
	}
	if r.Len() != 0 {
		return errors.Errorf("%d trailing bytes after proof", r.Len())
	}
	return nil
}

func appendPoints(buf []byte, points []group.Point) []byte {
	buf = AppendCompactSize(buf, uint64(len(points)))
	for i := range points {
		buf = append(buf, points[i].Bytes()...)
	}
	return buf
}

func readPoints(r io.Reader, limit int) ([]group.Point, error) {
	n, err := ReadCompactSize(r)
	if err != nil {
		return nil, err
	}
	if n > uint64(limit) {
		return nil, errors.Errorf("%d points, at most %d allowed", n, limit)
	}
	points := make([]group.Point, n)
	for i := range points {
		if err = points[i].FromReader(r); err != nil {
			return nil, err
		}
	}
	return points, nil
}

type innerProductProofJSON struct {
	L []group.Point `json:"L"`
	R []group.Point `json:"R"`
	A group.Scalar  `json:"a"`
	B group.Scalar  `json:"b"`
}

type bulletProofJSON struct {
	V                 []group.Point         `json:"V"`
	A                 group.Point           `json:"A"`
	S                 group.Point           `json:"S"`
	T1                group.Point           `json:"T1"`
	T2                group.Point           `json:"T2"`
	Taux              group.Scalar          `json:"taux"`
	Mu                group.Scalar          `json:"mu"`
	Tprime            group.Scalar          `json:"t"`
	InnerProductProof innerProductProofJSON `json:"ipp"`
}

func (proof *BulletProof) MarshalJSON() ([]byte, error) {
	return json.Marshal(&bulletProofJSON{
		V:      proof.V,
		A:      proof.A,
		S:      proof.S,
		T1:     proof.T1,
		T2:     proof.T2,
		Taux:   proof.Taux,
		Mu:     proof.Mu,
		Tprime: proof.Tprime,
		InnerProductProof: innerProductProofJSON{
			L: proof.InnerProductProof.L,
			R: proof.InnerProductProof.R,
			A: proof.InnerProductProof.A,
			B: proof.InnerProductProof.B,
		},
	})
}

func (proof *BulletProof) UnmarshalJSON(b []byte) error {
	var tmp bulletProofJSON
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*proof = BulletProof{
		V:      tmp.V,
		A:      tmp.A,
		S:      tmp.S,
		T1:     tmp.T1,
		T2:     tmp.T2,
		Taux:   tmp.Taux,
		Mu:     tmp.Mu,
		Tprime: tmp.Tprime,
		InnerProductProof: InnerProductProof{
			L: tmp.InnerProductProof.L,
			R: tmp.InnerProductProof.R,
			A: tmp.InnerProductProof.A,
			B: tmp.InnerProductProof.B,
		},
	}
	return nil
}
