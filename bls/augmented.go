package bls

import (
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/pkg/errors"

	"github.com/takakv/blsct/group"
)

func hashAugmented(pk *group.Point, msg []byte) (bls12381.G2Affine, error) {
	m := make([]byte, 0, group.PointSize+len(msg))
	m = append(m, pk.Bytes()...)
	m = append(m, msg...)
	return bls12381.HashToG2(m, []byte(AugmentedDST))
}

func decodeSignature(sig Signature) (bls12381.G2Affine, error) {
	var s bls12381.G2Affine
	if len(sig) != SignatureSize {
		return s, ErrInvalidSignature
	}
	if _, err := s.SetBytes(sig); err != nil {
		return s, errors.Wrap(ErrInvalidSignature, err.Error())
	}
	return s, nil
}

// SignAugmented signs (sk·G) ‖ msg.
func SignAugmented(sk *group.Scalar, msg []byte) (Signature, error) {
	if sk.IsZero() {
		return nil, ErrZeroKey
	}
	var pk group.Point
	pk.BaseMul(sk)
	h, err := hashAugmented(&pk, msg)
	if err != nil {
		return nil, errors.Wrap(err, "hash to G2")
	}
	var sig bls12381.G2Affine
	sig.ScalarMultiplication(&h, sk.BigInt())
	b := sig.Bytes()
	return Signature(b[:]), nil
}

// VerifyAugmented checks a single augmented-mode signature.
func VerifyAugmented(pk *group.Point, msg []byte, sig Signature) bool {
	return AggregateVerify([]group.Point{*pk}, [][]byte{msg}, sig)
}

/*
AggregateVerify checks an aggregate of augmented-mode signatures, pks[i] having
signed msgs[i]. Messages may repeat since each is bound to its key:

	e(G, sig) == prod_i e(pk_i, H(pk_i ‖ msg_i))
*/
func AggregateVerify(pks []group.Point, msgs [][]byte, sig Signature) bool {
	if len(pks) != len(msgs) || len(pks) == 0 {
		return false
	}
	s, err := decodeSignature(sig)
	if err != nil {
		return false
	}

	P := make([]bls12381.G1Affine, 0, len(pks)+1)
	Q := make([]bls12381.G2Affine, 0, len(pks)+1)
	for i := range pks {
		h, err := hashAugmented(&pks[i], msgs[i])
		if err != nil {
			return false
		}
		P = append(P, pks[i].Affine())
		Q = append(Q, h)
	}

	g := group.Generator()
	var negG group.Point
	negG.Neg(&g)
	P = append(P, negG.Affine())
	Q = append(Q, s)

	ok, err := bls12381.PairingCheck(P, Q)
	return err == nil && ok
}
