package blsct

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/takakv/blsct/bls"
	"github.com/takakv/blsct/bulletproofs"
	"github.com/takakv/blsct/group"
	"github.com/takakv/blsct/util"
)

// Output encoding markers.
const (
	ctMarker      = ^uint64(0)
	flaggedMarker = uint64(0x80) << 56
)

// Fields present in a flagged output.
const (
	flagValue uint64 = 1 << iota
	flagEk
	flagOk
	flagSk
	flagProof
	flagToken
	flagNftID
	flagVData
	flagExtraPk
)

// Opening is what the creator or recipient of a confidential output knows
// about it.
type Opening struct {
	Amount uint64
	Gamma  group.Scalar
	Memo   string
	// SpendKey is the private key of Sk. Only the recipient holds it.
	SpendKey *group.Scalar
}

/*
Output is a transaction output. Confidential outputs carry a range proof over
a hidden amount and the stealth keys Ek, Ok and Sk; plain outputs carry a
public Value and Script.
*/
type Output struct {
	Value  uint64
	Script []byte

	// Ek = bk·G signs the output; Ok = bk·spendPk lets the recipient
	// rebuild the nonce; Sk is the one-time spend key.
	Ek group.Point
	Ok group.Point
	Sk group.Point

	Proof *bulletproofs.BulletProof
	VData []byte
	Token bulletproofs.TokenID

	TxSig    bls.Signature
	ExtraPk  group.Point
	ExtraSig bls.Signature

	// Opening is set on outputs created or recovered by this wallet.
	Opening *Opening `json:"-"`
}

// IsCT reports whether o carries a range proof.
func (o *Output) IsCT() bool {
	return o.Proof != nil && len(o.Proof.V) > 0
}

func (o *Output) HasBLSCTKeys() bool {
	return !o.Ek.IsIdentity() || !o.Ok.IsIdentity() || !o.Sk.IsIdentity()
}

// IsFee reports whether o is a fee output: script OP_RETURN and no vData.
func (o *Output) IsFee() bool {
	return bytes.Equal(o.Script, feeScript) && len(o.VData) == 0
}

// Commitment returns the commitment to the hidden amount.
func (o *Output) Commitment() group.Point {
	return o.Proof.V[0]
}

func (o *Output) flagged() bool {
	return !o.Token.IsDefault() || len(o.VData) > 0 || !o.ExtraPk.IsIdentity()
}

/*
AppendBinary appends the wire encoding of o. Token outputs and outputs with
vData or an extra signing key use a flagged layout that omits absent fields; other outputs with stealth
keys use the fixed confidential layout; anything else is a plain value. All
layouts end with the script.
*/
func (o *Output) AppendBinary(buf []byte) []byte {
	switch {
	case o.flagged():
		var flags uint64
		if o.Value > 0 {
			flags |= flagValue
		}
		if !o.Ek.IsIdentity() {
			flags |= flagEk
		}
		if !o.Ok.IsIdentity() {
			flags |= flagOk
		}
		if !o.Sk.IsIdentity() {
			flags |= flagSk
		}
		if o.IsCT() {
			flags |= flagProof
		}
		if o.Token.ID != ([32]byte{}) {
			flags |= flagToken
		}
		if o.Token.NftID != -1 {
			flags |= flagNftID
		}
		if len(o.VData) > 0 {
			flags |= flagVData
		}
		if !o.ExtraPk.IsIdentity() {
			flags |= flagExtraPk
		}

		buf = binary.LittleEndian.AppendUint64(buf, flaggedMarker|flags)
		if flags&flagValue != 0 {
			buf = binary.LittleEndian.AppendUint64(buf, o.Value)
		}
		for i, p := range []*group.Point{&o.Ek, &o.Ok, &o.Sk} {
			if flags&(flagEk<<i) != 0 {
				buf = append(buf, p.Bytes()...)
			}
		}
		if flags&flagProof != 0 {
			buf = o.Proof.AppendBinary(buf)
		}
		if flags&flagToken != 0 {
			for i := len(o.Token.ID) - 1; i >= 0; i-- {
				buf = append(buf, o.Token.ID[i])
			}
		}
		if flags&flagNftID != 0 {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(o.Token.NftID))
		}
		if flags&flagVData != 0 {
			buf = util.AppendVarBytes(buf, o.VData)
		}
		if flags&flagExtraPk != 0 {
			buf = append(buf, o.ExtraPk.Bytes()...)
		}

	case o.HasBLSCTKeys():
		buf = binary.LittleEndian.AppendUint64(buf, ctMarker)
		buf = binary.LittleEndian.AppendUint64(buf, o.Value)
		buf = append(buf, o.Ek.Bytes()...)
		buf = append(buf, o.Ok.Bytes()...)
		buf = append(buf, o.Sk.Bytes()...)
		proof := o.Proof
		if proof == nil {
			proof = &bulletproofs.BulletProof{}
		}
		buf = proof.AppendBinary(buf)

	default:
		buf = binary.LittleEndian.AppendUint64(buf, o.Value)
	}
	return util.AppendVarBytes(buf, o.Script)
}

// FromReader decodes an output written by AppendBinary.
func (o *Output) FromReader(r io.Reader) error {
	*o = Output{Token: bulletproofs.DefaultToken}

	header, err := readUint64(r)
	if err != nil {
		return err
	}
	switch {
	case header == ctMarker:
		if o.Value, err = readUint64(r); err != nil {
			return err
		}
		for _, p := range []*group.Point{&o.Ek, &o.Ok, &o.Sk} {
			if err = p.FromReader(r); err != nil {
				return errors.Wrap(err, "read output key")
			}
		}
		proof := new(bulletproofs.BulletProof)
		if err = proof.FromReader(r); err != nil {
			return errors.Wrap(err, "read range proof")
		}
		if len(proof.V) > 0 {
			o.Proof = proof
		}

	case header>>56 == 0x80:
		flags := header &^ flaggedMarker
		if flags&flagValue != 0 {
			if o.Value, err = readUint64(r); err != nil {
				return err
			}
		}
		for i, p := range []*group.Point{&o.Ek, &o.Ok, &o.Sk} {
			if flags&(flagEk<<i) == 0 {
				continue
			}
			if err = p.FromReader(r); err != nil {
				return errors.Wrap(err, "read output key")
			}
		}
		if flags&flagProof != 0 {
			o.Proof = new(bulletproofs.BulletProof)
			if err = o.Proof.FromReader(r); err != nil {
				return errors.Wrap(err, "read range proof")
			}
		}
		if flags&flagToken != 0 {
			var id [32]byte
			if _, err = io.ReadFull(r, id[:]); err != nil {
				return err
			}
			for i := range id {
				o.Token.ID[i] = id[len(id)-1-i]
			}
		}
		if flags&flagNftID != 0 {
			nft, err := readUint64(r)
			if err != nil {
				return err
			}
			o.Token.NftID = int64(nft)
		}
		if flags&flagVData != 0 {
			if o.VData, err = util.ReadVarBytes(r); err != nil {
				return errors.Wrap(err, "read vData")
			}
		}
		if flags&flagExtraPk != 0 {
			if err = o.ExtraPk.FromReader(r); err != nil {
				return errors.Wrap(err, "read extra key")
			}
		}

	default:
		o.Value = header
	}

	o.Script, err = util.ReadVarBytes(r)
	return err
}

func (o *Output) MarshalBinary() ([]byte, error) {
	return o.AppendBinary(nil), nil
}

func (o *Output) UnmarshalBinary(b []byte) error {
	r := bytes.NewReader(b)
	if err := o.FromReader(r); err != nil {
		return err
	}
	if r.Len() != 0 {
		return errors.Errorf("%d trailing bytes after output", r.Len())
	}
	return nil
}

// Hash is SHA256d of the wire encoding. Signatures are not covered.
func (o *Output) Hash() [32]byte {
	return sha256d(o.AppendBinary(nil))
}

func sha256d(b []byte) [32]byte {
	h := sha256.Sum256(b)
	return sha256.Sum256(h[:])
}
