/*
Package bls signs with BLS over BLS12-381, public keys in G1 and signatures in
G2. Basic mode signs the message alone; augmented mode signs pk ‖ msg, which
makes aggregation over repeated messages safe. Signatures of both modes share
one encoding and aggregate together.
*/
package bls

import (
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/cloudflare/circl/sign/bls"
	"github.com/pkg/errors"

	"github.com/takakv/blsct/group"
)

const (
	BasicDST     = "BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_"
	AugmentedDST = "BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_AUG_"

	// SignatureSize is the length of a compressed G2 signature.
	SignatureSize = bls12381.SizeOfG2AffineCompressed
)

var (
	ErrZeroKey          = errors.New("zero signing key")
	ErrInvalidSignature = errors.New("invalid signature encoding")
)

// Signature is a compressed G2 point.
type Signature []byte

func privateKey(sk *group.Scalar) (*bls.PrivateKey[bls.G1], error) {
	if sk.IsZero() {
		return nil, ErrZeroKey
	}
	var key bls.PrivateKey[bls.G1]
	if err := key.UnmarshalBinary(sk.Bytes()); err != nil {
		return nil, errors.Wrap(err, "load signing key")
	}
	return &key, nil
}

func publicKey(pk *group.Point) (*bls.PublicKey[bls.G1], error) {
	var key bls.PublicKey[bls.G1]
	if err := key.UnmarshalBinary(pk.Bytes()); err != nil {
		return nil, errors.Wrap(err, "load public key")
	}
	return &key, nil
}

// SignBasic signs msg with sk in basic mode.
func SignBasic(sk *group.Scalar, msg []byte) (Signature, error) {
	key, err := privateKey(sk)
	if err != nil {
		return nil, err
	}
	return Signature(bls.Sign(key, msg)), nil
}

// VerifyBasic checks a basic-mode signature.
func VerifyBasic(pk *group.Point, msg []byte, sig Signature) bool {
	key, err := publicKey(pk)
	if err != nil {
		return false
	}
	return bls.Verify(key, msg, bls.Signature(sig))
}

// AggregateVerifyBasic checks an aggregate of basic-mode signatures over
// distinct messages.
func AggregateVerifyBasic(pks []group.Point, msgs [][]byte, sig Signature) bool {
	if len(pks) != len(msgs) || len(pks) == 0 {
		return false
	}
	keys := make([]*bls.PublicKey[bls.G1], len(pks))
	for i := range pks {
		k, err := publicKey(&pks[i])
		if err != nil {
			return false
		}
		keys[i] = k
	}
	return bls.VerifyAggregate(keys, msgs, bls.Signature(sig))
}

// Aggregate adds signatures of either mode.
func Aggregate(sigs ...Signature) (Signature, error) {
	if len(sigs) == 0 {
		return nil, errors.New("no signatures to aggregate")
	}
	in := make([]bls.Signature, len(sigs))
	for i := range sigs {
		in[i] = bls.Signature(sigs[i])
	}
	agg, err := bls.Aggregate(bls.G1{}, in)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidSignature, err.Error())
	}
	return Signature(agg), nil
}
