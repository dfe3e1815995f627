// Package group wraps the BLS12-381 scalar field and G1 group used by the
// confidential-transaction primitives.
//
// Both Scalar and Point follow the setter convention: arithmetic methods set
// the receiver to the result and return it, so calls can be chained and the
// zero value is always usable (zero scalar, point at infinity).
package group

import (
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

const (
	// ScalarSize is the length of a serialized scalar.
	ScalarSize = fr.Bytes
	// PointSize is the length of a compressed G1 point.
	PointSize = bls12381.SizeOfG1AffineCompressed
)

// Order returns r, the prime order of G1 and of the scalar field.
func Order() *big.Int {
	return fr.Modulus()
}

var g1Gen bls12381.G1Affine

func init() {
	_, _, g1Gen, _ = bls12381.Generators()
}
