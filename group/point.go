package group

import (
	"encoding/hex"
	"encoding/json"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/pkg/errors"
)

// Point is an element of G1. The zero value is the point at infinity.
type Point struct {
	v bls12381.G1Affine
}

// Generator returns the standard G1 generator. It is also the base of BLS
// public keys, so sk·Generator() is the public key of sk.
func Generator() Point {
	return Point{v: g1Gen}
}

// Set sets the receiver to a, and returns it.
func (p *Point) Set(a *Point) *Point {
	p.v.Set(&a.v)
	return p
}

// Add sets the receiver to a + b, and returns it.
func (p *Point) Add(a, b *Point) *Point {
	var ja, jb bls12381.G1Jac
	ja.FromAffine(&a.v)
	jb.FromAffine(&b.v)
	ja.AddAssign(&jb)
	p.v.FromJacobian(&ja)
	return p
}

// Sub sets the receiver to a - b, and returns it.
func (p *Point) Sub(a, b *Point) *Point {
	var ja, jb bls12381.G1Jac
	ja.FromAffine(&a.v)
	jb.FromAffine(&b.v)
	ja.SubAssign(&jb)
	p.v.FromJacobian(&ja)
	return p
}

// Neg sets the receiver to -a, and returns it.
func (p *Point) Neg(a *Point) *Point {
	p.v.Neg(&a.v)
	return p
}

// Mul sets the receiver to s·a, and returns it.
func (p *Point) Mul(a *Point, s *Scalar) *Point {
	p.v.ScalarMultiplication(&a.v, s.BigInt())
	return p
}

// BaseMul sets the receiver to s·G, and returns it.
func (p *Point) BaseMul(s *Scalar) *Point {
	p.v.ScalarMultiplication(&g1Gen, s.BigInt())
	return p
}

// Equal reports whether p == a.
func (p *Point) Equal(a *Point) bool {
	return p.v.Equal(&a.v)
}

// IsIdentity reports whether p is the point at infinity.
func (p *Point) IsIdentity() bool {
	return p.v.IsInfinity()
}

// Bytes returns the 48-byte compressed encoding of p.
func (p *Point) Bytes() []byte {
	b := p.v.Bytes()
	return b[:]
}

// SetBytes decodes a compressed point. Points outside the prime-order
// subgroup are rejected.
func (p *Point) SetBytes(b []byte) (*Point, error) {
	if len(b) != PointSize {
		return nil, errors.Errorf("point encoding must be %d bytes, got %d", PointSize, len(b))
	}
	var v bls12381.G1Affine
	if _, err := v.SetBytes(b); err != nil {
		return nil, errors.Wrap(err, "decode point")
	}
	p.v = v
	return p, nil
}

func (p *Point) String() string {
	return hex.EncodeToString(p.Bytes())
}

func (p *Point) MarshalBinary() ([]byte, error) {
	return p.Bytes(), nil
}

func (p *Point) UnmarshalBinary(b []byte) error {
	_, err := p.SetBytes(b)
	return err
}

func (p *Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Point) UnmarshalJSON(b []byte) error {
	var h string
	if err := json.Unmarshal(b, &h); err != nil {
		return err
	}
	raw, err := hex.DecodeString(h)
	if err != nil {
		return errors.Wrap(err, "decode point hex")
	}
	return p.UnmarshalBinary(raw)
}

// Affine exposes the underlying gnark-crypto point to sibling packages that
// need pairings.
func (p *Point) Affine() bls12381.G1Affine {
	return p.v
}

// PointFromAffine wraps a gnark-crypto G1 point.
func PointFromAffine(a bls12381.G1Affine) Point {
	return Point{v: a}
}
