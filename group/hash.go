package group

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/consensys/gnark-crypto/ecc"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/pkg/errors"
)

// MapToGroupDST separates generator derivation from every other hash-to-curve use.
const MapToGroupDST = "BLSCT-V1-G1_XMD:SHA-256_SSWU_RO_"

// MapToGroup hashes seed to a G1 point with no known discrete logarithm
// relative to any other generator.
func MapToGroup(seed []byte) (Point, error) {
	p, err := bls12381.HashToG1(seed, []byte(MapToGroupDST))
	if err != nil {
		return Point{}, errors.Wrap(err, "hash to G1")
	}
	return Point{v: p}, nil
}

// HashG1Element returns SHA256d(len ‖ p ‖ salt) where len is the one-byte
// compact size of the point encoding and salt is little-endian.
func HashG1Element(p *Point, salt uint64) [32]byte {
	enc := p.Bytes()
	buf := make([]byte, 0, 1+len(enc)+8)
	buf = append(buf, byte(len(enc)))
	buf = append(buf, enc...)
	buf = binary.LittleEndian.AppendUint64(buf, salt)
	first := sha256.Sum256(buf)
	return sha256.Sum256(first[:])
}

// HashToScalar is HashG1Element reduced mod r.
func HashToScalar(p *Point, salt uint64) Scalar {
	h := HashG1Element(p, salt)
	var s Scalar
	s.SetBigEndianMod(h[:])
	return s
}

// MultiExp returns Σ scalars[i]·points[i] using a single Pippenger pass.
func MultiExp(points []Point, scalars []Scalar) (Point, error) {
	if len(points) != len(scalars) {
		return Point{}, errors.Errorf("multiexp: %d points, %d scalars", len(points), len(scalars))
	}
	if len(points) == 0 {
		return Point{}, nil
	}
	aff := make([]bls12381.G1Affine, len(points))
	exp := make([]fr.Element, len(scalars))
	for i := range points {
		aff[i] = points[i].v
		exp[i] = scalars[i].v
	}
	var res bls12381.G1Jac
	if _, err := res.MultiExp(aff, exp, ecc.MultiExpConfig{}); err != nil {
		return Point{}, errors.Wrap(err, "multiexp")
	}
	var out Point
	out.v.FromJacobian(&res)
	return out, nil
}
