package group

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/pkg/errors"
)

// ErrNonCanonical is returned when decoding a scalar encoding that is not
// reduced modulo r.
var ErrNonCanonical = errors.New("non-canonical scalar encoding")

// Scalar is an element of Fr. The zero value is 0.
type Scalar struct {
	v fr.Element
}

// NewScalar returns the scalar u.
func NewScalar(u uint64) Scalar {
	var s Scalar
	s.v.SetUint64(u)
	return s
}

// One returns the multiplicative identity.
func One() Scalar {
	var s Scalar
	s.v.SetOne()
	return s
}

// RandomScalar samples a uniformly random non-zero scalar.
func RandomScalar() (Scalar, error) {
	var s Scalar
	for s.v.IsZero() {
		if _, err := s.v.SetRandom(); err != nil {
			return Scalar{}, errors.Wrap(err, "sample scalar")
		}
	}
	return s, nil
}

// Set sets the receiver to a, and returns it.
func (s *Scalar) Set(a *Scalar) *Scalar {
	s.v.Set(&a.v)
	return s
}

// SetUint64 sets the receiver to u, and returns it.
func (s *Scalar) SetUint64(u uint64) *Scalar {
	s.v.SetUint64(u)
	return s
}

// SetInt64 sets the receiver to i mod r, and returns it.
func (s *Scalar) SetInt64(i int64) *Scalar {
	s.v.SetInt64(i)
	return s
}

// SetBigInt sets the receiver to b mod r, and returns it.
func (s *Scalar) SetBigInt(b *big.Int) *Scalar {
	s.v.SetBigInt(b)
	return s
}

// Add sets the receiver to a + b, and returns it.
func (s *Scalar) Add(a, b *Scalar) *Scalar {
	s.v.Add(&a.v, &b.v)
	return s
}

// Sub sets the receiver to a - b, and returns it.
func (s *Scalar) Sub(a, b *Scalar) *Scalar {
	s.v.Sub(&a.v, &b.v)
	return s
}

// Mul sets the receiver to a * b, and returns it.
func (s *Scalar) Mul(a, b *Scalar) *Scalar {
	s.v.Mul(&a.v, &b.v)
	return s
}

// Neg sets the receiver to -a, and returns it.
func (s *Scalar) Neg(a *Scalar) *Scalar {
	s.v.Neg(&a.v)
	return s
}

// Inverse sets the receiver to a^-1, and returns it. The inverse of zero is zero.
func (s *Scalar) Inverse(a *Scalar) *Scalar {
	s.v.Inverse(&a.v)
	return s
}

// Equal reports whether s == a.
func (s *Scalar) Equal(a *Scalar) bool {
	return s.v.Equal(&a.v)
}

// IsZero reports whether s == 0.
func (s *Scalar) IsZero() bool {
	return s.v.IsZero()
}

// SetBigEndianMod interprets b as a big-endian integer of any length and sets
// the receiver to its residue mod r.
func (s *Scalar) SetBigEndianMod(b []byte) *Scalar {
	s.v.SetBigInt(new(big.Int).SetBytes(b))
	return s
}

// Bytes returns the 32-byte big-endian encoding of s.
func (s *Scalar) Bytes() []byte {
	b := s.v.Bytes()
	return b[:]
}

// SetBytes decodes a canonical 32-byte big-endian encoding.
func (s *Scalar) SetBytes(b []byte) (*Scalar, error) {
	if len(b) != ScalarSize {
		return nil, errors.Errorf("scalar encoding must be %d bytes, got %d", ScalarSize, len(b))
	}
	if err := s.v.SetBytesCanonical(b); err != nil {
		return nil, ErrNonCanonical
	}
	return s, nil
}

// Uint64 returns the low 64 bits of s.
func (s *Scalar) Uint64() uint64 {
	b := s.v.Bytes()
	return binary.BigEndian.Uint64(b[ScalarSize-8:])
}

// BigInt returns s as an integer in [0, r).
func (s *Scalar) BigInt() *big.Int {
	return s.v.BigInt(new(big.Int))
}

func (s *Scalar) String() string {
	return hex.EncodeToString(s.Bytes())
}

func (s *Scalar) MarshalBinary() ([]byte, error) {
	return s.Bytes(), nil
}

func (s *Scalar) UnmarshalBinary(b []byte) error {
	_, err := s.SetBytes(b)
	return err
}

func (s *Scalar) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Scalar) UnmarshalJSON(b []byte) error {
	var h string
	if err := json.Unmarshal(b, &h); err != nil {
		return err
	}
	raw, err := hex.DecodeString(h)
	if err != nil {
		return errors.Wrap(err, "decode scalar hex")
	}
	return s.UnmarshalBinary(raw)
}

// BatchInvert returns the inverses of a using a single field inversion.
// Zero entries map to zero.
func BatchInvert(a []Scalar) []Scalar {
	els := make([]fr.Element, len(a))
	for i := range a {
		els[i] = a[i].v
	}
	inv := fr.BatchInvert(els)
	out := make([]Scalar, len(a))
	for i := range inv {
		out[i].v = inv[i]
	}
	return out
}
