// Package transcript implements the Fiat-Shamir transcript shared by the
// range-proof prover and verifier and by subaddress derivation.
package transcript

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/takakv/blsct/group"
)

// Transcript is an append-only byte accumulator. It is not safe for
// concurrent use; each Prove or Verify pass owns its own instance.
type Transcript struct {
	data []byte
}

func New() *Transcript {
	return &Transcript{}
}

// Add appends a one-byte length followed by chunk. Chunks are field or
// group encodings and always shorter than 256 bytes.
func (t *Transcript) Add(chunk []byte) *Transcript {
	t.data = append(t.data, byte(len(chunk)))
	t.data = append(t.data, chunk...)
	return t
}

// AddRaw appends chunk without a length prefix.
func (t *Transcript) AddRaw(chunk []byte) *Transcript {
	t.data = append(t.data, chunk...)
	return t
}

func (t *Transcript) AddPoint(p *group.Point) *Transcript {
	return t.Add(p.Bytes())
}

func (t *Transcript) AddScalar(s *group.Scalar) *Transcript {
	return t.Add(s.Bytes())
}

// Len returns the number of bytes absorbed since the last reseed.
func (t *Transcript) Len() int {
	return len(t.data)
}

// Hash returns the challenge digest. The accumulator is reseeded with the
// first-pass digest, which is hashed again to produce the result; the
// Merkle-Damgård padding of that second pass then stays in the state so later
// chunks continue after it.
func (t *Transcript) Hash() [32]byte {
	first := sha256.Sum256(t.data)

	t.data = append(t.data[:0], first[:]...)
	second := sha256.Sum256(t.data)

	t.data = append(t.data, mdPadding(len(t.data))...)
	return second
}

// Challenge returns Hash reduced mod r.
func (t *Transcript) Challenge() group.Scalar {
	h := t.Hash()
	var s group.Scalar
	s.SetBigEndianMod(h[:])
	return s
}

// mdPadding returns the SHA-256 padding for a message of n bytes: 0x80, zeros
// up to 56 mod 64, then the bit length as a big-endian uint64.
func mdPadding(n int) []byte {
	padLen := 64 - (n+9)%64
	if padLen == 64 {
		padLen = 0
	}
	pad := make([]byte, 1+padLen, 1+padLen+8)
	pad[0] = 0x80
	return binary.BigEndian.AppendUint64(pad, uint64(n)*8)
}
