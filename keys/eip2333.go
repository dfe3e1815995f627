/*
Package keys derives BLS secret keys as in EIP-2333 and builds the wallet key
tree and subaddresses on top of them.

https://eips.ethereum.org/EIPS/eip-2333
*/
package keys

import (
	"crypto/sha256"
	"io"
	"math/big"

	"github.com/ing-bank/zkrp/util/bn"
	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"

	"github.com/takakv/blsct/group"
)

const (
	// Hardened is ORed into every index of the wallet tree.
	Hardened = 0x80000000

	keySize      = 32
	lamportLeafs = 255
	okmLength    = 48
	keyGenSalt   = "BLS-SIG-KEYGEN-SALT-"
)

var (
	ErrInvalidInput    = errors.New("invalid key derivation input")
	ErrSeedTooShort    = errors.Wrap(ErrInvalidInput, "seed must be at least 32 bytes")
	ErrParentKeyLength = errors.Wrap(ErrInvalidInput, "parent key must be at most 32 bytes")
	ErrIndexRange      = errors.Wrap(ErrInvalidInput, "index must be below 2^32")
	ErrZeroSecretKey   = errors.New("derived secret key is zero")
)

// ikmToLamportSK expands ikm into 255 32-byte lamport leaves.
func ikmToLamportSK(ikm, salt []byte) ([][]byte, error) {
	prk := hkdf.Extract(sha256.New, ikm, salt)
	okm := make([]byte, lamportLeafs*keySize)
	if _, err := io.ReadFull(hkdf.Expand(sha256.New, prk, nil), okm); err != nil {
		return nil, errors.Wrap(err, "expand lamport key")
	}
	leafs := make([][]byte, lamportLeafs)
	for i := range leafs {
		leafs[i] = okm[i*keySize : (i+1)*keySize]
	}
	return leafs, nil
}

// parentToLamportPK returns the compressed lamport public key of parentSK
// and its bitwise complement, both keyed by index.
func parentToLamportPK(parentSK []byte, index uint32) ([]byte, error) {
	salt := []byte{byte(index >> 24), byte(index >> 16), byte(index >> 8), byte(index)}

	lamport0, err := ikmToLamportSK(parentSK, salt)
	if err != nil {
		return nil, err
	}
	notIkm := make([]byte, len(parentSK))
	for i, b := range parentSK {
		notIkm[i] = ^b
	}
	lamport1, err := ikmToLamportSK(notIkm, salt)
	if err != nil {
		return nil, err
	}

	h := sha256.New()
	for _, leaf := range append(lamport0, lamport1...) {
		d := sha256.Sum256(leaf)
		h.Write(d[:])
	}
	return h.Sum(nil), nil
}

/*
hkdfModR is HKDF_mod_r: ikm ‖ 0x00 is expanded to 48 bytes and reduced mod r
under the fixed key generation salt. The salt is never re-hashed, so a zero
result would repeat forever and is reported as ErrZeroSecretKey instead.
*/
func hkdfModR(ikm, keyInfo []byte) ([]byte, error) {
	input := append(append([]byte{}, ikm...), 0)
	info := append(append([]byte{}, keyInfo...), 0, okmLength)

	prk := hkdf.Extract(sha256.New, input, []byte(keyGenSalt))
	okm := make([]byte, okmLength)
	if _, err := io.ReadFull(hkdf.Expand(sha256.New, prk, info), okm); err != nil {
		return nil, errors.Wrap(err, "expand secret key")
	}
	sk := bn.Mod(new(big.Int).SetBytes(okm), group.Order())
	if sk.Sign() == 0 {
		return nil, ErrZeroSecretKey
	}
	return sk.FillBytes(make([]byte, keySize)), nil
}

// DeriveMasterSK derives the root secret key from seed.
func DeriveMasterSK(seed []byte) ([]byte, error) {
	if len(seed) < keySize {
		return nil, ErrSeedTooShort
	}
	return hkdfModR(seed, nil)
}

// DeriveChildSK derives the child of parentSK at index. Shorter parent keys
// are left-padded with zeros.
func DeriveChildSK(parentSK []byte, index uint64) ([]byte, error) {
	if len(parentSK) > keySize {
		return nil, ErrParentKeyLength
	}
	if index >= 1<<32 {
		return nil, errors.Wrapf(ErrIndexRange, "index %d", index)
	}
	padded := make([]byte, keySize)
	copy(padded[keySize-len(parentSK):], parentSK)

	lamportPK, err := parentToLamportPK(padded, uint32(index))
	if err != nil {
		return nil, err
	}
	return hkdfModR(lamportPK, nil)
}

// DeriveChildSKMultiple walks path from parentSK.
func DeriveChildSKMultiple(parentSK []byte, path ...uint64) ([]byte, error) {
	key := parentSK
	for _, index := range path {
		var err error
		if key, err = DeriveChildSK(key, index); err != nil {
			return nil, err
		}
	}
	return key, nil
}
