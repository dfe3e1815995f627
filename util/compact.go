package util

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

// MaxCompactSize caps lengths read from untrusted input.
const MaxCompactSize = 0x02000000

// ErrNonCanonicalSize is returned for compact sizes not in their shortest form.
var ErrNonCanonicalSize = errors.New("non-canonical compact size")

// AppendCompactSize appends v in the Bitcoin compact size format.
func AppendCompactSize(buf []byte, v uint64) []byte {
	switch {
	case v < 0xfd:
		return append(buf, uint8(v))
	case v <= math.MaxUint16:
		buf = append(buf, 0xfd)
		return binary.LittleEndian.AppendUint16(buf, uint16(v))
	case v <= math.MaxUint32:
		buf = append(buf, 0xfe)
		return binary.LittleEndian.AppendUint32(buf, uint32(v))
	default:
		buf = append(buf, 0xff)
		return binary.LittleEndian.AppendUint64(buf, v)
	}
}

// ReadCompactSize reads a compact size written by AppendCompactSize. Sizes
// above MaxCompactSize are rejected.
func ReadCompactSize(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:1]); err != nil {
		return 0, err
	}

	var v, least uint64
	var err error
	switch b[0] {
	case 0xff:
		_, err = io.ReadFull(r, b[:])
		v, least = binary.LittleEndian.Uint64(b[:]), math.MaxUint32+1
	case 0xfe:
		_, err = io.ReadFull(r, b[:4])
		v, least = uint64(binary.LittleEndian.Uint32(b[:])), math.MaxUint16+1
	case 0xfd:
		_, err = io.ReadFull(r, b[:2])
		v, least = uint64(binary.LittleEndian.Uint16(b[:])), 0xfd
	default:
		v = uint64(b[0])
	}
	if err != nil {
		return 0, err
	}
	if v < least {
		return 0, ErrNonCanonicalSize
	}
	if v > MaxCompactSize {
		return 0, errors.Errorf("compact size %d too large", v)
	}
	return v, nil
}

// AppendVarBytes appends b prefixed with its compact size.
func AppendVarBytes(buf, b []byte) []byte {
	buf = AppendCompactSize(buf, uint64(len(b)))
	return append(buf, b...)
}

// ReadVarBytes reads a compact-size prefixed byte string. The buffer grows
// with the bytes actually read, not with the declared length.
func ReadVarBytes(r io.Reader) ([]byte, error) {
	n, err := ReadCompactSize(r)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err = io.CopyN(&buf, r, int64(n)); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf.Bytes(), nil
}
