package blsct

import (
	"bytes"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/takakv/blsct/group"
	"github.com/takakv/blsct/keys"
)

var addressPrefix = []byte{0x49, 0x21}

const (
	checksumSize = 4
	addressSize  = 2 + 2*group.PointSize + checksumSize
)

var ErrInvalidAddress = errors.Wrap(ErrInvalidInput, "invalid address")

// KeysToAddress encodes a subaddress as base58(0x49 0x21 ‖ view ‖ spend ‖
// checksum), the checksum being the first four bytes of SHA256d.
func KeysToAddress(sub keys.SubAddress) string {
	payload := make([]byte, 0, addressSize)
	payload = append(payload, addressPrefix...)
	payload = append(payload, sub.ViewPk.Bytes()...)
	payload = append(payload, sub.SpendPk.Bytes()...)
	sum := sha256d(payload)
	return base58.Encode(append(payload, sum[:checksumSize]...))
}

// ParseAddress decodes an address written by KeysToAddress.
func ParseAddress(addr string) (keys.SubAddress, error) {
	var sub keys.SubAddress
	raw, err := base58.Decode(addr)
	if err != nil {
		return sub, errors.Wrap(ErrInvalidAddress, err.Error())
	}
	if len(raw) != addressSize || !bytes.HasPrefix(raw, addressPrefix) {
		return sub, ErrInvalidAddress
	}
	payload, check := raw[:len(raw)-checksumSize], raw[len(raw)-checksumSize:]
	sum := sha256d(payload)
	if !bytes.Equal(sum[:checksumSize], check) {
		return sub, errors.Wrap(ErrInvalidAddress, "checksum mismatch")
	}

	keyBytes := payload[len(addressPrefix):]
	if _, err = sub.ViewPk.SetBytes(keyBytes[:group.PointSize]); err != nil {
		return sub, errors.Wrap(ErrInvalidAddress, err.Error())
	}
	if _, err = sub.SpendPk.SetBytes(keyBytes[group.PointSize:]); err != nil {
		return sub, errors.Wrap(ErrInvalidAddress, err.Error())
	}
	return sub, nil
}
