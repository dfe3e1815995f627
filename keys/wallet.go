package keys

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/takakv/blsct/group"
	"github.com/takakv/blsct/transcript"
)

var subAddressPrefix = []byte("SubAddress\x00")

// Wallet tree indexes, hardened before use.
const (
	purposeIndex     = 130
	transactionIndex = 0
	blindingIndex    = 1
	viewIndex        = 0
	spendIndex       = 1
)

// MasterKeys are the secret scalars of a wallet.
type MasterKeys struct {
	View     group.Scalar
	Spend    group.Scalar
	Blinding group.Scalar
}

// SubAddress is the public half of a (account, index) subaddress.
type SubAddress struct {
	ViewPk  group.Point
	SpendPk group.Point
}

/*
DeriveMasterKeys builds the wallet tree from seed:

	master      = DeriveMasterSK(H(seed))
	purpose     = master/130'
	transaction = purpose/0'
	blinding    = purpose/1'
	view        = transaction/0'
	spend       = transaction/1'
*/
func DeriveMasterKeys(seed []byte) (MasterKeys, error) {
	h := transcript.New().Add(seed).Hash()
	master, err := DeriveMasterSK(h[:])
	if err != nil {
		return MasterKeys{}, err
	}
	purpose, err := DeriveChildSK(master, Hardened|purposeIndex)
	if err != nil {
		return MasterKeys{}, err
	}
	tx, err := DeriveChildSK(purpose, Hardened|transactionIndex)
	if err != nil {
		return MasterKeys{}, err
	}
	blinding, err := DeriveChildSK(purpose, Hardened|blindingIndex)
	if err != nil {
		return MasterKeys{}, err
	}
	view, err := DeriveChildSK(tx, Hardened|viewIndex)
	if err != nil {
		return MasterKeys{}, err
	}
	spend, err := DeriveChildSK(tx, Hardened|spendIndex)
	if err != nil {
		return MasterKeys{}, err
	}

	var keys MasterKeys
	for _, k := range []struct {
		dst *group.Scalar
		raw []byte
	}{{&keys.View, view}, {&keys.Spend, spend}, {&keys.Blinding, blinding}} {
		if _, err = k.dst.SetBytes(k.raw); err != nil {
			return MasterKeys{}, errors.Wrap(err, "decode derived key")
		}
	}
	return keys, nil
}

// SubAddressOffset is the scalar t added to the spend key of the subaddress
// (account, index).
func SubAddressOffset(vk *group.Scalar, account, index uint64) group.Scalar {
	return transcript.New().
		Add(subAddressPrefix).
		Add(vk.Bytes()).
		AddRaw(binary.BigEndian.AppendUint64(nil, account)).
		AddRaw(binary.BigEndian.AppendUint64(nil, index)).
		Challenge()
}

// DerivePublicKeys returns the subaddress (account, index) of the wallet with
// view key vk and spend key sk.
func DerivePublicKeys(vk, sk *group.Scalar, account, index uint64) SubAddress {
	t := SubAddressOffset(vk, account, index)

	var tG, skG group.Point
	tG.BaseMul(&t)
	skG.BaseMul(sk)

	var sub SubAddress
	sub.SpendPk.Add(&tG, &skG)
	sub.ViewPk.Mul(&sub.SpendPk, vk)
	return sub
}

// OutputSecret is H2S(ok·vk, 0), the per-output Diffie-Hellman term.
func OutputSecret(ok *group.Point, vk *group.Scalar) group.Scalar {
	var dh group.Point
	dh.Mul(ok, vk)
	return group.HashToScalar(&dh, 0)
}

// RecoverSpendKey returns the private key of an output whose blinding key is
// ok, received on subaddress (account, index).
func RecoverSpendKey(ok *group.Point, vk, sk *group.Scalar, account, index uint64) group.Scalar {
	t := SubAddressOffset(vk, account, index)
	key := OutputSecret(ok, vk)
	key.Add(&key, sk)
	key.Add(&key, &t)
	return key
}
