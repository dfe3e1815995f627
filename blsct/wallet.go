package blsct

import (
	"github.com/takakv/blsct/group"
	"github.com/takakv/blsct/keys"
)

// DeriveMasterKeys derives the view, spend and blinding keys of the wallet
// seeded by seed.
func DeriveMasterKeys(seed []byte) (keys.MasterKeys, error) {
	return keys.DeriveMasterKeys(seed)
}

// DerivePublicKeys returns the public keys of subaddress (account, index).
func DerivePublicKeys(vk, sk *group.Scalar, account, index uint64) keys.SubAddress {
	return keys.DerivePublicKeys(vk, sk, account, index)
}
