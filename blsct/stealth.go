package blsct

import (
	"crypto/sha256"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/ripemd160"

	"github.com/takakv/blsct/bls"
	"github.com/takakv/blsct/bulletproofs"
	"github.com/takakv/blsct/group"
	"github.com/takakv/blsct/keys"
)

// Salts of HashG1Element over the shared nonce.
const (
	spendKeySalt = 0
	gammaSalt    = 100
	memoKeySalt  = 654123
)

// ctScript is the script of every confidential output.
var ctScript = []byte{0x51}

/*
CreateBLSCTOutput builds a confidential output paying amount to dest. The
recipient rebuilds the nonce from Ok with its view key; memo rides in the
range proof when it fits and is encrypted into vData otherwise. The output is
signed with its ephemeral key, and with extraKey when given.
*/
func (c *Context) CreateBLSCTOutput(dest keys.SubAddress, amount uint64, memo string,
	token bulletproofs.TokenID, vData []byte, extraKey *group.Scalar) (*Output, error) {
	bk, err := group.RandomScalar()
	if err != nil {
		return nil, err
	}
	var nonce group.Point
	nonce.Mul(&dest.ViewPk, &bk)

	out := &Output{
		Script: ctScript,
		VData:  vData,
		Token:  token,
		Opening: &Opening{
			Amount: amount,
			Gamma:  group.HashToScalar(&nonce, gammaSalt),
			Memo:   memo,
		},
	}

	proofMemo := memo
	if len(memo) > bulletproofs.MaxMessageSize {
		ct, err := encryptMemo([]byte(memo), group.HashG1Element(&nonce, memoKeySalt))
		if err != nil {
			return nil, errors.Wrap(err, "encrypt memo")
		}
		proofMemo = memoSentinel
		out.VData = append([]byte{encryptedMemoMarker}, ct...)
	}

	if out.Proof, err = c.params.Prove([]uint64{amount}, &nonce, proofMemo, token); err != nil {
		return nil, err
	}

	out.Ek.BaseMul(&bk)
	out.Ok.Mul(&dest.SpendPk, &bk)
	h := group.HashToScalar(&nonce, spendKeySalt)
	var hG group.Point
	hG.BaseMul(&h)
	out.Sk.Add(&dest.SpendPk, &hG)

	V, err := c.params.Commit(amount, &out.Opening.Gamma, token)
	if err != nil {
		return nil, err
	}
	if !V.Equal(&out.Proof.V[0]) {
		return nil, errors.Wrap(ErrConsistency, "commitment does not match range proof")
	}

	if err = signOutput(out, &bk, extraKey); err != nil {
		return nil, err
	}
	return out, nil
}

// signOutput signs the output hash with bk, and with extraKey when given.
// ExtraPk is part of the encoding, so it is set before hashing.
func signOutput(out *Output, bk, extraKey *group.Scalar) error {
	if extraKey != nil {
		out.ExtraPk.BaseMul(extraKey)
	}
	hash := out.Hash()
	var err error
	if out.TxSig, err = bls.SignAugmented(bk, hash[:]); err != nil {
		return errors.Wrap(err, "sign output")
	}
	if extraKey != nil {
		if out.ExtraSig, err = bls.SignAugmented(extraKey, hash[:]); err != nil {
			return errors.Wrap(err, "sign output with extra key")
		}
	}
	return nil
}

/*
RecoverBLSCTOutput opens a confidential output received on subaddress
(account, index). It reports false when the output is not confidential or not
addressed to vk. The spend key is recovered only when sk is given.
*/
func (c *Context) RecoverBLSCTOutput(out *Output, vk, sk *group.Scalar, account, index uint64) (*Opening, bool) {
	if !out.IsCT() {
		return nil, false
	}
	var nonce group.Point
	nonce.Mul(&out.Ok, vk)

	proofs := []bulletproofs.ProofWithIndex{{Proof: out.Proof}}
	data, ok := c.params.Recover(proofs, []group.Point{nonce}, out.Token)
	if !ok || len(data) == 0 {
		return nil, false
	}

	opening := &Opening{
		Amount: data[0].Amount,
		Gamma:  data[0].Gamma,
		Memo:   data[0].Message,
	}
	if opening.Memo == memoSentinel && len(out.VData) > 0 && out.VData[0] == encryptedMemoMarker {
		memo, err := decryptMemo(out.VData[1:], group.HashG1Element(&nonce, memoKeySalt))
		if err != nil {
			c.log.Debug("encrypted memo unreadable", zap.Error(err))
		} else {
			opening.Memo = string(memo)
		}
	}
	if sk != nil {
		key := keys.RecoverSpendKey(&out.Ok, vk, sk, account, index)
		opening.SpendKey = &key
	}
	return opening, true
}

// IsMine reports whether out was sent to subaddress (account, index).
func IsMine(out *Output, vk, sk *group.Scalar, account, index uint64) bool {
	if !out.HasBLSCTKeys() {
		return false
	}
	key := keys.RecoverSpendKey(&out.Ok, vk, sk, account, index)
	var pk group.Point
	pk.BaseMul(&key)
	return pk.Equal(&out.Sk)
}

// RecoverSpendKey returns the private key of out.Sk.
func RecoverSpendKey(out *Output, vk, sk *group.Scalar, account, index uint64) group.Scalar {
	return keys.RecoverSpendKey(&out.Ok, vk, sk, account, index)
}

/*
GetHashId returns the key id of the subaddress out was sent to, computable
with the view key alone: RIPEMD160(SHA256(Sk - H2S(Ok·vk)·G)).
*/
func GetHashId(out *Output, vk *group.Scalar) [ripemd160.Size]byte {
	h := keys.OutputSecret(&out.Ok, vk)
	var hG, spendPk group.Point
	hG.BaseMul(&h)
	spendPk.Sub(&out.Sk, &hG)

	s := sha256.Sum256(spendPk.Bytes())
	r := ripemd160.New()
	r.Write(s[:])
	var id [ripemd160.Size]byte
	copy(id[:], r.Sum(nil))
	return id
}
