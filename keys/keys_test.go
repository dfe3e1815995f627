package keys

import (
	"bytes"
	"crypto/sha256"
	"io"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/hkdf"

	"github.com/takakv/blsct/group"
	"github.com/takakv/blsct/transcript"
)

func testSeed(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func TestDeriveMasterSK(t *testing.T) {
	_, err := DeriveMasterSK(make([]byte, 31))
	assert.ErrorIs(t, err, ErrSeedTooShort)
	assert.ErrorIs(t, err, ErrInvalidInput)

	k1, err := DeriveMasterSK(testSeed(1))
	require.NoError(t, err)
	k2, err := DeriveMasterSK(testSeed(1))
	require.NoError(t, err)
	k3, err := DeriveMasterSK(testSeed(2))
	require.NoError(t, err)

	assert.Len(t, k1, 32)
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Equal(t, -1, new(big.Int).SetBytes(k1).Cmp(group.Order()))
}

func TestHKDFModR(t *testing.T) {
	ikm := []byte("input key material")
	got, err := hkdfModR(ikm, nil)
	require.NoError(t, err)

	okm := make([]byte, 48)
	r := hkdf.New(sha256.New, append(append([]byte{}, ikm...), 0), []byte("BLS-SIG-KEYGEN-SALT-"), []byte{0, 48})
	_, err = io.ReadFull(r, okm)
	require.NoError(t, err)
	want := new(big.Int).Mod(new(big.Int).SetBytes(okm), group.Order())

	assert.Equal(t, want.FillBytes(make([]byte, 32)), got)

	withInfo, err := hkdfModR(ikm, []byte("info"))
	require.NoError(t, err)
	assert.NotEqual(t, got, withInfo)
}

func TestDeriveChildSK(t *testing.T) {
	parent, err := DeriveMasterSK(testSeed(3))
	require.NoError(t, err)

	_, err = DeriveChildSK(make([]byte, 33), 0)
	assert.ErrorIs(t, err, ErrParentKeyLength)
	_, err = DeriveChildSK(parent, 1<<32)
	assert.ErrorIs(t, err, ErrIndexRange)

	c0, err := DeriveChildSK(parent, 0)
	require.NoError(t, err)
	c1, err := DeriveChildSK(parent, 1)
	require.NoError(t, err)
	top, err := DeriveChildSK(parent, 1<<32-1)
	require.NoError(t, err)
	assert.NotEqual(t, c0, c1)
	assert.NotEqual(t, c1, top)

	short := []byte{0x01, 0x02}
	padded := append(make([]byte, 30), short...)
	a, err := DeriveChildSK(short, Hardened)
	require.NoError(t, err)
	b, err := DeriveChildSK(padded, Hardened)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParentToLamportPK(t *testing.T) {
	sk := testSeed(4)
	pk0, err := parentToLamportPK(sk, 0)
	require.NoError(t, err)
	pk1, err := parentToLamportPK(sk, 1)
	require.NoError(t, err)
	assert.Len(t, pk0, 32)
	assert.NotEqual(t, pk0, pk1)

	leafs, err := ikmToLamportSK(sk, []byte{0, 0, 0, 0})
	require.NoError(t, err)
	assert.Len(t, leafs, 255)
	assert.NotEqual(t, leafs[0], leafs[254])
}

func TestDeriveChildSKMultiple(t *testing.T) {
	root := testSeed(5)
	path := []uint64{Hardened | 130, Hardened, 7}

	got, err := DeriveChildSKMultiple(root, path...)
	require.NoError(t, err)

	want := root
	for _, i := range path {
		want, err = DeriveChildSK(want, i)
		require.NoError(t, err)
	}
	assert.Equal(t, want, got)

	_, err = DeriveChildSKMultiple(root, 0, 1<<33)
	assert.ErrorIs(t, err, ErrIndexRange)
}

func TestDeriveMasterKeys(t *testing.T) {
	seed := []byte("a wallet seed that is long enough")
	mk, err := DeriveMasterKeys(seed)
	require.NoError(t, err)
	again, err := DeriveMasterKeys(seed)
	require.NoError(t, err)
	assert.True(t, mk.View.Equal(&again.View))
	assert.True(t, mk.Spend.Equal(&again.Spend))

	assert.False(t, mk.View.Equal(&mk.Spend))
	assert.False(t, mk.Spend.Equal(&mk.Blinding))

	// view and spend sit under transaction = master/130'/0'
	h := transcript.New().Add(seed).Hash()
	master, err := DeriveMasterSK(h[:])
	require.NoError(t, err)
	tx, err := DeriveChildSKMultiple(master, Hardened|130, Hardened)
	require.NoError(t, err)
	spend, err := DeriveChildSK(tx, Hardened|1)
	require.NoError(t, err)
	assert.Equal(t, spend, mk.Spend.Bytes())
}

func TestSubAddress(t *testing.T) {
	mk, err := DeriveMasterKeys([]byte("subaddress test seed, 32+ bytes long"))
	require.NoError(t, err)

	sub := DerivePublicKeys(&mk.View, &mk.Spend, 0, 0)
	other := DerivePublicKeys(&mk.View, &mk.Spend, 0, 1)
	assert.False(t, sub.SpendPk.Equal(&other.SpendPk))

	var wantView group.Point
	wantView.Mul(&sub.SpendPk, &mk.View)
	assert.True(t, sub.ViewPk.Equal(&wantView))

	for _, ai := range [][2]uint64{{0, 0}, {0, 5}, {^uint64(0), 1}} {
		dest := DerivePublicKeys(&mk.View, &mk.Spend, ai[0], ai[1])

		// sender side
		bk, err := group.RandomScalar()
		require.NoError(t, err)
		var nonce, ok, hG, outSk group.Point
		nonce.Mul(&dest.ViewPk, &bk)
		ok.Mul(&dest.SpendPk, &bk)
		h := group.HashToScalar(&nonce, 0)
		hG.BaseMul(&h)
		outSk.Add(&dest.SpendPk, &hG)

		// receiver side
		key := RecoverSpendKey(&ok, &mk.View, &mk.Spend, ai[0], ai[1])
		var pk group.Point
		pk.BaseMul(&key)
		assert.True(t, pk.Equal(&outSk), "account %d index %d", ai[0], ai[1])

		wrong := RecoverSpendKey(&ok, &mk.View, &mk.Spend, ai[0], ai[1]+1)
		pk.BaseMul(&wrong)
		assert.False(t, pk.Equal(&outSk))
	}
}
