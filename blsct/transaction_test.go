package blsct

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takakv/blsct/bulletproofs"
	"github.com/takakv/blsct/group"
)

const coin = 10_000_000

func pay(w testWallet, amount uint64, memo string) Destination {
	to := w.address(0, 0)
	return Destination{To: &to, Amount: amount, Memo: memo}
}

// received sums the outputs of tx that w can open.
func received(t *testing.T, c *Context, tx *Transaction, w testWallet) (total uint64, memos []string) {
	for _, out := range tx.Outputs {
		if !IsMine(out, &w.View, &w.Spend, 0, 0) {
			continue
		}
		opening, ok := c.RecoverBLSCTOutput(out, &w.View, &w.Spend, 0, 0)
		require.True(t, ok)
		total += opening.Amount
		memos = append(memos, opening.Memo)
	}
	return total, memos
}

func feeOf(tx *Transaction) uint64 {
	for _, out := range tx.Outputs {
		if out.IsFee() {
			return out.Value
		}
	}
	return 0
}

func TestCreateTransaction(t *testing.T) {
	c := testContext(t)
	alice := newWallet(t, "alice")
	bob := newWallet(t, "bob")
	inputs := []SpendableOutput{alice.fund(t, c, coin, bulletproofs.DefaultToken)}
	perComponent := c.Config().FeePerComponent

	t.Run("FeeOnTop", func(tt *testing.T) {
		opts := DefaultTxOptions()
		opts.SubtractFee = false
		tx, err := c.CreateTransaction(inputs, []Destination{pay(bob, coin/2, "rent")}, &alice.View, &alice.Spend, opts)
		require.NoError(tt, err)

		fee := perComponent * (1 + 2 + 1)
		assert.Equal(tt, fee, tx.Fee)
		assert.Equal(tt, fee, feeOf(tx))
		assert.Equal(tt, int32(TxVersion|BLSCTVersionFlag), tx.Version)
		require.Len(tt, tx.Inputs, 1)
		require.Len(tt, tx.Outputs, 3)

		got, memos := received(tt, c, tx, bob)
		assert.Equal(tt, uint64(coin/2), got)
		assert.Equal(tt, []string{"rent"}, memos)

		change, memos := received(tt, c, tx, alice)
		assert.Equal(tt, coin-coin/2-fee, change)
		assert.Equal(tt, []string{changeMemo}, memos)

		assert.True(tt, c.VerifyTransaction(tx))
	})

	t.Run("SubtractFee", func(tt *testing.T) {
		tx, err := c.CreateTransaction(inputs, []Destination{pay(bob, coin/2, "")}, &alice.View, &alice.Spend, DefaultTxOptions())
		require.NoError(tt, err)

		got, _ := received(tt, c, tx, bob)
		assert.Equal(tt, coin/2-tx.Fee, got)
		change, _ := received(tt, c, tx, alice)
		assert.Equal(tt, uint64(coin-coin/2), change)
		assert.True(tt, c.VerifyTransaction(tx))
	})

	t.Run("AggregationFee", func(tt *testing.T) {
		opts := DefaultTxOptions()
		opts.AggFee = 1000
		tx, err := c.CreateTransaction(inputs, []Destination{pay(bob, coin/2, "")}, &alice.View, &alice.Spend, opts)
		require.NoError(tt, err)
		assert.Equal(tt, perComponent*4+1000, feeOf(tx))
		assert.True(tt, c.VerifyTransaction(tx))
	})

	t.Run("PlainDestination", func(tt *testing.T) {
		dests := []Destination{
			pay(bob, coin/4, ""),
			{Script: []byte{0x76, 0xa9}, Amount: 1000, Memo: "public"},
		}
		tx, err := c.CreateTransaction(inputs, dests, &alice.View, &alice.Spend, DefaultTxOptions())
		require.NoError(tt, err)
		assert.Equal(tt, "public", tx.Memo)
		assert.Equal(tt, uint64(1000), tx.Outputs[1].Value)
		assert.False(tt, tx.Outputs[1].Ek.IsIdentity())
		assert.True(tt, c.VerifyTransaction(tx))
	})
}

func TestInputSelection(t *testing.T) {
	c := testContext(t)
	alice := newWallet(t, "alice")
	bob := newWallet(t, "bob")

	inputs := []SpendableOutput{
		bob.fund(t, c, coin, bulletproofs.DefaultToken),
		alice.fund(t, c, coin, testToken),
		alice.fund(t, c, coin/2, bulletproofs.DefaultToken),
		alice.fund(t, c, coin/2, bulletproofs.DefaultToken),
		alice.fund(t, c, coin/2, bulletproofs.DefaultToken),
	}
	tx, err := c.CreateTransaction(inputs, []Destination{pay(bob, coin*3/4, "")}, &alice.View, &alice.Spend, DefaultTxOptions())
	require.NoError(t, err)
	require.Len(t, tx.Inputs, 2)
	assert.Equal(t, inputs[2].TxID, tx.Inputs[0].PrevTxID)
	assert.Equal(t, inputs[3].TxID, tx.Inputs[1].PrevTxID)
	assert.True(t, c.VerifyTransaction(tx))

	_, err = c.CreateTransaction(inputs, []Destination{pay(bob, 2*coin, "")}, &alice.View, &alice.Spend, DefaultTxOptions())
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	plain := append([]SpendableOutput{{Output: feeOutput(5)}}, inputs...)
	_, err = c.CreateTransaction(plain, []Destination{pay(bob, 1, "")}, &alice.View, &alice.Spend, DefaultTxOptions())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateTransactionErrors(t *testing.T) {
	c := testContext(t)
	alice := newWallet(t, "alice")
	bob := newWallet(t, "bob")
	inputs := []SpendableOutput{alice.fund(t, c, coin, bulletproofs.DefaultToken)}
	create := func(dests []Destination, opts TxOptions) error {
		_, err := c.CreateTransaction(inputs, dests, &alice.View, &alice.Spend, opts)
		return err
	}

	assert.ErrorIs(t, create(nil, DefaultTxOptions()), ErrInvalidInput)

	wrongToken := pay(bob, 1, "")
	wrongToken.Token = &testToken
	assert.ErrorIs(t, create([]Destination{wrongToken}, DefaultTxOptions()), ErrInvalidInput)

	// the fee does not fit in the first destination
	assert.ErrorIs(t, create([]Destination{pay(bob, 10, "")}, DefaultTxOptions()), ErrInvalidInput)

	both := pay(bob, coin/2, "")
	both.Script = []byte{0x51}
	assert.ErrorIs(t, create([]Destination{both}, DefaultTxOptions()), ErrInvalidInput)

	tokenOpts := DefaultTxOptions()
	tokenOpts.Token = testToken
	assert.ErrorIs(t, create([]Destination{{Script: []byte{0x51}, Amount: 5}}, tokenOpts), ErrInvalidInput)
	tokenOpts.AggFee = 1
	assert.ErrorIs(t, create([]Destination{pay(bob, 1, "")}, tokenOpts), ErrInvalidInput)

	overflow := []Destination{pay(bob, ^uint64(0), ""), pay(bob, 1, "")}
	assert.ErrorIs(t, create(overflow, DefaultTxOptions()), ErrInvalidInput)
}

func TestTokenTransaction(t *testing.T) {
	c := testContext(t)
	alice := newWallet(t, "alice")
	bob := newWallet(t, "bob")
	inputs := []SpendableOutput{alice.fund(t, c, 100, testToken)}

	opts := DefaultTxOptions()
	opts.Token = testToken
	tx, err := c.CreateTransaction(inputs, []Destination{pay(bob, 60, "")}, &alice.View, &alice.Spend, opts)
	require.NoError(t, err)
	assert.Zero(t, tx.Fee)
	for _, out := range tx.Outputs {
		if out.IsCT() {
			assert.Equal(t, testToken, out.Token)
		}
	}

	got, _ := received(t, c, tx, bob)
	assert.Equal(t, uint64(60), got)
	change, _ := received(t, c, tx, alice)
	assert.Equal(t, uint64(40), change)
	assert.True(t, c.VerifyTransaction(tx))
}

func TestMintTransaction(t *testing.T) {
	c := testContext(t)
	alice := newWallet(t, "alice")
	bob := newWallet(t, "bob")

	dest := pay(bob, 500, "minted")
	dest.VData = (&VData{Action: ActionMint}).AppendBinary(nil)
	opts := DefaultTxOptions()
	opts.Token = testToken
	opts.SubtractFee = false

	tx, err := c.CreateTransaction(nil, []Destination{dest}, &alice.View, &alice.Spend, opts)
	require.NoError(t, err)
	assert.Empty(t, tx.Inputs)
	// destination and fee output, no change
	require.Len(t, tx.Outputs, 2)
	assert.Zero(t, feeOf(tx))

	got, memos := received(t, c, tx, bob)
	assert.Equal(t, uint64(500), got)
	assert.Equal(t, []string{"minted"}, memos)
}

func TestVerifyTransactionTampering(t *testing.T) {
	c := testContext(t)
	alice := newWallet(t, "alice")
	bob := newWallet(t, "bob")
	inputs := []SpendableOutput{alice.fund(t, c, coin, bulletproofs.DefaultToken)}

	build := func() *Transaction {
		tx, err := c.CreateTransaction(inputs, []Destination{pay(bob, coin/2, "")}, &alice.View, &alice.Spend, DefaultTxOptions())
		require.NoError(t, err)
		require.True(t, c.VerifyTransaction(tx))
		return tx
	}

	t.Run("Fee", func(tt *testing.T) {
		tx := build()
		for _, out := range tx.Outputs {
			if out.IsFee() {
				out.Value++
			}
		}
		assert.False(tt, c.VerifyTransaction(tx))
	})

	t.Run("DroppedOutput", func(tt *testing.T) {
		tx := build()
		tx.Outputs = tx.Outputs[1:]
		assert.False(tt, c.VerifyTransaction(tx))
	})

	t.Run("SwappedBalanceSig", func(tt *testing.T) {
		tx := build()
		other := build()
		tx.BalanceSig = other.BalanceSig
		assert.False(tt, c.VerifyTransaction(tx))
	})

	t.Run("Sequence", func(tt *testing.T) {
		tx := build()
		tx.Inputs[0].Sequence = 0
		assert.False(tt, c.VerifyTransaction(tx))
	})

	t.Run("MissingPrevout", func(tt *testing.T) {
		tx := build()
		tx.Inputs[0].Prev = nil
		assert.False(tt, c.VerifyTransaction(tx))
	})

	t.Run("Proof", func(tt *testing.T) {
		tx := build()
		var one group.Scalar
		one.SetUint64(1)
		tx.Outputs[0].Proof.Taux.Add(&tx.Outputs[0].Proof.Taux, &one)
		assert.False(tt, c.VerifyTransaction(tx))
	})
}

func TestCombineTransactions(t *testing.T) {
	c := testContext(t)
	alice := newWallet(t, "alice")
	bob := newWallet(t, "bob")
	carol := newWallet(t, "carol")

	tx1, err := c.CreateTransaction([]SpendableOutput{alice.fund(t, c, coin, bulletproofs.DefaultToken)},
		[]Destination{pay(carol, coin/2, "")}, &alice.View, &alice.Spend, DefaultTxOptions())
	require.NoError(t, err)
	tx2, err := c.CreateTransaction([]SpendableOutput{bob.fund(t, c, coin, bulletproofs.DefaultToken)},
		[]Destination{pay(carol, coin/4, "")}, &bob.View, &bob.Spend, DefaultTxOptions())
	require.NoError(t, err)

	combined, err := CombineTransactions(tx1, tx2)
	require.NoError(t, err)
	assert.Len(t, combined.Inputs, 2)
	// two destinations, two change outputs, one fee output
	assert.Len(t, combined.Outputs, 5)
	assert.Equal(t, tx1.Fee+tx2.Fee, feeOf(combined))
	assert.True(t, combined.Outputs[4].IsFee())
	assert.True(t, c.VerifyTransaction(combined))

	got, _ := received(t, c, combined, carol)
	assert.Equal(t, coin/2-tx1.Fee+coin/4-tx2.Fee, got)

	_, err = CombineTransactions()
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestCreateTransactionOverflow(t *testing.T) {
	c := testContext(t)
	alice := newWallet(t, "alice")
	bob := newWallet(t, "bob")
	inputs := []SpendableOutput{alice.fund(t, c, 6_000_000, bulletproofs.DefaultToken)}
	create := func(amount uint64, opts TxOptions) error {
		_, err := c.CreateTransaction(inputs, []Destination{pay(bob, amount, "")}, &alice.View, &alice.Spend, opts)
		return err
	}

	extra := DefaultTxOptions()
	extra.ExtraIn = math.MaxUint64 - 4_000_000
	assert.ErrorIs(t, create(8_000_000, extra), ErrInvalidInput)

	onTop := DefaultTxOptions()
	onTop.SubtractFee = false
	onTop.AggFee = math.MaxUint64 - 1000
	assert.ErrorIs(t, create(1_000_000, onTop), ErrInvalidInput)

	subtracted := DefaultTxOptions()
	subtracted.AggFee = math.MaxUint64 - 1000
	assert.ErrorIs(t, create(1_000_000, subtracted), ErrInvalidInput)

	// within range the same options still balance
	extra.ExtraIn = 1_000_000
	tx, err := c.CreateTransaction(inputs, []Destination{pay(bob, 4_000_000, "")}, &alice.View, &alice.Spend, extra)
	require.NoError(t, err)
	change, _ := received(t, c, tx, alice)
	assert.Equal(t, uint64(2_000_000), change)
	assert.True(t, c.VerifyTransaction(tx))
}

// decodeTransaction rebuilds tx from the wire encodings of its outputs and
// the outputs its inputs spend.
func decodeTransaction(t *testing.T, tx *Transaction) *Transaction {
	ret := *tx
	ret.Inputs = make([]Input, len(tx.Inputs))
	for i, in := range tx.Inputs {
		in.Prev = roundTrip(t, in.Prev)
		ret.Inputs[i] = in
	}
	ret.Outputs = make([]*Output, len(tx.Outputs))
	for i, out := range tx.Outputs {
		ret.Outputs[i] = roundTrip(t, out)
	}
	return &ret
}

func TestExtraKeyTransaction(t *testing.T) {
	c := testContext(t)
	alice := newWallet(t, "alice")
	bob := newWallet(t, "bob")
	inputs := []SpendableOutput{alice.fund(t, c, coin, bulletproofs.DefaultToken)}
	extra, err := group.RandomScalar()
	require.NoError(t, err)

	dest := pay(bob, coin/2, "")
	dest.ExtraKey = &extra
	plain := Destination{Script: []byte{0x51}, Amount: 1000, ExtraKey: &extra}
	tx, err := c.CreateTransaction(inputs, []Destination{dest, plain}, &alice.View, &alice.Spend, DefaultTxOptions())
	require.NoError(t, err)
	require.True(t, c.VerifyTransaction(tx))

	decoded := decodeTransaction(t, tx)
	var pk group.Point
	pk.BaseMul(&extra)
	assert.True(t, decoded.Outputs[0].ExtraPk.Equal(&pk))
	assert.True(t, decoded.Outputs[1].ExtraPk.Equal(&pk))
	assert.True(t, c.VerifyTransaction(decoded))

	// stripping the extra key leaves its signature unaccounted for
	decoded.Outputs[0].ExtraPk = group.Point{}
	assert.False(t, c.VerifyTransaction(decoded))
}
