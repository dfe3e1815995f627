package main

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/takakv/blsct/blsct"
	"github.com/takakv/blsct/bulletproofs"
	"github.com/takakv/blsct/keys"
)

// TransferData is a transaction as it travels to a verifier.
type TransferData struct {
	Tx *blsct.Transaction // The transaction, inputs carrying the outputs they spend.
}

// Wallet holds the keys of one participant and the outputs it can spend.
type Wallet struct {
	keys  keys.MasterKeys
	utxos []blsct.SpendableOutput
}

func NewWallet(seed []byte) (*Wallet, error) {
	mk, err := blsct.DeriveMasterKeys(seed)
	if err != nil {
		return nil, err
	}
	return &Wallet{keys: mk}, nil
}

func (w *Wallet) Address(account, index uint64) string {
	return blsct.KeysToAddress(blsct.DerivePublicKeys(&w.keys.View, &w.keys.Spend, account, index))
}

// Fund gives the wallet pp.fundingOutputs outputs of pp.fundingAmount, as if
// received in earlier transactions.
func (w *Wallet) Fund(pp PublicParameters, token bulletproofs.TokenID) error {
	self := blsct.DerivePublicKeys(&w.keys.View, &w.keys.Spend, 0, 0)
	for i := 0; i < pp.fundingOutputs; i++ {
		out, err := pp.Ctx.CreateBLSCTOutput(self, pp.fundingAmount, "funding", token, nil, nil)
		if err != nil {
			return err
		}
		var txID [32]byte
		if _, err = rand.Read(txID[:]); err != nil {
			return err
		}
		w.utxos = append(w.utxos, blsct.SpendableOutput{TxID: txID, Output: out})
	}
	return nil
}

func (w *Wallet) Pay(pp PublicParameters, to keys.SubAddress, amount uint64, memo string) (TransferData, error) {
	start := time.Now()

	opts := blsct.DefaultTxOptions()
	opts.SubtractFee = false
	dest := blsct.Destination{To: &to, Amount: amount, Memo: memo}
	tx, err := pp.Ctx.CreateTransaction(w.utxos, []blsct.Destination{dest}, &w.keys.View, &w.keys.Spend, opts)
	if err != nil {
		return TransferData{}, err
	}

	duration := time.Since(start)
	fmt.Println("Prove time:", duration)
	fmt.Println("Inputs:", len(tx.Inputs), "outputs:", len(tx.Outputs), "fee:", tx.Fee)

	return TransferData{Tx: tx}, nil
}

// Scan sums the amounts tx pays to the wallet's main subaddress.
func (w *Wallet) Scan(pp PublicParameters, tx *blsct.Transaction) uint64 {
	var total uint64
	for _, out := range tx.Outputs {
		if !blsct.IsMine(out, &w.keys.View, &w.keys.Spend, 0, 0) {
			continue
		}
		if opening, ok := pp.Ctx.RecoverBLSCTOutput(out, &w.keys.View, &w.keys.Spend, 0, 0); ok {
			total += opening.Amount
		}
	}
	return total
}
