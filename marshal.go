package main

import (
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/takakv/blsct/blsct"
)

type inputJSON struct {
	PrevTxID string `json:"txid"`
	Vout     uint32 `json:"vout"`
	Sequence uint32 `json:"sequence"`
	Prev     string `json:"prevout"`
}

// Outputs travel in their wire encoding; per-output signatures are already
// folded into the transaction signature.
type transactionJSON struct {
	Version    int32       `json:"version"`
	Time       uint32      `json:"time"`
	Inputs     []inputJSON `json:"vin"`
	Outputs    []string    `json:"vout"`
	Memo       string      `json:"memo,omitempty"`
	Fee        uint64      `json:"fee"`
	TxSig      string      `json:"txSig"`
	BalanceSig string      `json:"balanceSig"`
}

func outputHex(o *blsct.Output) string {
	return hex.EncodeToString(o.AppendBinary(nil))
}

func parseOutput(s string) (*blsct.Output, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	o := new(blsct.Output)
	if err = o.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return o, nil
}

func (t TransferData) MarshalJSON() ([]byte, error) {
	tx := t.Tx
	tmp := transactionJSON{
		Version:    tx.Version,
		Time:       tx.Time,
		Memo:       tx.Memo,
		Fee:        tx.Fee,
		TxSig:      hex.EncodeToString(tx.TxSig),
		BalanceSig: hex.EncodeToString(tx.BalanceSig),
	}
	for i := range tx.Inputs {
		in := &tx.Inputs[i]
		if in.Prev == nil {
			return nil, errors.Errorf("input %s without previous output", in)
		}
		tmp.Inputs = append(tmp.Inputs, inputJSON{
			PrevTxID: hex.EncodeToString(in.PrevTxID[:]),
			Vout:     in.Vout,
			Sequence: in.Sequence,
			Prev:     outputHex(in.Prev),
		})
	}
	for _, out := range tx.Outputs {
		tmp.Outputs = append(tmp.Outputs, outputHex(out))
	}
	return json.Marshal(tmp)
}

func TransferUnmarshalJSON(b []byte) (TransferData, error) {
	tmp := transactionJSON{}
	err := json.Unmarshal(b, &tmp)
	if err != nil {
		return TransferData{}, err
	}

	tx := &blsct.Transaction{
		Version: tmp.Version,
		Time:    tmp.Time,
		Memo:    tmp.Memo,
		Fee:     tmp.Fee,
	}
	if tx.TxSig, err = hex.DecodeString(tmp.TxSig); err != nil {
		return TransferData{}, errors.Wrap(err, "txSig")
	}
	if tx.BalanceSig, err = hex.DecodeString(tmp.BalanceSig); err != nil {
		return TransferData{}, errors.Wrap(err, "balanceSig")
	}

	for i, in := range tmp.Inputs {
		txIn := blsct.Input{Vout: in.Vout, Sequence: in.Sequence}
		id, err := hex.DecodeString(in.PrevTxID)
		if err != nil || len(id) != len(txIn.PrevTxID) {
			return TransferData{}, errors.Errorf("input %d: bad txid", i)
		}
		copy(txIn.PrevTxID[:], id)
		if txIn.Prev, err = parseOutput(in.Prev); err != nil {
			return TransferData{}, errors.Wrapf(err, "input %d", i)
		}
		tx.Inputs = append(tx.Inputs, txIn)
	}
	for i, s := range tmp.Outputs {
		out, err := parseOutput(s)
		if err != nil {
			return TransferData{}, errors.Wrapf(err, "output %d", i)
		}
		tx.Outputs = append(tx.Outputs, out)
	}
	return TransferData{Tx: tx}, nil
}
