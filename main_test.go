package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/takakv/blsct/blsct"
	"github.com/takakv/blsct/bulletproofs"
)

func generateAndMarshal(t *testing.T, pp PublicParameters) ([]byte, *Wallet) {
	sender, err := NewWallet([]byte("sender"))
	require.NoError(t, err)
	recipient, err := NewWallet([]byte("recipient"))
	require.NoError(t, err)
	require.NoError(t, sender.Fund(pp, bulletproofs.DefaultToken))

	to, err := blsct.ParseAddress(recipient.Address(0, 0))
	require.NoError(t, err)
	transfer, err := sender.Pay(pp, to, 2*pp.fundingAmount, "test")
	require.NoError(t, err)

	verify, _ := verifyTransfer(transfer, pp)
	require.True(t, verify, "failed to verify generated data")

	jsonData, err := json.Marshal(transfer)
	require.NoError(t, err)
	return jsonData, recipient
}

func unmarshalAndVerify(b []byte, pp PublicParameters) (TransferData, error) {
	transfer, err := TransferUnmarshalJSON(b)
	if err != nil {
		return TransferData{}, err
	}
	if verify, _ := verifyTransfer(transfer, pp); !verify {
		return TransferData{}, assert.AnError
	}
	return transfer, nil
}

func TestTransfer(t *testing.T) {
	pp, err := setup(zaptest.NewLogger(t))
	require.NoError(t, err)

	data, recipient := generateAndMarshal(t, pp)
	transfer, err := unmarshalAndVerify(data, pp)
	require.NoError(t, err)
	assert.Equal(t, 2*pp.fundingAmount, recipient.Scan(pp, transfer.Tx))

	var tmp transactionJSON
	require.NoError(t, json.Unmarshal(data, &tmp))
	tmp.Fee++
	tmp.BalanceSig = tmp.TxSig
	tampered, err := json.Marshal(tmp)
	require.NoError(t, err)
	_, err = unmarshalAndVerify(tampered, pp)
	assert.Error(t, err)

	_, err = TransferUnmarshalJSON([]byte(`{"vout":["zz"]}`))
	assert.Error(t, err)
}
