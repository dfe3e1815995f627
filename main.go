package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/takakv/blsct/blsct"
	"github.com/takakv/blsct/bulletproofs"
)

type PublicParameters struct {
	// Generators and fee settings shared by every wallet.
	Ctx *blsct.Context
	// Amount each funding output carries.
	fundingAmount uint64
	// Number of funding outputs per sender.
	fundingOutputs int
}

func setup(logger *zap.Logger) (PublicParameters, error) {
	// Enough for a payment plus the fee, with change.
	const fundingAmount uint64 = 5_000_000
	const fundingOutputs = 3

	ctx, err := blsct.NewContext(blsct.DefaultConfig(), logger)
	if err != nil {
		return PublicParameters{}, err
	}

	var pp PublicParameters
	pp.Ctx = ctx
	pp.fundingAmount = fundingAmount
	pp.fundingOutputs = fundingOutputs
	return pp, nil
}

func main() {
	logger := zap.NewNop()
	if os.Getenv("BLSCT_DEBUG") != "" {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	pp, err := setup(logger)
	if err != nil {
		fmt.Println("setup:", err)
		os.Exit(1)
	}

	sender, err := NewWallet([]byte("sender seed"))
	if err != nil {
		fmt.Println("sender wallet:", err)
		os.Exit(1)
	}
	recipient, err := NewWallet([]byte("recipient seed"))
	if err != nil {
		fmt.Println("recipient wallet:", err)
		os.Exit(1)
	}
	fmt.Println("Recipient address:", recipient.Address(0, 0))

	if err = sender.Fund(pp, bulletproofs.DefaultToken); err != nil {
		fmt.Println("funding:", err)
		os.Exit(1)
	}

	fmt.Println("Transaction creation")
	to, err := blsct.ParseAddress(recipient.Address(0, 0))
	if err != nil {
		fmt.Println("address:", err)
		os.Exit(1)
	}
	transfer, err := sender.Pay(pp, to, 7_000_000, "invoice 42")
	if err != nil {
		fmt.Println("transaction:", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("Transaction verification")
	verify, times := verifyTransfer(transfer, pp)
	if verify {
		fmt.Println("Verify time:", times[0])
	}

	received := recipient.Scan(pp, transfer.Tx)
	fmt.Println()
	fmt.Println("Transaction is correctly formed:", verify)
	fmt.Println("Recipient received:", received)
}

