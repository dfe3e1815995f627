package main

import (
	"time"
)

// verifyTransfer checks a transaction and reports how long the check took.
func verifyTransfer(transfer TransferData, pp PublicParameters) (bool, []time.Duration) {
	verificationTimes := make([]time.Duration, 1)

	start := time.Now()
	result := pp.Ctx.VerifyTransaction(transfer.Tx)
	verificationTimes[0] = time.Since(start)

	return result, verificationTimes
}
