/*
 * Copyright (C) 2019 ING BANK N.V.
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

/*
This file contains the implementation of the Bulletproofs scheme proposed in the paper:
Bulletproofs: Short Proofs for Confidential Transactions and More
Benedikt Bunz, Jonathan Bootle, Dan Boneh, Andrew Poelstra, Pieter Wuille and Greg Maxwell
IEEE S&P 2018

The range proofs are aggregated over up to MaxM 64-bit values and carry a hidden
message in their blinding factors, so that the holder of the output nonce can
recover both the amount and the message.
*/

package bulletproofs

import (
	"encoding/binary"
	"encoding/hex"
	"strconv"

	"github.com/pkg/errors"
)

var SEEDH = "BulletproofsDoesNotNeedTrustedSetupH"

const (
	// N is the bit-length of each proven value.
	N = 64
	// LogN is log2(N).
	LogN = 6
	// MaxM is the largest number of values aggregated in one proof.
	MaxM = 16
	// LogMaxM is log2(MaxM).
	LogMaxM = 4
	// MaxMN is the number of Gi/Hi generators.
	MaxMN = MaxM * N
	// MaxMessageSize is the longest message a proof can carry.
	MaxMessageSize = 54
	// messageSplit is the number of message bytes hidden in alpha; the rest go into tau1.
	messageSplit = 23

	// DefaultMaxAttempts bounds the number of times Prove restarts.
	DefaultMaxAttempts = 100
)

// Salts for the nonce-derived blinding scalars.
const (
	alphaSalt = 1
	rhoSalt   = 2
	tau1Salt  = 3
	tau2Salt  = 4
	gammaSalt = 100
)

var (
	ErrNoValues       = errors.New("no values to prove")
	ErrTooManyValues  = errors.New("too many values to aggregate")
	ErrMessageTooLong = errors.New("message too long")
	ErrRetryExhausted = errors.New("range proof retries exhausted")

	// errRetry marks a transient failure that restarts the proof.
	errRetry = errors.New("retryable proof failure")
)

// TokenID selects the value generator H of a commitment.
type TokenID struct {
	ID    [32]byte
	NftID int64
}

// DefaultToken is the native asset.
var DefaultToken = TokenID{NftID: -1}

// IsDefault reports whether t is the native asset.
func (t TokenID) IsDefault() bool {
	return t == DefaultToken
}

// Bytes returns ID ‖ NftID as little-endian int64.
func (t TokenID) Bytes() []byte {
	b := make([]byte, 0, 40)
	b = append(b, t.ID[:]...)
	return binary.LittleEndian.AppendUint64(b, uint64(t.NftID))
}

func (t TokenID) String() string {
	return hex.EncodeToString(t.ID[:]) + "#" + strconv.FormatInt(t.NftID, 10)
}

// aggregationSize returns M, the smallest power of two not below n, and log2(M).
func aggregationSize(n int) (M int, logM int) {
	for logM = 0; (1<<logM) <= MaxM && (1<<logM) < n; logM++ {
	}
	return 1 << logM, logM
}
