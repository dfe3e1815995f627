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

package bulletproofs

import (
	"encoding/binary"
	"fmt"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/takakv/blsct/group"
	"github.com/takakv/blsct/transcript"
	. "github.com/takakv/blsct/util"
)

/*
BulletProofSetupParams is the structure that stores the parameters for
the Zero Knowledge Proof system. It is safe for concurrent use.
*/
type BulletProofSetupParams struct {
	// G is the blinding generator, the standard G1 generator.
	G group.Point
	// Gi is a set of generators obtained using MapToGroup used to
	// compute Pedersen vector commitments.
	Gi []group.Point
	// Hi is a set of generators obtained using MapToGroup used to
	// compute Pedersen vector commitments.
	Hi []group.Point
	// MaxAttempts bounds how many times Prove restarts on a zero challenge.
	MaxAttempts int
	// Workers bounds the number of proofs processed concurrently by Verify.
	Workers int

	logger *zap.Logger

	mu     sync.Mutex
	tokens map[TokenID]group.Point
}

/*
BulletProof is the structure that contains the elements that are necessary for
the verification of the Zero Knowledge Proof.
*/
type BulletProof struct {
	V                 []group.Point
	A                 group.Point
	S                 group.Point
	T1                group.Point
	T2                group.Point
	Taux              group.Scalar
	Mu                group.Scalar
	Tprime            group.Scalar
	InnerProductProof InnerProductProof
}

/*
Setup computes the common parameters. The generators Gi, Hi and the value
generators H are obtained with hash-to-curve, so there is no trusted setup.
*/
func Setup(logger *zap.Logger) (*BulletProofSetupParams, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	params := &BulletProofSetupParams{
		G:           group.Generator(),
		Gi:          make([]group.Point, MaxMN),
		Hi:          make([]group.Point, MaxMN),
		MaxAttempts: DefaultMaxAttempts,
		Workers:     runtime.NumCPU(),
		logger:      logger,
		tokens:      make(map[TokenID]group.Point),
	}

	var err error
	for i := 0; i < MaxMN; i++ {
		params.Gi[i], err = group.MapToGroup([]byte(SEEDH + "g" + fmt.Sprint(i)))
		if err != nil {
			return nil, errors.Wrapf(err, "generator g%d", i)
		}
		params.Hi[i], err = group.MapToGroup([]byte(SEEDH + "h" + fmt.Sprint(i)))
		if err != nil {
			return nil, errors.Wrapf(err, "generator h%d", i)
		}
	}

	if _, err = params.H(DefaultToken); err != nil {
		return nil, err
	}
	return params, nil
}

// Logger returns the logger the parameters were set up with.
func (params *BulletProofSetupParams) Logger() *zap.Logger {
	return params.logger
}

/*
H returns the value generator for token. The native asset uses the plain seed,
every other token appends its id and NFT id, so that distinct assets never
share a generator.
*/
func (params *BulletProofSetupParams) H(token TokenID) (group.Point, error) {
	params.mu.Lock()
	defer params.mu.Unlock()

	if h, ok := params.tokens[token]; ok {
		return h, nil
	}
	seed := []byte(SEEDH)
	if !token.IsDefault() {
		seed = append(seed, token.Bytes()...)
	}
	h, err := group.MapToGroup(seed)
	if err != nil {
		return group.Point{}, errors.Wrapf(err, "value generator for %s", token)
	}
	params.tokens[token] = h
	return h, nil
}

// Commit returns gamma·G + value·H(token).
func (params *BulletProofSetupParams) Commit(value uint64, gamma *group.Scalar, token TokenID) (group.Point, error) {
	h, err := params.H(token)
	if err != nil {
		return group.Point{}, err
	}
	v := group.NewScalar(value)
	return PedersenCommit(&v, gamma, &h), nil
}

/*
Prove computes an aggregated range proof for values. Every blinding scalar is
derived from nonce, which lets the holder of the nonce recover the amounts and
msg. Failed attempts restart the whole proof, at most MaxAttempts times. A
zero challenge replays identically on restart since the proof is a function
of values, nonce and msg, so the bound only stops a failing proof from
looping; such a proof returns ErrRetryExhausted.
The documentation and comments are based on the ePrint version of Bulletproofs:
https://eprint.iacr.org/2017/1066.pdf
*/
func (params *BulletProofSetupParams) Prove(values []uint64, nonce *group.Point, msg string, token TokenID) (*BulletProof, error) {
	if len(values) == 0 {
		return nil, ErrNoValues
	}
	if len(values) > MaxM {
		return nil, errors.Wrapf(ErrTooManyValues, "%d > %d", len(values), MaxM)
	}
	if len(msg) > MaxMessageSize {
		return nil, errors.Wrapf(ErrMessageTooLong, "%d > %d bytes", len(msg), MaxMessageSize)
	}
	H, err := params.H(token)
	if err != nil {
		return nil, err
	}

	return retry(params.MaxAttempts, params.logger, func() (*BulletProof, error) {
		return params.prove(values, nonce, []byte(msg), &H)
	})
}

func (params *BulletProofSetupParams) prove(values []uint64, nonce *group.Point, msg []byte, H *group.Point) (*BulletProof, error) {
	M, _ := aggregationSize(len(values))
	MN := M * N

	proof := &BulletProof{V: make([]group.Point, len(values))}
	tr := transcript.New()

	// ////////////////////////////////////////////////////////////////////////////
	// First phase: page 19                                                      //
	// ////////////////////////////////////////////////////////////////////////////

	gamma := make([]group.Scalar, len(values))
	for i, value := range values {
		gamma[i] = group.HashToScalar(nonce, gammaSalt+uint64(i))
		v := group.NewScalar(value)
		proof.V[i] = PedersenCommit(&v, &gamma[i], H)
		tr.AddPoint(&proof.V[i])
	}

	// aL, aR and commitment: (A, alpha)
	aL := make([]group.Scalar, 0, MN)
	for j := 0; j < M; j++ {
		var value uint64
		if j < len(values) {
			value = values[j]
		}
		aL = append(aL, BitDecompose(value, N)...) // (41)
	}
	one := group.One()
	aR := VectorSubtractSingle(aL, &one) // (42)

	m1, m2 := embedMessage(msg, values[0])
	alpha := group.HashToScalar(nonce, alphaSalt) // (43)
	alpha.Add(&alpha, &m1)
	A, err := commitVector(aL, aR, &alpha, params.Gi, params.Hi) // (44)
	if err != nil {
		return nil, err
	}
	proof.A = A
	tr.AddPoint(&proof.A)

	// sL, sR and commitment: (S, rho)
	sL := VectorDup(&one, MN)                                  // (45)
	sR := VectorDup(&one, MN)                                  // (45)
	rho := group.HashToScalar(nonce, rhoSalt)                  // (46)
	S, err := commitVector(sL, sR, &rho, params.Gi, params.Hi) // (47)
	if err != nil {
		return nil, err
	}
	proof.S = S
	tr.AddPoint(&proof.S)

	// Fiat-Shamir heuristic to compute challenges y and z.
	y := tr.Challenge() // (49)
	if y.IsZero() {
		return nil, errors.Wrap(errRetry, "zero challenge y")
	}
	tr.AddScalar(&y)
	z := tr.Challenge() // (50)
	if z.IsZero() {
		return nil, errors.Wrap(errRetry, "zero challenge z")
	}

	// ////////////////////////////////////////////////////////////////////////////
	// Second phase: page 20                                                     //
	// ////////////////////////////////////////////////////////////////////////////

	// l0 = aL - z
	// l1 = sL
	// r0 = yPow ∘ (aR + z) + z^(j+2) . 2Pow for lane j
	// r1 = yPow ∘ sR
	// t1 = < l0, r1 > + < l1, r0 >
	// t2 = < l1, r1 >
	l0 := VectorSubtractSingle(aL, &z)
	l1 := sL

	two := group.NewScalar(2)
	twoN := VectorPowers(&two, N)
	zPow := VectorPowers(&z, M+2)
	zerosTwos := make([]group.Scalar, MN)
	for j := 0; j < M; j++ {
		for i := 0; i < N; i++ {
			zerosTwos[j*N+i].Mul(&zPow[j+2], &twoN[i])
		}
	}

	yMN := VectorPowers(&y, MN)
	r0, err := Hadamard(VectorAddSingle(aR, &z), yMN)
	if err != nil {
		return nil, err
	}
	if r0, err = VectorAdd(r0, zerosTwos); err != nil {
		return nil, err
	}
	r1, err := Hadamard(yMN, sR)
	if err != nil {
		return nil, err
	}

	t1, err := crossTerm(l0, r1, l1, r0)
	if err != nil {
		return nil, err
	}
	t2, err := InnerProduct(l1, r1)
	if err != nil {
		return nil, err
	}

	tau1 := group.HashToScalar(nonce, tau1Salt) // (52)
	tau1.Add(&tau1, &m2)
	tau2 := group.HashToScalar(nonce, tau2Salt) // (52)

	proof.T1 = PedersenCommit(&t1, &tau1, H) // (53)
	proof.T2 = PedersenCommit(&t2, &tau2, H) // (53)

	tr.AddScalar(&z)
	tr.AddPoint(&proof.T1) // (54)
	tr.AddPoint(&proof.T2) // (54)

	// Fiat-Shamir heuristic to compute 'random' challenge x
	x := tr.Challenge() // (55)
	if x.IsZero() {
		return nil, errors.Wrap(errRetry, "zero challenge x")
	}

	// l = l0 + x . l1 and r = r0 + x . r1
	l, err := VectorAdd(l0, VectorScalar(l1, &x)) // (58)
	if err != nil {
		return nil, err
	}
	r, err := VectorAdd(r0, VectorScalar(r1, &x)) // (59)
	if err != nil {
		return nil, err
	}
	if proof.Tprime, err = InnerProduct(l, r); err != nil { // (60)
		return nil, err
	}

	// taux = tau1 . x + tau2 . x^2 + sum_j z^(j+1) . gamma_(j-1)
	var x2, tmp group.Scalar
	x2.Mul(&x, &x)
	proof.Taux.Mul(&tau1, &x) // (61)
	tmp.Mul(&tau2, &x2)
	proof.Taux.Add(&proof.Taux, &tmp)
	for j := 1; j <= len(gamma); j++ {
		tmp.Mul(&zPow[j+1], &gamma[j-1])
		proof.Taux.Add(&proof.Taux, &tmp)
	}

	// mu = alpha + rho . x
	proof.Mu.Mul(&x, &rho) // (62)
	proof.Mu.Add(&proof.Mu, &alpha)

	tr.AddScalar(&x)
	tr.AddScalar(&proof.Taux)
	tr.AddScalar(&proof.Mu)
	tr.AddScalar(&proof.Tprime)

	xIP := tr.Challenge()
	if xIP.IsZero() {
		return nil, errors.Wrap(errRetry, "zero challenge x_ip")
	}

	// Inner product argument over l, r with generators (Gi, Hi . y^-n).
	ipp, err := params.proveInnerProduct(tr, l, r, &y, &xIP, H)
	if err != nil {
		return nil, err
	}
	proof.InnerProductProof = ipp

	return proof, nil
}

// embedMessage packs msg and the first value into the two scalars hidden in
// alpha and tau1: m1 = msg[:23] ‖ uint64BE(value), m2 = msg[23:].
func embedMessage(msg []byte, value uint64) (m1, m2 group.Scalar) {
	head := msg
	var tail []byte
	if len(msg) > messageSplit {
		head, tail = msg[:messageSplit], msg[messageSplit:]
	}
	buf := make([]byte, 0, len(head)+8)
	buf = append(buf, head...)
	buf = binary.BigEndian.AppendUint64(buf, value)
	m1.SetBigEndianMod(buf)
	m2.SetBigEndianMod(tail)
	return m1, m2
}

/*
commitVector computes alpha . G + < aL, Gi > + < aR, Hi >.
*/
func commitVector(aL, aR []group.Scalar, alpha *group.Scalar, gi, hi []group.Point) (group.Point, error) {
	R, err := VectorCommitment(aL, aR, gi, hi)
	if err != nil {
		return group.Point{}, err
	}
	var Galpha group.Point
	Galpha.BaseMul(alpha)
	R.Add(&R, &Galpha)
	return R, nil
}

// crossTerm returns < a0, b1 > + < a1, b0 >.
func crossTerm(a0, b1, a1, b0 []group.Scalar) (group.Scalar, error) {
	left, err := InnerProduct(a0, b1)
	if err != nil {
		return group.Scalar{}, err
	}
	right, err := InnerProduct(a1, b0)
	if err != nil {
		return group.Scalar{}, err
	}
	var t group.Scalar
	t.Add(&left, &right)
	return t, nil
}
