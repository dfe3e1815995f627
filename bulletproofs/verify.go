package bulletproofs

import (
	"bytes"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/takakv/blsct/group"
	"github.com/takakv/blsct/transcript"
	. "github.com/takakv/blsct/util"
)

// ProofWithIndex pairs a proof with the caller's index for it, which is
// echoed back in RecoveredData.
type ProofWithIndex struct {
	Proof *BulletProof
	Index int
}

// RecoveredData is the opening of the first commitment of a proof.
type RecoveredData struct {
	Index   int
	Amount  uint64
	Gamma   group.Scalar
	Message string
}

// challenges are the Fiat-Shamir values of one proof, replayed from its
// transcript.
type challenges struct {
	y, z, x, xIP group.Scalar
	w            []group.Scalar
	logM         int
}

// batchTerms is one proof's contribution to the final multi-exponentiation.
type batchTerms struct {
	y0, y1, z1, z3 group.Scalar
	z4, z5         []group.Scalar
	bases          []group.Point
	exps           []group.Scalar
}

// Verify checks every proof in one randomized multi-exponentiation.
func (params *BulletProofSetupParams) Verify(proofs []ProofWithIndex, token TokenID) bool {
	ok, _ := params.VerifyRecover(proofs, nil, false, token)
	return ok
}

// Recover opens the proofs with nonces without checking them. Only proofs
// whose first commitment reopens are returned.
func (params *BulletProofSetupParams) Recover(proofs []ProofWithIndex, nonces []group.Point, token TokenID) ([]RecoveredData, bool) {
	ok, data := params.VerifyRecover(proofs, nonces, true, token)
	return data, ok
}

/*
VerifyRecover replays every proof's transcript and, when nonces has one entry
per proof, recovers the amount, blinding factor and message of each proof's
first commitment. With onlyRecover set it returns after recovery; otherwise the
proofs are checked together and the result is true only if all are valid.
Malformed proofs are rejected before any curve arithmetic.
*/
func (params *BulletProofSetupParams) VerifyRecover(proofs []ProofWithIndex, nonces []group.Point,
	onlyRecover bool, token TokenID) (bool, []RecoveredData) {
	log := params.logger.With(zap.Int("proofs", len(proofs)))
	withNonces := len(nonces) > 0 && len(nonces) == len(proofs)

	H, err := params.H(token)
	if err != nil {
		log.Warn("value generator", zap.Error(err))
		return false, nil
	}

	maxLength := 0
	for _, p := range proofs {
		if !wellFormed(p.Proof) {
			log.Debug("malformed proof", zap.Int("index", p.Index))
			return false, nil
		}
		maxLength = max(maxLength, len(p.Proof.InnerProductProof.L))
	}

	cs := make([]challenges, len(proofs))
	for i, p := range proofs {
		c, ok := replay(p.Proof)
		if !ok {
			log.Debug("round count mismatch", zap.Int("index", p.Index))
			return false, nil
		}
		cs[i] = c
	}

	var data []RecoveredData
	if withNonces {
		for i, p := range proofs {
			d, mine := recoverProof(p, &cs[i], &nonces[i], &H)
			if mine {
				data = append(data, d)
			}
		}
	}
	if onlyRecover {
		return true, data
	}
	if len(proofs) == 0 {
		return false, data
	}

	terms := make([]batchTerms, len(proofs))
	var g errgroup.Group
	g.SetLimit(max(params.Workers, 1))
	for i := range proofs {
		i := i
		g.Go(func() error {
			t, err := proofTerms(proofs[i].Proof, &cs[i])
			terms[i] = t
			return err
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn("batch verification", zap.Error(err))
		return false, data
	}

	maxMN := 1 << maxLength
	res, err := params.combine(terms, maxMN, &H)
	if err != nil {
		log.Warn("batch multiexp", zap.Error(err))
		return false, data
	}
	return res.IsIdentity(), data
}

func wellFormed(p *BulletProof) bool {
	return p != nil &&
		len(p.V) >= 1 && len(p.V) <= MaxM &&
		len(p.InnerProductProof.L) == len(p.InnerProductProof.R) &&
		len(p.InnerProductProof.L) > 0
}

// replay recomputes the challenges of p exactly as Prove derived them.
func replay(p *BulletProof) (challenges, bool) {
	var c challenges
	tr := transcript.New()
	for i := range p.V {
		tr.AddPoint(&p.V[i])
	}
	tr.AddPoint(&p.A)
	tr.AddPoint(&p.S)
	c.y = tr.Challenge()
	tr.AddScalar(&c.y)
	c.z = tr.Challenge()
	tr.AddScalar(&c.z)
	tr.AddPoint(&p.T1)
	tr.AddPoint(&p.T2)
	c.x = tr.Challenge()
	tr.AddScalar(&c.x)
	tr.AddScalar(&p.Taux)
	tr.AddScalar(&p.Mu)
	tr.AddScalar(&p.Tprime)
	c.xIP = tr.Challenge()

	_, c.logM = aggregationSize(len(p.V))
	rounds := c.logM + LogN
	ipp := &p.InnerProductProof
	if len(ipp.L) != rounds {
		return c, false
	}
	c.w = make([]group.Scalar, rounds)
	for i := 0; i < rounds; i++ {
		tr.AddPoint(&ipp.L[i])
		tr.AddPoint(&ipp.R[i])
		c.w[i] = tr.Challenge()
	}
	return c, true
}

// recoverProof unblinds mu and taux with the nonce-derived scalars. The first
// commitment is reopened to tell whether the nonce belongs to this proof.
func recoverProof(p ProofWithIndex, c *challenges, nonce *group.Point, H *group.Point) (RecoveredData, bool) {
	proof := p.Proof
	alpha := group.HashToScalar(nonce, alphaSalt)
	rho := group.HashToScalar(nonce, rhoSalt)
	tau1 := group.HashToScalar(nonce, tau1Salt)
	tau2 := group.HashToScalar(nonce, tau2Salt)

	gamma := make([]group.Scalar, len(proof.V))
	for i := range gamma {
		gamma[i] = group.HashToScalar(nonce, gammaSalt+uint64(i))
	}

	// excess = mu - rho . x - alpha = msg[:23] ‖ amount
	var excess, tmp group.Scalar
	tmp.Mul(&rho, &c.x)
	excess.Sub(&proof.Mu, &tmp)
	excess.Sub(&excess, &alpha)
	raw := excess.Bytes()
	amount := excess.Uint64()
	msg1 := bytes.TrimLeft(raw[:group.ScalarSize-8], "\x00")

	// excess2 = (taux - tau2 . x^2 - sum_j z^(j+2) . gamma_j) / x - tau1 = msg[23:]
	var excess2, x2, xInv group.Scalar
	x2.Mul(&c.x, &c.x)
	tmp.Mul(&tau2, &x2)
	excess2.Sub(&proof.Taux, &tmp)
	zPow := VectorPowers(&c.z, len(gamma)+2)
	for j := range gamma {
		tmp.Mul(&zPow[j+2], &gamma[j])
		excess2.Sub(&excess2, &tmp)
	}
	xInv.Inverse(&c.x)
	excess2.Mul(&excess2, &xInv)
	excess2.Sub(&excess2, &tau1)
	msg2 := bytes.TrimLeft(excess2.Bytes(), "\x00")

	v := group.NewScalar(amount)
	V0 := PedersenCommit(&v, &gamma[0], H)
	if !V0.Equal(&proof.V[0]) {
		return RecoveredData{}, false
	}

	return RecoveredData{
		Index:   p.Index,
		Amount:  amount,
		Gamma:   gamma[0],
		Message: string(msg1) + string(msg2),
	}, true
}

/*
proofTerms folds one proof into randomized multi-exponentiation terms. The
range-proof relation is weighted by a random weightY and the inner product
relation by a random weightZ, so that independent proofs cannot cancel.
*/
func proofTerms(proof *BulletProof, c *challenges) (batchTerms, error) {
	var t batchTerms
	ipp := &proof.InnerProductProof
	M := 1 << c.logM
	MN := M * N
	rounds := c.logM + LogN

	weightY, err := group.RandomScalar()
	if err != nil {
		return t, err
	}
	weightZ, err := group.RandomScalar()
	if err != nil {
		return t, err
	}

	var tmp, tmp2 group.Scalar

	// y0 = -taux . wy
	tmp.Mul(&proof.Taux, &weightY)
	t.y0.Neg(&tmp)

	// k = -z^2 . <1, y^MN> - sum_j z^(j+2) . <1, 2^N>
	two := group.NewScalar(2)
	twoN := VectorPowers(&two, N)
	ip12 := VectorPowerSum(&two, N)
	zPow := VectorPowers(&c.z, M+3)
	ip1y := VectorPowerSum(&c.y, MN)
	var k group.Scalar
	k.Mul(&zPow[2], &ip1y)
	k.Neg(&k)
	for j := 1; j <= M; j++ {
		tmp.Mul(&zPow[j+2], &ip12)
		k.Sub(&k, &tmp)
	}

	// y1 = (t - (k + z . <1, y^MN>)) . wy
	tmp.Mul(&c.z, &ip1y)
	tmp.Add(&k, &tmp)
	tmp.Sub(&proof.Tprime, &tmp)
	t.y1.Mul(&tmp, &weightY)

	for j := range proof.V {
		tmp.Mul(&zPow[j+2], &weightY)
		t.push(proof.V[j], tmp)
	}
	tmp.Mul(&c.x, &weightY)
	t.push(proof.T1, tmp)
	tmp.Mul(&tmp, &c.x)
	t.push(proof.T2, tmp)
	t.push(proof.A, weightZ)
	tmp.Mul(&c.x, &weightZ)
	t.push(proof.S, tmp)

	inv := group.BatchInvert(append(append([]group.Scalar{}, c.w...), c.y))
	wInv := inv[:rounds]
	yInv := inv[rounds]

	// wCache[i] is the product of w_j or w_j^-1 selected by the bits of i.
	wCache := make([]group.Scalar, MN)
	wCache[0] = wInv[0]
	wCache[1] = c.w[0]
	for j := 1; j < rounds; j++ {
		slots := 1 << (j + 1)
		for s := slots - 1; s > 0; s -= 2 {
			wCache[s].Mul(&wCache[s/2], &c.w[j])
			wCache[s-1].Mul(&wCache[s/2], &wInv[j])
		}
	}

	t.z4 = make([]group.Scalar, MN)
	t.z5 = make([]group.Scalar, MN)
	yPow, yInvPow := group.One(), group.One()
	var gScalar, hScalar group.Scalar
	for i := 0; i < MN; i++ {
		gScalar.Mul(&ipp.A, &wCache[i])
		gScalar.Add(&gScalar, &c.z)

		hScalar.Mul(&ipp.B, &yInvPow)
		hScalar.Mul(&hScalar, &wCache[(^i)&(MN-1)])

		tmp.Mul(&zPow[2+i/N], &twoN[i%N])
		tmp2.Mul(&c.z, &yPow)
		tmp.Add(&tmp, &tmp2)
		tmp.Mul(&tmp, &yInvPow)
		hScalar.Sub(&hScalar, &tmp)

		tmp.Mul(&gScalar, &weightZ)
		t.z4[i].Neg(&tmp)
		tmp.Mul(&hScalar, &weightZ)
		t.z5[i].Neg(&tmp)

		yInvPow.Mul(&yInvPow, &yInv)
		yPow.Mul(&yPow, &c.y)
	}

	// z1 = mu . wz
	t.z1.Mul(&proof.Mu, &weightZ)

	for i := 0; i < rounds; i++ {
		tmp.Mul(&c.w[i], &c.w[i])
		tmp.Mul(&tmp, &weightZ)
		t.push(ipp.L[i], tmp)

		tmp.Mul(&wInv[i], &wInv[i])
		tmp.Mul(&tmp, &weightZ)
		t.push(ipp.R[i], tmp)
	}

	// z3 = (t - a . b) . x_ip . wz
	tmp.Mul(&ipp.A, &ipp.B)
	tmp.Sub(&proof.Tprime, &tmp)
	tmp.Mul(&tmp, &c.xIP)
	t.z3.Mul(&tmp, &weightZ)

	return t, nil
}

func (t *batchTerms) push(p group.Point, s group.Scalar) {
	t.bases = append(t.bases, p)
	t.exps = append(t.exps, s)
}

// combine merges per-proof terms and evaluates the batch equation. The result
// is the identity iff every proof is valid, except with negligible probability.
func (params *BulletProofSetupParams) combine(terms []batchTerms, maxMN int, H *group.Point) (group.Point, error) {
	var y0, y1, z1, z3 group.Scalar
	z4 := make([]group.Scalar, maxMN)
	z5 := make([]group.Scalar, maxMN)

	size := 2 + 2*maxMN
	for i := range terms {
		size += len(terms[i].bases)
	}
	bases := make([]group.Point, 0, size)
	exps := make([]group.Scalar, 0, size)

	for i := range terms {
		t := &terms[i]
		y0.Add(&y0, &t.y0)
		y1.Add(&y1, &t.y1)
		z1.Add(&z1, &t.z1)
		z3.Add(&z3, &t.z3)
		for j := range t.z4 {
			z4[j].Add(&z4[j], &t.z4[j])
			z5[j].Add(&z5[j], &t.z5[j])
		}
		bases = append(bases, t.bases...)
		exps = append(exps, t.exps...)
	}

	var tmp group.Scalar
	bases = append(bases, params.G)
	exps = append(exps, *tmp.Sub(&y0, &z1))
	bases = append(bases, *H)
	exps = append(exps, *tmp.Sub(&z3, &y1))

	bases = append(bases, params.Gi[:maxMN]...)
	exps = append(exps, z4...)
	bases = append(bases, params.Hi[:maxMN]...)
	exps = append(exps, z5...)

	return group.MultiExp(bases, exps)
}
