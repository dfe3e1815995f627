package bulletproofs

import (
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takakv/blsct/group"
)

func prove(t *testing.T, values []uint64, nonce *group.Point, msg string) *BulletProof {
	proof, err := testParams(t).Prove(values, nonce, msg, DefaultToken)
	require.NoError(t, err)
	return proof
}

func single(p *BulletProof) []ProofWithIndex {
	return []ProofWithIndex{{Proof: p, Index: 0}}
}

func TestVerifyRecover(t *testing.T) {
	params := testParams(t)
	nonce := testNonce(42)
	proof := prove(t, []uint64{42}, &nonce, "")

	assert.True(t, params.Verify(single(proof), DefaultToken))

	ok, data := params.VerifyRecover(single(proof), []group.Point{nonce}, false, DefaultToken)
	require.True(t, ok)
	require.Len(t, data, 1)
	assert.Equal(t, uint64(42), data[0].Amount)
	assert.Equal(t, "", data[0].Message)

	gamma := group.HashToScalar(&nonce, gammaSalt)
	assert.True(t, data[0].Gamma.Equal(&gamma))
}

func TestRecoverMessages(t *testing.T) {
	params := testParams(t)
	nonce := testNonce(7)

	msgs := []string{
		"",
		"Change",
		strings.Repeat("m", messageSplit),
		strings.Repeat("n", messageSplit+1),
		"the quick brown fox jumps over the lazy dog 0123456789"[:MaxMessageSize],
	}
	for _, msg := range msgs {
		proof := prove(t, []uint64{1000}, &nonce, msg)
		data, ok := params.Recover(single(proof), []group.Point{nonce}, DefaultToken)
		require.True(t, ok)
		require.Len(t, data, 1, "msg %q", msg)
		assert.Equal(t, msg, data[0].Message)
		assert.Equal(t, uint64(1000), data[0].Amount)
	}

	// the amount occupies the low 8 bytes next to a full message
	full := strings.Repeat("z", MaxMessageSize)
	for _, v := range []uint64{1 << 63, math.MaxUint64} {
		proof := prove(t, []uint64{v}, &nonce, full)
		assert.True(t, params.Verify(single(proof), DefaultToken))
		data, ok := params.Recover(single(proof), []group.Point{nonce}, DefaultToken)
		require.True(t, ok)
		require.Len(t, data, 1, "amount %d", v)
		assert.Equal(t, v, data[0].Amount)
		assert.Equal(t, full, data[0].Message)
	}
}

func TestRecoverWrongNonce(t *testing.T) {
	params := testParams(t)
	nonce := testNonce(8)
	other := testNonce(9)
	proof := prove(t, []uint64{5}, &nonce, "secret")

	data, ok := params.Recover(single(proof), []group.Point{other}, DefaultToken)
	assert.True(t, ok)
	assert.Empty(t, data)
}

func TestRecoverIndex(t *testing.T) {
	params := testParams(t)
	n1, n2 := testNonce(10), testNonce(11)
	p1 := prove(t, []uint64{1}, &n1, "a")
	p2 := prove(t, []uint64{2}, &n2, "b")

	proofs := []ProofWithIndex{{Proof: p1, Index: 4}, {Proof: p2, Index: 9}}
	data, ok := params.Recover(proofs, []group.Point{n1, testNonce(99)}, DefaultToken)
	require.True(t, ok)
	require.Len(t, data, 1)
	assert.Equal(t, 4, data[0].Index)
	assert.Equal(t, "a", data[0].Message)
}

func TestVerifyAggregated(t *testing.T) {
	params := testParams(t)
	nonce := testNonce(12)
	values := []uint64{1, 1 << 40, 0, ^uint64(0), 77}
	proof := prove(t, values, &nonce, "agg")

	ok, data := params.VerifyRecover(single(proof), []group.Point{nonce}, false, DefaultToken)
	require.True(t, ok)
	require.Len(t, data, 1)
	assert.Equal(t, values[0], data[0].Amount)
	assert.Equal(t, "agg", data[0].Message)
}

func TestVerifyBatch(t *testing.T) {
	params := testParams(t)
	var proofs []ProofWithIndex
	for i := 0; i < 4; i++ {
		nonce := testNonce(uint64(100 + i))
		values := make([]uint64, i+1)
		for j := range values {
			values[j] = uint64(i*10 + j)
		}
		proofs = append(proofs, ProofWithIndex{Proof: prove(t, values, &nonce, ""), Index: i})
	}

	assert.True(t, params.Verify(proofs, DefaultToken))
	for _, p := range proofs {
		assert.True(t, params.Verify([]ProofWithIndex{p}, DefaultToken))
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	params := testParams(t)
	nonce := testNonce(13)
	good := prove(t, []uint64{3, 4}, &nonce, "")
	other := testNonce(14)
	companion := prove(t, []uint64{8}, &other, "")

	g := group.Generator()
	one := group.One()
	tamper := map[string]func(p *BulletProof){
		"A":    func(p *BulletProof) { p.A.Add(&p.A, &g) },
		"S":    func(p *BulletProof) { p.S.Add(&p.S, &g) },
		"T1":   func(p *BulletProof) { p.T1.Add(&p.T1, &g) },
		"V":    func(p *BulletProof) { p.V = slices.Clone(p.V); p.V[1].Add(&p.V[1], &g) },
		"taux": func(p *BulletProof) { p.Taux.Add(&p.Taux, &one) },
		"t":    func(p *BulletProof) { p.Tprime.Add(&p.Tprime, &one) },
		"a":    func(p *BulletProof) { p.InnerProductProof.A.Add(&p.InnerProductProof.A, &one) },
		"L": func(p *BulletProof) {
			p.InnerProductProof.L = slices.Clone(p.InnerProductProof.L)
			p.InnerProductProof.L[0].Add(&p.InnerProductProof.L[0], &g)
		},
		"R": func(p *BulletProof) {
			ipp := &p.InnerProductProof
			ipp.R = slices.Clone(ipp.R)
			ipp.R[len(ipp.R)-1].Add(&ipp.R[len(ipp.R)-1], &g)
		},
	}

	for name, f := range tamper {
		t.Run(name, func(tt *testing.T) {
			bad := *good
			f(&bad)
			assert.False(tt, params.Verify(single(&bad), DefaultToken))
			batch := []ProofWithIndex{{Proof: companion, Index: 0}, {Proof: &bad, Index: 1}}
			assert.False(tt, params.Verify(batch, DefaultToken))
		})
	}
	assert.True(t, params.Verify(single(good), DefaultToken))
}

func TestVerifyWrongToken(t *testing.T) {
	params := testParams(t)
	nonce := testNonce(15)
	token := TokenID{NftID: 1}
	token.ID[31] = 1

	proof, err := params.Prove([]uint64{10}, &nonce, "", token)
	require.NoError(t, err)
	assert.True(t, params.Verify(single(proof), token))
	assert.False(t, params.Verify(single(proof), DefaultToken))
}

func TestVerifyMalformed(t *testing.T) {
	params := testParams(t)
	nonce := testNonce(16)
	good := prove(t, []uint64{1}, &nonce, "")

	assert.False(t, params.Verify(nil, DefaultToken))
	assert.False(t, params.Verify(single(nil), DefaultToken))

	noV := *good
	noV.V = nil
	assert.False(t, params.Verify(single(&noV), DefaultToken))

	tooMany := *good
	tooMany.V = make([]group.Point, MaxM+1)
	assert.False(t, params.Verify(single(&tooMany), DefaultToken))

	uneven := *good
	uneven.InnerProductProof.R = good.InnerProductProof.R[1:]
	assert.False(t, params.Verify(single(&uneven), DefaultToken))

	short := *good
	short.InnerProductProof.L = good.InnerProductProof.L[1:]
	short.InnerProductProof.R = good.InnerProductProof.R[1:]
	assert.False(t, params.Verify(single(&short), DefaultToken))

	// one commitment more than the rounds account for
	extra := *good
	extra.V = append(slices.Clone(good.V), good.V[0])
	assert.False(t, params.Verify(single(&extra), DefaultToken))
}

func TestProofEncoding(t *testing.T) {
	params := testParams(t)
	nonce := testNonce(17)
	proof := prove(t, []uint64{6, 7, 8}, &nonce, "wire")

	raw, err := proof.MarshalBinary()
	require.NoError(t, err)

	var decoded BulletProof
	require.NoError(t, decoded.UnmarshalBinary(raw))
	assert.True(t, params.Verify(single(&decoded), DefaultToken))
	assert.Equal(t, raw, decoded.AppendBinary(nil))

	assert.Error(t, decoded.UnmarshalBinary(append(raw, 0)))
	assert.Error(t, decoded.UnmarshalBinary(raw[:len(raw)-1]))

	js, err := proof.MarshalJSON()
	require.NoError(t, err)
	var fromJSON BulletProof
	require.NoError(t, fromJSON.UnmarshalJSON(js))
	assert.True(t, params.Verify(single(&fromJSON), DefaultToken))
}
