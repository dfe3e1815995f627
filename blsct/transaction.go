package blsct

import (
	"encoding/binary"
	"encoding/hex"
	"math/bits"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/takakv/blsct/bls"
	"github.com/takakv/blsct/bulletproofs"
	"github.com/takakv/blsct/group"
	"github.com/takakv/blsct/keys"
	"github.com/takakv/blsct/util"
)

const (
	TxVersion = 1
	// BLSCTVersionFlag marks transactions carrying BLS signatures.
	BLSCTVersionFlag = 0x20

	defaultSequence = 0xffffffff
	changeMemo      = "Change"
)

var (
	feeScript  = []byte{0x6a}
	balanceMsg = []byte("BLSCTBALANCE")
)

// Input spends output Vout of transaction PrevTxID.
type Input struct {
	// PrevTxID is in display byte order.
	PrevTxID [32]byte
	Vout     uint32
	Sequence uint32
	// Prev is the output being spent.
	Prev *Output
}

func (in *Input) AppendBinary(buf []byte) []byte {
	for i := len(in.PrevTxID) - 1; i >= 0; i-- {
		buf = append(buf, in.PrevTxID[i])
	}
	buf = binary.LittleEndian.AppendUint32(buf, in.Vout)
	buf = util.AppendVarBytes(buf, nil)
	return binary.LittleEndian.AppendUint32(buf, in.Sequence)
}

// Hash is the message the spend key of the input signs.
func (in *Input) Hash() [32]byte {
	return sha256d(in.AppendBinary(nil))
}

func (in *Input) String() string {
	return hex.EncodeToString(in.PrevTxID[:]) + ":" + strconv.FormatUint(uint64(in.Vout), 10)
}

// SpendableOutput is a wallet output received on subaddress (Account, Index).
type SpendableOutput struct {
	TxID    [32]byte
	Vout    uint32
	Output  *Output
	Account uint64
	Index   uint64
}

/*
Destination is one payment. Exactly one of To and Script is set: To pays a
subaddress confidentially, Script pays a plain output. Token must match the
transaction token when set.
*/
type Destination struct {
	To       *keys.SubAddress
	Script   []byte
	Amount   uint64
	Memo     string
	VData    []byte
	ExtraKey *group.Scalar
	Token    *bulletproofs.TokenID
}

type TxOptions struct {
	// SubtractFee takes the fee out of the first destination instead of
	// adding it to the inputs.
	SubtractFee bool
	Token       bulletproofs.TokenID
	// ExtraIn raises the amount the selected inputs must cover.
	ExtraIn uint64
	// AggFee is paid into the fee output on top of the transaction fee.
	AggFee uint64
}

func DefaultTxOptions() TxOptions {
	return TxOptions{SubtractFee: true, Token: bulletproofs.DefaultToken}
}

type Transaction struct {
	Version  int32
	Time     uint32
	Inputs   []Input
	Outputs  []*Output
	LockTime uint32
	// Memo is the public memo of plain payments.
	Memo string
	Fee  uint64

	TxSig      bls.Signature
	BalanceSig bls.Signature
}

// sigSet collects the augmented signatures of a transaction with the pairs
// they sign.
type sigSet struct {
	sigs []bls.Signature
	pks  []group.Point
	msgs [][]byte
}

func (s *sigSet) add(sig bls.Signature, pk *group.Point, hash [32]byte) {
	s.sigs = append(s.sigs, sig)
	s.pks = append(s.pks, *pk)
	s.msgs = append(s.msgs, append([]byte{}, hash[:]...))
}

func (s *sigSet) addOutput(out *Output) {
	hash := out.Hash()
	if !out.ExtraPk.IsIdentity() {
		s.add(out.ExtraSig, &out.ExtraPk, hash)
	}
	s.add(out.TxSig, &out.Ek, hash)
}

/*
CreateTransaction pays dests from inputs received by the wallet (vk, sk).
Inputs of other tokens or other wallets are skipped; the rest are spent in
order until the destinations, ExtraIn and, unless SubtractFee is set, the fees
are covered. The remainder returns to subaddress (0, 0). Destinations that mint
a token are funded by the token program: no inputs are selected and no change
is made.
*/
func (c *Context) CreateTransaction(inputs []SpendableOutput, dests []Destination,
	vk, sk *group.Scalar, opts TxOptions) (*Transaction, error) {
	token := opts.Token
	log := c.log.With(zap.Stringer("token", token), zap.Int("destinations", len(dests)))

	if len(dests) == 0 {
		return nil, invalidInput("no destinations")
	}
	if _, err := c.params.H(token); err != nil {
		return nil, err
	}
	if !token.IsDefault() && opts.AggFee > 0 {
		return nil, invalidInput("aggregation fee in a %s transaction", token)
	}

	var total uint64
	hasMint := false
	for i := range dests {
		d := &dests[i]
		if (d.To == nil) == (d.Script == nil) {
			return nil, invalidInput("destination %d needs exactly one of address and script", i)
		}
		if d.Token != nil && *d.Token != token {
			return nil, invalidInput("destination %d pays %s in a %s transaction", i, d.Token, token)
		}
		if d.Script != nil && !token.IsDefault() && d.Amount > 0 {
			return nil, invalidInput("cannot send tokens to a plain output")
		}
		if isMint(d.VData) {
			hasMint = true
			continue
		}
		var carry uint64
		if total, carry = bits.Add64(total, d.Amount, 0); carry != 0 {
			return nil, invalidInput("destination amounts overflow")
		}
	}

	tx := &Transaction{Version: TxVersion, Time: uint32(time.Now().Unix())}
	var signed sigSet
	var gammasIn, gammasOut group.Scalar
	var added, fee uint64

	base, carry := bits.Add64(total, opts.ExtraIn, 0)
	if carry != 0 {
		return nil, invalidInput("extra input %d overflows the input target", opts.ExtraIn)
	}
	// target is what the selected inputs must cover.
	target := func() (uint64, error) {
		if opts.SubtractFee {
			return base, nil
		}
		t, c1 := bits.Add64(base, opts.AggFee, 0)
		t, c2 := bits.Add64(t, fee, 0)
		if c1|c2 != 0 {
			return 0, invalidInput("fees overflow the input target")
		}
		return t, nil
	}

	if !hasMint {
		for _, in := range inputs {
			out := in.Output
			if !out.IsCT() {
				return nil, invalidInput("input %x:%d is not confidential", in.TxID, in.Vout)
			}
			if out.Token != token {
				log.Debug("input skipped: other token", zap.Uint32("vout", in.Vout))
				continue
			}
			if !IsMine(out, vk, sk, in.Account, in.Index) {
				log.Debug("input skipped: not ours", zap.Uint32("vout", in.Vout))
				continue
			}
			opening, ok := c.RecoverBLSCTOutput(out, vk, sk, in.Account, in.Index)
			if !ok {
				log.Debug("input skipped: unrecoverable", zap.Uint32("vout", in.Vout))
				continue
			}

			txIn := Input{PrevTxID: in.TxID, Vout: in.Vout, Sequence: defaultSequence, Prev: out}
			tx.Inputs = append(tx.Inputs, txIn)
			if added, carry = bits.Add64(added, opening.Amount, 0); carry != 0 {
				return nil, invalidInput("input amounts overflow")
			}
			gammasIn.Add(&gammasIn, &opening.Gamma)

			hash := txIn.Hash()
			sig, err := bls.SignAugmented(opening.SpendKey, hash[:])
			if err != nil {
				return nil, errors.Wrap(err, "sign input")
			}
			var pk group.Point
			pk.BaseMul(opening.SpendKey)
			if !pk.Equal(&out.Sk) {
				return nil, errors.Wrapf(ErrConsistency, "spend key of input %d", len(tx.Inputs)-1)
			}
			signed.add(sig, &out.Sk, hash)

			if token.IsDefault() {
				hi, lo := bits.Mul64(c.cfg.FeePerComponent, uint64(len(tx.Inputs)+2+len(dests)))
				if hi != 0 {
					return nil, invalidInput("fee overflows")
				}
				fee = lo
			}
			need, err := target()
			if err != nil {
				return nil, err
			}
			if added >= need {
				break
			}
		}
		need, err := target()
		if err != nil {
			return nil, err
		}
		if added < need {
			log.Debug("insufficient funds", zap.Uint64("have", added), zap.Uint64("need", need))
			return nil, errors.Wrapf(ErrInsufficientFunds, "have %d, need %d", added, need)
		}
	}
	if tx.Fee, carry = bits.Add64(fee, opts.AggFee, 0); carry != 0 {
		return nil, invalidInput("aggregation fee %d overflows the fee", opts.AggFee)
	}

	for i := range dests {
		d := &dests[i]
		amount := d.Amount
		if i == 0 && opts.SubtractFee {
			if amount < tx.Fee {
				return nil, invalidInput("destination amount %d does not cover fee %d", amount, tx.Fee)
			}
			amount -= tx.Fee
		}

		var out *Output
		if d.To != nil {
			var err error
			if out, err = c.CreateBLSCTOutput(*d.To, amount, d.Memo, token, d.VData, d.ExtraKey); err != nil {
				return nil, err
			}
			gammasOut.Add(&gammasOut, &out.Opening.Gamma)
		} else {
			out = &Output{Value: amount, Script: d.Script, VData: d.VData, Token: bulletproofs.DefaultToken}
			bk, err := group.RandomScalar()
			if err != nil {
				return nil, err
			}
			out.Ek.BaseMul(&bk)
			if err = signOutput(out, &bk, d.ExtraKey); err != nil {
				return nil, err
			}
			tx.Memo = d.Memo
		}
		signed.addOutput(out)
		tx.Outputs = append(tx.Outputs, out)
	}

	tx.Outputs = append(tx.Outputs, feeOutput(tx.Fee))

	if !hasMint {
		spent := total
		if !opts.SubtractFee {
			spent += tx.Fee
		}
		if added < spent {
			return nil, errors.Wrapf(ErrConsistency, "inputs %d do not cover outputs %d", added, spent)
		}
		change := added - spent
		self := keys.DerivePublicKeys(vk, sk, 0, 0)
		out, err := c.CreateBLSCTOutput(self, change, changeMemo, token, nil, nil)
		if err != nil {
			return nil, err
		}
		gammasOut.Add(&gammasOut, &out.Opening.Gamma)
		signed.addOutput(out)
		tx.Outputs = append(tx.Outputs, out)
	}

	if len(signed.sigs) > 0 {
		agg, err := bls.Aggregate(signed.sigs...)
		if err != nil {
			return nil, err
		}
		tx.TxSig = agg
		tx.Version |= BLSCTVersionFlag
		if !bls.AggregateVerify(signed.pks, signed.msgs, tx.TxSig) {
			return nil, errors.Wrap(ErrConsistency, "aggregate signature does not verify")
		}
	}

	var balanceKey group.Scalar
	balanceKey.Sub(&gammasIn, &gammasOut)
	if err := SigBalance(tx, &balanceKey); err != nil {
		return nil, err
	}

	log.Debug("transaction created",
		zap.Int("inputs", len(tx.Inputs)),
		zap.Int("outputs", len(tx.Outputs)),
		zap.Uint64("fee", tx.Fee))
	return tx, nil
}

func feeOutput(fee uint64) *Output {
	return &Output{Value: fee, Script: feeScript, Token: bulletproofs.DefaultToken}
}

// SigBalance signs the balance message with key = Σγ_in − Σγ_out.
func SigBalance(tx *Transaction, key *group.Scalar) error {
	sig, err := bls.SignBasic(key, balanceMsg)
	if err != nil {
		return errors.Wrap(err, "sign balance")
	}
	tx.BalanceSig = sig
	return nil
}

/*
CombineTransactions merges txs into one transaction. Fee outputs are folded
into a single fee output; transaction and balance signatures are aggregated,
which keeps the combined transaction verifiable as a whole.
*/
func CombineTransactions(txs ...*Transaction) (*Transaction, error) {
	if len(txs) == 0 {
		return nil, invalidInput("no transactions to combine")
	}
	ret := &Transaction{Version: TxVersion, Time: uint32(time.Now().Unix())}
	var txSigs, balanceSigs []bls.Signature
	var fee uint64

	for _, tx := range txs {
		ret.Inputs = append(ret.Inputs, tx.Inputs...)
		for _, out := range tx.Outputs {
			if out.IsFee() {
				fee += out.Value
				continue
			}
			ret.Outputs = append(ret.Outputs, out)
		}
		if len(tx.BalanceSig) > 0 {
			balanceSigs = append(balanceSigs, tx.BalanceSig)
		}
		if len(tx.TxSig) > 0 {
			txSigs = append(txSigs, tx.TxSig)
		}
		if ret.Memo == "" {
			ret.Memo = tx.Memo
		}
	}
	ret.Outputs = append(ret.Outputs, feeOutput(fee))
	ret.Fee = fee

	var err error
	if len(txSigs) > 0 {
		if ret.TxSig, err = bls.Aggregate(txSigs...); err != nil {
			return nil, err
		}
		ret.Version |= BLSCTVersionFlag
	}
	if len(balanceSigs) > 0 {
		if ret.BalanceSig, err = bls.Aggregate(balanceSigs...); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

/*
VerifyTransaction checks the range proofs of every confidential output, the
aggregate signature over inputs and outputs, and the balance signature against

	Σ V_in − Σ V_out − Σ plain·H

which is a multiple of G exactly when no value is created or destroyed.
*/
func (c *Context) VerifyTransaction(tx *Transaction) bool {
	log := c.log.With(zap.Int("inputs", len(tx.Inputs)), zap.Int("outputs", len(tx.Outputs)))

	var signed sigSet
	var balance group.Point
	for i := range tx.Inputs {
		in := &tx.Inputs[i]
		if in.Prev == nil || !in.Prev.IsCT() {
			log.Debug("input without confidential output", zap.Stringer("input", in))
			return false
		}
		signed.add(nil, &in.Prev.Sk, in.Hash())
		V := in.Prev.Commitment()
		balance.Add(&balance, &V)
	}

	byToken := make(map[bulletproofs.TokenID][]bulletproofs.ProofWithIndex)
	var plain uint64
	for i, out := range tx.Outputs {
		if !out.Ek.IsIdentity() {
			signed.addOutput(out)
		}
		if !out.IsCT() {
			var carry uint64
			if plain, carry = bits.Add64(plain, out.Value, 0); carry != 0 {
				return false
			}
			continue
		}
		byToken[out.Token] = append(byToken[out.Token], bulletproofs.ProofWithIndex{Proof: out.Proof, Index: i})
		V := out.Commitment()
		balance.Sub(&balance, &V)
	}

	for token, proofs := range byToken {
		if !c.params.Verify(proofs, token) {
			log.Debug("range proofs rejected", zap.Stringer("token", token))
			return false
		}
	}

	if len(signed.pks) > 0 && !bls.AggregateVerify(signed.pks, signed.msgs, tx.TxSig) {
		log.Debug("aggregate signature rejected")
		return false
	}

	h, err := c.params.H(bulletproofs.DefaultToken)
	if err != nil {
		return false
	}
	v := group.NewScalar(plain)
	var plainH group.Point
	plainH.Mul(&h, &v)
	balance.Sub(&balance, &plainH)
	if !bls.VerifyBasic(&balance, balanceMsg, tx.BalanceSig) {
		log.Debug("balance signature rejected")
		return false
	}
	return true
}
