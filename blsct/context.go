/*
Package blsct assembles confidential outputs and transactions: Pedersen
committed amounts with aggregated range proofs, stealth keys derived from the
recipient's subaddress, aggregated BLS signatures and a balance signature.
*/
package blsct

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/takakv/blsct/bulletproofs"
	"github.com/takakv/blsct/group"
)

// Config tunes a Context. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	// MaxProveAttempts bounds range proof restarts.
	MaxProveAttempts int
	// FeePerComponent is charged per input and output of native-asset
	// transactions.
	FeePerComponent uint64
	// VerifyWorkers bounds concurrent per-proof verification.
	VerifyWorkers int
}

func DefaultConfig() Config {
	return Config{
		MaxProveAttempts: bulletproofs.DefaultMaxAttempts,
		FeePerComponent:  200000,
		VerifyWorkers:    runtime.NumCPU(),
	}
}

/*
Context holds the range proof generators together with the configuration and
logger. Building one derives every generator, so a process should create a
single Context and share it; it is safe for concurrent use.
*/
type Context struct {
	cfg    Config
	params *bulletproofs.BulletProofSetupParams
	log    *zap.Logger
}

func NewContext(cfg Config, logger *zap.Logger) (*Context, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.MaxProveAttempts <= 0 {
		cfg.MaxProveAttempts = def.MaxProveAttempts
	}
	if cfg.VerifyWorkers <= 0 {
		cfg.VerifyWorkers = def.VerifyWorkers
	}

	params, err := bulletproofs.Setup(logger.Named("bulletproofs"))
	if err != nil {
		return nil, err
	}
	params.MaxAttempts = cfg.MaxProveAttempts
	params.Workers = cfg.VerifyWorkers

	logger.Debug("blsct context ready",
		zap.Int("generators", len(params.Gi)),
		zap.Uint64("fee_per_component", cfg.FeePerComponent))
	return &Context{cfg: cfg, params: params, log: logger}, nil
}

func (c *Context) Config() Config {
	return c.cfg
}

// H returns the value generator of token.
func (c *Context) H(token bulletproofs.TokenID) (group.Point, error) {
	return c.params.H(token)
}

// RangeProve proves that every value fits in 64 bits, hiding msg for the
// holder of nonce.
func (c *Context) RangeProve(values []uint64, nonce *group.Point, msg string,
	token bulletproofs.TokenID) (*bulletproofs.BulletProof, error) {
	return c.params.Prove(values, nonce, msg, token)
}

// RangeVerify checks proofs in one batch and, given one nonce per proof,
// recovers the openings of the proofs they belong to.
func (c *Context) RangeVerify(proofs []bulletproofs.ProofWithIndex, nonces []group.Point, onlyRecover bool,
	token bulletproofs.TokenID) (bool, []bulletproofs.RecoveredData) {
	return c.params.VerifyRecover(proofs, nonces, onlyRecover, token)
}
