package fri

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"runtime"
)

// Option allows tuning a Prover or Verifier instance.
type Option func(*config) error

type config struct {
	hash    func() hash.Hash
	nbTasks int
}

// WithHash sets the hash constructor used for layer commitments. Both sides
// of the protocol must use the same hash; it defaults to sha256.
func WithHash(h func() hash.Hash) Option {
	return func(cfg *config) error {
		if h == nil {
			return fmt.Errorf("%w: nil hash constructor", ErrInvalidConfiguration)
		}
		cfg.hash = h
		return nil
	}
}

// WithNbTasks sets the maximum number of goroutines used for folding and for
// per-query verification. It defaults to runtime.NumCPU() and has no effect
// on the produced proofs or verdicts.
func WithNbTasks(nbTasks int) Option {
	return func(cfg *config) error {
		if nbTasks < 1 || nbTasks > 512 {
			return fmt.Errorf("%w: number of tasks must be in [1, 512]", ErrInvalidConfiguration)
		}
		cfg.nbTasks = nbTasks
		return nil
	}
}

func newConfig(opts ...Option) (*config, error) {
	cfg := &config{
		hash:    sha256.New,
		nbTasks: runtime.NumCPU(),
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
