package fri

import "errors"

var (
	// ErrInvalidConfiguration signals bad ProofOptions or an input vector
	// violating a structural precondition. It is fatal and raised before any
	// protocol step; it is never the outcome of verifying a proof.
	ErrInvalidConfiguration = errors.New("fri: invalid configuration")

	// ErrInvalidProofShape signals a structural mismatch between a proof and
	// the layer/query/opening counts implied by the options and domain size.
	ErrInvalidProofShape = errors.New("fri: invalid proof shape")

	// ErrMerkleVerificationFailed signals an opening that does not
	// authenticate against its claimed layer root.
	ErrMerkleVerificationFailed = errors.New("fri: merkle verification failed")

	// ErrFoldingInconsistency signals a recomputed folded value disagreeing
	// with the next layer's opened value (or with the remainder).
	ErrFoldingInconsistency = errors.New("fri: folding inconsistency")

	// ErrRemainderDegreeTooHigh signals a remainder whose effective degree
	// exceeds the configured bound.
	ErrRemainderDegreeTooHigh = errors.New("fri: remainder degree too high")
)
