package fri

import (
	"fmt"
	"math/bits"
)

// maxRemainderDegreeBound caps the remainder so it can always be sent in the
// clear instead of being committed.
const maxRemainderDegreeBound = 255

// ProofOptions fixes the parameters of a FRI instance. They are supplied by
// the calling prover/verifier and must be identical on both sides.
type ProofOptions struct {
	// FoldingFactor is the number of sibling evaluations combined into one
	// value per fold step. Supported values: 2, 4, 8, 16.
	FoldingFactor int

	// BlowupFactor is the ratio of the evaluation domain size to the degree
	// bound of the committed polynomial. Power of two, >= FoldingFactor.
	BlowupFactor int

	// NumQueries is the number of positions checked during the query phase.
	NumQueries int

	// RemainderMaxDegree bounds the degree of the remainder polynomial;
	// RemainderMaxDegree+1 must be a power of two.
	RemainderMaxDegree int
}

// Validate checks the options; any violation is an ErrInvalidConfiguration.
func (opts ProofOptions) Validate() error {
	switch opts.FoldingFactor {
	case 2, 4, 8, 16:
	default:
		return fmt.Errorf("%w: unsupported folding factor %d", ErrInvalidConfiguration, opts.FoldingFactor)
	}
	if opts.BlowupFactor < opts.FoldingFactor || bits.OnesCount(uint(opts.BlowupFactor)) != 1 {
		return fmt.Errorf("%w: blowup factor must be a power of two >= folding factor, got %d", ErrInvalidConfiguration, opts.BlowupFactor)
	}
	if opts.NumQueries <= 0 {
		return fmt.Errorf("%w: number of queries must be positive, got %d", ErrInvalidConfiguration, opts.NumQueries)
	}
	if opts.RemainderMaxDegree < 0 || opts.RemainderMaxDegree > maxRemainderDegreeBound {
		return fmt.Errorf("%w: remainder max degree must be in [0, %d], got %d", ErrInvalidConfiguration, maxRemainderDegreeBound, opts.RemainderMaxDegree)
	}
	if bits.OnesCount(uint(opts.RemainderMaxDegree+1)) != 1 {
		return fmt.Errorf("%w: remainder max degree + 1 must be a power of two, got %d", ErrInvalidConfiguration, opts.RemainderMaxDegree+1)
	}
	return nil
}

// maxRemainderSize is the evaluation length below which folding stops.
func (opts ProofOptions) maxRemainderSize() uint64 {
	return uint64(opts.RemainderMaxDegree+1) * uint64(opts.BlowupFactor)
}

// NumLayers returns the number of committed (and folded) layers for a given
// initial domain size; it is a pure function of the options and the domain
// size, and is needed to size the channel transcript.
func NumLayers(domainSize uint64, opts ProofOptions) (int, error) {
	sizes, err := layerSizes(domainSize, opts)
	if err != nil {
		return 0, err
	}
	return len(sizes), nil
}

// layerSizes returns the pre-fold length of every committed layer. Folding
// continues while the current length exceeds the remainder size bound.
func layerSizes(domainSize uint64, opts ProofOptions) ([]uint64, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if domainSize == 0 || bits.OnesCount64(domainSize) != 1 {
		return nil, fmt.Errorf("%w: domain size must be a power of two, got %d", ErrInvalidConfiguration, domainSize)
	}
	f := uint64(opts.FoldingFactor)
	var sizes []uint64
	for n := domainSize; n > opts.maxRemainderSize(); n /= f {
		if n%f != 0 {
			return nil, fmt.Errorf("%w: layer of length %d not divisible by folding factor %d", ErrInvalidConfiguration, n, f)
		}
		sizes = append(sizes, n)
	}
	return sizes, nil
}
