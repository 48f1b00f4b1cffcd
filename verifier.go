package fri

import (
	"fmt"
	"math/big"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"
	"github.com/rs/zerolog"
	"github.com/zkstark/fri/channel"
	"github.com/zkstark/fri/logger"
	"github.com/zkstark/fri/merkle"
	"golang.org/x/sync/errgroup"
)

// Verifier checks proofs of proximity for a fixed domain size and options.
// A Verifier is safe for concurrent use; each Verify call is independent.
type Verifier struct {
	opts ProofOptions
	cfg  *config

	domainSize    uint64
	sizes         []uint64 // pre-fold length of every committed layer
	remainderSize uint64

	// per-layer inverses of the domain generators, for coset interpolation
	genInvs []fr.Element
	wInv    []fr.Element
	fInv    fr.Element

	// domain of the remainder codeword, for the degree check
	remainderDomain *fft.Domain
}

// verifierState tracks the single-pass state machine of a Verify call.
type verifierState uint8

const (
	stateInitial verifierState = iota
	stateCommitmentsAbsorbed
	stateQueriesDrawn
	stateLayersChecked
	stateRemainderChecked
	stateAccepted
	stateRejected
)

func (s verifierState) String() string {
	switch s {
	case stateInitial:
		return "Initial"
	case stateCommitmentsAbsorbed:
		return "CommitmentsAbsorbed"
	case stateQueriesDrawn:
		return "QueriesDrawn"
	case stateLayersChecked:
		return "LayersChecked"
	case stateRemainderChecked:
		return "RemainderChecked"
	case stateAccepted:
		return "Accepted"
	case stateRejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

type verification struct {
	log   zerolog.Logger
	state verifierState
}

func (r *verification) transition(s verifierState) {
	r.state = s
	r.log.Trace().Stringer("state", r.state).Msg("verifier transition")
}

// NewVerifier instantiates a verifier for the given initial domain size.
func NewVerifier(domainSize uint64, opts ProofOptions, options ...Option) (*Verifier, error) {
	sizes, err := layerSizes(domainSize, opts)
	if err != nil {
		return nil, err
	}
	cfg, err := newConfig(options...)
	if err != nil {
		return nil, err
	}

	v := &Verifier{
		opts:          opts,
		cfg:           cfg,
		domainSize:    domainSize,
		sizes:         sizes,
		remainderSize: domainSize,
	}
	if len(sizes) > 0 {
		v.remainderSize = sizes[len(sizes)-1] / uint64(opts.FoldingFactor)

		v.genInvs = make([]fr.Element, len(sizes))
		v.genInvs[0] = fft.NewDomain(domainSize).GeneratorInv
		f := big.NewInt(int64(opts.FoldingFactor))
		for i := 1; i < len(sizes); i++ {
			v.genInvs[i].Exp(v.genInvs[i-1], f)
		}
		v.wInv, v.fInv = foldParams(opts.FoldingFactor)
	}
	if v.remainderSize > 1 {
		v.remainderDomain = fft.NewDomain(v.remainderSize)
	}
	return v, nil
}

// Verify replays the channel against the proof and runs all consistency
// checks. A nil return means the proof is accepted; every rejection is an
// error wrapping one of ErrInvalidProofShape, ErrMerkleVerificationFailed,
// ErrFoldingInconsistency or ErrRemainderDegreeTooHigh. Verify never panics
// on malformed proofs.
func (v *Verifier) Verify(proof *Proof, ch channel.Channel) error {
	run := &verification{
		log: logger.Logger().With().
			Str("protocol", "fri").
			Uint64("domainSize", v.domainSize).
			Logger(),
		state: stateInitial,
	}
	start := time.Now()

	err := v.verify(proof, ch, run)
	if err != nil {
		run.transition(stateRejected)
		run.log.Debug().Dur("took", time.Since(start)).Err(err).Msg("fri proof rejected")
		return err
	}
	run.transition(stateAccepted)
	run.log.Debug().Dur("took", time.Since(start)).Msg("fri proof accepted")
	return nil
}

func (v *Verifier) verify(proof *Proof, ch channel.Channel, run *verification) error {
	// structural checks come first; no arithmetic is attempted on a
	// malformed proof
	if err := v.checkShape(proof); err != nil {
		return err
	}

	// Initial -> CommitmentsAbsorbed
	// replay the prover's absorption order exactly: root then challenge for
	// each layer, then the remainder; any mismatch breaks Fiat-Shamir binding
	alphas := make([]fr.Element, len(v.sizes))
	for i, root := range proof.Roots {
		if err := ch.Absorb(root); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidProofShape, err)
		}
		var err error
		if alphas[i], err = ch.DrawFieldElement(); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidProofShape, err)
		}
	}
	if err := ch.AbsorbElements(proof.Remainder); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidProofShape, err)
	}
	run.transition(stateCommitmentsAbsorbed)

	// CommitmentsAbsorbed -> QueriesDrawn
	positions, err := ch.DrawQueryPositions(v.opts.NumQueries, v.domainSize)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidProofShape, err)
	}
	run.transition(stateQueriesDrawn)

	// QueriesDrawn -> LayersChecked
	// queries are independent; any failing query rejects the proof
	if len(v.sizes) > 0 {
		g := new(errgroup.Group)
		g.SetLimit(v.cfg.nbTasks)
		for qi := range positions {
			qi := qi // per-iteration copy: go.mod targets go 1.21, before per-iteration loop variables
			g.Go(func() error {
				if err := v.verifyQuery(positions[qi], &proof.Queries[qi], alphas, proof); err != nil {
					return fmt.Errorf("query %d: %w", qi, err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	run.transition(stateLayersChecked)

	// LayersChecked -> RemainderChecked
	if err := v.checkRemainderDegree(proof.Remainder); err != nil {
		return err
	}
	run.transition(stateRemainderChecked)

	return nil
}

// checkShape validates the proof structure against the layer and query
// counts implied by the options and domain size.
func (v *Verifier) checkShape(proof *Proof) error {
	if proof == nil {
		return fmt.Errorf("%w: nil proof", ErrInvalidProofShape)
	}
	if len(proof.Roots) != len(v.sizes) {
		return fmt.Errorf("%w: expected %d layers, got %d", ErrInvalidProofShape, len(v.sizes), len(proof.Roots))
	}
	if uint64(len(proof.Remainder)) != v.remainderSize {
		return fmt.Errorf("%w: expected remainder of length %d, got %d", ErrInvalidProofShape, v.remainderSize, len(proof.Remainder))
	}

	digestSize := v.cfg.hash().Size()
	for i, root := range proof.Roots {
		if len(root) != digestSize {
			return fmt.Errorf("%w: root %d has width %d, expected %d", ErrInvalidProofShape, i, len(root), digestSize)
		}
	}

	expectedQueries := v.opts.NumQueries
	if len(v.sizes) == 0 {
		// degenerate zero-layer proof: nothing to open
		expectedQueries = 0
	}
	if len(proof.Queries) != expectedQueries {
		return fmt.Errorf("%w: expected %d queries, got %d", ErrInvalidProofShape, expectedQueries, len(proof.Queries))
	}
	for qi := range proof.Queries {
		if len(proof.Queries[qi].Openings) != len(v.sizes) {
			return fmt.Errorf("%w: query %d has %d openings for %d layers", ErrInvalidProofShape, qi, len(proof.Queries[qi].Openings), len(v.sizes))
		}
		for li := range proof.Queries[qi].Openings {
			o := &proof.Queries[qi].Openings[li]
			if len(o.Values) != v.opts.FoldingFactor {
				return fmt.Errorf("%w: query %d layer %d opens %d values, expected %d", ErrInvalidProofShape, qi, li, len(o.Values), v.opts.FoldingFactor)
			}
			for _, d := range o.Path {
				if len(d) != digestSize {
					return fmt.Errorf("%w: query %d layer %d has a path digest of width %d", ErrInvalidProofShape, qi, li, len(d))
				}
			}
		}
	}
	return nil
}

// verifyQuery walks one query position through all layers: authenticate the
// opened coset, fold it, and check the result against the value opened at
// the next layer (or against the remainder for the last layer).
func (v *Verifier) verifyQuery(position uint64, qp *QueryProof, alphas []fr.Element, proof *Proof) error {
	h := v.cfg.hash()
	factor := uint64(v.opts.FoldingFactor)
	scratch := make([]fr.Element, factor)

	pos := position
	var folded fr.Element
	for li := range v.sizes {
		m := v.sizes[li] / factor
		cosetIndex := pos % m
		offset := pos / m
		opening := &qp.Openings[li]

		leaf := encodeCoset(opening.Values)
		if !merkle.VerifyOpening(h, proof.Roots[li], leaf, opening.Path, cosetIndex, m) {
			return fmt.Errorf("%w: layer %d, coset %d", ErrMerkleVerificationFailed, li, cosetIndex)
		}

		// the value tracked from the previous fold must reappear in the
		// opened coset
		if li > 0 && !opening.Values[offset].Equal(&folded) {
			return fmt.Errorf("%w: layer %d disagrees with the fold of layer %d", ErrFoldingInconsistency, li, li-1)
		}

		var xInv, y fr.Element
		xInv.Exp(v.genInvs[li], new(big.Int).SetUint64(cosetIndex))
		y.Mul(&alphas[li], &xInv)
		folded = foldCoset(opening.Values, y, v.wInv, v.fInv, scratch)

		pos = cosetIndex
	}

	if !folded.Equal(&proof.Remainder[pos]) {
		return fmt.Errorf("%w: last layer disagrees with the remainder at position %d", ErrFoldingInconsistency, pos)
	}
	return nil
}

// checkRemainderDegree interpolates the remainder codeword and checks its
// effective degree against the configured bound.
func (v *Verifier) checkRemainderDegree(remainder []fr.Element) error {
	if len(remainder) <= 1 {
		return nil
	}
	coeffs := make([]fr.Element, len(remainder))
	copy(coeffs, remainder)
	v.remainderDomain.FFTInverse(coeffs, fft.DIF)
	fft.BitReverse(coeffs)

	degree := -1
	for i := len(coeffs) - 1; i >= 0; i-- {
		if !coeffs[i].IsZero() {
			degree = i
			break
		}
	}
	if degree > v.opts.RemainderMaxDegree {
		return fmt.Errorf("%w: degree %d exceeds bound %d", ErrRemainderDegreeTooHigh, degree, v.opts.RemainderMaxDegree)
	}
	return nil
}
