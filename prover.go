package fri

import (
	"fmt"
	"math/big"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"
	"github.com/zkstark/fri/channel"
	"github.com/zkstark/fri/logger"
	"github.com/zkstark/fri/merkle"
)

// Prover builds proofs of proximity for evaluation vectors over a fixed
// domain. It is a pure function of its inputs: no state survives a
// BuildProof call.
type Prover struct {
	opts ProofOptions
	cfg  *config

	domainSize uint64
	sizes      []uint64 // pre-fold length of every committed layer

	// generator of the initial evaluation domain; unused when the domain is
	// already below the remainder bound (zero-layer proofs)
	gen fr.Element
}

// proverLayer retains, between commit and query phase, what is needed to
// decommit a layer. Everything is dropped once the proof is assembled.
type proverLayer struct {
	leaves []byte // coset-bucketized serialization of the layer codeword
	root   []byte
	size   uint64
}

// NewProver instantiates a prover for the given initial domain size.
func NewProver(domainSize uint64, opts ProofOptions, options ...Option) (*Prover, error) {
	sizes, err := layerSizes(domainSize, opts)
	if err != nil {
		return nil, err
	}
	cfg, err := newConfig(options...)
	if err != nil {
		return nil, err
	}
	p := &Prover{
		opts:       opts,
		cfg:        cfg,
		domainSize: domainSize,
		sizes:      sizes,
	}
	if len(sizes) > 0 {
		p.gen = fft.NewDomain(domainSize).Generator
	}
	return p, nil
}

// BuildProof runs the commit phase (fold until the remainder bound, one
// commitment and one challenge per layer) then the query phase (decommit the
// cosets hit by the drawn positions) against the given channel.
//
// evals is not modified. Errors are configuration or channel failures; a
// non-nil proof is always well formed.
func (p *Prover) BuildProof(evals []fr.Element, ch channel.Channel) (*Proof, error) {
	log := logger.Logger().With().
		Str("protocol", "fri").
		Uint64("domainSize", p.domainSize).
		Int("nbLayers", len(p.sizes)).
		Logger()
	start := time.Now()

	if uint64(len(evals)) != p.domainSize {
		return nil, fmt.Errorf("%w: expected %d evaluations, got %d", ErrInvalidConfiguration, p.domainSize, len(evals))
	}

	factor := p.opts.FoldingFactor
	segmentSize := factor * fr.Bytes

	// commit phase
	layers := make([]proverLayer, len(p.sizes))
	current := evals
	gen := p.gen
	for i := range p.sizes {
		leaves := bucketize(current, factor)
		root, err := merkle.Commit(p.cfg.hash(), segmentSize, leaves)
		if err != nil {
			return nil, err
		}
		layers[i] = proverLayer{leaves: leaves, root: root, size: uint64(len(current))}

		if err := ch.Absorb(root); err != nil {
			return nil, err
		}
		alpha, err := ch.DrawFieldElement()
		if err != nil {
			return nil, err
		}
		if current, err = Fold(current, factor, alpha, gen, p.cfg.nbTasks); err != nil {
			return nil, err
		}
		gen.Exp(gen, big.NewInt(int64(factor)))
	}

	remainder := make([]fr.Element, len(current))
	copy(remainder, current)
	if err := ch.AbsorbElements(remainder); err != nil {
		return nil, err
	}

	// query phase
	positions, err := ch.DrawQueryPositions(p.opts.NumQueries, p.domainSize)
	if err != nil {
		return nil, err
	}

	proof := &Proof{
		Roots:     make([][]byte, len(layers)),
		Remainder: remainder,
	}
	for i := range layers {
		proof.Roots[i] = layers[i].root
	}
	if len(layers) > 0 {
		proof.Queries = make([]QueryProof, len(positions))
		for qi, pos := range positions {
			openings := make([]LayerOpening, len(layers))
			for li := range layers {
				m := layers[li].size / uint64(factor)
				cosetIndex := pos % m

				proofSet, err := merkle.Open(p.cfg.hash(), segmentSize, cosetIndex, layers[li].leaves)
				if err != nil {
					return nil, err
				}
				values := make([]fr.Element, factor)
				leaf := proofSet[0]
				for j := range values {
					values[j].SetBytes(leaf[j*fr.Bytes : (j+1)*fr.Bytes])
				}
				openings[li] = LayerOpening{Values: values, Path: proofSet[1:]}

				// position for the next layer's lookup
				pos = cosetIndex
			}
			proof.Queries[qi].Openings = openings
		}
	}

	log.Debug().Dur("took", time.Since(start)).Int("nbQueries", p.opts.NumQueries).Msg("fri prover done")
	return proof, nil
}

// bucketize serializes a layer codeword so that each Merkle segment holds one
// fold coset: segment b contains positions b, b+m, ..., b+(factor-1)m.
func bucketize(evals []fr.Element, factor int) []byte {
	m := len(evals) / factor
	out := make([]byte, len(evals)*fr.Bytes)
	for b := 0; b < m; b++ {
		for j := 0; j < factor; j++ {
			e := evals[b+j*m].Bytes()
			copy(out[(b*factor+j)*fr.Bytes:], e[:])
		}
	}
	return out
}
