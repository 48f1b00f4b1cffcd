package fri

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"hash"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zkstark/fri/channel"
)

// newTestChannel builds a fresh transcript sized for the given instance; the
// prover and the verifier each get their own.
func newTestChannel(t *testing.T, domainSize uint64, opts ProofOptions) channel.Channel {
	t.Helper()
	nbLayers, err := NumLayers(domainSize, opts)
	require.NoError(t, err)
	ch, err := channel.NewTranscript(sha256.New(), nbLayers, []byte("fri-low-degree-test"))
	require.NoError(t, err)
	return ch
}

// randomCodeword evaluates a random polynomial of the given degree over the
// canonical domain of size n.
func randomCodeword(t *testing.T, n uint64, degree int) []fr.Element {
	t.Helper()
	coeffs := make([]fr.Element, n)
	for i := 0; i <= degree; i++ {
		_, err := coeffs[i].SetRandom()
		require.NoError(t, err)
	}
	return evaluate(coeffs, n)
}

// assertRejected checks that a verification failure surfaces through the
// documented error taxonomy.
func assertRejected(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	ok := errors.Is(err, ErrInvalidProofShape) ||
		errors.Is(err, ErrMerkleVerificationFailed) ||
		errors.Is(err, ErrFoldingInconsistency) ||
		errors.Is(err, ErrRemainderDegreeTooHigh)
	assert.True(t, ok, "unexpected error: %v", err)
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name       string
		domainSize uint64
		opts       ProofOptions
		degree     int
	}{
		{"fold2-blowup2", 64, ProofOptions{FoldingFactor: 2, BlowupFactor: 2, NumQueries: 4, RemainderMaxDegree: 1}, 20},
		{"fold4-blowup4", 256, ProofOptions{FoldingFactor: 4, BlowupFactor: 4, NumQueries: 7, RemainderMaxDegree: 3}, 50},
		{"fold2-blowup4", 32, ProofOptions{FoldingFactor: 2, BlowupFactor: 4, NumQueries: 2, RemainderMaxDegree: 0}, 5},
		{"fold8-blowup8", 512, ProofOptions{FoldingFactor: 8, BlowupFactor: 8, NumQueries: 10, RemainderMaxDegree: 7}, 60},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			evals := randomCodeword(t, tc.domainSize, tc.degree)

			prover, err := NewProver(tc.domainSize, tc.opts)
			require.NoError(t, err)
			proof, err := prover.BuildProof(evals, newTestChannel(t, tc.domainSize, tc.opts))
			require.NoError(t, err)

			verifier, err := NewVerifier(tc.domainSize, tc.opts)
			require.NoError(t, err)
			require.NoError(t, verifier.Verify(proof, newTestChannel(t, tc.domainSize, tc.opts)))
		})
	}
}

func TestRoundTripMiMC(t *testing.T) {
	const n = uint64(64)
	opts := ProofOptions{FoldingFactor: 2, BlowupFactor: 2, NumQueries: 4, RemainderMaxDegree: 1}
	withMiMC := WithHash(func() hash.Hash { return mimc.NewMiMC() })

	evals := randomCodeword(t, n, 25)

	prover, err := NewProver(n, opts, withMiMC)
	require.NoError(t, err)
	proof, err := prover.BuildProof(evals, newTestChannel(t, n, opts))
	require.NoError(t, err)

	verifier, err := NewVerifier(n, opts, withMiMC)
	require.NoError(t, err)
	require.NoError(t, verifier.Verify(proof, newTestChannel(t, n, opts)))

	// commitment hashes must match on both sides
	plain, err := NewVerifier(n, opts)
	require.NoError(t, err)
	assertRejected(t, plain.Verify(proof, newTestChannel(t, n, opts)))
}

// TestConstantCodeword pins down the exact layer structure of a small
// instance: 16 evaluations, folding by 2 with a size-2 remainder bound give
// three committed layers and a remainder of two equal values.
func TestConstantCodeword(t *testing.T) {
	const n = uint64(16)
	opts := ProofOptions{FoldingFactor: 2, BlowupFactor: 2, NumQueries: 1, RemainderMaxDegree: 0}

	var c fr.Element
	c.SetUint64(42)
	evals := make([]fr.Element, n)
	for i := range evals {
		evals[i] = c
	}

	prover, err := NewProver(n, opts)
	require.NoError(t, err)
	proof, err := prover.BuildProof(evals, newTestChannel(t, n, opts))
	require.NoError(t, err)

	require.Len(t, proof.Roots, 3)
	require.Len(t, proof.Queries, 1)
	require.Len(t, proof.Queries[0].Openings, 3)
	require.Len(t, proof.Remainder, 2)
	assert.True(t, proof.Remainder[0].Equal(&c))
	assert.True(t, proof.Remainder[1].Equal(&c))

	verifier, err := NewVerifier(n, opts)
	require.NoError(t, err)
	require.NoError(t, verifier.Verify(proof, newTestChannel(t, n, opts)))
}

// TestZeroLayerProof covers the degenerate case where the initial domain is
// already within the remainder bound: no layer is committed and the input
// codeword itself is sent in the clear.
func TestZeroLayerProof(t *testing.T) {
	const n = uint64(4)
	opts := ProofOptions{FoldingFactor: 2, BlowupFactor: 2, NumQueries: 3, RemainderMaxDegree: 1}

	nbLayers, err := NumLayers(n, opts)
	require.NoError(t, err)
	require.Equal(t, 0, nbLayers)

	evals := randomCodeword(t, n, 1)

	prover, err := NewProver(n, opts)
	require.NoError(t, err)
	proof, err := prover.BuildProof(evals, newTestChannel(t, n, opts))
	require.NoError(t, err)

	require.Empty(t, proof.Roots)
	require.Empty(t, proof.Queries)
	require.Equal(t, evals, proof.Remainder)

	verifier, err := NewVerifier(n, opts)
	require.NoError(t, err)
	require.NoError(t, verifier.Verify(proof, newTestChannel(t, n, opts)))

	// a degenerate remainder of too high a degree is still rejected
	bad := randomCodeword(t, n, 3)
	badProof, err := prover.BuildProof(bad, newTestChannel(t, n, opts))
	require.NoError(t, err)
	err = verifier.Verify(badProof, newTestChannel(t, n, opts))
	require.ErrorIs(t, err, ErrRemainderDegreeTooHigh)
}

// TestHighDegreeRejected runs an honest prover on a codeword of full degree;
// every Merkle and folding check passes, only the final degree check trips.
func TestHighDegreeRejected(t *testing.T) {
	const n = uint64(64)
	opts := ProofOptions{FoldingFactor: 2, BlowupFactor: 2, NumQueries: 4, RemainderMaxDegree: 1}

	evals := randomCodeword(t, n, int(n)-1)

	prover, err := NewProver(n, opts)
	require.NoError(t, err)
	proof, err := prover.BuildProof(evals, newTestChannel(t, n, opts))
	require.NoError(t, err)

	verifier, err := NewVerifier(n, opts)
	require.NoError(t, err)
	err = verifier.Verify(proof, newTestChannel(t, n, opts))
	require.ErrorIs(t, err, ErrRemainderDegreeTooHigh)
}

func TestTamperedProof(t *testing.T) {
	const n = uint64(32)
	opts := ProofOptions{FoldingFactor: 2, BlowupFactor: 2, NumQueries: 4, RemainderMaxDegree: 0}

	evals := randomCodeword(t, n, 10)

	prover, err := NewProver(n, opts)
	require.NoError(t, err)
	verifier, err := NewVerifier(n, opts)
	require.NoError(t, err)

	buildProof := func(t *testing.T) *Proof {
		t.Helper()
		proof, err := prover.BuildProof(evals, newTestChannel(t, n, opts))
		require.NoError(t, err)
		return proof
	}

	t.Run("honest", func(t *testing.T) {
		require.NoError(t, verifier.Verify(buildProof(t), newTestChannel(t, n, opts)))
	})

	t.Run("corrupted opening value", func(t *testing.T) {
		proof := buildProof(t)
		var one fr.Element
		one.SetOne()
		proof.Queries[0].Openings[0].Values[0].Add(&proof.Queries[0].Openings[0].Values[0], &one)
		err := verifier.Verify(proof, newTestChannel(t, n, opts))
		require.ErrorIs(t, err, ErrMerkleVerificationFailed)
	})

	t.Run("corrupted path digest", func(t *testing.T) {
		proof := buildProof(t)
		proof.Queries[1].Openings[1].Path[0][3] ^= 0xff
		err := verifier.Verify(proof, newTestChannel(t, n, opts))
		require.ErrorIs(t, err, ErrMerkleVerificationFailed)
	})

	// corrupting a root or the remainder also shifts the replayed challenges
	// and query positions, so rejection may surface through any check
	t.Run("corrupted root", func(t *testing.T) {
		proof := buildProof(t)
		proof.Roots[1][0] ^= 0x01
		assertRejected(t, verifier.Verify(proof, newTestChannel(t, n, opts)))
	})

	t.Run("corrupted remainder", func(t *testing.T) {
		proof := buildProof(t)
		var one fr.Element
		one.SetOne()
		proof.Remainder[0].Add(&proof.Remainder[0], &one)
		assertRejected(t, verifier.Verify(proof, newTestChannel(t, n, opts)))
	})

	t.Run("swapped openings", func(t *testing.T) {
		proof := buildProof(t)
		o := proof.Queries[0].Openings
		o[0], o[1] = o[1], o[0]
		assertRejected(t, verifier.Verify(proof, newTestChannel(t, n, opts)))
	})
}

func TestMalformedProofShape(t *testing.T) {
	const n = uint64(32)
	opts := ProofOptions{FoldingFactor: 2, BlowupFactor: 2, NumQueries: 3, RemainderMaxDegree: 0}

	evals := randomCodeword(t, n, 10)

	prover, err := NewProver(n, opts)
	require.NoError(t, err)
	verifier, err := NewVerifier(n, opts)
	require.NoError(t, err)

	buildProof := func(t *testing.T) *Proof {
		t.Helper()
		proof, err := prover.BuildProof(evals, newTestChannel(t, n, opts))
		require.NoError(t, err)
		return proof
	}

	mutations := map[string]func(*Proof){
		"missing root":          func(p *Proof) { p.Roots = p.Roots[:len(p.Roots)-1] },
		"missing query":         func(p *Proof) { p.Queries = p.Queries[:len(p.Queries)-1] },
		"missing opening":       func(p *Proof) { p.Queries[0].Openings = p.Queries[0].Openings[:1] },
		"extra opening value":   func(p *Proof) { p.Queries[0].Openings[0].Values = append(p.Queries[0].Openings[0].Values, fr.Element{}) },
		"truncated remainder":   func(p *Proof) { p.Remainder = p.Remainder[:1] },
		"truncated root digest": func(p *Proof) { p.Roots[0] = p.Roots[0][:16] },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			proof := buildProof(t)
			mutate(proof)
			err := verifier.Verify(proof, newTestChannel(t, n, opts))
			require.ErrorIs(t, err, ErrInvalidProofShape)
		})
	}

	t.Run("nil proof", func(t *testing.T) {
		err := verifier.Verify(nil, newTestChannel(t, n, opts))
		require.ErrorIs(t, err, ErrInvalidProofShape)
	})
}

func TestProofDeterminism(t *testing.T) {
	const n = uint64(64)
	opts := ProofOptions{FoldingFactor: 4, BlowupFactor: 4, NumQueries: 5, RemainderMaxDegree: 0}

	evals := randomCodeword(t, n, 12)

	serialize := func(t *testing.T, nbTasks int) []byte {
		t.Helper()
		prover, err := NewProver(n, opts, WithNbTasks(nbTasks))
		require.NoError(t, err)
		proof, err := prover.BuildProof(evals, newTestChannel(t, n, opts))
		require.NoError(t, err)
		var buf bytes.Buffer
		_, err = proof.WriteTo(&buf)
		require.NoError(t, err)
		return buf.Bytes()
	}

	ref := serialize(t, 1)
	require.Equal(t, ref, serialize(t, 1))
	require.Equal(t, ref, serialize(t, 8))
}

func TestOptionsValidate(t *testing.T) {
	valid := ProofOptions{FoldingFactor: 2, BlowupFactor: 2, NumQueries: 1, RemainderMaxDegree: 0}
	require.NoError(t, valid.Validate())

	cases := map[string]ProofOptions{
		"folding factor 3":             {FoldingFactor: 3, BlowupFactor: 4, NumQueries: 1, RemainderMaxDegree: 0},
		"folding factor 32":            {FoldingFactor: 32, BlowupFactor: 32, NumQueries: 1, RemainderMaxDegree: 0},
		"blowup below folding":         {FoldingFactor: 4, BlowupFactor: 2, NumQueries: 1, RemainderMaxDegree: 0},
		"blowup not a power of two":    {FoldingFactor: 2, BlowupFactor: 6, NumQueries: 1, RemainderMaxDegree: 0},
		"no queries":                   {FoldingFactor: 2, BlowupFactor: 2, NumQueries: 0, RemainderMaxDegree: 0},
		"remainder degree negative":    {FoldingFactor: 2, BlowupFactor: 2, NumQueries: 1, RemainderMaxDegree: -1},
		"remainder degree not 2^k - 1": {FoldingFactor: 2, BlowupFactor: 2, NumQueries: 1, RemainderMaxDegree: 2},
		"remainder degree too large":   {FoldingFactor: 2, BlowupFactor: 2, NumQueries: 1, RemainderMaxDegree: 511},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, opts.Validate(), ErrInvalidConfiguration)
		})
	}

	t.Run("domain size not a power of two", func(t *testing.T) {
		_, err := NumLayers(48, valid)
		require.ErrorIs(t, err, ErrInvalidConfiguration)
	})
	t.Run("wrong evaluation count", func(t *testing.T) {
		prover, err := NewProver(16, valid)
		require.NoError(t, err)
		_, err = prover.BuildProof(make([]fr.Element, 8), newTestChannel(t, 16, valid))
		require.ErrorIs(t, err, ErrInvalidConfiguration)
	})
}
