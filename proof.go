package fri

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Proof attests that a committed evaluation vector is close to a low-degree
// polynomial. It is produced by Prover.BuildProof and consumed by
// Verifier.Verify; only roots, openings and the remainder survive the commit
// phase.
type Proof struct {
	// Roots are the Merkle roots of the committed layers, in folding order.
	Roots [][]byte

	// Queries holds one opening chain per query position, in draw order.
	Queries []QueryProof

	// Remainder is the final codeword, sent in the clear once folding reduces
	// the degree below the configured bound.
	Remainder []fr.Element
}

// QueryProof decommits, for a single query position, the fold coset hit at
// every layer.
type QueryProof struct {
	Openings []LayerOpening
}

// LayerOpening decommits one fold coset of one layer.
type LayerOpening struct {
	// Values are the FoldingFactor evaluations forming the opened coset.
	Values []fr.Element

	// Path is the Merkle authentication path, sibling digests bottom-up.
	Path [][]byte
}

// encodeCoset serializes the coset values the way layer leaves are committed.
func encodeCoset(values []fr.Element) []byte {
	leaf := make([]byte, len(values)*fr.Bytes)
	for j := range values {
		b := values[j].Bytes()
		copy(leaf[j*fr.Bytes:], b[:])
	}
	return leaf
}
