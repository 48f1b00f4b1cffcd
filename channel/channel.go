// Package channel implements the public-coin channel of the FRI protocol.
//
// The prover and the verifier each hold an independent Channel instance
// seeded identically from public data; soundness of the Fiat-Shamir
// transformation requires both sides to absorb and draw in the exact same
// order.
package channel

import (
	"errors"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Channel is a deterministic, replayable source of protocol randomness.
type Channel interface {
	// Absorb commits raw bytes (typically a layer commitment digest) to the
	// transcript.
	Absorb(data []byte) error

	// AbsorbElements commits a sequence of field elements to the transcript.
	AbsorbElements(els []fr.Element) error

	// DrawFieldElement derives the next challenge scalar from everything
	// absorbed so far.
	DrawFieldElement() (fr.Element, error)

	// DrawQueryPositions derives count distinct positions in [0, domainSize).
	DrawQueryPositions(count int, domainSize uint64) ([]uint64, error)
}

var (
	// ErrExhausted is returned when more challenges are drawn than the
	// transcript was sized for.
	ErrExhausted = errors.New("transcript exhausted")

	// ErrTooManyPositions is returned when the domain cannot supply the
	// requested number of distinct query positions.
	ErrTooManyPositions = errors.New("cannot draw enough distinct query positions")
)
