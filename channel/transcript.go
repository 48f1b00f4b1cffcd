package channel

import (
	"encoding/binary"
	"fmt"
	"hash"
	"math/bits"
	"strconv"

	"github.com/bits-and-blooms/bitset"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	fiatshamir "github.com/consensys/gnark-crypto/fiat-shamir"
	"golang.org/x/crypto/blake2b"
)

const queriesID = "queries"

// maxDrawAttemptsPerPosition bounds the rejection sampling loop when
// expanding the query seed; it only trips when count is close to domainSize.
const maxDrawAttemptsPerPosition = 1000

// Transcript is the default Channel. It wraps a Fiat-Shamir transcript with
// one named challenge per folding round ("alpha.0", "alpha.1", ...) plus a
// final "queries" challenge seeding the query positions, which are expanded
// deterministically with counter-mode blake2b.
type Transcript struct {
	fs   *fiatshamir.Transcript
	ids  []string
	next int
}

// NewTranscript builds a transcript able to serve nbChallenges folding
// challenges followed by one query-position draw. The optional seed binds
// public context (domain size, options digest, ...) to the first challenge;
// prover and verifier must use the same hash function and seed.
func NewTranscript(h hash.Hash, nbChallenges int, seed []byte) (*Transcript, error) {
	if nbChallenges < 0 {
		return nil, fmt.Errorf("negative number of challenges")
	}
	ids := make([]string, nbChallenges+1)
	for i := 0; i < nbChallenges; i++ {
		ids[i] = "alpha." + strconv.Itoa(i)
	}
	ids[nbChallenges] = queriesID

	t := &Transcript{
		fs:  fiatshamir.NewTranscript(h, ids...),
		ids: ids,
	}
	if len(seed) > 0 {
		if err := t.fs.Bind(ids[0], seed); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Transcript) Absorb(data []byte) error {
	if t.next >= len(t.ids) {
		return ErrExhausted
	}
	return t.fs.Bind(t.ids[t.next], data)
}

func (t *Transcript) AbsorbElements(els []fr.Element) error {
	if t.next >= len(t.ids) {
		return ErrExhausted
	}
	for i := range els {
		if err := t.fs.Bind(t.ids[t.next], els[i].Marshal()); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transcript) DrawFieldElement() (fr.Element, error) {
	var res fr.Element
	if t.next >= len(t.ids)-1 {
		// the last challenge is reserved for the query positions
		return res, ErrExhausted
	}
	b, err := t.fs.ComputeChallenge(t.ids[t.next])
	if err != nil {
		return res, err
	}
	t.next++
	res.SetBytes(b)
	return res, nil
}

func (t *Transcript) DrawQueryPositions(count int, domainSize uint64) ([]uint64, error) {
	if t.next != len(t.ids)-1 {
		return nil, fmt.Errorf("%w: %d challenge(s) left before query positions", ErrExhausted, len(t.ids)-1-t.next)
	}
	if count <= 0 || uint64(count) > domainSize {
		return nil, fmt.Errorf("%w: %d requested out of a domain of size %d", ErrTooManyPositions, count, domainSize)
	}
	if bits.OnesCount64(domainSize) != 1 {
		return nil, fmt.Errorf("domain size must be a power of two, got %d", domainSize)
	}
	seed, err := t.fs.ComputeChallenge(t.ids[t.next])
	if err != nil {
		return nil, err
	}
	t.next++

	// counter-mode expansion of the seed; the modulo is unbiased since
	// domainSize is a power of two
	buf := make([]byte, len(seed)+8)
	copy(buf, seed)
	seen := bitset.New(uint(domainSize))
	positions := make([]uint64, 0, count)
	for counter := uint64(0); len(positions) < count; counter++ {
		if counter >= maxDrawAttemptsPerPosition*uint64(count) {
			return nil, fmt.Errorf("%w: gave up after %d attempts", ErrTooManyPositions, counter)
		}
		binary.BigEndian.PutUint64(buf[len(seed):], counter)
		digest := blake2b.Sum256(buf)
		pos := binary.BigEndian.Uint64(digest[:8]) % domainSize
		if seen.Test(uint(pos)) {
			continue
		}
		seen.Set(uint(pos))
		positions = append(positions, pos)
	}
	return positions, nil
}
