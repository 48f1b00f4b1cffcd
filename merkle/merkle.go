// Package merkle adapts gnark-crypto's Merkle tree accumulator as the
// commitment provider for FRI layers.
//
// A layer is committed as a tree whose leaves are whole fold cosets
// (segmentSize bytes each), so opening one queried coset costs a single
// leaf proof.
package merkle

import (
	"bytes"
	"errors"
	"hash"

	"github.com/consensys/gnark-crypto/accumulator/merkletree"
)

var (
	errInvalidSegmentSize = errors.New("merkle: data length must be a multiple of the segment size")
	errIndexOutOfRange    = errors.New("merkle: leaf index out of range")
)

// Commit builds a Merkle tree over data, split in consecutive segments of
// segmentSize bytes, and returns the root digest.
func Commit(h hash.Hash, segmentSize int, data []byte) ([]byte, error) {
	if segmentSize <= 0 || len(data) == 0 || len(data)%segmentSize != 0 {
		return nil, errInvalidSegmentSize
	}
	tree := merkletree.New(h)
	for i := 0; i < len(data); i += segmentSize {
		tree.Push(data[i : i+segmentSize])
	}
	return tree.Root(), nil
}

// Open returns the proof set decommitting the leaf at index against the root
// of the tree built over data. The first entry of the proof set is the raw
// leaf segment, the remaining entries are the authentication path digests.
func Open(h hash.Hash, segmentSize int, index uint64, data []byte) ([][]byte, error) {
	if segmentSize <= 0 || len(data) == 0 || len(data)%segmentSize != 0 {
		return nil, errInvalidSegmentSize
	}
	if index >= uint64(len(data)/segmentSize) {
		return nil, errIndexOutOfRange
	}
	_, proofSet, _, err := merkletree.BuildReaderProof(bytes.NewReader(data), h, segmentSize, index)
	if err != nil {
		return nil, err
	}
	return proofSet, nil
}

// VerifyOpening checks that leaf (raw segment bytes) and path authenticate
// the leaf at index against root, for a tree of numLeaves leaves.
func VerifyOpening(h hash.Hash, root []byte, leaf []byte, path [][]byte, index, numLeaves uint64) bool {
	proofSet := make([][]byte, 0, 1+len(path))
	proofSet = append(proofSet, leaf)
	proofSet = append(proofSet, path...)
	return merkletree.VerifyProof(h, root, proofSet, index, numLeaves)
}
