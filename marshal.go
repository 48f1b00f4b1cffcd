package fri

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// caps on deserialized counts; structural, so a corrupted length prefix
// cannot trigger an arbitrary allocation
const (
	maxSerializedLayers    = 64
	maxSerializedQueries   = 1 << 16
	maxSerializedWidth     = 1 << 16
	maxSerializedRemainder = 1 << 20
)

// WriteTo serializes the proof: layer count and digest width, the roots, then
// for each query and each layer the coset values and the authentication path,
// then the length-prefixed remainder. All integers are big-endian uint32,
// field elements and digests are fixed width, so serialization is byte-exact
// reproducible.
func (proof *Proof) WriteTo(w io.Writer) (int64, error) {
	var written int64

	digestSize := 0
	if len(proof.Roots) > 0 {
		digestSize = len(proof.Roots[0])
	} else {
		for _, q := range proof.Queries {
			for _, o := range q.Openings {
				if len(o.Path) > 0 {
					digestSize = len(o.Path[0])
				}
			}
		}
	}

	writeUint32 := func(v uint32) error {
		err := binary.Write(w, binary.BigEndian, v)
		if err == nil {
			written += 4
		}
		return err
	}
	writeBytes := func(b []byte) error {
		n, err := w.Write(b)
		written += int64(n)
		return err
	}

	if err := writeUint32(uint32(len(proof.Roots))); err != nil {
		return written, err
	}
	if err := writeUint32(uint32(digestSize)); err != nil {
		return written, err
	}
	for _, root := range proof.Roots {
		if len(root) != digestSize {
			return written, fmt.Errorf("%w: inconsistent digest width", ErrInvalidProofShape)
		}
		if err := writeBytes(root); err != nil {
			return written, err
		}
	}

	if err := writeUint32(uint32(len(proof.Queries))); err != nil {
		return written, err
	}
	for _, q := range proof.Queries {
		if len(q.Openings) != len(proof.Roots) {
			return written, fmt.Errorf("%w: query with %d openings for %d layers", ErrInvalidProofShape, len(q.Openings), len(proof.Roots))
		}
		for _, o := range q.Openings {
			if err := writeUint32(uint32(len(o.Values))); err != nil {
				return written, err
			}
			for i := range o.Values {
				b := o.Values[i].Bytes()
				if err := writeBytes(b[:]); err != nil {
					return written, err
				}
			}
			if err := writeUint32(uint32(len(o.Path))); err != nil {
				return written, err
			}
			for _, d := range o.Path {
				if len(d) != digestSize {
					return written, fmt.Errorf("%w: inconsistent digest width", ErrInvalidProofShape)
				}
				if err := writeBytes(d); err != nil {
					return written, err
				}
			}
		}
	}

	if err := writeUint32(uint32(len(proof.Remainder))); err != nil {
		return written, err
	}
	for i := range proof.Remainder {
		b := proof.Remainder[i].Bytes()
		if err := writeBytes(b[:]); err != nil {
			return written, err
		}
	}

	return written, nil
}

// ReadFrom deserializes a proof written by WriteTo. Shape validation against
// the protocol parameters is deferred to Verifier.Verify; only structural
// sanity (bounded counts, fixed widths) is enforced here.
func (proof *Proof) ReadFrom(r io.Reader) (int64, error) {
	var read int64

	readUint32 := func() (uint32, error) {
		var v uint32
		err := binary.Read(r, binary.BigEndian, &v)
		if err == nil {
			read += 4
		}
		return v, err
	}
	readBytes := func(n int) ([]byte, error) {
		b := make([]byte, n)
		m, err := io.ReadFull(r, b)
		read += int64(m)
		return b, err
	}
	readElement := func() (fr.Element, error) {
		var e fr.Element
		b, err := readBytes(fr.Bytes)
		if err != nil {
			return e, err
		}
		e.SetBytes(b)
		return e, nil
	}

	nbLayers, err := readUint32()
	if err != nil {
		return read, err
	}
	if nbLayers > maxSerializedLayers {
		return read, fmt.Errorf("%w: %d layers", ErrInvalidProofShape, nbLayers)
	}
	digestSize, err := readUint32()
	if err != nil {
		return read, err
	}
	if digestSize > maxSerializedWidth {
		return read, fmt.Errorf("%w: digest width %d", ErrInvalidProofShape, digestSize)
	}

	proof.Roots = make([][]byte, nbLayers)
	for i := range proof.Roots {
		if proof.Roots[i], err = readBytes(int(digestSize)); err != nil {
			return read, err
		}
	}

	nbQueries, err := readUint32()
	if err != nil {
		return read, err
	}
	if nbQueries > maxSerializedQueries {
		return read, fmt.Errorf("%w: %d queries", ErrInvalidProofShape, nbQueries)
	}
	proof.Queries = make([]QueryProof, nbQueries)
	for qi := range proof.Queries {
		openings := make([]LayerOpening, nbLayers)
		for li := range openings {
			nbValues, err := readUint32()
			if err != nil {
				return read, err
			}
			if nbValues > maxSerializedWidth {
				return read, fmt.Errorf("%w: opening of width %d", ErrInvalidProofShape, nbValues)
			}
			openings[li].Values = make([]fr.Element, nbValues)
			for i := range openings[li].Values {
				if openings[li].Values[i], err = readElement(); err != nil {
					return read, err
				}
			}
			pathLen, err := readUint32()
			if err != nil {
				return read, err
			}
			if pathLen > maxSerializedWidth {
				return read, fmt.Errorf("%w: path of length %d", ErrInvalidProofShape, pathLen)
			}
			openings[li].Path = make([][]byte, pathLen)
			for i := range openings[li].Path {
				if openings[li].Path[i], err = readBytes(int(digestSize)); err != nil {
					return read, err
				}
			}
		}
		proof.Queries[qi].Openings = openings
	}

	remainderLen, err := readUint32()
	if err != nil {
		return read, err
	}
	if remainderLen > maxSerializedRemainder {
		return read, fmt.Errorf("%w: remainder of length %d", ErrInvalidProofShape, remainderLen)
	}
	proof.Remainder = make([]fr.Element, remainderLen)
	for i := range proof.Remainder {
		if proof.Remainder[i], err = readElement(); err != nil {
			return read, err
		}
	}

	return read, nil
}
