package fri

import (
	"fmt"
	"math/big"
	"math/bits"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"
	"github.com/zkstark/fri/utils/parallel"
)

// Fold reduces an evaluation vector by factor using the challenge alpha.
//
// evals must be the evaluations of some function over the subgroup generated
// by gen (so len(evals) is a power of two and gen has order len(evals)).
// Position p of the input belongs to the coset {p, p+m, ..., p+(factor-1)m},
// m = len(evals)/factor; the output value at index b is the unique polynomial
// of degree < factor interpolating coset b over its domain points, evaluated
// at alpha. If the input is the codeword of a polynomial of degree < d, the
// output is the codeword, over the subgroup generated by gen^factor, of a
// polynomial of degree < ceil(d/factor).
//
// Cosets are independent; they are processed in parallel over at most nbTasks
// goroutines writing to disjoint pre-sized slots, so the output is identical
// to a sequential run.
func Fold(evals []fr.Element, factor int, alpha, gen fr.Element, nbTasks ...int) ([]fr.Element, error) {
	n := len(evals)
	if n == 0 || bits.OnesCount(uint(n)) != 1 {
		return nil, fmt.Errorf("%w: evaluation vector length must be a power of two, got %d", ErrInvalidConfiguration, n)
	}
	switch factor {
	case 2, 4, 8, 16:
	default:
		return nil, fmt.Errorf("%w: unsupported folding factor %d", ErrInvalidConfiguration, factor)
	}
	if n%factor != 0 || n < factor {
		return nil, fmt.Errorf("%w: cannot fold %d evaluations by %d", ErrInvalidConfiguration, n, factor)
	}

	m := n / factor
	wInv, fInv := foldParams(factor)
	var genInv fr.Element
	genInv.Inverse(&gen)

	res := make([]fr.Element, m)
	parallel.Execute(m, func(start, end int) {
		var xInv, y fr.Element
		xInv.Exp(genInv, big.NewInt(int64(start)))
		coset := make([]fr.Element, factor)
		scratch := make([]fr.Element, factor)
		for b := start; b < end; b++ {
			for j := 0; j < factor; j++ {
				coset[j] = evals[b+j*m]
			}
			y.Mul(&alpha, &xInv)
			res[b] = foldCoset(coset, y, wInv, fInv, scratch)
			xInv.Mul(&xInv, &genInv)
		}
	}, nbTasks...)

	return res, nil
}

// foldCoset evaluates at y = alpha/x the polynomial of degree < len(values)
// interpolating values[j] at the points x*w^j, where w generates the subgroup
// of order len(values). wInv[j] must hold w^-j and fInv the inverse of
// len(values); scratch is caller-provided working memory of the same length.
func foldCoset(values []fr.Element, y fr.Element, wInv []fr.Element, fInv fr.Element, scratch []fr.Element) fr.Element {
	f := len(values)

	// size-f inverse DFT; the 1/f normalization is applied once at the end
	for k := 0; k < f; k++ {
		var acc, t fr.Element
		for j := 0; j < f; j++ {
			t.Mul(&values[j], &wInv[(j*k)%f])
			acc.Add(&acc, &t)
		}
		scratch[k] = acc
	}

	res := scratch[f-1]
	for k := f - 2; k >= 0; k-- {
		res.Mul(&res, &y).Add(&res, &scratch[k])
	}
	res.Mul(&res, &fInv)
	return res
}

// foldParams precomputes the inverse twiddles w^-j of the order-factor
// subgroup and the inverse of factor.
func foldParams(factor int) ([]fr.Element, fr.Element) {
	d := fft.NewDomain(uint64(factor))
	wInv := make([]fr.Element, factor)
	wInv[0].SetOne()
	for j := 1; j < factor; j++ {
		wInv[j].Mul(&wInv[j-1], &d.GeneratorInv)
	}
	var fInv fr.Element
	fInv.SetUint64(uint64(factor))
	fInv.Inverse(&fInv)
	return wInv, fInv
}
