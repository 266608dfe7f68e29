// Package stats holds the statistical routines used to compare scoring
// methods: the Wilcoxon signed-rank test, descriptive summaries and
// ROC/F1 evaluation of score vectors.
package stats

import (
	"math"
	"sort"

	"github.com/ar90n/modica"
	"github.com/ar90n/modica/number"
	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/stat/distuv"
)

type Alternative int

const (
	TwoSided Alternative = iota
	// Greater tests whether x tends to exceed y.
	Greater
	// Less tests whether x tends to fall below y.
	Less
)

func (a Alternative) String() string {
	switch a {
	case TwoSided:
		return "two-sided"
	case Greater:
		return "greater"
	case Less:
		return "less"
	default:
		return "unknown"
	}
}

// exactMaxN is the largest sample for which the exact null distribution is
// used when there are no ties.
const exactMaxN = 50

type SignedRankResult struct {
	// Statistic is min(W+, W-) for TwoSided and W+ otherwise.
	Statistic float64
	PValue    float64
	// N is the number of non-zero differences that were ranked.
	N int
	// Z is the normal deviate; zero when Exact is set.
	Z     float64
	Exact bool
}

// SignedRank runs the Wilcoxon signed-rank test on the paired samples x and
// y. Zero differences are dropped and tied magnitudes share their average
// rank. Non-finite values are rejected.
func SignedRank(x, y []float64, alt Alternative) (SignedRankResult, error) {
	if len(x) != len(y) {
		return SignedRankResult{}, errors.Mark(
			errors.Newf("paired samples differ in length: %d != %d", len(x), len(y)),
			modica.ErrPrecondition,
		)
	}
	if !number.Finite(x) || !number.Finite(y) {
		return SignedRankResult{}, errors.Mark(
			errors.New("paired samples contain NaN or infinite values"),
			modica.ErrPrecondition,
		)
	}

	d := make([]float64, 0, len(x))
	for i := range x {
		if diff := x[i] - y[i]; diff != 0 {
			d = append(d, diff)
		}
	}
	n := len(d)
	if n == 0 {
		return SignedRankResult{}, errors.Mark(
			errors.New("all paired differences are zero"),
			modica.ErrPrecondition,
		)
	}

	ranks, ties := rankAbs(d)
	var wPlus, wMinus float64
	for i, v := range d {
		if 0 < v {
			wPlus += ranks[i]
		} else {
			wMinus += ranks[i]
		}
	}

	res := SignedRankResult{N: n, Statistic: wPlus}
	if alt == TwoSided {
		res.Statistic = math.Min(wPlus, wMinus)
	}

	if n <= exactMaxN && len(ties) == 0 {
		res.Exact = true
		res.PValue = exactPValue(n, int(wPlus), alt)
		return res, nil
	}

	nf := float64(n)
	mean := nf * (nf + 1) / 4
	variance := nf * (nf + 1) * (2*nf + 1) / 24
	for _, t := range ties {
		tf := float64(t)
		variance -= (tf*tf*tf - tf) / 48
	}
	se := math.Sqrt(variance)

	norm := distuv.UnitNormal
	res.Z = (res.Statistic - mean) / se
	switch alt {
	case Greater:
		res.PValue = norm.Survival(res.Z)
	case Less:
		res.PValue = norm.CDF(res.Z)
	default:
		res.PValue = math.Min(1, 2*norm.Survival(math.Abs(res.Z)))
	}
	return res, nil
}

// rankAbs ranks |d| from 1, averaging tied ranks, and returns the sizes of
// the tie groups.
func rankAbs(d []float64) ([]float64, []int) {
	idx := make([]int, len(d))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return math.Abs(d[idx[a]]) < math.Abs(d[idx[b]])
	})

	ranks := make([]float64, len(d))
	var ties []int
	for i := 0; i < len(idx); {
		j := i + 1
		for j < len(idx) && math.Abs(d[idx[j]]) == math.Abs(d[idx[i]]) {
			j++
		}
		r := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = r
		}
		if 1 < j-i {
			ties = append(ties, j-i)
		}
		i = j
	}
	return ranks, ties
}

// exactPValue evaluates the null distribution of W+ for n untied ranks.
func exactPValue(n int, wPlus int, alt Alternative) float64 {
	maxW := n * (n + 1) / 2
	counts := make([]float64, maxW+1)
	counts[0] = 1
	for r := 1; r <= n; r++ {
		for s := maxW; r <= s; s-- {
			counts[s] += counts[s-r]
		}
	}
	total := math.Ldexp(1, n)

	cdf := func(w int) float64 {
		var c float64
		for s := 0; s <= w && s <= maxW; s++ {
			c += counts[s]
		}
		return c / total
	}
	sf := func(w int) float64 {
		return 1 - cdf(w-1)
	}

	switch alt {
	case Greater:
		return sf(wPlus)
	case Less:
		return cdf(wPlus)
	default:
		return math.Min(1, 2*math.Min(cdf(wPlus), sf(wPlus)))
	}
}
