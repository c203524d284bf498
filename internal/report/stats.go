package report

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary describes a sample.
type Summary struct {
	N      int
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
}

// Describe summarizes sample. StdDev is zero for fewer than two values.
func Describe(sample []float64) Summary {
	if len(sample) == 0 {
		return Summary{}
	}
	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)

	s := Summary{
		N:      len(sample),
		Mean:   stat.Mean(sample, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
	if len(sample) > 1 {
		s.StdDev = stat.StdDev(sample, nil)
	}
	return s
}

// Comparison tests whether two samples differ.
type Comparison struct {
	U      float64
	Z      float64
	PValue float64
	// CohensD is (mean1 - mean2) / pooled standard deviation.
	CohensD     float64
	Significant bool
}

// Compare runs a two-tailed Mann-Whitney U test (normal approximation)
// and computes Cohen's d.
func Compare(sample1, sample2 []float64) Comparison {
	n1, n2 := float64(len(sample1)), float64(len(sample2))
	if n1 == 0 || n2 == 0 {
		return Comparison{PValue: 1}
	}

	type ranked struct {
		value float64
		first bool
	}
	combined := make([]ranked, 0, len(sample1)+len(sample2))
	for _, v := range sample1 {
		combined = append(combined, ranked{v, true})
	}
	for _, v := range sample2 {
		combined = append(combined, ranked{v, false})
	}
	sort.Slice(combined, func(i, j int) bool { return combined[i].value < combined[j].value })

	// Ties share their average rank.
	var r1 float64
	for i := 0; i < len(combined); {
		j := i
		for j < len(combined) && combined[j].value == combined[i].value {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			if combined[k].first {
				r1 += avg
			}
		}
		i = j
	}

	u1 := r1 - n1*(n1+1)/2
	u := math.Min(u1, n1*n2-u1)
	mu := n1 * n2 / 2
	sigma := math.Sqrt(n1 * n2 * (n1 + n2 + 1) / 12)

	var z float64
	if sigma > 0 {
		z = (u - mu) / sigma
	}
	p := 2 * 0.5 * (1 + math.Erf(-math.Abs(z)/math.Sqrt2))

	c := Comparison{U: u, Z: z, PValue: p, Significant: p < 0.05}
	if n1+n2 > 2 {
		v1, v2 := variance(sample1), variance(sample2)
		pooled := math.Sqrt(((n1-1)*v1 + (n2-1)*v2) / (n1 + n2 - 2))
		if pooled > 0 {
			c.CohensD = (stat.Mean(sample1, nil) - stat.Mean(sample2, nil)) / pooled
		}
	}
	return c
}

func variance(sample []float64) float64 {
	if len(sample) < 2 {
		return 0
	}
	return stat.Variance(sample, nil)
}
