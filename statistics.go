package main

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ==================== STATISTICS ENGINE ====================

var (
	ErrTooShort      = errors.New("sequence too short for a discrete gradient")
	ErrEntropyDomain = errors.New("structural entropy must be positive")
)

// Sequences are the index-aligned series derived from one phase sequence.
type Sequences struct {
	N       []float64 // ranks 1..N
	Phi     []float64
	Entropy []float64
	Ratio   []float64
}

// Summary is the reported view of the final sequences.
type Summary struct {
	MeanK   float64
	StdK    float64
	MinK    float64
	MaxK    float64
	MedianK float64
	Pearson float64

	// ln|φ(n)| ≈ a + DecayExponent·ln n
	DecayExponent float64
	DecayRSquared float64
}

// Tuple returns (mean K, std K, min K, max K, pearson(φ, H)).
func (s Summary) Tuple() [5]float64 {
	return [5]float64{s.MeanK, s.StdK, s.MinK, s.MaxK, s.Pearson}
}

// Entropy computes H(n) = ln(1 + φ(n)²).
func Entropy(phi []float64) []float64 {
	h := make([]float64, len(phi))
	for i, v := range phi {
		h[i] = math.Log1p(v * v)
	}
	return h
}

// Gradient is the unit-spacing discrete gradient: central differences in
// the interior and first-order one-sided differences at both ends.
func Gradient(y []float64) ([]float64, error) {
	n := len(y)
	if n < 2 {
		return nil, fmt.Errorf("%w: length %d", ErrTooShort, n)
	}

	g := make([]float64, n)
	g[0] = y[1] - y[0]
	g[n-1] = y[n-1] - y[n-2]
	for i := 1; i < n-1; i++ {
		g[i] = (y[i+1] - y[i-1]) / 2
	}
	return g, nil
}

// StructuralRatio computes K(n) = d(ln|φ|)/d(ln H).
func StructuralRatio(phi, h []float64) ([]float64, error) {
	if len(phi) != len(h) {
		return nil, fmt.Errorf("phase and entropy lengths differ (%d != %d)", len(phi), len(h))
	}

	logPhi := make([]float64, len(phi))
	logH := make([]float64, len(h))
	for i := range phi {
		if !(h[i] > 0) {
			return nil, fmt.Errorf("%w: H(%d) = %g", ErrEntropyDomain, i+1, h[i])
		}
		logPhi[i] = math.Log(math.Abs(phi[i]))
		logH[i] = math.Log(h[i])
	}

	dPhi, err := Gradient(logPhi)
	if err != nil {
		return nil, err
	}
	dH, err := Gradient(logH)
	if err != nil {
		return nil, err
	}

	k := make([]float64, len(phi))
	for i := range k {
		k[i] = dPhi[i] / dH[i]
	}
	return k, nil
}

// BuildSequences runs the phase transform and the entropy/ratio stages.
func BuildSequences(gammas []float64, p PhaseParams) (Sequences, error) {
	phi := PhaseTransform(gammas, p)
	h := Entropy(phi)
	k, err := StructuralRatio(phi, h)
	if err != nil {
		return Sequences{}, err
	}

	ranks := make([]float64, len(gammas))
	for i := range ranks {
		ranks[i] = float64(i + 1)
	}

	return Sequences{N: ranks, Phi: phi, Entropy: h, Ratio: k}, nil
}

// Loss is |mean(K) - target| + std(K) at the given parameters, with the
// population standard deviation. Non-finite values map to +Inf.
func Loss(gammas []float64, p PhaseParams, target float64) float64 {
	seq, err := BuildSequences(gammas, p)
	if err != nil {
		return math.Inf(1)
	}
	mean, std := stat.PopMeanStdDev(seq.Ratio, nil)
	loss := math.Abs(mean-target) + std
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return math.Inf(1)
	}
	return loss
}

// median averages the two middle values for even lengths.
func median(x []float64) float64 {
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return stat.Quantile(0.5, stat.Empirical, sorted, nil)
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Summarize computes the reported statistics of K along with the Pearson
// correlation of φ and H and the phase decay fit.
func Summarize(seq Sequences) (Summary, error) {
	k := seq.Ratio
	if len(k) < 2 {
		return Summary{}, fmt.Errorf("%w: length %d", ErrTooShort, len(k))
	}

	var s Summary
	s.MeanK, s.StdK = stat.PopMeanStdDev(k, nil)
	s.MinK = floats.Min(k)
	s.MaxK = floats.Max(k)

	s.MedianK = median(k)

	s.Pearson = clampCorrelation(stat.Correlation(seq.Phi, seq.Entropy, nil))

	logN := make([]float64, len(seq.N))
	logPhi := make([]float64, len(seq.Phi))
	for i := range seq.N {
		logN[i] = math.Log(seq.N[i])
		logPhi[i] = math.Log(math.Abs(seq.Phi[i]))
	}
	alpha, beta := stat.LinearRegression(logN, logPhi, nil, false)
	s.DecayExponent = beta
	s.DecayRSquared = stat.RSquared(logN, logPhi, nil, alpha, beta)

	return s, nil
}

// clampCorrelation keeps a correlation within [-1, 1]. A degenerate input
// (zero variance) has no defined correlation and reports 0.
func clampCorrelation(r float64) float64 {
	switch {
	case math.IsNaN(r):
		return 0
	case r > 1:
		return 1
	case r < -1:
		return -1
	}
	return r
}
