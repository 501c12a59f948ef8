package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// first five zero heights, fixed literals
var exampleGammas = []float64{14.134725141734693, 21.022039638771555, 25.010857580145689, 30.424876125859513, 32.935061587739190}

func TestExampleScenarioFiveZeros(t *testing.T) {
	p := DefaultPhaseParams()
	seq, err := BuildSequences(exampleGammas, p)
	require.NoError(t, err)

	wantPhi := make([]float64, 5)
	wantH := make([]float64, 5)
	logPhi := make([]float64, 5)
	logH := make([]float64, 5)
	for i, g := range exampleGammas {
		n := float64(i + 1)
		wantPhi[i] = (math.Pi/2 - math.Atan(g) + 0.01) / n * (4 / math.Pi)
		wantH[i] = math.Log(1 + wantPhi[i]*wantPhi[i])
		logPhi[i] = math.Log(math.Abs(wantPhi[i]))
		logH[i] = math.Log(wantH[i])
	}

	// one-sided at the ends, central inside
	dPhi := []float64{
		logPhi[1] - logPhi[0],
		(logPhi[2] - logPhi[0]) / 2,
		(logPhi[3] - logPhi[1]) / 2,
		(logPhi[4] - logPhi[2]) / 2,
		logPhi[4] - logPhi[3],
	}
	dH := []float64{
		logH[1] - logH[0],
		(logH[2] - logH[0]) / 2,
		(logH[3] - logH[1]) / 2,
		(logH[4] - logH[2]) / 2,
		logH[4] - logH[3],
	}

	require.Len(t, seq.Phi, 5)
	require.Len(t, seq.Entropy, 5)
	require.Len(t, seq.Ratio, 5)
	for i := range exampleGammas {
		assert.InDelta(t, wantPhi[i], seq.Phi[i], 1e-9, "φ(%d)", i+1)
		assert.InDelta(t, wantH[i], seq.Entropy[i], 1e-9, "H(%d)", i+1)
		assert.InDelta(t, dPhi[i]/dH[i], seq.Ratio[i], 1e-9, "K(%d)", i+1)
		assert.Equal(t, float64(i+1), seq.N[i])
	}

	// φ(1) for γ₁
	assert.InDelta(t, 0.10266, seq.Phi[0], 1e-4)
}

func TestPhaseTransformIsPure(t *testing.T) {
	p := DefaultPhaseParams().WithC(1.37)
	a := PhaseTransform(exampleGammas, p)
	b := PhaseTransform(exampleGammas, p)
	assert.Equal(t, a, b)
	assert.Equal(t, 1.0, DefaultPhaseParams().C)
}

func TestPhaseNeverVanishes(t *testing.T) {
	gammas := []float64{14.13, 1e3, 1e6, 1e9}
	for _, c := range []float64{0.5, 1, 2} {
		for _, reg := range []float64{0.01, 1e-6} {
			p := DefaultPhaseParams()
			p.C, p.Reg = c, reg
			for i, v := range PhaseTransform(gammas, p) {
				assert.NotZero(t, v, "c=%v reg=%v n=%d", c, reg, i+1)
			}
		}
	}
}

func TestEntropyNonNegative(t *testing.T) {
	h := Entropy([]float64{-3, -0.5, 0, 1e-9, 0.2, 7})
	for i, v := range h {
		assert.GreaterOrEqual(t, v, 0.0, "H[%d]", i)
	}
	assert.Equal(t, 0.0, h[2])
	assert.Greater(t, h[3], 0.0)
}

func TestGradient(t *testing.T) {
	g, err := Gradient([]float64{1, 4, 9, 16})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4, 6, 7}, g)

	g, err = Gradient([]float64{2, 5})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 3}, g)

	_, err = Gradient([]float64{1})
	assert.ErrorIs(t, err, ErrTooShort)
	_, err = Gradient(nil)
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestStructuralRatioRejectsZeroEntropy(t *testing.T) {
	_, err := StructuralRatio([]float64{0, 1}, []float64{0, math.Ln2})
	assert.ErrorIs(t, err, ErrEntropyDomain)

	_, err = StructuralRatio([]float64{1, 2}, []float64{1})
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	seq := Sequences{
		N:       []float64{1, 2, 3},
		Phi:     []float64{3, 3.0 / 4, 3.0 / 9},
		Entropy: []float64{0.3, 0.1, 0.05},
		Ratio:   []float64{3, 1, 2},
	}

	s, err := Summarize(seq)
	require.NoError(t, err)
	assert.InDelta(t, 2, s.MeanK, 1e-12)
	assert.InDelta(t, math.Sqrt(2.0/3.0), s.StdK, 1e-12)
	assert.Equal(t, 1.0, s.MinK)
	assert.Equal(t, 3.0, s.MaxK)
	assert.Equal(t, 2.0, s.MedianK)
	assert.GreaterOrEqual(t, s.Pearson, -1.0)
	assert.LessOrEqual(t, s.Pearson, 1.0)

	// φ = 3 n^-2 exactly
	assert.InDelta(t, -2, s.DecayExponent, 1e-9)
	assert.InDelta(t, 1, s.DecayRSquared, 1e-9)

	tuple := s.Tuple()
	assert.Equal(t, s.MeanK, tuple[0])
	assert.Equal(t, s.Pearson, tuple[4])
}

func TestSummarizeMedianOfEvenLength(t *testing.T) {
	seq := Sequences{
		N:       []float64{1, 2, 3, 4},
		Phi:     []float64{1, 0.5, 0.25, 0.125},
		Entropy: []float64{0.7, 0.2, 0.06, 0.015},
		Ratio:   []float64{4, 1, 3, 2},
	}

	s, err := Summarize(seq)
	require.NoError(t, err)
	assert.Equal(t, 2.5, s.MedianK)
	assert.Equal(t, 2.5, median([]float64{2.5}))
	assert.Equal(t, 3.0, median([]float64{5, 1, 3}))
}

func TestPearsonStaysInRange(t *testing.T) {
	inputs := [][2][]float64{
		{{1, 2, 3, 4}, {2, 4, 6, 8}},
		{{1, 2, 3, 4}, {8, 6, 4, 2}},
		{{1, 5, 2, 8, 3}, {0.1, 0.1, 0.3, -2, 7}},
		{{1, 1, 1, 1}, {1, 2, 3, 4}},
	}
	for _, in := range inputs {
		seq := Sequences{N: []float64{1, 2, 3, 4, 5}[:len(in[0])], Phi: in[0], Entropy: in[1], Ratio: in[1]}
		s, err := Summarize(seq)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, s.Pearson, -1.0)
		assert.LessOrEqual(t, s.Pearson, 1.0)
	}
}

func TestLoss(t *testing.T) {
	p := DefaultPhaseParams()
	loss := Loss(exampleGammas, p, 0.5)
	assert.False(t, math.IsInf(loss, 0))
	assert.GreaterOrEqual(t, loss, 0.0)

	// too short for a gradient
	assert.True(t, math.IsInf(Loss(exampleGammas[:1], p, 0.5), 1))
}
