package main

import (
	"context"
	"io"
	"math/big"
	"strconv"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// published zero heights, rounded to 18 decimals
var knownZeros = []string{
	"14.134725141734693790",
	"21.022039638771554993",
	"25.010857580145688763",
	"30.424876125859513210",
	"32.935061587739189691",
	"37.586178158825671257",
	"40.918719012147495187",
	"43.327073280914999519",
	"48.005150881167159727",
	"49.773832477672302181",
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func defaultZeroConfig() ZeroConfig {
	return createDefaultConfig().Zeros
}

func parseBig(t *testing.T, s string) *big.Float {
	t.Helper()
	f, _, err := big.ParseFloat(s, 10, 256, big.ToNearestEven)
	require.NoError(t, err)
	return f
}

func TestComputeZerosMatchesPublishedValues(t *testing.T) {
	zeros, err := ComputeZeros(context.Background(), len(knownZeros), defaultZeroConfig(), 4, quietLogger())
	require.NoError(t, err)
	require.Len(t, zeros, len(knownZeros))

	tolerance := big.NewFloat(1e-17)
	for i, want := range knownZeros {
		ref := parseBig(t, want)
		diff := new(big.Float).Sub(zeros[i].Gamma, ref)
		diff.Abs(diff)
		assert.True(t, diff.Cmp(tolerance) < 0, "γ_%d = %s, want %s", i+1, zeros[i].Gamma.Text('g', 30), want)

		refFloat, _ := strconv.ParseFloat(want, 64)
		assert.InDelta(t, refFloat, zeros[i].Float, 1e-12)
		assert.Equal(t, i+1, zeros[i].Index)
	}
}

func TestComputeZerosRejectsNonPositiveCount(t *testing.T) {
	for _, n := range []int{0, -3} {
		_, err := ComputeZeros(context.Background(), n, defaultZeroConfig(), 1, quietLogger())
		assert.ErrorIs(t, err, ErrInvalidCount)
	}
}

func TestComputeZerosStrictlyIncreasing(t *testing.T) {
	if testing.Short() {
		t.Skip("refines 60 zeros")
	}
	cfg := defaultZeroConfig()
	cfg.Digits = 30

	zeros, err := ComputeZeros(context.Background(), 60, cfg, 4, quietLogger())
	require.NoError(t, err)
	require.Len(t, zeros, 60)
	for i := 1; i < len(zeros); i++ {
		assert.Equal(t, 1, zeros[i].Gamma.Cmp(zeros[i-1].Gamma), "rank %d", i+1)
	}
}

func TestComputeZerosIndependentOfWorkerCount(t *testing.T) {
	cfg := defaultZeroConfig()
	cfg.Digits = 25

	serial, err := ComputeZeros(context.Background(), 6, cfg, 1, quietLogger())
	require.NoError(t, err)
	parallel, err := ComputeZeros(context.Background(), 6, cfg, 6, quietLogger())
	require.NoError(t, err)

	for i := range serial {
		assert.Equal(t, 0, serial[i].Gamma.Cmp(parallel[i].Gamma), "rank %d", i+1)
	}
}

func TestComputeZerosHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ComputeZeros(ctx, 5, defaultZeroConfig(), 2, quietLogger())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestZetaVanishesAtRefinedZero(t *testing.T) {
	ev := newZetaEvaluator(digitsToBits(50) + guardBits)
	gamma, iterations, err := ev.RefineZero(14.1347251417, digitsToBits(50)+8, 20)
	require.NoError(t, err)
	assert.LessOrEqual(t, iterations, 8)

	zeta, _ := ev.ZetaAndDerivative(gamma)
	assert.Less(t, exponent(zeta.re), -130)
	assert.Less(t, exponent(zeta.im), -130)
}

func TestZetaAtOneHalf(t *testing.T) {
	ev := newZetaEvaluator(200)
	zeta, dzeta := ev.ZetaAndDerivative(newFloat(200))

	want := parseBig(t, "-1.4603545088095868128894991525")
	diff := new(big.Float).Sub(zeta.re, want)
	assert.Less(t, exponent(diff), -80)
	assert.Equal(t, 0, zeta.im.Sign())

	d, _ := dzeta.re.Float64()
	assert.InDelta(t, -3.9226461392091517, d, 1e-12)
}

func TestHardyZChangesSignAtFirstZero(t *testing.T) {
	rc := NewRiemannCalculator(&ZeroConfig{Algorithm: "auto"}, quietLogger())

	before, err := rc.ComputeZ(14.0)
	require.NoError(t, err)
	after, err := rc.ComputeZ(14.3)
	require.NoError(t, err)
	assert.True(t, signChange(before, after))

	_, err = rc.ComputeZ(-1)
	assert.Error(t, err)
}

func TestLocatorAlgorithmsAgree(t *testing.T) {
	em := NewRiemannCalculator(&ZeroConfig{Algorithm: "euler-maclaurin"}, quietLogger())
	rs := NewRiemannCalculator(&ZeroConfig{Algorithm: "riemann-siegel"}, quietLogger())

	for _, height := range []float64{1200.5, 1500.25} {
		a, err := em.ComputeZ(height)
		require.NoError(t, err)
		b, err := rs.ComputeZ(height)
		require.NoError(t, err)
		assert.InDelta(t, a, b, 0.05, "Z(%v)", height)
	}
}

func TestExpectedZeroCount(t *testing.T) {
	rc := NewRiemannCalculator(&ZeroConfig{Algorithm: "auto"}, quietLogger())
	assert.InDelta(t, 10, rc.expectedZeroCount(51), 1)
}

func TestFormatGamma(t *testing.T) {
	g := parseBig(t, "14.134725141734693790457")
	assert.Equal(t, "14.1347251417", FormatGamma(g, 12))
}
