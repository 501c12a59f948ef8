package main

import (
	"fmt"
	"math"
	"math/cmplx"
	"time"

	"github.com/sirupsen/logrus"
)

// ==================== ZERO LOCATOR ENGINE ====================

// Euler-Maclaurin tail terms used by the float64 evaluator. Twelve terms
// keep the truncation error near 2^-48 for the summation lengths below.
const floatTailTerms = 12

// RiemannCalculator evaluates Hardy's Z function in float64. It is only
// used to bracket zeros; the digits come from zetaEvaluator.
type RiemannCalculator struct {
	config *ZeroConfig
	logger *logrus.Logger

	emCoeffs []float64

	// Algorithm implementations
	algorithmFunc func(float64) float64
	thetaFunc     func(float64) float64
}

func NewRiemannCalculator(cfg *ZeroConfig, logger *logrus.Logger) *RiemannCalculator {
	rc := &RiemannCalculator{
		config:   cfg,
		logger:   logger,
		emCoeffs: make([]float64, floatTailTerms),
	}

	for k := 1; k <= floatTailTerms; k++ {
		rc.emCoeffs[k-1], _ = bernoulliCoefficient(k).Float64()
	}

	// Select algorithm based on config
	rc.selectAlgorithm()

	return rc
}

func (rc *RiemannCalculator) selectAlgorithm() {
	rc.thetaFunc = rc.thetaAsymptotic
	switch rc.config.Algorithm {
	case "riemann-siegel":
		rc.algorithmFunc = rc.riemannSiegel
	case "euler-maclaurin":
		rc.algorithmFunc = rc.eulerMaclaurin
	default: // "auto"
		rc.algorithmFunc = rc.autoSelectAlgorithm
	}
}

func (rc *RiemannCalculator) autoSelectAlgorithm(t float64) float64 {
	if t < 1000 {
		return rc.eulerMaclaurin(t)
	}
	return rc.riemannSiegel(t)
}

// ComputeZ returns Hardy's Z(t) = e^{iθ(t)} ζ(½+it).
func (rc *RiemannCalculator) ComputeZ(t float64) (float64, error) {
	if t <= 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, fmt.Errorf("Z(t) requires a positive finite height, got %v", t)
	}

	start := time.Now()
	z := rc.algorithmFunc(t)

	elapsed := time.Since(start)
	if elapsed > 100*time.Millisecond && rc.logger != nil {
		rc.logger.Debugf("Z(%.2e) calculation took %v", t, elapsed)
	}

	return z, nil
}

func (rc *RiemannCalculator) riemannSiegel(t float64) float64 {
	theta := rc.thetaFunc(t)

	T := t / (2 * math.Pi)
	root := math.Sqrt(T)
	N := int(root)

	sum := 0.0
	for n := 1; n <= N; n++ {
		logN := math.Log(float64(n))
		sum += math.Cos(theta-t*logN) / math.Sqrt(float64(n))
	}

	return 2.0*sum + rc.computeRemainder(T, root, N)
}

// computeRemainder is the leading Riemann-Siegel correction
// (-1)^(N-1) (t/2π)^(-1/4) C0(p) with C0(p) = cos(2π(p²-p-1/16))/cos(2πp).
func (rc *RiemannCalculator) computeRemainder(T, root float64, N int) float64 {
	p := root - float64(N)

	den := math.Cos(2 * math.Pi * p)
	if math.Abs(den) < 1e-9 {
		// removable singularity at p = 1/4, 3/4
		p += 1e-7
		den = math.Cos(2 * math.Pi * p)
	}
	c0 := math.Cos(2*math.Pi*(p*p-p-1.0/16.0)) / den

	factor := math.Pow(T, -0.25)
	if N%2 == 0 {
		factor = -factor
	}

	return factor * c0
}

func (rc *RiemannCalculator) eulerMaclaurin(t float64) float64 {
	s := complex(0.5, t)
	m := len(rc.emCoeffs)
	n := int(math.Ceil(2*(t+2*float64(m))/math.Pi)) + 1

	sum := complex(0, 0)
	for k := 1; k < n; k++ {
		sum += powMinusS(k, t)
	}

	u := powMinusS(n, t)
	fn := complex(float64(n), 0)
	sum += fn*u/(s-1) + u/2

	w := s * u / fn
	n2 := fn * fn
	for k := 1; k <= m; k++ {
		sum += complex(rc.emCoeffs[k-1], 0) * w
		twoK := complex(float64(2*k), 0)
		w *= (s + twoK - 1) * (s + twoK) / n2
	}

	return real(cmplx.Exp(complex(0, rc.thetaFunc(t))) * sum)
}

// powMinusS returns n^(-½-it).
func powMinusS(n int, t float64) complex128 {
	logN := math.Log(float64(n))
	mag := 1 / math.Sqrt(float64(n))
	sin, cos := math.Sincos(t * logN)
	return complex(mag*cos, -mag*sin)
}

func (rc *RiemannCalculator) thetaAsymptotic(t float64) float64 {
	T := t / (2 * math.Pi)
	theta := t/2*math.Log(T) - t/2 - math.Pi/8

	invT := 1.0 / t
	invT2 := invT * invT
	invT3 := invT2 * invT
	invT5 := invT3 * invT2
	invT7 := invT5 * invT2

	theta += invT / 48.0
	theta += 7.0 * invT3 / 5760.0
	theta += 31.0 * invT5 / 80640.0
	theta += 381.0 * invT7 / 1290240.0

	return theta
}

// meanSpacing is the average gap between consecutive zeros near height t.
func meanSpacing(t float64) float64 {
	logT := math.Log(t / (2 * math.Pi))
	if logT < 0.25 {
		logT = 0.25
	}
	return 2 * math.Pi / logT
}

// expectedZeroCount is the Riemann-von Mangoldt smooth count θ(T)/π + 1.
func (rc *RiemannCalculator) expectedZeroCount(t float64) float64 {
	return rc.thetaFunc(t)/math.Pi + 1
}
