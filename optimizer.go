package main

import (
	"errors"
	"fmt"
	"math"
)

// ==================== BOUNDED SCALAR OPTIMIZER ====================

var ErrInvalidBounds = errors.New("lower bound must be below upper bound")

// OptimizeResult describes the outcome of a bounded minimisation.
type OptimizeResult struct {
	X           float64
	Fun         float64
	Evaluations int
	Converged   bool
}

var goldenMean = 0.5 * (3.0 - math.Sqrt(5.0))

// MinimizeBounded finds a local minimum of f on [lower, upper] with
// Brent's method: parabolic interpolation where it behaves, golden
// section steps where it does not. NaN evaluations count as +Inf. The
// result always lies inside the bounds.
func MinimizeBounded(f func(float64) float64, lower, upper, xatol float64, maxEvaluations int) (OptimizeResult, error) {
	if !(lower < upper) {
		return OptimizeResult{}, fmt.Errorf("%w: [%g, %g]", ErrInvalidBounds, lower, upper)
	}
	if maxEvaluations < 1 {
		maxEvaluations = 500
	}
	if xatol <= 0 {
		xatol = 1e-5
	}

	eval := func(x float64) float64 {
		y := f(x)
		if math.IsNaN(y) {
			return math.Inf(1)
		}
		return y
	}
	sqrtEps := math.Sqrt(2.2e-16)

	a, b := lower, upper
	fulc := a + goldenMean*(b-a)
	nfc, xf := fulc, fulc
	rat, e := 0.0, 0.0
	x := xf
	fx := eval(x)
	evaluations := 1
	ffulc, fnfc := fx, fx

	xm := 0.5 * (a + b)
	tol1 := sqrtEps*math.Abs(xf) + xatol/3.0
	tol2 := 2.0 * tol1
	converged := true

	for math.Abs(xf-xm) > tol2-0.5*(b-a) {
		golden := true

		// parabolic fit through the three best points
		if math.Abs(e) > tol1 {
			golden = false
			r := (xf - nfc) * (fx - ffulc)
			q := (xf - fulc) * (fx - fnfc)
			p := (xf-fulc)*q - (xf-nfc)*r
			q = 2.0 * (q - r)
			if q > 0 {
				p = -p
			}
			q = math.Abs(q)
			r = e
			e = rat

			if math.Abs(p) < math.Abs(0.5*q*r) && p > q*(a-xf) && p < q*(b-xf) {
				rat = p / q
				x = xf + rat
				if x-a < tol2 || b-x < tol2 {
					rat = tol1 * signOrOne(xm-xf)
				}
			} else {
				golden = true
			}
		}

		if golden {
			if xf >= xm {
				e = a - xf
			} else {
				e = b - xf
			}
			rat = goldenMean * e
		}

		x = xf + signOrOne(rat)*math.Max(math.Abs(rat), tol1)
		fu := eval(x)
		evaluations++

		if fu <= fx {
			if x >= xf {
				a = xf
			} else {
				b = xf
			}
			fulc, ffulc = nfc, fnfc
			nfc, fnfc = xf, fx
			xf, fx = x, fu
		} else {
			if x < xf {
				a = x
			} else {
				b = x
			}
			if fu <= fnfc || nfc == xf {
				fulc, ffulc = nfc, fnfc
				nfc, fnfc = x, fu
			} else if fu <= ffulc || fulc == xf || fulc == nfc {
				fulc, ffulc = x, fu
			}
		}

		xm = 0.5 * (a + b)
		tol1 = sqrtEps*math.Abs(xf) + xatol/3.0
		tol2 = 2.0 * tol1

		if evaluations >= maxEvaluations {
			converged = false
			break
		}
	}

	return OptimizeResult{
		X:           math.Min(math.Max(xf, lower), upper),
		Fun:         fx,
		Evaluations: evaluations,
		Converged:   converged,
	}, nil
}

// signOrOne is sign(v) with sign(0) = 1.
func signOrOne(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// OptimizeC searches c within the configured bounds for the smallest loss
// of the structural ratio against the target.
func OptimizeC(gammas []float64, base PhaseParams, cfg OptimizerConfig) (OptimizeResult, error) {
	loss := func(c float64) float64 {
		return Loss(gammas, base.WithC(c), cfg.Target)
	}
	result, err := MinimizeBounded(loss, cfg.Lower, cfg.Upper, cfg.XAtol, cfg.MaxEvaluations)
	if err != nil {
		return OptimizeResult{}, fmt.Errorf("failed to optimize c: %w", err)
	}
	return result, nil
}
