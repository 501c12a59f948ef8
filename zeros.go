package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ==================== ZERO SOURCE ====================

var (
	ErrInvalidCount  = errors.New("zero count must be positive")
	ErrNoConvergence = errors.New("zero refinement did not converge")
)

// Zero is one nontrivial zero ½+iγ of ζ, identified by its rank.
type Zero struct {
	Index      int
	Gamma      *big.Float
	Float      float64
	Iterations int
}

// ZeroSequence holds γ₁…γ_N in increasing order.
type ZeroSequence []Zero

// Floats returns the zeros projected to float64.
func (zs ZeroSequence) Floats() []float64 {
	out := make([]float64, len(zs))
	for i, z := range zs {
		out[i] = z.Float
	}
	return out
}

// zeroBracket is a sign change of Z with its float64 root estimate.
type zeroBracket struct {
	lo, hi float64
	root   float64
}

// sample is one evaluation of Z during the scan.
type sample struct {
	t, z float64
}

func signChange(a, b float64) bool {
	return (a < 0) != (b < 0)
}

// LocateZeros scans Z(t) upward from the configured start until count
// sign changes have been bracketed and polished in float64.
func (rc *RiemannCalculator) LocateZeros(ctx context.Context, count int) ([]zeroBracket, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}

	brackets := make([]zeroBracket, 0, count)
	divisions := float64(rc.config.ScanDivisions)

	t := rc.config.ScanStart
	z, err := rc.ComputeZ(t)
	if err != nil {
		return nil, err
	}
	prev := sample{t: math.NaN(), z: math.NaN()}
	curr := sample{t: t, z: z}

	for steps := 0; len(brackets) < count; steps++ {
		if steps%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		nextT := curr.t + meanSpacing(curr.t)/divisions
		nextZ, err := rc.ComputeZ(nextT)
		if err != nil {
			return nil, err
		}
		next := sample{t: nextT, z: nextZ}

		switch {
		case signChange(curr.z, next.z):
			brackets = append(brackets, rc.bracketRoot(curr, next))
		case rc.isCloseApproach(prev, curr, next):
			found, err := rc.rescan(prev, next)
			if err != nil {
				return nil, err
			}
			if len(found) > 0 {
				rc.logger.Debugf("Close zero pair near t=%.6f resolved by rescan (%d zeros)", curr.t, len(found))
			}
			brackets = append(brackets, found...)
		}

		prev, curr = curr, next
	}

	return brackets[:count], nil
}

// isCloseApproach reports a same-signed local minimum of |Z| small enough
// that a pair of zeros may hide between the samples.
func (rc *RiemannCalculator) isCloseApproach(prev, curr, next sample) bool {
	if math.IsNaN(prev.z) || signChange(prev.z, curr.z) {
		return false
	}
	a := math.Abs(curr.z)
	return a < math.Abs(prev.z) && a < math.Abs(next.z) && a < rc.config.LehmerThreshold
}

// rescan walks (from.t, to.t) with a finer step, returning any brackets.
func (rc *RiemannCalculator) rescan(from, to sample) ([]zeroBracket, error) {
	const refine = 16
	step := (to.t - from.t) / refine

	var found []zeroBracket
	last := from
	for i := 1; i <= refine; i++ {
		t := from.t + float64(i)*step
		z := to.z
		if i < refine {
			var err error
			if z, err = rc.ComputeZ(t); err != nil {
				return nil, err
			}
		} else {
			t = to.t
		}
		s := sample{t: t, z: z}
		if signChange(last.z, s.z) {
			found = append(found, rc.bracketRoot(last, s))
		}
		last = s
	}
	return found, nil
}

// bracketRoot polishes a sign change with the Illinois variant of regula
// falsi.
func (rc *RiemannCalculator) bracketRoot(a, b sample) zeroBracket {
	lo, hi := a, b
	side := 0
	root := lo.t

	for i := 0; i < 100; i++ {
		if hi.t-lo.t <= 1e-14*hi.t {
			break
		}
		root = (lo.t*hi.z - hi.t*lo.z) / (hi.z - lo.z)
		if !(root > lo.t && root < hi.t) {
			root = 0.5 * (lo.t + hi.t)
		}
		z, err := rc.ComputeZ(root)
		if err != nil || z == 0 {
			break
		}
		if signChange(lo.z, z) {
			hi = sample{t: root, z: z}
			if side == -1 {
				lo.z /= 2
			}
			side = -1
		} else {
			lo = sample{t: root, z: z}
			if side == 1 {
				hi.z /= 2
			}
			side = 1
		}
	}

	return zeroBracket{lo: a.t, hi: b.t, root: root}
}

// checkZeroCount compares the number of located zeros with the
// Riemann-von Mangoldt smooth count at the midpoint after the last one.
func (rc *RiemannCalculator) checkZeroCount(brackets []zeroBracket) {
	n := len(brackets)
	if n == 0 {
		return
	}
	last := brackets[n-1].root
	height := last + meanSpacing(last)/2
	expected := rc.expectedZeroCount(height)
	difference := expected - float64(n)

	fields := logrus.Fields{
		"height":   fmt.Sprintf("%.4f", height),
		"expected": fmt.Sprintf("%.2f", expected),
		"located":  n,
	}
	if math.Abs(difference) > 2 {
		rc.logger.WithFields(fields).Warn("Zero count discrepancy against Riemann-von Mangoldt estimate")
		return
	}
	rc.logger.WithFields(fields).Debug("Zero count matches Riemann-von Mangoldt estimate")
}

// ComputeZeros returns the first count zeros refined to cfg.Digits
// significant digits. Refinements run concurrently on at most workers
// goroutines; the result does not depend on the worker count.
func ComputeZeros(ctx context.Context, count int, cfg ZeroConfig, workers int, logger *logrus.Logger) (ZeroSequence, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	if workers < 1 {
		workers = 1
	}

	start := time.Now()
	rc := NewRiemannCalculator(&cfg, logger)

	brackets, err := rc.LocateZeros(ctx, count)
	if err != nil {
		return nil, fmt.Errorf("failed to locate zeros: %w", err)
	}
	rc.checkZeroCount(brackets)
	logger.Debugf("Located %d sign changes up to t=%.4f in %s",
		len(brackets), brackets[len(brackets)-1].root, time.Since(start).Round(time.Millisecond))

	targetBits := digitsToBits(cfg.Digits)
	ev := newZetaEvaluator(targetBits + guardBits)

	zeros := make(ZeroSequence, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, b := range brackets {
		i, b := i, b
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			gamma, iterations, err := ev.RefineZero(b.root, targetBits+8, cfg.MaxNewtonIterations)
			if err != nil {
				return fmt.Errorf("zero #%d: %w", i+1, err)
			}

			value, _ := gamma.Float64()
			slack := b.hi - b.lo
			if value < b.lo-slack || value > b.hi+slack {
				return fmt.Errorf("zero #%d: %w: Newton left bracket [%.6f, %.6f] (landed at %.6f)",
					i+1, ErrNoConvergence, b.lo, b.hi, value)
			}

			zeros[i] = Zero{
				Index:      i + 1,
				Gamma:      gamma,
				Float:      value,
				Iterations: iterations,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := 1; i < len(zeros); i++ {
		if zeros[i].Gamma.Cmp(zeros[i-1].Gamma) <= 0 {
			return nil, fmt.Errorf("zero sequence not increasing at rank %d (%.12f <= %.12f)",
				i+1, zeros[i].Float, zeros[i-1].Float)
		}
	}

	logger.Debugf("Refined %d zeros to %d digits in %s", count, cfg.Digits, time.Since(start).Round(time.Millisecond))
	return zeros, nil
}

// FormatGamma renders a zero with the requested number of significant digits.
func FormatGamma(gamma *big.Float, digits int) string {
	return gamma.Text('g', digits)
}
