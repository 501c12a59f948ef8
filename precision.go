package main

import (
	"fmt"
	"math"
	"math/big"
	"sync"

	"github.com/ALTree/bigfloat"
)

// ==================== HIGH PRECISION ZETA ====================

// guard bits carried on top of the requested decimal precision
const guardBits = 64

// digitsToBits converts significant decimal digits to binary precision.
func digitsToBits(digits int) uint {
	return uint(math.Ceil(float64(digits) * math.Log2(10)))
}

// zetaEvaluator evaluates ζ(½+it) and ζ'(½+it) by Euler-Maclaurin
// summation at a fixed binary precision. The logarithm and n^(-1/2) tables
// grow on demand and are shared by all goroutines refining zeros.
type zetaEvaluator struct {
	prec   uint
	coeffs []*big.Float // B_2k/(2k)!, k = 1..len

	mu      sync.RWMutex
	logs    []*big.Float // ln n
	invSqrt []*big.Float // n^(-1/2)
}

func newZetaEvaluator(prec uint) *zetaEvaluator {
	// The k-th tail term shrinks like 4^(-2k) once N ≥ 2(t+2M)/π.
	terms := int(prec)/4 + 2
	coeffs := make([]*big.Float, terms)
	for k := 1; k <= terms; k++ {
		coeffs[k-1] = newFloat(prec).SetRat(bernoulliCoefficient(k))
	}

	return &zetaEvaluator{
		prec:    prec,
		coeffs:  coeffs,
		logs:    []*big.Float{nil},
		invSqrt: []*big.Float{nil},
	}
}

// summationLength returns the number of direct terms needed at height t.
func (e *zetaEvaluator) summationLength(t float64) int {
	m := float64(len(e.coeffs))
	return int(math.Ceil(2*(math.Abs(t)+2*m)/math.Pi)) + 1
}

// tables returns ln n and n^(-1/2) for n = 1..n. The returned values are
// read-only.
func (e *zetaEvaluator) tables(n int) ([]*big.Float, []*big.Float) {
	e.mu.RLock()
	if len(e.logs) > n {
		logs, inv := e.logs[:n+1], e.invSqrt[:n+1]
		e.mu.RUnlock()
		return logs, inv
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	for k := len(e.logs); k <= n; k++ {
		x := floatFromInt(int64(k), e.prec)
		e.logs = append(e.logs, bigfloat.Log(x))
		root := newFloat(e.prec).Sqrt(x)
		e.invSqrt = append(e.invSqrt, root.Quo(floatFromInt(1, e.prec), root))
	}
	return e.logs[:n+1], e.invSqrt[:n+1]
}

// powMinusS returns n^(-s) for s = ½ + it.
func (e *zetaEvaluator) powMinusS(t, logN, invSqrtN *big.Float) bigComplex {
	phase := newFloat(e.prec).Mul(t, logN)
	sin, cos := sinCos(phase)
	return bigComplex{
		re: cos.Mul(cos, invSqrtN),
		im: sin.Neg(sin.Mul(sin, invSqrtN)),
	}
}

// ZetaAndDerivative returns ζ(s) and ζ'(s) at s = ½ + it.
//
//	ζ(s) = Σ_{n<N} n^-s + N^(1-s)/(s-1) + N^-s/2 + Σ_k B_2k/(2k)! · s(s+1)…(s+2k-2) · N^(-s-2k+1)
//
// The derivative is carried term by term through the same recurrences.
func (e *zetaEvaluator) ZetaAndDerivative(t *big.Float) (bigComplex, bigComplex) {
	p := e.prec
	tf, _ := t.Float64()
	n := e.summationLength(tf)
	logs, inv := e.tables(n)

	zeta := newBigComplex(p)
	dzeta := newBigComplex(p)

	for k := 1; k < n; k++ {
		term := e.powMinusS(t, logs[k], inv[k])
		zeta.accumulate(term)
		dzeta.accumulate(term.scale(logs[k]).scale(floatFromInt(-1, p)))
	}

	s := bigComplex{re: newFloat(p).SetFloat64(0.5), im: newFloat(p).Set(t)}
	one := bigComplex{re: floatFromInt(1, p), im: newFloat(p)}
	sMinusOne := s.sub(one)
	nf := floatFromInt(int64(n), p)
	logN := logs[n]
	negLogN := newFloat(p).Neg(logN)

	u := e.powMinusS(t, logN, inv[n])

	// N^(1-s)/(s-1) and its derivative -ln N·A - A/(s-1)
	a := u.scale(nf).quo(sMinusOne)
	zeta.accumulate(a)
	dzeta.accumulate(a.scale(negLogN).sub(a.quo(sMinusOne)))

	// N^-s / 2
	b := u.div(floatFromInt(2, p))
	zeta.accumulate(b)
	dzeta.accumulate(b.scale(negLogN))

	n2 := newFloat(p).Mul(nf, nf)
	w := s.mul(u).div(nf) // s·N^(-s-1)
	v := u.div(nf)        // d/ds of the rising factorial part

	for k := 1; k <= len(e.coeffs); k++ {
		c := e.coeffs[k-1]
		zeta.accumulate(w.scale(c))
		dzeta.accumulate(v.sub(w.scale(logN)).scale(c))

		twoK := floatFromInt(int64(2*k), p)
		lo := s.add(bigComplex{re: newFloat(p).Sub(twoK, floatFromInt(1, p)), im: newFloat(p)})
		hi := s.add(bigComplex{re: twoK, im: newFloat(p)})
		q := lo.mul(hi)
		dq := s.scale(floatFromInt(2, p)).add(bigComplex{re: floatFromInt(int64(4*k-1), p), im: newFloat(p)})

		nextV := v.mul(q).add(w.mul(dq)).div(n2)
		w = w.mul(q).div(n2)
		v = nextV
	}

	return zeta, dzeta
}

// RefineZero polishes a float64 zero estimate with Newton's method on
// t ↦ ζ(½+it), t ← t - Im(ζ/ζ'). It stops once the step drops below
// 2^-targetBits relative to t.
func (e *zetaEvaluator) RefineZero(guess float64, targetBits uint, maxIterations int) (*big.Float, int, error) {
	t := newFloat(e.prec).SetFloat64(guess)

	for i := 1; i <= maxIterations; i++ {
		zeta, dzeta := e.ZetaAndDerivative(t)
		if dzeta.re.Sign() == 0 && dzeta.im.Sign() == 0 {
			return nil, i, fmt.Errorf("%w: vanishing derivative at t=%.6f", ErrNoConvergence, guess)
		}
		step := zeta.quo(dzeta).im
		t.Sub(t, step)

		if exponent(step) < exponent(t)-int(targetBits) {
			return t, i, nil
		}
	}

	return nil, maxIterations, fmt.Errorf("%w: zero near t=%.6f after %d iterations",
		ErrNoConvergence, guess, maxIterations)
}
