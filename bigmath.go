package main

import (
	"math/big"
	"sync"
)

// ==================== ARBITRARY PRECISION HELPERS ====================

func newFloat(prec uint) *big.Float {
	return new(big.Float).SetPrec(prec)
}

func floatFromInt(v int64, prec uint) *big.Float {
	return newFloat(prec).SetInt64(v)
}

// exponent returns the binary exponent of x, or a very small value for zero.
func exponent(x *big.Float) int {
	if x.Sign() == 0 {
		return -1 << 30
	}
	return x.MantExp(nil)
}

// bigComplex is a complex number with big.Float parts. Values are never
// shared between goroutines once they are written.
type bigComplex struct {
	re, im *big.Float
}

func newBigComplex(prec uint) bigComplex {
	return bigComplex{re: newFloat(prec), im: newFloat(prec)}
}

func (z bigComplex) prec() uint {
	return z.re.Prec()
}

func (z bigComplex) add(w bigComplex) bigComplex {
	p := z.prec()
	return bigComplex{
		re: newFloat(p).Add(z.re, w.re),
		im: newFloat(p).Add(z.im, w.im),
	}
}

func (z bigComplex) sub(w bigComplex) bigComplex {
	p := z.prec()
	return bigComplex{
		re: newFloat(p).Sub(z.re, w.re),
		im: newFloat(p).Sub(z.im, w.im),
	}
}

func (z bigComplex) mul(w bigComplex) bigComplex {
	p := z.prec()
	ac := newFloat(p).Mul(z.re, w.re)
	bd := newFloat(p).Mul(z.im, w.im)
	ad := newFloat(p).Mul(z.re, w.im)
	bc := newFloat(p).Mul(z.im, w.re)
	return bigComplex{
		re: ac.Sub(ac, bd),
		im: ad.Add(ad, bc),
	}
}

func (z bigComplex) quo(w bigComplex) bigComplex {
	p := z.prec()
	den := newFloat(p).Mul(w.re, w.re)
	den.Add(den, newFloat(p).Mul(w.im, w.im))

	ac := newFloat(p).Mul(z.re, w.re)
	bd := newFloat(p).Mul(z.im, w.im)
	bc := newFloat(p).Mul(z.im, w.re)
	ad := newFloat(p).Mul(z.re, w.im)

	re := ac.Add(ac, bd)
	im := bc.Sub(bc, ad)
	return bigComplex{
		re: re.Quo(re, den),
		im: im.Quo(im, den),
	}
}

func (z bigComplex) scale(x *big.Float) bigComplex {
	p := z.prec()
	return bigComplex{
		re: newFloat(p).Mul(z.re, x),
		im: newFloat(p).Mul(z.im, x),
	}
}

func (z bigComplex) div(x *big.Float) bigComplex {
	p := z.prec()
	return bigComplex{
		re: newFloat(p).Quo(z.re, x),
		im: newFloat(p).Quo(z.im, x),
	}
}

// accumulate adds w into z in place.
func (z bigComplex) accumulate(w bigComplex) {
	z.re.Add(z.re, w.re)
	z.im.Add(z.im, w.im)
}

// ==================== CONSTANTS ====================

var piCache sync.Map // uint -> *big.Float

// bigPi returns π to prec bits using Machin's formula
// π = 16·atan(1/5) − 4·atan(1/239). Results are cached per precision and
// must not be modified by callers.
func bigPi(prec uint) *big.Float {
	if v, ok := piCache.Load(prec); ok {
		return v.(*big.Float)
	}

	wp := prec + 32
	a := arctanInv(5, wp)
	b := arctanInv(239, wp)
	a.Mul(a, floatFromInt(16, wp))
	b.Mul(b, floatFromInt(4, wp))
	pi := a.Sub(a, b).SetPrec(prec)

	actual, _ := piCache.LoadOrStore(prec, pi)
	return actual.(*big.Float)
}

// arctanInv returns atan(1/x) for an integer x > 1.
func arctanInv(x int64, prec uint) *big.Float {
	sum := newFloat(prec)
	power := newFloat(prec).Quo(floatFromInt(1, prec), floatFromInt(x, prec))
	x2 := floatFromInt(x*x, prec)
	term := newFloat(prec)

	for k := int64(0); ; k++ {
		term.Quo(power, floatFromInt(2*k+1, prec))
		if k%2 == 0 {
			sum.Add(sum, term)
		} else {
			sum.Sub(sum, term)
		}
		power.Quo(power, x2)
		if exponent(power) < -int(prec)-8 {
			break
		}
	}
	return sum
}

// halvings applied before the Taylor series in sinCos
const sinCosHalvings = 8

// sinCos returns sin(x) and cos(x) at the precision of x. The argument is
// reduced modulo 2π, scaled down by 2^8, expanded by Taylor series and
// then brought back with double-angle steps.
func sinCos(x *big.Float) (*big.Float, *big.Float) {
	prec := x.Prec()
	wp := prec + 32
	if e := exponent(x); e > 0 {
		wp += uint(e)
	}

	r := newFloat(wp).Set(x)
	twoPi := newFloat(wp).Mul(bigPi(wp), floatFromInt(2, wp))

	q := newFloat(wp).Quo(r, twoPi)
	k, _ := q.Int(nil)
	if k.Sign() != 0 {
		kf := newFloat(wp).SetInt(k)
		r.Sub(r, kf.Mul(kf, twoPi))
	}

	y := newFloat(wp).SetMantExp(r, -sinCosHalvings)
	y2 := newFloat(wp).Mul(y, y)

	sin := newFloat(wp).Set(y)
	cos := floatFromInt(1, wp)
	sinTerm := newFloat(wp).Set(y)
	cosTerm := floatFromInt(1, wp)
	limit := -int(wp) - 4

	for n := int64(1); ; n++ {
		sinTerm.Mul(sinTerm, y2)
		sinTerm.Quo(sinTerm, floatFromInt((2*n)*(2*n+1), wp))
		sinTerm.Neg(sinTerm)
		sin.Add(sin, sinTerm)

		cosTerm.Mul(cosTerm, y2)
		cosTerm.Quo(cosTerm, floatFromInt((2*n-1)*(2*n), wp))
		cosTerm.Neg(cosTerm)
		cos.Add(cos, cosTerm)

		if exponent(sinTerm) < limit && exponent(cosTerm) < limit {
			break
		}
	}

	one := floatFromInt(1, wp)
	tmp := newFloat(wp)
	for i := 0; i < sinCosHalvings; i++ {
		// sin 2a = 2 sin a cos a, cos 2a = 1 - 2 sin² a
		tmp.Mul(sin, sin)
		tmp.SetMantExp(tmp, 1)
		sin.Mul(sin, cos)
		sin.SetMantExp(sin, 1)
		cos.Sub(one, tmp)
	}

	return sin.SetPrec(prec), cos.SetPrec(prec)
}

// ==================== BERNOULLI NUMBERS ====================

// bernoulliTable holds B_0..B_n computed with the Akiyama-Tanigawa
// algorithm. The running row is kept so the table can grow on demand.
var bernoulliTable struct {
	sync.Mutex
	values []*big.Rat
	row    []*big.Rat
}

// bernoulli returns the n-th Bernoulli number (B_1 = +1/2 convention).
func bernoulli(n int) *big.Rat {
	bernoulliTable.Lock()
	defer bernoulliTable.Unlock()

	for m := len(bernoulliTable.values); m <= n; m++ {
		bernoulliTable.row = append(bernoulliTable.row, big.NewRat(1, int64(m+1)))
		row := bernoulliTable.row
		for j := m; j >= 1; j-- {
			d := new(big.Rat).Sub(row[j-1], row[j])
			row[j-1] = d.Mul(d, big.NewRat(int64(j), 1))
		}
		bernoulliTable.values = append(bernoulliTable.values, new(big.Rat).Set(row[0]))
	}

	return new(big.Rat).Set(bernoulliTable.values[n])
}

// bernoulliCoefficient returns B_2k / (2k)!, the Euler-Maclaurin tail weight.
func bernoulliCoefficient(k int) *big.Rat {
	fact := new(big.Int).MulRange(1, int64(2*k))
	b := bernoulli(2 * k)
	return b.Quo(b, new(big.Rat).SetInt(fact))
}
