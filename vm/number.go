package vm

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// NumKind discriminates the three Number representations of spec §3.
type NumKind int

const (
	// Fixnum is an arbitrary-precision exact integer.
	Fixnum NumKind = iota
	// Rational is an exact, always-reduced ratio with a positive denominator.
	Rational
	// Float is an IEEE-754 double.
	Float
)

// Number is the C1 component: exact integer / exact rational / inexact
// float arithmetic with conversions and predicates. No third-party
// bignum/rational library appears anywhere in the retrieval pack (see
// DESIGN.md), so Number is built directly on the standard library's
// math/big, which is the idiomatic Go choice for an exact numeric tower.
type Number struct {
	kind NumKind
	i    *big.Int // valid when kind == Fixnum
	r    *big.Rat // valid when kind == Rational, always in lowest terms, r.Sign() tracked by big.Rat itself
	f    float64  // valid when kind == Float
}

// NumberFromInt64 builds an exact Fixnum.
func NumberFromInt64(v int64) Number {
	return Number{kind: Fixnum, i: big.NewInt(v)}
}

// NumberFromBigInt builds an exact Fixnum from an existing big.Int.
func NumberFromBigInt(v *big.Int) Number {
	return Number{kind: Fixnum, i: new(big.Int).Set(v)}
}

// NumberFromRat builds an exact Rational, normalizing to Fixnum when the
// denominator reduces to 1.
func NumberFromRat(r *big.Rat) Number {
	if r.IsInt() {
		return Number{kind: Fixnum, i: new(big.Int).Set(r.Num())}
	}
	return Number{kind: Rational, r: new(big.Rat).Set(r)}
}

// NumberFromFloat builds an inexact Float.
func NumberFromFloat(f float64) Number {
	return Number{kind: Float, f: f}
}

// Kind reports which representation n holds.
func (n Number) Kind() NumKind { return n.kind }

// IsExact is true for Fixnum and Rational.
func (n Number) IsExact() bool { return n.kind != Float }

// IsZero reports whether n is the additive identity.
func (n Number) IsZero() bool {
	switch n.kind {
	case Fixnum:
		return n.i.Sign() == 0
	case Rational:
		return n.r.Sign() == 0
	default:
		return n.f == 0
	}
}

// IsInteger is true for Fixnum, for Rational with a denominator of 1 (which
// reduction should never actually produce), and for Float with an integral
// value.
func (n Number) IsInteger() bool {
	switch n.kind {
	case Fixnum:
		return true
	case Rational:
		return n.r.IsInt()
	default:
		return !math.IsInf(n.f, 0) && !math.IsNaN(n.f) && n.f == math.Trunc(n.f)
	}
}

// asRat returns the exact rational value of n. It must not be called on a
// Float; callers convert via ToExact first.
func (n Number) asRat() *big.Rat {
	switch n.kind {
	case Fixnum:
		return new(big.Rat).SetInt(n.i)
	case Rational:
		return n.r
	default:
		panic("asRat called on inexact Number")
	}
}

// Float64 converts n to a float64 regardless of exactness.
func (n Number) Float64() float64 {
	switch n.kind {
	case Fixnum:
		f := new(big.Float).SetInt(n.i)
		v, _ := f.Float64()
		return v
	case Rational:
		v, _ := n.r.Float64()
		return v
	default:
		return n.f
	}
}

// ToInexact implements exact->inexact: Fixnum/Rational become Float.
// Already-inexact values are returned unchanged.
func (n Number) ToInexact() Number {
	if n.kind == Float {
		return n
	}
	return NumberFromFloat(n.Float64())
}

// ToExact implements inexact->exact: Float becomes a minimal-denominator
// Rational (or Fixnum) representing the exact IEEE value. Non-finite values
// (NaN, +/-Inf) cannot be represented exactly and are returned unchanged, ok
// is false in that case.
func (n Number) ToExact() (Number, bool) {
	if n.kind != Float {
		return n, true
	}
	if math.IsNaN(n.f) || math.IsInf(n.f, 0) {
		return n, false
	}
	r := new(big.Rat)
	r.SetFloat64(n.f)
	return NumberFromRat(r), true
}

// ToUint reports n as a non-negative int suitable for use as an index, or
// ok=false if n is not a non-negative exact (or exact-valued) integer that
// fits in an int.
func (n Number) ToUint() (int, bool) {
	switch n.kind {
	case Fixnum:
		if !n.i.IsInt64() {
			return 0, false
		}
		v := n.i.Int64()
		if v < 0 || int64(int(v)) != v {
			return 0, false
		}
		return int(v), true
	case Rational:
		if !n.r.IsInt() {
			return 0, false
		}
		return NumberFromBigInt(n.r.Num()).ToUint()
	default:
		if !n.IsInteger() || n.f < 0 {
			return 0, false
		}
		return int(n.f), true
	}
}

func promote(a, b Number) NumKind {
	if a.kind == Float || b.kind == Float {
		return Float
	}
	if a.kind == Rational || b.kind == Rational {
		return Rational
	}
	return Fixnum
}

// Add returns a+b, promoting to the least exact representation needed.
func (a Number) Add(b Number) Number {
	switch promote(a, b) {
	case Float:
		return NumberFromFloat(a.Float64() + b.Float64())
	case Rational:
		return NumberFromRat(new(big.Rat).Add(a.asRat(), b.asRat()))
	default:
		return NumberFromBigInt(new(big.Int).Add(a.i, b.i))
	}
}

// Sub returns a-b.
func (a Number) Sub(b Number) Number {
	switch promote(a, b) {
	case Float:
		return NumberFromFloat(a.Float64() - b.Float64())
	case Rational:
		return NumberFromRat(new(big.Rat).Sub(a.asRat(), b.asRat()))
	default:
		return NumberFromBigInt(new(big.Int).Sub(a.i, b.i))
	}
}

// Mul returns a*b.
func (a Number) Mul(b Number) Number {
	switch promote(a, b) {
	case Float:
		return NumberFromFloat(a.Float64() * b.Float64())
	case Rational:
		return NumberFromRat(new(big.Rat).Mul(a.asRat(), b.asRat()))
	default:
		return NumberFromBigInt(new(big.Int).Mul(a.i, b.i))
	}
}

// Div returns a/b. The caller is responsible for rejecting a zero divisor
// before calling Div (division by zero is a Scheme-level InvalidSyntax
// error, not a Go panic).
func (a Number) Div(b Number) Number {
	switch promote(a, b) {
	case Float:
		return NumberFromFloat(a.Float64() / b.Float64())
	default:
		return NumberFromRat(new(big.Rat).Quo(a.asRat(), b.asRat()))
	}
}

// Neg returns -a.
func (a Number) Neg() Number {
	switch a.kind {
	case Fixnum:
		return NumberFromBigInt(new(big.Int).Neg(a.i))
	case Rational:
		return NumberFromRat(new(big.Rat).Neg(a.r))
	default:
		return NumberFromFloat(-a.f)
	}
}

// Abs returns the absolute value of a.
func (a Number) Abs() Number {
	switch a.kind {
	case Fixnum:
		return NumberFromBigInt(new(big.Int).Abs(a.i))
	case Rational:
		return NumberFromRat(new(big.Rat).Abs(a.r))
	default:
		return NumberFromFloat(math.Abs(a.f))
	}
}

// Cmp returns -1, 0, or 1 comparing a to b as mathematical values, promoting
// as Add/Sub do.
func (a Number) Cmp(b Number) int {
	switch promote(a, b) {
	case Float:
		af, bf := a.Float64(), b.Float64()
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	case Rational:
		return a.asRat().Cmp(b.asRat())
	default:
		return a.i.Cmp(b.i)
	}
}

// quotientRemainder implements truncating integer division, as required by
// `quotient` and `remainder`/`%`. The caller has already checked for a
// zero divisor.
func quotientRemainder(a, b Number) (quotient, remainder Number) {
	ai, aok := bigIntOf(a)
	bi, bok := bigIntOf(b)
	if !aok || !bok {
		// reached only for a non-integer operand: quotient, remainder and
		// modulo reject those first, but odd? and even? pass any number, and
		// get a float truncating division here.
		af, bf := a.Float64(), b.Float64()
		q := math.Trunc(af / bf)
		return NumberFromFloat(q), NumberFromFloat(af - q*bf)
	}
	q, r := new(big.Int), new(big.Int)
	q.QuoRem(ai, bi, r)
	if a.kind == Float || b.kind == Float {
		return NumberFromFloat(NumberFromBigInt(q).Float64()), NumberFromFloat(NumberFromBigInt(r).Float64())
	}
	return NumberFromBigInt(q), NumberFromBigInt(r)
}

func bigIntOf(n Number) (*big.Int, bool) {
	switch n.kind {
	case Fixnum:
		return n.i, true
	case Rational:
		if n.r.IsInt() {
			return n.r.Num(), true
		}
		return nil, false
	default:
		if !n.IsInteger() {
			return nil, false
		}
		bi, _ := big.NewFloat(n.f).Int(nil)
		return bi, true
	}
}

// String renders n per Scheme's external representation for numbers.
func (n Number) String() string {
	switch n.kind {
	case Fixnum:
		return n.i.String()
	case Rational:
		return n.r.Num().String() + "/" + n.r.Denom().String()
	default:
		return formatFloat(n.f)
	}
}

// parseNumber implements string->number: integers and floats per R7RS's
// simplified syntax (no radix prefixes; those are out of scope per
// spec.md's non-goals on the numeric tower). A bare "a/b" is read as an
// exact rational. Numeric literals in source text go through
// compile.parseNumberToken instead.
func parseNumber(s string) (Number, bool) {
	if s == "" {
		return Number{}, false
	}
	if i := strings.IndexByte(s, '/'); i > 0 {
		num, ok1 := new(big.Int).SetString(s[:i], 10)
		den, ok2 := new(big.Int).SetString(s[i+1:], 10)
		if !ok1 || !ok2 || den.Sign() == 0 {
			return Number{}, false
		}
		return NumberFromRat(new(big.Rat).SetFrac(num, den)), true
	}
	if i, ok := new(big.Int).SetString(s, 10); ok {
		return NumberFromBigInt(i), true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return NumberFromFloat(f), true
	}
	return Number{}, false
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "+nan.0"
	case math.IsInf(f, 1):
		return "+inf.0"
	case math.IsInf(f, -1):
		return "-inf.0"
	}
	s := big.NewFloat(f).Text('g', -1)
	for _, c := range s {
		if c == '.' || c == 'e' || c == 'E' {
			return s
		}
	}
	return s + "."
}
