package entities

import (
	"github.com/shopspring/decimal"
)

// Grams represents a weight in grams. Snapshots serialize it as a plain JSON
// number, but all arithmetic routes through decimal so that stock accounting
// stays exact to 0.01 g across long mutation histories.
type Grams float64

// Money represents a price in currency units, exact to 0.01.
type Money float64

func (g Grams) dec() decimal.Decimal {
	return decimal.NewFromFloat(float64(g))
}

// Add returns g + o rounded to 0.01 g.
func (g Grams) Add(o Grams) Grams {
	return Grams(g.dec().Add(o.dec()).Round(2).InexactFloat64())
}

// Sub returns g - o rounded to 0.01 g.
func (g Grams) Sub(o Grams) Grams {
	return Grams(g.dec().Sub(o.dec()).Round(2).InexactFloat64())
}

// MulInt returns g scaled by an integer count, rounded to 0.01 g.
func (g Grams) MulInt(n int) Grams {
	return Grams(g.dec().Mul(decimal.NewFromInt(int64(n))).Round(2).InexactFloat64())
}

// DivInt returns g split evenly across an integer count, rounded to 0.01 g.
// Zero when count is not positive.
func (g Grams) DivInt(n int) Grams {
	if n <= 0 {
		return 0
	}
	return Grams(g.dec().Div(decimal.NewFromInt(int64(n))).Round(2).InexactFloat64())
}

// ApproxEqual reports whether two weights agree within 0.01 g.
func (g Grams) ApproxEqual(o Grams) bool {
	diff := g.dec().Sub(o.dec()).Abs()
	return diff.LessThanOrEqual(decimal.NewFromFloat(0.01))
}

// WholeUnits returns floor(g / per / count); how many whole units of a
// per-unit demand the weight covers. Zero when per or count is not positive.
func (g Grams) WholeUnits(per Grams, count int) int {
	if per <= 0 || count <= 0 {
		return 0
	}
	units := g.dec().Div(per.dec().Mul(decimal.NewFromInt(int64(count)))).Floor()
	return int(units.IntPart())
}

func (m Money) dec() decimal.Decimal {
	return decimal.NewFromFloat(float64(m))
}

// Add returns m + o rounded to 0.01.
func (m Money) Add(o Money) Money {
	return Money(m.dec().Add(o.dec()).Round(2).InexactFloat64())
}

// CostOf prices a weight of material given the spool's nominal weight:
// (price / nominal) * used, rounded to 0.01. Zero when nominal is not
// positive.
func (m Money) CostOf(used, nominal Grams) Money {
	if nominal <= 0 {
		return 0
	}
	perGram := m.dec().Div(nominal.dec())
	return Money(perGram.Mul(used.dec()).Round(2).InexactFloat64())
}
