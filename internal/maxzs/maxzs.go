// Package maxzs computes the maximum permissible earth fault loop impedance
// for a protective device, derated for conductor temperature.
package maxzs

import (
	"strconv"
	"strings"

	"eicrcore/pkg/domain"
)

// DefaultDerating is the 80% rule of thumb applied to tabulated limits so
// that readings taken with cold conductors can be compared directly.
const DefaultDerating = 0.8

// Calculator applies a derating factor to values from a Table.
type Calculator struct {
	table    Table
	derating float64
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithTable replaces the reference table.
func WithTable(t Table) Option {
	return func(c *Calculator) {
		if t != nil {
			c.table = t
		}
	}
}

// WithDerating replaces the derating factor. Values outside (0,1] are ignored.
func WithDerating(f float64) Option {
	return func(c *Calculator) {
		if f > 0 && f <= 1 {
			c.derating = f
		}
	}
}

// New constructs a Calculator over BS7671Table with the default derating.
func New(opts ...Option) *Calculator {
	c := &Calculator{table: BS7671Table, derating: DefaultDerating}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCalculator = New()

// MaxZs is Calculator.MaxZs on the default calculator.
func MaxZs(bsStandard, curve, rating string) (float64, bool) {
	return defaultCalculator.MaxZs(bsStandard, curve, rating)
}

// MaxZs returns the derated limit in ohms. The boolean is false when the
// standard or rating is empty or no tabulated value exists; that is a "not
// yet computable" state, not an error.
func (c *Calculator) MaxZs(bsStandard, curve, rating string) (float64, bool) {
	raw, ok := c.Tabulated(bsStandard, curve, rating)
	if !ok {
		return 0, false
	}
	return raw * c.derating, true
}

// Tabulated returns the table value before derating.
func (c *Calculator) Tabulated(bsStandard, curve, rating string) (float64, bool) {
	if strings.TrimSpace(bsStandard) == "" {
		return 0, false
	}
	digits := domain.DigitsOnly(rating)
	if digits == "" {
		return 0, false
	}
	amps, err := strconv.Atoi(digits)
	if err != nil || amps <= 0 {
		return 0, false
	}
	family := FamilyOf(bsStandard)
	if family == "" {
		return 0, false
	}
	v, ok := c.table.Lookup(family, normaliseCurve(family, curve), amps)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// Format renders a limit the way it is written on the schedule.
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Field computes the maxZs field value: two decimals, or "" when not computable.
func (c *Calculator) Field(bsStandard, curve, rating string) string {
	v, ok := c.MaxZs(bsStandard, curve, rating)
	if !ok {
		return ""
	}
	return Format(v)
}

func normaliseCurve(family Family, curve string) string {
	if family != FamilyCircuitBreaker {
		return ""
	}
	for _, r := range strings.ToUpper(curve) {
		switch r {
		case 'B', 'C', 'D':
			return string(r)
		}
	}
	return "B"
}
