// Package animate drives eased numeric transitions for the results panel.
package animate

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// Placeholder is shown instead of a counter whose target value is not a
// finite number.
const Placeholder = "--"

// EaseOutCubic maps linear progress p in [0,1] onto a decelerating curve.
func EaseOutCubic(p float64) float64 {
	q := 1 - p
	return 1 - q*q*q
}

// Number is a single counter transition from Start to End.
type Number struct {
	Start    float64
	End      float64
	Duration time.Duration
	Decimals int
	Prefix   string
}

// NumberOption customises a Number.
type NumberOption func(*Number)

// WithDecimals sets the number of digits after the decimal point.
func WithDecimals(n int) NumberOption {
	return func(a *Number) {
		if n < 0 {
			n = 0
		}
		a.Decimals = n
	}
}

// WithPrefix sets a string rendered in front of every frame, e.g. "+".
func WithPrefix(prefix string) NumberOption {
	return func(a *Number) {
		a.Prefix = prefix
	}
}

// NewNumber creates a transition. Decimals default to 0 and the prefix to "".
func NewNumber(start, end float64, d time.Duration, opts ...NumberOption) Number {
	n := Number{Start: start, End: end, Duration: d}
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

// Valid reports whether the transition has a finite target.
func (n Number) Valid() bool {
	return isFinite(n.End)
}

// Progress returns the clamped elapsed ratio in [0,1].
func (n Number) Progress(elapsed time.Duration) float64 {
	if n.Duration <= 0 {
		return 1
	}
	p := float64(elapsed) / float64(n.Duration)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// Done reports whether the transition has reached its end.
func (n Number) Done(elapsed time.Duration) bool {
	return n.Progress(elapsed) >= 1
}

// ValueAt returns the eased value after elapsed time. The final frame is End
// exactly, never an interpolation that rounds near it.
func (n Number) ValueAt(elapsed time.Duration) float64 {
	if !n.Valid() {
		return math.NaN()
	}
	p := n.Progress(elapsed)
	if p >= 1 {
		return n.End
	}
	start := n.Start
	if !isFinite(start) {
		start = n.End
	}
	return start + (n.End-start)*EaseOutCubic(p)
}

// TextAt renders the frame shown after elapsed time.
func (n Number) TextAt(elapsed time.Duration) string {
	if !n.Valid() {
		return Placeholder
	}
	return n.Prefix + Format(n.ValueAt(elapsed), n.Decimals)
}

// Final renders the last frame of the transition.
func (n Number) Final() string {
	if !n.Valid() {
		return Placeholder
	}
	return n.Prefix + Format(n.End, n.Decimals)
}

// Format renders v in fixed-point notation with the given decimals. A value
// exactly halfway between two results rounds away from zero, so 82.25 with
// one decimal is "82.3" and 2.5 with none is "3".
func Format(v float64, decimals int) string {
	if !isFinite(v) {
		return Placeholder
	}
	if decimals < 0 {
		decimals = 0
	}
	s, tie := roundTieAway(v, decimals)
	if !tie {
		s = strconv.FormatFloat(v, 'f', decimals, 64)
	}
	// -0 has no sign in fixed-point output.
	if v == 0 && s[0] == '-' {
		s = s[1:]
	}
	return s
}

var (
	bigTwo = big.NewInt(2)
	bigTen = big.NewInt(10)
)

// roundTieAway formats v when its exact binary value lies on a rounding
// tie at decimals. FormatFloat breaks those ties to even.
func roundTieAway(v float64, decimals int) (string, bool) {
	scale := new(big.Int).Exp(bigTen, big.NewInt(int64(decimals)), nil)
	r := new(big.Rat).SetFloat64(math.Abs(v))
	r.Mul(r, new(big.Rat).SetInt(scale))
	// in lowest terms a fractional part of exactly 1/2 leaves denominator 2
	if r.Denom().Cmp(bigTwo) != 0 {
		return "", false
	}

	n := new(big.Int).Quo(r.Num(), bigTwo)
	n.Add(n, big.NewInt(1))

	digits := n.String()
	if decimals > 0 {
		if len(digits) <= decimals {
			digits = strings.Repeat("0", decimals-len(digits)+1) + digits
		}
		cut := len(digits) - decimals
		digits = digits[:cut] + "." + digits[cut:]
	}
	if v < 0 {
		digits = "-" + digits
	}
	return digits, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
