// Package chart renders plain-text bar charts and number formats for the TUI.
package chart

import (
	"fmt"
	"math"
	"strings"
)

const (
	fullBlock  = "█"
	emptyBlock = "░"
)

// Bar returns a horizontal bar of width cells, filled in proportion to
// value/maxValue. Non-positive maxima yield an empty bar.
func Bar(value, maxValue float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if maxValue > 0 && value > 0 {
		filled = int(math.Round(value / maxValue * float64(width)))
		if filled > width {
			filled = width
		}
		if filled == 0 {
			filled = 1
		}
	}
	return strings.Repeat(fullBlock, filled) + strings.Repeat(emptyBlock, width-filled)
}

// Money formats an amount with two decimals and thousands separators.
func Money(v float64) string {
	s := fmt.Sprintf("%.2f", math.Abs(v))
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if v < 0 && s != "0.00" {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// Percent formats a percentage with one decimal.
func Percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}
