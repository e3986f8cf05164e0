package chart

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestBar(t *testing.T) {
	tests := []struct {
		name   string
		value  float64
		max    float64
		width  int
		filled int
	}{
		{"full", 10, 10, 10, 10},
		{"half", 5, 10, 10, 5},
		{"tiny value still visible", 0.01, 100, 10, 1},
		{"zero value", 0, 10, 10, 0},
		{"zero max", 5, 0, 10, 0},
		{"over max clamps", 20, 10, 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := Bar(tt.value, tt.max, tt.width)
			assert.Equal(t, tt.width, utf8.RuneCountInString(bar))
			assert.Equal(t, tt.filled, countRune(bar, '█'))
		})
	}
}

func TestBar_ZeroWidth(t *testing.T) {
	assert.Equal(t, "", Bar(1, 1, 0))
}

func countRune(s string, r rune) int {
	n := 0
	for _, c := range s {
		if c == r {
			n++
		}
	}
	return n
}

func TestMoney(t *testing.T) {
	tests := map[float64]string{
		0:          "0.00",
		5:          "5.00",
		999.999:    "1,000.00",
		1234.5:     "1,234.50",
		1234567.89: "1,234,567.89",
		-42.1:      "-42.10",
		-0.001:     "0.00",
	}

	for in, want := range tests {
		assert.Equal(t, want, Money(in), "Money(%v)", in)
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "33.3%", Percent(33.333))
	assert.Equal(t, "100.0%", Percent(100))
}
