// Package numerator provides domain contracts for dispatch numbering.
package numerator

import (
	"fmt"
	"strconv"
)

// DefaultPadWidth is the minimum width of the sequence part of a dispatch number.
const DefaultPadWidth = 3

// Config holds number formatting configuration.
type Config struct {
	// PadWidth is the minimum sequence width. Wider values are never truncated.
	PadWidth int

	// Separator joins sequence and year ("007_2025").
	Separator string
}

// DefaultConfig returns the dispatch numbering format.
func DefaultConfig() Config {
	return Config{
		PadWidth:  DefaultPadWidth,
		Separator: "_",
	}
}

// Sequence renders n zero-padded to PadWidth.
func (c Config) Sequence(n int64) string {
	width := c.PadWidth
	if width <= 0 {
		width = DefaultPadWidth
	}
	return fmt.Sprintf("%0*d", width, n)
}

// Number renders the formatted dispatch number for n issued in year.
func (c Config) Number(n int64, year int) string {
	return c.Sequence(n) + c.Separator + strconv.Itoa(year)
}

// FormatSequence pads n to three digits: 7 -> "007", 1000 -> "1000".
func FormatSequence(n int64) string {
	return DefaultConfig().Sequence(n)
}

// FormatNumber renders n and year as "NNN_YYYY".
func FormatNumber(n int64, year int) string {
	return DefaultConfig().Number(n, year)
}
