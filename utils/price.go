package utils

import "strings"

const (
	MinPriceLevel = 1
	MaxPriceLevel = 4
)

// ClampPriceLevel forces a price level into 1..4.
func ClampPriceLevel(level int) int {
	if level < MinPriceLevel {
		return MinPriceLevel
	}
	if level > MaxPriceLevel {
		return MaxPriceLevel
	}
	return level
}

// FormatPriceLevel renders a price level as dollar signs.
func FormatPriceLevel(level int) string {
	return strings.Repeat("$", ClampPriceLevel(level))
}
