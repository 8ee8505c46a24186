package exporter

import (
	"strconv"
)

// formatFloat formats prices and volumes with exactly 2 decimal places
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// formatScore formats a liquidity score with its single decimal
func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}
