package bot

import (
	"strconv"
	"strings"
)

// formatAmount renders an imported amount as a plain two-decimal value.
// Source values may carry thousands separators; anything unparseable
// renders as zero.
func formatAmount(value string) string {
	if value == "" {
		return "0.00"
	}
	num, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64)
	if err != nil {
		return "0.00"
	}
	return strconv.FormatFloat(num, 'f', 2, 64)
}
