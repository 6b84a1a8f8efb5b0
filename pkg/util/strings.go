package util

import "strings"

// NormalizeSymbols trims and upper-cases each symbol and drops blanks.
// Order and duplicates are preserved.
func NormalizeSymbols(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// SplitCSV splits a comma separated list, keeping empty items.
func SplitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}
