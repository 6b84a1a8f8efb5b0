package util

import (
	"strconv"

	"github.com/shopspring/decimal"
)

var (
	billion = decimal.NewFromInt(1_000_000_000)
	million = decimal.NewFromInt(1_000_000)
)

// FormatPrice renders a price as "$123.45".
func FormatPrice(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}

// FormatPercent renders a change as "1.23%".
func FormatPercent(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}

// FormatMarketCap renders a market capitalization with a B or M suffix.
// Values below one million are rendered as the plain number.
func FormatMarketCap(v float64) string {
	d := decimal.NewFromFloat(v)
	switch {
	case v >= 1_000_000_000:
		return d.Div(billion).StringFixed(2) + "B"
	case v >= 1_000_000:
		return d.Div(million).StringFixed(2) + "M"
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}
