// Package format renders money and ratios for terminal output.
package format

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

func round(v float64, places int32) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v).Round(places)
}

// USD prints whole dollars with thousands separators: "$12,345", "-$80".
func USD(v float64) string {
	if math.IsInf(v, 1) {
		return "unlimited"
	}
	n := round(v, 0).IntPart()
	if n < 0 {
		return printer.Sprintf("-$%d", -n)
	}
	return printer.Sprintf("$%d", n)
}

// Price prints dollars and cents: "$1,187.44".
func Price(v float64) string {
	d := round(v, 2)
	f, _ := d.Abs().Float64()
	if d.IsNegative() {
		return printer.Sprintf("-$%.2f", f)
	}
	return printer.Sprintf("$%.2f", f)
}

// Percent prints an already-scaled percentage with an explicit sign for
// non-negative values: "+1.23%", "-4.50%".
func Percent(v float64) string {
	d := round(v, 2)
	return sign(d) + d.StringFixed(2) + "%"
}

// Rate prints a 0..1 ratio as a percentage without sign: 0.5 -> "50.0%".
func Rate(v float64) string {
	return round(v*100, 1).StringFixed(1) + "%"
}

// Pnl prints a signed whole-dollar amount: "+$1,234", "-$1,234".
// Amounts that round to zero print as "+$0".
func Pnl(v float64) string {
	abs := USD(math.Abs(v))
	if round(v, 0).Sign() >= 0 {
		return "+" + abs
	}
	return "-" + abs
}

// Multiplier prints a leverage ratio: "3.5x".
func Multiplier(v float64) string {
	return round(v, 1).StringFixed(1) + "x"
}

// Delta prints a signed delta: "+0.45", "-0.30".
func Delta(v float64) string {
	d := round(v, 2)
	return sign(d) + d.StringFixed(2)
}

func sign(d decimal.Decimal) string {
	if d.Sign() >= 0 {
		return "+"
	}
	return ""
}
