package journal

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rustyeddy/marginpilot/portfolio"
)

// ErrNoHeader means no row carried both a Symbol and a Quantity column.
var ErrNoHeader = errors.New("journal: no Symbol/Quantity header row")

// skipped symbols mark summary rows in a brokerage export
var nonPositionMarkers = []string{"total", "cash", "account"}

// ParseSchwabCSV reads a brokerage positions export. Leading metadata lines
// before the header row are ignored, as are summary rows and rows without
// a positive quantity and price. Every position gets the default margin
// rate.
func ParseSchwabCSV(r io.Reader) ([]portfolio.Position, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	start := -1
	for i, line := range lines {
		if strings.Contains(line, "Symbol") && strings.Contains(line, "Quantity") {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrNoHeader
	}

	cr := csv.NewReader(strings.NewReader(strings.Join(lines[start:], "\n")))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, ErrNoHeader
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[unquote(h)] = i
	}
	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	positions := []portfolio.Position{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// malformed row
			continue
		}

		symbol := unquote(field(rec, "Symbol"))
		if symbol == "" || isSummaryRow(symbol) {
			continue
		}

		qty := cleanNumber(field(rec, "Quantity"))
		price := cleanNumber(field(rec, "Price"))
		costBasis := cleanNumber(field(rec, "Cost Basis"))
		if qty <= 0 || price <= 0 {
			continue
		}

		avgCost := price
		if costBasis > 0 {
			avgCost = costBasis / qty
		}

		positions = append(positions, portfolio.Position{
			Symbol:       portfolio.NormalizeSymbol(symbol),
			Quantity:     qty,
			AvgCost:      avgCost,
			CurrentPrice: price,
			MarginRate:   portfolio.DefaultMarginRate,
		})
	}
	return positions, nil
}

func isSummaryRow(symbol string) bool {
	lower := strings.ToLower(symbol)
	for _, m := range nonPositionMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

// cleanNumber strips currency formatting; anything unparseable is 0.
func cleanNumber(s string) float64 {
	s = strings.NewReplacer("$", "", ",", "", `"`, "").Replace(strings.TrimSpace(s))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
