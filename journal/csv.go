package journal

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rustyeddy/marginpilot/portfolio"
)

var tradesHeader = []string{"id", "date", "symbol", "side", "quantity", "price", "fees"}

// WriteTradesCSV exports the trade log in the order given.
func WriteTradesCSV(w io.Writer, trades []portfolio.Trade) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(tradesHeader); err != nil {
		return err
	}
	for _, t := range trades {
		if err := cw.Write([]string{
			t.ID,
			t.Date,
			t.Symbol,
			string(t.Side),
			f(t.Quantity),
			f(t.Price),
			f(t.Fees),
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
