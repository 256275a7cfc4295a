// Package portfolio holds the plain records the risk engine works on:
// equity positions, the margin account, option positions and the trade log.
package portfolio

import (
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for trade dates and option
// expirations.
const DateLayout = "2006-01-02"

// ContractMultiplier is the number of underlying shares per option contract.
const ContractMultiplier = 100.0

// DefaultMarginRate is the broker maintenance requirement applied when none
// is supplied (Schwab standard).
const DefaultMarginRate = 0.30

// MarginRatePresets are the maintenance requirements brokers commonly quote.
var MarginRatePresets = []float64{0.25, 0.30, 0.40, 0.50, 0.75, 1.00}

type Position struct {
	ID           string  `json:"id" yaml:"id"`
	Symbol       string  `json:"symbol" yaml:"symbol" validate:"required"`
	Quantity     float64 `json:"quantity" yaml:"quantity"`
	AvgCost      float64 `json:"avgCost" yaml:"avg_cost" validate:"gte=0"`
	CurrentPrice float64 `json:"currentPrice" yaml:"current_price" validate:"gte=0"`
	MarginRate   float64 `json:"marginRate" yaml:"margin_rate" validate:"gte=0,lte=1"` // broker supplied
}

// MarketValue is quantity × current price.
func (p Position) MarketValue() float64 {
	return p.Quantity * p.CurrentPrice
}

// CostBasis is quantity × average cost.
func (p Position) CostBasis() float64 {
	return p.Quantity * p.AvgCost
}

type Account struct {
	CashBalance float64 `json:"cashBalance" yaml:"cash_balance"`
	MarginLoan  float64 `json:"marginLoan" yaml:"margin_loan" validate:"gte=0"`
}

type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

type OptionPosition struct {
	ID              string     `json:"id" yaml:"id"`
	Symbol          string     `json:"symbol" yaml:"symbol" validate:"required"`
	OptionType      OptionType `json:"optionType" yaml:"option_type" validate:"oneof=call put"`
	Strike          float64    `json:"strike" yaml:"strike" validate:"gt=0"`
	Expiration      string     `json:"expiration" yaml:"expiration" validate:"datetime=2006-01-02"`
	Premium         float64    `json:"premium" yaml:"premium" validate:"gte=0"`  // per share
	Quantity        float64    `json:"quantity" yaml:"quantity" validate:"ne=0"` // contracts, negative = written
	CurrentPrice    float64    `json:"currentPrice" yaml:"current_price" validate:"gte=0"`
	UnderlyingPrice float64    `json:"underlyingPrice" yaml:"underlying_price" validate:"gte=0"`

	// Delta is estimated when the position is created and kept as-is
	// until it is explicitly re-estimated.
	Delta float64 `json:"delta" yaml:"delta"`
}

// IsLong reports whether the position holds (rather than wrote) contracts.
func (o OptionPosition) IsLong() bool {
	return o.Quantity > 0
}

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

type Trade struct {
	ID       string  `json:"id" yaml:"id"`
	Date     string  `json:"date" yaml:"date" validate:"datetime=2006-01-02"`
	Symbol   string  `json:"symbol" yaml:"symbol" validate:"required"`
	Side     Side    `json:"side" yaml:"side" validate:"oneof=buy sell"`
	Quantity float64 `json:"quantity" yaml:"quantity" validate:"gt=0"`
	Price    float64 `json:"price" yaml:"price" validate:"gte=0"`
	Fees     float64 `json:"fees" yaml:"fees" validate:"gte=0"`
}

// Book is everything a user session tracks.
type Book struct {
	Positions []Position       `json:"positions"`
	Account   Account          `json:"account"`
	Options   []OptionPosition `json:"options"`
	Trades    []Trade          `json:"trades"`
}

// Clone returns a deep copy so callers can hand out snapshots safely.
func (b Book) Clone() Book {
	return Book{
		Positions: append([]Position(nil), b.Positions...),
		Account:   b.Account,
		Options:   append([]OptionPosition(nil), b.Options...),
		Trades:    append([]Trade(nil), b.Trades...),
	}
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ParseDate parses a calendar date at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
}
