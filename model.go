package ratesd

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DayFormat is the calendar date layout used everywhere: in request payloads,
// in upstream responses and as the DATE column value.
const DayFormat = "2006-01-02"

type (
	// CurrencyEntry is one row of the static registry: a 3-letter ISO code,
	// its display label and the 1-character code used as the storage key.
	CurrencyEntry struct {
		ISO   string
		Label string
		Code  string
	}

	// Quote is a single rate quoted for one day.
	Quote struct {
		Day  string
		Rate decimal.Decimal
	}

	// RateDay is one daily_rates row ready to be upserted.
	RateDay struct {
		Code    string
		Day     string
		Rate    decimal.Decimal
		Inverse decimal.Decimal
	}

	ImportResult struct {
		Base        string `json:"base"`
		Target      string `json:"target"`
		Code        string `json:"code"`
		RowsWritten int    `json:"rows"`
	}

	RangeResult struct {
		ImportResult
		From string `json:"from"`
		To   string `json:"to"`
	}
)

// ParseDay validates a YYYY-MM-DD string and returns its calendar date.
func ParseDay(s string) (time.Time, error) {
	day, err := time.Parse(DayFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	return day, nil
}
