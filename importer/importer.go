package importer

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/parites/ratesd"
	"github.com/parites/ratesd/storage"
)

var one = decimal.New(1, 0)

// Engine imports daily rates for one target currency against the fixed base.
// Every import validates the target, re-checks the schema, fetches from the
// source and persists in a single transaction.
type Engine struct {
	Base   string
	Source ratesd.RateSource
}

// inverseOf computes 1/rate with 8 fractional digits. DivRound rounds half
// away from zero, matching the DECIMAL(18,8) column behavior.
func inverseOf(rate decimal.Decimal) decimal.Decimal {
	return one.DivRound(rate, 8)
}

// ImportDay imports the rate for one day, the most recent one when day is
// empty. A zero rate is fatal: nothing is written and the error propagates.
func (e Engine) ImportDay(ctx context.Context, st *storage.Store, target, day string) (ratesd.ImportResult, error) {
	entry, err := ratesd.Resolve(target)
	if err != nil {
		return ratesd.ImportResult{}, err
	}

	if day != "" {
		if _, err := ratesd.ParseDay(day); err != nil {
			return ratesd.ImportResult{}, err
		}
	}

	if err := st.EnsureSchema(ctx); err != nil {
		return ratesd.ImportResult{}, err
	}

	quote, err := e.Source.Latest(ctx, e.Base, entry.ISO, day)
	if err != nil {
		return ratesd.ImportResult{}, err
	}

	if quote.Rate.IsZero() {
		return ratesd.ImportResult{}, fmt.Errorf("%w: %s on %s", ratesd.ErrZeroRate, entry.ISO, quote.Day)
	}

	written, err := st.SaveRates(ctx, entry, []ratesd.RateDay{{
		Code:    entry.Code,
		Day:     quote.Day,
		Rate:    quote.Rate,
		Inverse: inverseOf(quote.Rate),
	}})
	if err != nil {
		return ratesd.ImportResult{}, err
	}

	return ratesd.ImportResult{
		Base:        e.Base,
		Target:      entry.ISO,
		Code:        entry.Code,
		RowsWritten: written,
	}, nil
}

// ImportRange imports every quoted day in the inclusive [start, end] range.
// Days with a zero rate are skipped instead of aborting the batch; the result
// counts only the written rows.
func (e Engine) ImportRange(ctx context.Context, st *storage.Store, target, start, end string) (ratesd.RangeResult, error) {
	startDay, err := ratesd.ParseDay(start)
	if err != nil {
		return ratesd.RangeResult{}, err
	}

	endDay, err := ratesd.ParseDay(end)
	if err != nil {
		return ratesd.RangeResult{}, err
	}

	if endDay.Before(startDay) {
		return ratesd.RangeResult{}, fmt.Errorf("%w: %s..%s", ratesd.ErrInvalidRange, start, end)
	}

	entry, err := ratesd.Resolve(target)
	if err != nil {
		return ratesd.RangeResult{}, err
	}

	if err := st.EnsureSchema(ctx); err != nil {
		return ratesd.RangeResult{}, err
	}

	rates, err := e.Source.Timeseries(ctx, e.Base, entry.ISO, start, end)
	if err != nil {
		return ratesd.RangeResult{}, err
	}

	days := make([]string, 0, len(rates))
	for day := range rates {
		days = append(days, day)
	}

	sort.Strings(days)

	rows := make([]ratesd.RateDay, 0, len(days))

	for _, day := range days {
		rate := rates[day]
		if rate.IsZero() {
			continue
		}

		rows = append(rows, ratesd.RateDay{
			Code:    entry.Code,
			Day:     day,
			Rate:    rate,
			Inverse: inverseOf(rate),
		})
	}

	written, err := st.SaveRates(ctx, entry, rows)
	if err != nil {
		return ratesd.RangeResult{}, err
	}

	return ratesd.RangeResult{
		ImportResult: ratesd.ImportResult{
			Base:        e.Base,
			Target:      entry.ISO,
			Code:        entry.Code,
			RowsWritten: written,
		},
		From: start,
		To:   end,
	}, nil
}
