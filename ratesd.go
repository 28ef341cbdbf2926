package ratesd

import (
	"context"

	"github.com/shopspring/decimal"
)

type (
	// RateSource fetches exchange rates against a fixed base currency.
	RateSource interface {
		// Latest returns the rate quoted for a single day. An empty asOf
		// queries the most recent quote, otherwise the historical quote for
		// that exact day.
		Latest(ctx context.Context, base, target, asOf string) (Quote, error)

		// Timeseries returns a day keyed rate mapping for the inclusive
		// [start, end] range, restricted to days the source actually quoted
		// the target for.
		Timeseries(ctx context.Context, base, target, start, end string) (map[string]decimal.Decimal, error)

		// Symbols lists all ISO codes the source knows, with display labels.
		Symbols(ctx context.Context) (map[string]string, error)
	}
)
