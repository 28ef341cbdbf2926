package fetchers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/parites/ratesd"
)

const (
	// APILayerURL is the default exchangerates_data endpoint.
	APILayerURL = "https://api.apilayer.com/exchangerates_data"

	upstreamTimeout = 25 * time.Second

	// Upstream error bodies are truncated before ending up in responses.
	maxErrorBody = 180
)

type (
	// APILayer fetches rates from the apilayer exchangerates_data API.
	// Every call requires APIKey; an empty key fails before any dial.
	APILayer struct {
		URL    string
		APIKey string
		Client *http.Client
	}

	latestResponse struct {
		Date  string                     `json:"date"`
		Rates map[string]decimal.Decimal `json:"rates"`
	}

	timeseriesResponse struct {
		Rates map[string]json.RawMessage `json:"rates"`
	}

	symbolsResponse struct {
		Symbols map[string]string `json:"symbols"`
	}
)

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}

	return string(body)
}

func (a APILayer) client() *http.Client {
	if a.Client != nil {
		return a.Client
	}

	return &http.Client{Timeout: upstreamTimeout}
}

func (a APILayer) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if a.APIKey == "" {
		return nil, ratesd.ErrMissingKey
	}

	base := a.URL
	if base == "" {
		base = APILayerURL
	}

	endpoint := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ratesd.ErrUpstream, err)
	}

	req.Header.Add("Accept", "application/json")
	req.Header.Add("apikey", a.APIKey)
	req.URL.RawQuery = query.Encode()

	res, err := a.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ratesd.ErrUpstream, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ratesd.ErrUpstream, err)
	}

	if res.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: status %d: %s", ratesd.ErrUpstream, res.StatusCode, truncate(body))
	}

	return body, nil
}

// Latest returns the rate for one day. An empty asOf queries the "latest"
// endpoint, otherwise the historical endpoint for that exact day.
func (a APILayer) Latest(ctx context.Context, base, target, asOf string) (ratesd.Quote, error) {
	path := "latest"

	if asOf != "" {
		if _, err := ratesd.ParseDay(asOf); err != nil {
			return ratesd.Quote{}, err
		}

		path = asOf
	}

	query := url.Values{}
	query.Set("base", base)
	query.Set("symbols", target)

	body, err := a.get(ctx, path, query)
	if err != nil {
		return ratesd.Quote{}, err
	}

	var data latestResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return ratesd.Quote{}, fmt.Errorf("%w: response is not JSON: %s", ratesd.ErrUpstream, truncate(body))
	}

	rate, ok := data.Rates[target]
	if !ok {
		return ratesd.Quote{}, fmt.Errorf("%w: rate for %s missing in response", ratesd.ErrUpstream, target)
	}

	day := data.Date
	if day == "" {
		day = asOf
	}

	if day == "" {
		return ratesd.Quote{}, fmt.Errorf("%w: no date in response", ratesd.ErrUpstream)
	}

	if _, err := ratesd.ParseDay(day); err != nil {
		return ratesd.Quote{}, fmt.Errorf("%w: malformed date %q in response", ratesd.ErrUpstream, day)
	}

	return ratesd.Quote{Day: day, Rate: rate}, nil
}

// Timeseries returns the day keyed rates for the inclusive [start, end] range.
// Days whose nested rate object does not quote the target are dropped; an
// empty result after filtering is an upstream error.
func (a APILayer) Timeseries(ctx context.Context, base, target, start, end string) (map[string]decimal.Decimal, error) {
	for _, day := range []string{start, end} {
		if _, err := ratesd.ParseDay(day); err != nil {
			return nil, err
		}
	}

	query := url.Values{}
	query.Set("base", base)
	query.Set("symbols", target)
	query.Set("start_date", start)
	query.Set("end_date", end)

	body, err := a.get(ctx, "timeseries", query)
	if err != nil {
		return nil, err
	}

	var data timeseriesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: response is not JSON: %s", ratesd.ErrUpstream, truncate(body))
	}

	if data.Rates == nil {
		return nil, fmt.Errorf("%w: timeseries rates missing in response", ratesd.ErrUpstream)
	}

	out := make(map[string]decimal.Decimal)

	for day, raw := range data.Rates {
		if _, err := ratesd.ParseDay(day); err != nil {
			return nil, fmt.Errorf("%w: malformed date %q in response", ratesd.ErrUpstream, day)
		}

		// non-object entries are dropped like days without the target,
		// but a target rate that fails to parse as decimal is fatal
		var quoted map[string]json.RawMessage
		if err := json.Unmarshal(raw, &quoted); err != nil {
			continue
		}

		rawRate, ok := quoted[target]
		if !ok {
			continue
		}

		var rate decimal.Decimal
		if err := json.Unmarshal(rawRate, &rate); err != nil {
			return nil, fmt.Errorf("%w: rate for %s on %s is not numeric", ratesd.ErrUpstream, target, day)
		}

		out[day] = rate
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no usable rates for %s between %s and %s", ratesd.ErrUpstream, target, start, end)
	}

	return out, nil
}

// Symbols lists every currency the upstream quotes, keyed by ISO code.
func (a APILayer) Symbols(ctx context.Context) (map[string]string, error) {
	body, err := a.get(ctx, "symbols", url.Values{})
	if err != nil {
		return nil, err
	}

	var data symbolsResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: response is not JSON: %s", ratesd.ErrUpstream, truncate(body))
	}

	if data.Symbols == nil {
		return nil, fmt.Errorf("%w: symbols missing in response", ratesd.ErrUpstream)
	}

	return data.Symbols, nil
}
