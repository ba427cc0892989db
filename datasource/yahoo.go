package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// DefaultYahooBaseURL is the public Yahoo Finance chart API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

const yahooUserAgent = "Mozilla/5.0 (compatible; finml/1.0)"

// YahooProvider reads daily bars from the Yahoo Finance chart API.
type YahooProvider struct {
	baseURL string
	client  *http.Client
}

// NewYahooProvider creates a provider. An empty baseURL selects the public
// API; a zero timeout means 30 seconds.
func NewYahooProvider(baseURL string, timeout time.Duration) *YahooProvider {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YahooProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Name implements Provider.
func (p *YahooProvider) Name() string { return "yahoo" }

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// DailyBars implements Provider.
func (p *YahooProvider) DailyBars(ctx context.Context, ticker string, start, end time.Time) ([]Bar, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "history")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", p.baseURL, url.PathEscape(ticker), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "yahoo: build request")
	}
	req.Header.Set("User-Agent", yahooUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "yahoo: request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, errors.Wrap(err, "yahoo: read body")
	}

	var cr chartResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, errors.Newf("yahoo: status %d", resp.StatusCode)
		}
		return nil, errors.Wrap(err, "yahoo: decode")
	}
	if cr.Chart.Error != nil {
		if strings.EqualFold(cr.Chart.Error.Code, "Not Found") {
			return nil, nil
		}
		return nil, errors.Newf("yahoo: %s: %s", cr.Chart.Error.Code, cr.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("yahoo: status %d", resp.StatusCode)
	}
	if len(cr.Chart.Result) == 0 {
		return nil, nil
	}
	return cr.Chart.Result[0].bars(), nil
}

func (r chartResult) bars() []Bar {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	quote := r.Indicators.Quote[0]
	at := func(values []*float64, i int) float64 {
		if i >= len(values) {
			return nullable(nil)
		}
		return nullable(values[i])
	}

	bars := make([]Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		// Rows where every field is null are placeholders for
		// non-trading days.
		if i < len(quote.Close) && quote.Close[i] == nil &&
			i < len(quote.Open) && quote.Open[i] == nil {
			continue
		}
		bars = append(bars, Bar{
			Time:   time.Unix(ts+r.Meta.GMTOffset, 0).UTC(),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  at(quote.Close, i),
			Volume: at(quote.Volume, i),
		})
	}
	return bars
}
