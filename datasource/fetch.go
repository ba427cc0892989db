package datasource

import (
	"context"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/ezoic/finml/dataset"
	finErrors "github.com/ezoic/finml/pkg/errors"
	"github.com/ezoic/finml/pkg/log"
)

// ErrNoData is the cause of the LoadError returned when a fetch yields no
// rows.
var ErrNoData = errors.New("no data found for this ticker and date range")

// Bar is one daily observation. Missing fields are NaN.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Provider fetches daily bars for a ticker over [start, end).
type Provider interface {
	Name() string
	DailyBars(ctx context.Context, ticker string, start, end time.Time) ([]Bar, error)
}

// ProviderOptions selects and configures a Provider.
type ProviderOptions struct {
	Name      string
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

// NewProvider builds the named provider: "yahoo" or "alpaca".
func NewProvider(opts ProviderOptions) (Provider, error) {
	switch strings.ToLower(opts.Name) {
	case "", "yahoo":
		return NewYahooProvider(opts.BaseURL, opts.Timeout), nil
	case "alpaca":
		return NewAlpacaProvider(opts.APIKey, opts.APISecret, opts.BaseURL), nil
	default:
		return nil, finErrors.NewValidationError("market.provider", "unknown provider", opts.Name)
	}
}

// DateLayout is the format of the Date column of fetched data.
const DateLayout = "2006-01-02"

// Fetch downloads daily bars and lays them out with ticker-qualified columns:
// Date, Open_T, High_T, Low_T, Close_T, Volume_T followed by Return.
func Fetch(ctx context.Context, p Provider, ticker string, start, end time.Time) (*dataset.Dataset, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, finErrors.NewValidationError("ticker", "must not be empty", nil)
	}
	if !start.Before(end) {
		return nil, finErrors.NewValidationError("start", "must be before end",
			start.Format(DateLayout)+" >= "+end.Format(DateLayout))
	}

	begin := time.Now()
	bars, err := p.DailyBars(ctx, ticker, start, end)
	if err != nil {
		return nil, finErrors.NewLoadError(ticker, err)
	}
	if len(bars) == 0 {
		return nil, finErrors.NewLoadError(ticker, ErrNoData)
	}
	slices.SortStableFunc(bars, func(a, b Bar) int { return a.Time.Compare(b.Time) })

	n := len(bars)
	dates := make([]string, n)
	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	volume := make([]float64, n)
	for i, b := range bars {
		dates[i] = b.Time.Format(DateLayout)
		open[i], high[i], low[i], closes[i], volume[i] = b.Open, b.High, b.Low, b.Close, b.Volume
	}

	ds, err := dataset.FromSeries(
		dataset.NewText(DateColumn, dates, nil),
		dataset.NewFloat(TickerColumn("Open", ticker), open),
		dataset.NewFloat(TickerColumn("High", ticker), high),
		dataset.NewFloat(TickerColumn("Low", ticker), low),
		dataset.NewFloat(TickerColumn(CloseColumn, ticker), closes),
		dataset.NewFloat(TickerColumn("Volume", ticker), volume),
	)
	if err != nil {
		return nil, finErrors.NewLoadError(ticker, err)
	}
	if err := AddReturns(ds, TickerColumn(CloseColumn, ticker)); err != nil {
		return nil, finErrors.NewLoadError(ticker, err)
	}

	logger().Info("Market data fetched",
		log.OperationKey, log.OperationLoad,
		log.SourceKey, p.Name(),
		log.TickerKey, ticker,
		log.RowsKey, n,
		log.DurationMsKey, time.Since(begin).Milliseconds(),
	)
	return ds, nil
}

// nullable converts an optional value to NaN when absent.
func nullable(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
