package datasource

import (
	"context"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/cockroachdb/errors"
)

type barsClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// AlpacaProvider reads daily bars from the Alpaca market data API.
type AlpacaProvider struct {
	client barsClient
}

// NewAlpacaProvider creates a provider. Empty credentials fall back to the
// APCA_API_KEY_ID and APCA_API_SECRET_KEY environment variables read by the
// SDK.
func NewAlpacaProvider(apiKey, apiSecret, baseURL string) *AlpacaProvider {
	return &AlpacaProvider{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
	}
}

// Name implements Provider.
func (p *AlpacaProvider) Name() string { return "alpaca" }

// DailyBars implements Provider. The SDK call is not cancellable, so ctx only
// bounds how long the caller waits for it.
func (p *AlpacaProvider) DailyBars(ctx context.Context, ticker string, start, end time.Time) ([]Bar, error) {
	type result struct {
		bars []marketdata.Bar
		err  error
	}
	done := make(chan result, 1)
	go func() {
		bars, err := p.client.GetBars(ticker, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
		})
		done <- result{bars: bars, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "alpaca: bars")
	case res := <-done:
		if res.err != nil {
			return nil, errors.Wrap(res.err, "alpaca: bars")
		}
		out := make([]Bar, 0, len(res.bars))
		for _, b := range res.bars {
			out = append(out, Bar{
				Time:   b.Timestamp.UTC(),
				Open:   b.Open,
				High:   b.High,
				Low:    b.Low,
				Close:  b.Close,
				Volume: float64(b.Volume),
			})
		}
		return out, nil
	}
}
