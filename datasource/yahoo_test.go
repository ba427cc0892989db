package datasource_test

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ezoic/finml/datasource"
	finErrors "github.com/ezoic/finml/pkg/errors"
)

const chartJSON = `{"chart":{"result":[{
  "meta":{"symbol":"AAPL","gmtoffset":0},
  "timestamp":[1578061800,1577975400,1578148200],
  "indicators":{"quote":[{
    "open":[74.2,73.9,null],
    "high":[75.1,75.2,null],
    "low":[74.0,73.7,null],
    "close":[74.4,75.1,null],
    "volume":[146322800,135480400,null]
  }]}
}],"error":null}}`

const notFoundJSON = `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`

func newChartServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v8/finance/chart/") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("interval") != "1d" {
			t.Errorf("Expected daily interval, got %q", r.URL.Query().Get("interval"))
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("User-Agent header must be set")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_Yahoo(t *testing.T) {
	srv := newChartServer(t, http.StatusOK, chartJSON)
	p := datasource.NewYahooProvider(srv.URL, time.Second)

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 1, 10, 0, 0, 0, 0, time.UTC)
	ds, err := datasource.Fetch(context.Background(), p, "aapl", start, end)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	want := "Date,Open_AAPL,High_AAPL,Low_AAPL,Close_AAPL,Volume_AAPL,Return"
	if got := strings.Join(ds.Names(), ","); got != want {
		t.Errorf("Expected columns %s, got %s", want, got)
	}
	if ds.Len() != 2 {
		t.Fatalf("Expected the all-null row to be skipped, got %d rows", ds.Len())
	}

	dates, _ := ds.Text("Date")
	if dates[0] != "2020-01-02" || dates[1] != "2020-01-03" {
		t.Errorf("Expected rows sorted by date, got %v", dates)
	}
	closes, _ := ds.Float("Close_AAPL")
	if closes[0] != 75.1 || closes[1] != 74.4 {
		t.Errorf("Unexpected closes %v", closes)
	}
	returns, _ := ds.Float("Return")
	if !math.IsNaN(returns[0]) || math.Abs(returns[1]-(74.4-75.1)/75.1) > 1e-12 {
		t.Errorf("Unexpected returns %v", returns)
	}
}

func TestFetch_NoData(t *testing.T) {
	srv := newChartServer(t, http.StatusNotFound, notFoundJSON)
	p := datasource.NewYahooProvider(srv.URL, time.Second)

	_, err := datasource.Fetch(context.Background(), p, "ZZZZ",
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, datasource.ErrNoData) {
		t.Fatalf("Expected ErrNoData, got %v", err)
	}
	if !errors.Is(err, finErrors.ErrLoad) {
		t.Errorf("Expected a LoadError, got %v", err)
	}
}

func TestFetch_ServerError(t *testing.T) {
	srv := newChartServer(t, http.StatusInternalServerError, "oops")
	p := datasource.NewYahooProvider(srv.URL, time.Second)

	_, err := datasource.Fetch(context.Background(), p, "AAPL",
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, finErrors.ErrLoad) {
		t.Fatalf("Expected ErrLoad, got %v", err)
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("Expected status in message, got %v", err)
	}
}

func TestFetch_InvalidRange(t *testing.T) {
	p := datasource.NewYahooProvider("http://127.0.0.1:0", time.Second)
	day := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := datasource.Fetch(context.Background(), p, "AAPL", day, day); !errors.Is(err, finErrors.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty range, got %v", err)
	}
	if _, err := datasource.Fetch(context.Background(), p, "  ", day, day.AddDate(0, 1, 0)); !errors.Is(err, finErrors.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty ticker, got %v", err)
	}
}
