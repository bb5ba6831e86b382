package benchmark

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartBody = `{
  "chart": {
    "result": [{
      "timestamp": [1704758400, 1704844800, 1704931200],
      "indicators": {"quote": [{"close": [100.5, null, 102.25]}]}
    }],
    "error": null
  }
}`

func TestYahooFetchParsesChart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/^N225", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	src := NewYahooSource(srv.URL)
	bars, err := src.Fetch(context.Background(), Request{
		Symbol: "^N225",
		Start:  time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	// null の close はスキップされる。
	require.Len(t, bars, 2)
	assert.Equal(t, 100.5, bars[0].Close)
	assert.Equal(t, 102.25, bars[1].Close)
	assert.Equal(t, time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC), bars[1].Date)
}

func TestYahooFetchChartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	_, err := NewYahooSource(srv.URL).Fetch(context.Background(), Request{Symbol: "XXXX"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")
}

func TestYahooFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewYahooSource(srv.URL).Fetch(context.Background(), Request{Symbol: "^N225"})
	assert.Error(t, err)
}

func TestYahooFetchEmptySymbol(t *testing.T) {
	_, err := NewYahooSource("").Fetch(context.Background(), Request{})
	assert.Error(t, err)
}

func TestParseYahooChartLengthMismatch(t *testing.T) {
	body := `{"chart":{"result":[{"timestamp":[1],"indicators":{"quote":[{"close":[1,2]}]}}]}}`
	_, err := parseYahooChart([]byte(body))
	assert.Error(t, err)
}
