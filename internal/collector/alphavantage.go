package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"StockScreener/internal/model"
)

const alphaVantageBaseURL = "https://www.alphavantage.co/query"

// AlphaVantageFetcher implements Fetcher using the Alpha Vantage REST API.
type AlphaVantageFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewAlphaVantageFetcher creates a new fetcher with optional proxy support.
func NewAlphaVantageFetcher(apiKey, proxyURL string) *AlphaVantageFetcher {
	return &AlphaVantageFetcher{
		BaseURL: alphaVantageBaseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL, 30*time.Second),
	}
}

func (f *AlphaVantageFetcher) Name() string { return "alphavantage" }

// avBar is one entry of the "Time Series (Daily)" object; all values are strings.
type avBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

type avDailyResponse struct {
	TimeSeries   map[string]avBar `json:"Time Series (Daily)"`
	ErrorMessage string           `json:"Error Message"`
	Note         string           `json:"Note"`
	Information  string           `json:"Information"`
}

// FetchDailyBars downloads the full daily history and keeps [start, end].
func (f *AlphaVantageFetcher) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("function", "TIME_SERIES_DAILY")
	q.Set("symbol", symbol)
	q.Set("outputsize", "full")
	q.Set("datatype", "json")
	q.Set("apikey", f.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alphavantage fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("alphavantage: status %d, body: %s", resp.StatusCode, truncate(body, 200))
	}

	var payload avDailyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("alphavantage decode: %w", err)
	}
	switch {
	case payload.ErrorMessage != "":
		// Alpha Vantage reports unknown symbols this way.
		return nil, nil
	case payload.Note != "":
		return nil, fmt.Errorf("alphavantage throttled: %s", payload.Note)
	case payload.TimeSeries == nil && payload.Information != "":
		return nil, fmt.Errorf("alphavantage: %s", payload.Information)
	}

	bars := make([]model.OHLCV, 0, len(payload.TimeSeries))
	for date, raw := range payload.TimeSeries {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("alphavantage date %q: %w", date, err)
		}
		if !inRange(day, start, end) {
			continue
		}
		bar, err := raw.toOHLCV(day)
		if err != nil {
			return nil, fmt.Errorf("alphavantage %s %s: %w", symbol, date, err)
		}
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (b avBar) toOHLCV(day time.Time) (model.OHLCV, error) {
	fields := []string{b.Open, b.High, b.Low, b.Close, b.Volume}
	values := make([]float64, len(fields))
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.OHLCV{}, err
		}
		values[i] = v
	}
	return model.OHLCV{Time: day, Open: values[0], High: values[1], Low: values[2], Close: values[3], Volume: values[4]}, nil
}
