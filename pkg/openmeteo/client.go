// Package openmeteo provides a client for the Open-Meteo historical
// weather archive API.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// hourlyVariables are the covariates requested for every hour.
const hourlyVariables = "temperature_2m,precipitation,snowfall,wind_speed_10m,cloud_cover"

// Client fetches hourly weather archives.
type Client interface {
	// Hourly fetches hourly observations for a point and date range
	// (dates inclusive, formatted 2006-01-02).
	Hourly(ctx context.Context, lat, lon float64, startDate, endDate string) (*HourlyResponse, error)
}

// HourlyResponse is the parsed archive API response.
type HourlyResponse struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Hourly    HourlyData `json:"hourly"`
}

// HourlyData holds parallel arrays, one entry per hour.
type HourlyData struct {
	Time          []string  `json:"time"`
	Temperature2M []float64 `json:"temperature_2m"`
	Precipitation []float64 `json:"precipitation"`
	Snowfall      []float64 `json:"snowfall"`
	WindSpeed10M  []float64 `json:"wind_speed_10m"`
	CloudCover    []float64 `json:"cloud_cover"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates an archive API client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://archive-api.open-meteo.com/v1/archive",
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Hourly(ctx context.Context, lat, lon float64, startDate, endDate string) (*HourlyResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "openmeteo: rate limit wait")
	}

	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%g", lat))
	q.Set("longitude", fmt.Sprintf("%g", lon))
	q.Set("start_date", startDate)
	q.Set("end_date", endDate)
	q.Set("hourly", hourlyVariables)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "openmeteo: build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "openmeteo: request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "openmeteo: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("openmeteo: status %d: %s", resp.StatusCode, string(body))
	}

	var parsed HourlyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "openmeteo: unmarshal response")
	}
	return &parsed, nil
}
