// Package openmeteo fetches daily ERA5 reanalysis weather from the
// Open-Meteo archive API for the upstream merge stage.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultDailyVars is the full daily variable set requested by default.
var DefaultDailyVars = []string{
	"temperature_2m_max",
	"temperature_2m_min",
	"temperature_2m_mean",
	"precipitation_sum",
	"relative_humidity_2m_mean",
	"et0_fao_evapotranspiration",
}

// MinimalDailyVars is the fallback variable set retried automatically when
// the full request fails, so a basic series is still fetched.
var MinimalDailyVars = []string{
	"temperature_2m_max",
	"temperature_2m_min",
	"precipitation_sum",
}

// Request describes one daily-archive fetch.
type Request struct {
	Latitude  float64
	Longitude float64
	StartDate string // ISO date, inclusive
	EndDate   string // ISO date, inclusive
	DailyVars []string
	Timezone  string // empty means "auto"
}

// Result is the parsed daily series plus fetch metadata.
type Result struct {
	Dates        []string
	Series       map[string][]float64
	Units        map[string]string
	Timezone     string
	FallbackUsed bool
}

// Client calls the Open-Meteo ERA5 archive API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates an archive API client.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://archive-api.open-meteo.com/v1/era5",
		logger:     logger,
	}
}

// FetchDaily requests the configured daily variables, retrying once with the
// minimal variable set when the full request fails.
func (c *Client) FetchDaily(ctx context.Context, req Request) (Result, error) {
	vars := req.DailyVars
	if len(vars) == 0 {
		vars = DefaultDailyVars
	}

	result, err := c.fetch(ctx, req, vars)
	if err == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return Result{}, err
	}

	c.logger.Warn("full variable fetch failed, retrying with minimal set",
		"error", err, "minimal_vars", MinimalDailyVars)
	result, err = c.fetch(ctx, req, MinimalDailyVars)
	if err != nil {
		return Result{}, err
	}
	result.FallbackUsed = true
	return result, nil
}

func (c *Client) fetch(ctx context.Context, req Request, vars []string) (Result, error) {
	tz := req.Timezone
	if tz == "" {
		tz = "auto"
	}
	params := url.Values{
		"latitude":   {fmt.Sprintf("%.6f", req.Latitude)},
		"longitude":  {fmt.Sprintf("%.6f", req.Longitude)},
		"start_date": {req.StartDate},
		"end_date":   {req.EndDate},
		"daily":      {strings.Join(vars, ",")},
		"timezone":   {tz},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("archive request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return Result{}, fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	var payload archiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", err)
	}
	if len(payload.Daily.Time) == 0 {
		return Result{}, fmt.Errorf("response has no daily/time block")
	}

	result := Result{
		Dates:    payload.Daily.Time,
		Series:   make(map[string][]float64, len(vars)),
		Units:    payload.DailyUnits,
		Timezone: payload.Timezone,
	}
	for name, values := range payload.Daily.Values {
		result.Series[name] = values
	}
	return result, nil
}

// Archive API response types. The daily block carries "time" plus one array
// per requested variable, so the variable arrays decode through a second
// pass over the raw block.

type archiveResponse struct {
	Timezone   string            `json:"timezone"`
	DailyUnits map[string]string `json:"daily_units"`
	Daily      dailyBlock        `json:"daily"`
}

type dailyBlock struct {
	Time   []string
	Values map[string][]float64
}

func (d *dailyBlock) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Values = make(map[string][]float64, len(raw))
	for key, msg := range raw {
		if key == "time" {
			if err := json.Unmarshal(msg, &d.Time); err != nil {
				return fmt.Errorf("daily.time: %w", err)
			}
			continue
		}
		// Nulls in the series decode to NaN-equivalent missing values.
		var values []*float64
		if err := json.Unmarshal(msg, &values); err != nil {
			return fmt.Errorf("daily.%s: %w", key, err)
		}
		series := make([]float64, len(values))
		for i, v := range values {
			if v == nil {
				series[i] = math.NaN()
			} else {
				series[i] = *v
			}
		}
		d.Values[key] = series
	}
	return nil
}
