package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bible-chat/backend/internal/llm"
)

// DefaultWeatherURL is the Open-Meteo forecast endpoint.
const DefaultWeatherURL = "https://api.open-meteo.com/v1/forecast"

// Weather reports the current weather at a coordinate.
type Weather struct {
	client  *http.Client
	baseURL string
}

// NewWeather creates the getWeather tool. An empty baseURL means
// DefaultWeatherURL.
func NewWeather(baseURL string) *Weather {
	if baseURL == "" {
		baseURL = DefaultWeatherURL
	}
	return &Weather{client: &http.Client{Timeout: 10 * time.Second}, baseURL: baseURL}
}

func (w *Weather) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        "getWeather",
		Description: "Get the current weather at a location",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"latitude":  map[string]any{"type": "number"},
				"longitude": map[string]any{"type": "number"},
			},
			"required": []string{"latitude", "longitude"},
		},
	}
}

func (w *Weather) Execute(ctx context.Context, args map[string]any) (map[string]any, error) {
	lat, err := number(args, "latitude")
	if err != nil {
		return nil, err
	}
	lon, err := number(args, "longitude")
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("current", "temperature_2m")
	q.Set("hourly", "temperature_2m")
	q.Set("daily", "sunrise,sunset")
	q.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("could not create weather request: %w", err)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("weather api returned status %d: %s", resp.StatusCode, string(body))
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("could not decode weather response: %w", err)
	}
	return out, nil
}

func number(args map[string]any, key string) (float64, error) {
	switch v := args[key].(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(v, 64)
	case nil:
		return 0, fmt.Errorf("missing argument %q", key)
	default:
		return 0, fmt.Errorf("argument %q must be a number", key)
	}
}
