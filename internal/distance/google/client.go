// Package google implements distance.Lookup with the Google Distance Matrix API.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/joseph-ayodele/pergola-quoter/internal/distance"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/distancematrix/json"

// Config for the Distance Matrix client.
type Config struct {
	APIKey  string        // if empty, falls back to env GOOGLE_MAPS_API_KEY
	BaseURL string        // default Distance Matrix JSON endpoint
	Timeout time.Duration // http client timeout
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GOOGLE_MAPS_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type matrixResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Rows         []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value float64 `json:"value"` // metres
				Text  string  `json:"text"`
			} `json:"distance"`
		} `json:"elements"`
	} `json:"rows"`
}

// DistanceKM asks for the driving distance of the first route between the two places.
func (c *Client) DistanceKM(ctx context.Context, origin, destination string) (float64, error) {
	if c.cfg.APIKey == "" {
		return 0, errors.New("google distance: no API key configured")
	}

	q := url.Values{}
	q.Set("origins", origin)
	q.Set("destinations", destination)
	q.Set("units", "metric")
	q.Set("key", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("google distance http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Warn("google distance response body close error", "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return 0, fmt.Errorf("google distance status %d", resp.StatusCode)
	}

	var mr matrixResponse
	if err := json.Unmarshal(raw, &mr); err != nil {
		return 0, fmt.Errorf("decode google distance response: %w", err)
	}
	if mr.Status != "OK" {
		return 0, fmt.Errorf("google distance status %s: %s", mr.Status, mr.ErrorMessage)
	}
	if len(mr.Rows) == 0 || len(mr.Rows[0].Elements) == 0 {
		return 0, distance.ErrNoRoute
	}
	el := mr.Rows[0].Elements[0]
	if el.Status != "OK" {
		return 0, fmt.Errorf("%w: element status %s", distance.ErrNoRoute, el.Status)
	}
	return el.Distance.Value / 1000, nil
}
