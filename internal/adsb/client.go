package adsb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/skysift/cotbridge/pkg/logger"
)

// Client fetches aircraft snapshots from a dump1090-style JSON endpoint
type Client struct {
	httpClient *http.Client
	sourceURL  string
	logger     *logger.Logger
}

// NewClient creates a new ADS-B poll client
func NewClient(sourceURL string, timeout time.Duration, logger *logger.Logger) *Client {
	return &Client{
		sourceURL: sourceURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("adsb-client"),
	}
}

// FetchData fetches one full aircraft snapshot from the configured source
func (c *Client) FetchData(ctx context.Context) (*RawAircraftData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Fetching ADS-B data",
		logger.String("url", c.sourceURL),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var data RawAircraftData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	c.logger.Debug("Successfully fetched ADS-B data",
		logger.Int("aircraft_count", len(data.Aircraft)),
		logger.Int("message_count", data.Messages),
	)

	return &data, nil
}
