package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jasmnyeh/staircase-fairy/internal/domain"
)

// ErrProviderUnavailable covers every failure mode of the network
// geolocation call: transport error, timeout, non-2xx status, bad body.
var ErrProviderUnavailable = errors.New("geolocation provider unavailable")

// ProviderClient queries an external geolocation provider that estimates
// the caller's position from network signals. The request carries no device
// hints; the provider applies its own Wi-Fi/IP heuristics.
type ProviderClient struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewProviderClient creates a client with a bounded request timeout.
func NewProviderClient(url, apiKey string, timeout time.Duration) *ProviderClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ProviderClient{
		url:    url,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type providerResponse struct {
	Location struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
	Accuracy float64 `json:"accuracy"`
}

// Resolve asks the provider for a position estimate.
func (c *ProviderClient) Resolve(ctx context.Context, userID string) (domain.Coordinate, error) {
	url := c.url
	if c.apiKey != "" {
		url += "?key=" + c.apiKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte("{}")))
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Coordinate{}, fmt.Errorf("%w: status %s", ErrProviderUnavailable, resp.Status)
	}

	var pr providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: decode response: %v", ErrProviderUnavailable, err)
	}

	return domain.Coordinate{Lat: pr.Location.Lat, Lng: pr.Location.Lng}, nil
}
