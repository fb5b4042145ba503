package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Default configuration for the Google Places client.
const (
	// DefaultBaseURL is the Places text search endpoint.
	DefaultBaseURL = "https://maps.googleapis.com/maps/api/place/textsearch/json"
	// DefaultTimeout bounds a single search call.
	DefaultTimeout = 10 * time.Second
)

// Opts holds configuration options for the Google Places client.
type Opts struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Option defines a configuration option for the Google Places client.
type Option func(*Opts)

// WithAPIKey sets the Places API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithBaseURL overrides the search endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(o *Opts) { o.BaseURL = u }
}

// WithHTTPClient overrides the HTTP client used for search calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) { o.HTTPClient = c }
}

// GooglePlaces implements Geocoder against the Google Places text search API.
type GooglePlaces struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewGooglePlaces creates a Places-backed geocoder.
func NewGooglePlaces(opts ...Option) (*GooglePlaces, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("places API key must be provided")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	slog.Debug("GooglePlaces client configured", "base_url", cfg.BaseURL)
	return &GooglePlaces{apiKey: cfg.APIKey, baseURL: cfg.BaseURL, client: cfg.HTTPClient}, nil
}

// placesResponse mirrors the slice of the Places payload we consume.
type placesResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Name             string `json:"name"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Search queries the Places text search API and returns all candidates.
func (g *GooglePlaces) Search(ctx context.Context, query string) ([]Candidate, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build places request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		slog.Error("GooglePlaces search request failed", "error", err)
		return nil, fmt.Errorf("places search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("GooglePlaces search returned non-OK status", "status_code", resp.StatusCode)
		return nil, fmt.Errorf("places search returned HTTP %d", resp.StatusCode)
	}

	var body placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode places response: %w", err)
	}

	switch body.Status {
	case "OK":
	case "ZERO_RESULTS":
		slog.Debug("GooglePlaces search returned zero results")
		return nil, nil
	default:
		slog.Error("GooglePlaces search returned API error", "api_status", body.Status)
		return nil, fmt.Errorf("places search status %s", body.Status)
	}

	candidates := make([]Candidate, 0, len(body.Results))
	for _, r := range body.Results {
		candidates = append(candidates, Candidate{
			FormattedAddress: r.FormattedAddress,
			Name:             r.Name,
			Latitude:         r.Geometry.Location.Lat,
			Longitude:        r.Geometry.Location.Lng,
		})
	}
	slog.Debug("GooglePlaces search succeeded", "count", len(candidates))
	return candidates, nil
}
