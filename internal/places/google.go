package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Geocoder looks up a free-text place name. Zero candidates is not an error.
type Geocoder interface {
	FindPlace(ctx context.Context, name string) ([]Candidate, error)
}

// Candidate is one ranked result of a place search.
type Candidate struct {
	PlaceID           string             `json:"place_id"`
	Name              string             `json:"name"`
	FormattedAddress  string             `json:"formatted_address"`
	Geometry          Geometry           `json:"geometry"`
	AddressComponents []AddressComponent `json:"address_components"`
}

// Geometry holds a candidate's coordinates.
type Geometry struct {
	Location LatLng `json:"location"`
}

// LatLng is a coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// AddressComponent is one tagged part of a candidate's address.
type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// GoogleConfig holds the settings for the Find Place API.
type GoogleConfig struct {
	// BaseURL is the Maps API root, e.g. https://maps.googleapis.com
	BaseURL string

	// APIKey authenticates requests
	APIKey string

	// Bias is the point results are biased toward
	Bias LatLng

	// RequestsPerSecond throttles lookups; zero disables throttling
	RequestsPerSecond float64

	// Timeout for API requests
	Timeout time.Duration
}

const findPlaceFields = "formatted_address,geometry,name,place_id,address_components"

// GoogleClient is a client for the Google Places Find Place API.
type GoogleClient struct {
	config     GoogleConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewGoogleClient creates a new Find Place client.
func NewGoogleClient(config GoogleConfig) *GoogleClient {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}
	return &GoogleClient{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: limiter,
	}
}

type findPlaceResponse struct {
	Candidates   []Candidate `json:"candidates"`
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message,omitempty"`
}

// ErrMissingAPIKey is returned by FindPlace when no API key is configured.
var ErrMissingAPIKey = errors.New("google maps API key is not configured")

// FindPlace runs a text query for name biased toward the configured point.
func (c *GoogleClient) FindPlace(ctx context.Context, name string) ([]Candidate, error) {
	if c.config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := c.newRequest(ctx, name)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, body)
	}

	var result findPlaceResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	switch result.Status {
	case "OK":
		return result.Candidates, nil
	case "ZERO_RESULTS":
		return nil, nil
	default:
		return nil, fmt.Errorf("API status %s: %s", result.Status, result.ErrorMessage)
	}
}

// newRequest builds the Find Place request for name.
func (c *GoogleClient) newRequest(ctx context.Context, name string) (*http.Request, error) {
	q := url.Values{}
	q.Set("input", name)
	q.Set("inputtype", "textquery")
	q.Set("fields", findPlaceFields)
	q.Set("locationbias", "point:"+
		strconv.FormatFloat(c.config.Bias.Lat, 'f', -1, 64)+","+
		strconv.FormatFloat(c.config.Bias.Lng, 'f', -1, 64))
	q.Set("key", c.config.APIKey)

	endpoint := c.config.BaseURL + "/maps/api/place/findplacefromtext/json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return req, nil
}
