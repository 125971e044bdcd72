// Package geocode resolves free-text addresses to places with coordinates
// through a Google Maps place search provider.
package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"ruralmatch/internal/resilience"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the place search endpoint used when none is configured.
const DefaultBaseURL = "https://serpapi.com/search.json"

// Client looks up places matching an address.
type Client interface {
	// Geocode returns every place the provider matched. An empty Places
	// slice means the provider found nothing; err is reserved for failures.
	Geocode(ctx context.Context, address string) (*Response, error)
}

// Place is one provider match.
type Place struct {
	Title     string   `json:"title"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// HasCoordinates reports whether the place carries a latitude and longitude.
func (p Place) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Response holds the matched places and the provider payload as received.
type Response struct {
	Places []Place
	Raw    json.RawMessage
}

// Option configures the client.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the provider endpoint.
func WithBaseURL(u string) Option {
	return func(c *client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithAPIKey sets the provider API key.
func WithAPIKey(key string) Option {
	return func(c *client) {
		c.apiKey = key
	}
}

// WithRateLimit sets the requests-per-second limit. rps <= 0 disables it.
func WithRateLimit(rps float64) Option {
	return func(c *client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry sets the retry policy for transient provider failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *client) {
		c.retry = cfg
	}
}

type client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
}

// NewClient creates a geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	c := &client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    DefaultBaseURL,
		limiter:    rate.NewLimiter(5, 5),
		retry:      resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("geocode", "place_search")
	}
	return c
}

type searchResponse struct {
	PlaceResults *providerPlace  `json:"place_results"`
	LocalResults []providerPlace `json:"local_results"`
	Error        string          `json:"error"`
}

type providerPlace struct {
	Title          string `json:"title"`
	Address        string `json:"address"`
	GPSCoordinates *struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"gps_coordinates"`
}

func (p providerPlace) toPlace() Place {
	place := Place{Title: p.Title, Address: p.Address}
	if p.GPSCoordinates != nil {
		place.Latitude = p.GPSCoordinates.Latitude
		place.Longitude = p.GPSCoordinates.Longitude
	}
	return place
}

// Geocode searches the provider for address.
func (c *client) Geocode(ctx context.Context, address string) (*Response, error) {
	if address == "" {
		return nil, eris.New("geocode: empty address")
	}

	body, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		return c.fetch(ctx, address)
	})
	if err != nil {
		return nil, eris.Wrap(err, "geocode: place search")
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}

	resp := &Response{Raw: json.RawMessage(body)}
	if sr.PlaceResults != nil {
		resp.Places = append(resp.Places, sr.PlaceResults.toPlace())
	}
	for _, p := range sr.LocalResults {
		resp.Places = append(resp.Places, p.toPlace())
	}
	return resp, nil
}

func (c *client) fetch(ctx context.Context, address string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit")
	}

	params := url.Values{
		"engine": {"google_maps"},
		"type":   {"search"},
		"q":      {address},
		"hl":     {"pt-br"},
		"gl":     {"br"},
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(err, 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("geocode: provider returned status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}
	return body, nil
}
