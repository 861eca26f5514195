// Package geocode resolves free-text addresses to coordinates via the Google
// Geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/insights-cli/internal/resilience"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api"

// ErrNoMatch is returned when the provider resolves zero results for an
// address. It is fatal to a run: discovery must not proceed without a center.
var ErrNoMatch = eris.New("geocode: no match for address")

// Result is a resolved address.
type Result struct {
	Latitude         float64
	Longitude        float64
	FormattedAddress string
	City             string
	State            string
	Zip              string
	Country          string
}

// Client resolves addresses.
type Client interface {
	Resolve(ctx context.Context, address string) (*Result, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit sets the requests-per-second limit for geocoding calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry overrides the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) { c.retry = cfg }
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a geocoding Client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 20 * time.Second},
		limiter: rate.NewLimiter(10, 10),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type geocodeResponse struct {
	Results []struct {
		FormattedAddress  string `json:"formatted_address"`
		AddressComponents []struct {
			LongName  string   `json:"long_name"`
			ShortName string   `json:"short_name"`
			Types     []string `json:"types"`
		} `json:"address_components"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Resolve geocodes an address. Zero matches map to ErrNoMatch; transient
// provider failures are retried with bounded backoff before surfacing.
func (c *httpClient) Resolve(ctx context.Context, address string) (*Result, error) {
	params := url.Values{
		"address": {address},
		"key":     {c.apiKey},
	}

	cfg := c.retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger("geocode", "resolve")
	}

	body, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "geocode: rate limit")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/geocode/json?"+params.Encode(), nil)
		if err != nil {
			return nil, eris.Wrap(err, "geocode: create request")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "geocode: send request")
		}
		defer resp.Body.Close() //nolint:errcheck

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "geocode: read response")
		}

		if resp.StatusCode != http.StatusOK {
			statusErr := eris.Errorf("geocode: unexpected status %d: %s", resp.StatusCode, string(b))
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
			}
			return nil, statusErr
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}

	var gr geocodeResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, eris.Wrap(err, "geocode: unmarshal response")
	}

	switch gr.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, eris.Wrapf(ErrNoMatch, "geocode: %q", address)
	case "OVER_QUERY_LIMIT":
		return nil, eris.Wrap(resilience.ErrQuotaExceeded, "geocode")
	default:
		return nil, eris.Errorf("geocode: status %s: %s", gr.Status, gr.ErrorMessage)
	}
	if len(gr.Results) == 0 {
		return nil, eris.Wrapf(ErrNoMatch, "geocode: %q", address)
	}

	top := gr.Results[0]
	out := &Result{
		Latitude:         top.Geometry.Location.Lat,
		Longitude:        top.Geometry.Location.Lng,
		FormattedAddress: top.FormattedAddress,
	}
	for _, comp := range top.AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "locality":
				out.City = comp.LongName
			case "administrative_area_level_1":
				out.State = comp.ShortName
			case "postal_code":
				out.Zip = comp.LongName
			case "country":
				out.Country = comp.ShortName
			}
		}
	}
	return out, nil
}
