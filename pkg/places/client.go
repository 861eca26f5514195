// Package places provides a Google Places Web Service client covering Nearby
// Search, Text Search, Place Details, and address autocomplete. All requests
// pass through one shared rate-limiting gate so concurrent tile and review
// fetches respect the provider quota.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/insights-cli/internal/resilience"
)

const (
	defaultBaseURL = "https://maps.googleapis.com/maps/api"

	statusOK             = "OK"
	statusZeroResults    = "ZERO_RESULTS"
	statusOverQueryLimit = "OVER_QUERY_LIMIT"
)

// Client performs Google Places API operations.
type Client interface {
	// NearbySearch returns all pages of places around a point, up to the
	// configured page cap.
	NearbySearch(ctx context.Context, lat, lng float64, radiusMeters int, keyword string) ([]Result, error)

	// TextSearch returns all pages of a ranked keyword query.
	TextSearch(ctx context.Context, query string) ([]Result, error)

	// Details fetches a place's address, rating summary, and recent reviews.
	Details(ctx context.Context, placeID string) (*Details, error)

	// Autocomplete returns address suggestions for partial user input.
	Autocomplete(ctx context.Context, input string) ([]Prediction, error)

	// Stats reports request and retry counters for the client's lifetime.
	Stats() Stats
}

// Stats holds request accounting for quota diagnostics.
type Stats struct {
	Requests int64
	Retries  int64
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

// WithRateLimit sets the shared requests-per-second gate.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMaxPages caps how many result pages a single search follows.
func WithMaxPages(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithPageTokenWait sets how long to wait before using a next_page_token.
// The token is not valid server-side immediately after it is issued.
func WithPageTokenWait(d time.Duration) Option {
	return func(c *httpClient) { c.tokenWait = d }
}

// WithRetry overrides the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) { c.retry = cfg }
}

type httpClient struct {
	apiKey    string
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
	retry     resilience.RetryConfig
	maxPages  int
	tokenWait time.Duration

	requests atomic.Int64
	retries  atomic.Int64
}

// NewClient creates a Places client. The defaults match the provider's
// documented limits: 3 pages per search and a ~2s token readiness delay.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:    apiKey,
		baseURL:   defaultBaseURL,
		http:      &http.Client{Timeout: 20 * time.Second},
		limiter:   rate.NewLimiter(10, 10),
		retry:     resilience.DefaultRetryConfig(),
		maxPages:  3,
		tokenWait: 2200 * time.Millisecond,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Stats() Stats {
	return Stats{Requests: c.requests.Load(), Retries: c.retries.Load()}
}

func (c *httpClient) NearbySearch(ctx context.Context, lat, lng float64, radiusMeters int, keyword string) ([]Result, error) {
	params := url.Values{
		"location": {fmt.Sprintf("%f,%f", lat, lng)},
		"radius":   {fmt.Sprintf("%d", radiusMeters)},
		"key":      {c.apiKey},
	}
	if keyword != "" {
		params.Set("keyword", keyword)
	}
	return c.search(ctx, "/place/nearbysearch/json", params)
}

func (c *httpClient) TextSearch(ctx context.Context, query string) ([]Result, error) {
	params := url.Values{
		"query": {query},
		"key":   {c.apiKey},
	}
	return c.search(ctx, "/place/textsearch/json", params)
}

func (c *httpClient) Details(ctx context.Context, placeID string) (*Details, error) {
	params := url.Values{
		"place_id": {placeID},
		"fields":   {"place_id,name,rating,user_ratings_total,reviews,formatted_address,address_component,geometry"},
		"key":      {c.apiKey},
	}

	var resp detailsResponse
	if err := c.getJSON(ctx, "/place/details/json", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != statusOK {
		if resp.Status == statusOverQueryLimit {
			return nil, eris.Wrapf(resilience.ErrQuotaExceeded, "places: details %s", placeID)
		}
		return nil, eris.Errorf("places: details %s: status %s: %s", placeID, resp.Status, resp.ErrorMessage)
	}
	return &resp.Result, nil
}

func (c *httpClient) Autocomplete(ctx context.Context, input string) ([]Prediction, error) {
	params := url.Values{
		"input": {input},
		"types": {"geocode"},
		"key":   {c.apiKey},
	}

	var resp autocompleteResponse
	if err := c.getJSON(ctx, "/place/autocomplete/json", params, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus(resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}
	return resp.Predictions, nil
}

// search pages through a search endpoint until the provider stops issuing
// next_page_token or the page cap is hit. On error the pages collected so far
// are returned alongside it so callers can keep partial coverage.
func (c *httpClient) search(ctx context.Context, path string, params url.Values) ([]Result, error) {
	var all []Result
	for page := 1; ; page++ {
		var resp searchResponse
		if err := c.getJSON(ctx, path, params, &resp); err != nil {
			return all, err
		}
		if err := checkStatus(resp.Status, resp.ErrorMessage); err != nil {
			return all, err
		}
		all = append(all, resp.Results...)

		if resp.NextPageToken == "" || page >= c.maxPages {
			return all, nil
		}

		timer := time.NewTimer(c.tokenWait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return all, eris.Wrap(ctx.Err(), "places: pagination canceled")
		case <-timer.C:
		}
		params.Set("pagetoken", resp.NextPageToken)
	}
}

func checkStatus(status, errorMessage string) error {
	switch status {
	case statusOK, statusZeroResults:
		return nil
	case statusOverQueryLimit:
		return eris.Wrap(resilience.ErrQuotaExceeded, "places")
	default:
		return eris.Errorf("places: status %s: %s", status, errorMessage)
	}
}

func (c *httpClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	cfg := c.retry
	cfg.OnRetry = func(attempt int, err error) {
		c.retries.Add(1)
		zap.L().Warn("retrying places request",
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	body, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "places: rate limit")
		}
		c.requests.Add(1)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
		if err != nil {
			return nil, eris.Wrap(err, "places: create request")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "places: send request")
		}
		defer resp.Body.Close() //nolint:errcheck

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "places: read response")
		}

		if resp.StatusCode != http.StatusOK {
			statusErr := eris.Errorf("places: unexpected status %d: %s", resp.StatusCode, string(b))
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
			}
			return nil, statusErr
		}
		return b, nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "places: unmarshal response")
	}
	return nil
}
