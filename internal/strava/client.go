package strava

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"

	"stridedash/internal/auth"
)

// BaseURL is the Strava API root.
const BaseURL = "https://www.strava.com/api/v3"

// Client issues typed Strava API calls through the request queue,
// consulting the response cache first.
type Client struct {
	httpClient *http.Client
	tokens     oauth2.TokenSource
	queue      *Queue
	cache      *Cache
	baseURL    string
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API root (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates a Strava API client. tokens may be nil, in which
// case every call fails with auth.ErrUnauthenticated.
func NewClient(tokens oauth2.TokenSource, queue *Queue, cache *Cache, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
		queue:      queue,
		cache:      cache,
		baseURL:    BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type callOpts struct {
	noCache bool
}

// CallOption customizes a single API call.
type CallOption func(*callOpts)

// NoCache bypasses the response cache for a call. Sync uses this:
// during an explicit sync, staleness costs more than the saved request.
func NoCache() CallOption {
	return func(o *callOpts) { o.noCache = true }
}

// GetAthlete fetches the authenticated athlete's profile.
func (c *Client) GetAthlete(ctx context.Context, opts ...CallOption) (*Athlete, error) {
	return getResource[*Athlete](ctx, c, "/athlete", nil, PriorityAthlete, AthleteTTL, opts)
}

// GetAthleteStats fetches aggregate stats for an athlete.
func (c *Client) GetAthleteStats(ctx context.Context, athleteID int64, opts ...CallOption) (*AthleteStats, error) {
	endpoint := fmt.Sprintf("/athletes/%d/stats", athleteID)
	return getResource[*AthleteStats](ctx, c, endpoint, nil, PriorityStats, StatsTTL, opts)
}

// GetActivities fetches one page of the athlete's activities. Page 1 is
// cached briefly and served at higher priority than older pages, which
// change rarely and only back-fill history.
func (c *Client) GetActivities(ctx context.Context, perPage, page int, opts ...CallOption) ([]Activity, error) {
	params := map[string]string{
		"per_page": strconv.Itoa(perPage),
		"page":     strconv.Itoa(page),
	}
	priority := PriorityActivityBackfill
	ttl := ActivityPageTTL
	if page <= 1 {
		priority = PriorityActivityFirstPage
		ttl = ActivityPageOneTTL
	}
	return getResource[[]Activity](ctx, c, "/athlete/activities", params, priority, ttl, opts)
}

// GetActivity fetches a single activity with all segment efforts.
func (c *Client) GetActivity(ctx context.Context, id int64, opts ...CallOption) (*Activity, error) {
	endpoint := fmt.Sprintf("/activities/%d", id)
	params := map[string]string{"include_all_efforts": "true"}
	return getResource[*Activity](ctx, c, endpoint, params, PriorityActivityDetail, ActivityDetailTTL, opts)
}

// getResource is the shared cache -> queue -> decode -> cache path.
func getResource[T any](ctx context.Context, c *Client, endpoint string, params map[string]string, priority int, ttl time.Duration, opts []CallOption) (T, error) {
	var zero T
	if c.tokens == nil {
		return zero, auth.ErrUnauthenticated
	}

	var o callOpts
	for _, opt := range opts {
		opt(&o)
	}

	key := CacheKey(endpoint, params)
	if !o.noCache {
		if cached, ok := c.cache.Get(key); ok {
			if typed, ok := cached.(T); ok {
				return typed, nil
			}
		}
	}

	raw, err := Do(ctx, c.queue, key, priority, func(ctx context.Context) (json.RawMessage, error) {
		return c.get(ctx, endpoint, params)
	})
	if err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("decoding %s: %w", endpoint, err)
	}

	c.cache.SetTTL(key, out, ttl)
	return out, nil
}

// get performs one authenticated GET and normalizes failures: 429
// becomes a *RateLimitError carrying the server's headers, any other
// non-2xx a *APIError with the upstream message.
func (c *Client) get(ctx context.Context, endpoint string, params map[string]string) (json.RawMessage, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, err
	}

	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		values := url.Values{}
		for k, v := range params {
			values.Set(k, v)
		}
		reqURL += "?" + values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	token.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, newRateLimitError(resp.Header)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Message: apiMessage(body)}
	}

	return body, nil
}

// apiMessage extracts the upstream error message, falling back to the
// raw body.
func apiMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(body))
}
