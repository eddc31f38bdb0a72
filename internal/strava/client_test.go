package strava

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"stridedash/internal/auth"
)

// newTestClient wires a client to an httptest server with a static
// token and a fast, non-retrying queue.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	q := NewQueue(QueueConfig{
		MaxRequests: 1000,
		Window:      time.Minute,
		MinInterval: time.Millisecond,
		MaxRetries:  0,
		BaseBackoff: time.Millisecond,
	}, zerolog.Nop())
	t.Cleanup(q.Close)

	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})
	return NewClient(tokens, q, NewCache(DefaultTTL), WithBaseURL(srv.URL))
}

func TestClientGetAthlete(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/athlete", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"id": 42, "username": "runner", "firstname": "Test", "weight": 70.5}`))
	}))

	athlete, err := client.GetAthlete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, int64(42), athlete.ID)
	assert.Equal(t, "runner", athlete.Username)
	require.NotNil(t, athlete.Weight)
	assert.Equal(t, 70.5, *athlete.Weight)
}

func TestClientCachesResponses(t *testing.T) {
	calls := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"id": 42}`))
	}))

	_, err := client.GetAthlete(context.Background())
	require.NoError(t, err)
	_, err = client.GetAthlete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second call should be served from cache")

	_, err = client.GetAthlete(context.Background(), NoCache())
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "NoCache bypasses the cached response")
}

func TestClientGetActivities(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/athlete/activities", r.URL.Path)
		assert.Equal(t, "30", r.URL.Query().Get("per_page"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		w.Write([]byte(`[{"id": 1, "name": "Morning Run"}, {"id": 2, "name": "Evening Run"}]`))
	}))

	activities, err := client.GetActivities(context.Background(), 30, 2)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, "Morning Run", activities[0].Name)
}

func TestClientGetActivity(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/activities/123", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("include_all_efforts"))
		w.Write([]byte(`{
			"id": 123,
			"name": "Long Run",
			"splits_metric": [{"split": 1, "distance": 1000, "elapsed_time": 300}],
			"segment_efforts": [{"id": 9, "name": "Hill", "pr_rank": 2}]
		}`))
	}))

	activity, err := client.GetActivity(context.Background(), 123)
	require.NoError(t, err)
	assert.Equal(t, int64(123), activity.ID)
	require.Len(t, activity.SplitsMetric, 1)
	assert.Equal(t, 300, activity.SplitsMetric[0].ElapsedTime)
	require.Len(t, activity.SegmentEfforts, 1)
	require.NotNil(t, activity.SegmentEfforts[0].PRRank)
	assert.Equal(t, 2, *activity.SegmentEfforts[0].PRRank)
}

func TestClientGetAthleteStats(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/athletes/42/stats", r.URL.Path)
		w.Write([]byte(`{"biggest_ride_distance": 120000, "all_run_totals": {"count": 310, "distance": 2500000}}`))
	}))

	stats, err := client.GetAthleteStats(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 120000.0, stats.BiggestRideDistance)
	assert.Equal(t, 310, stats.AllRunTotals.Count)
}

func TestClientRateLimited(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "42")
		w.Header().Set("X-RateLimit-Limit", "600,30000")
		w.Header().Set("X-RateLimit-Usage", "601,512")
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := client.GetAthlete(context.Background())
	require.Error(t, err)

	var rl *RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 42*time.Second, rl.RetryAfter)
	assert.Equal(t, "600,30000", rl.Limit)
	assert.Equal(t, "601,512", rl.Usage)
}

func TestClientAPIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "Record Not Found"}`))
	}))

	_, err := client.GetActivity(context.Background(), 999)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Record Not Found", apiErr.Message)
}

func TestClientUnauthenticated(t *testing.T) {
	q := NewQueue(QueueConfig{MinInterval: time.Millisecond}, zerolog.Nop())
	t.Cleanup(q.Close)

	client := NewClient(nil, q, NewCache(DefaultTTL))
	_, err := client.GetAthlete(context.Background())
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}
