package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// RefreshWindow is how close to expiry a token may get before Token
// refreshes it eagerly. Matching the persisted expiry to the token's
// own expiry keeps repeated calls from looping on refresh.
const RefreshWindow = 5 * time.Minute

// TokenSource wraps oauth2.TokenSource with persistence.
// A token within RefreshWindow of expiry is exchanged for a fresh one,
// and the new token is persisted via onRefresh before it is returned.
// The mutex guarantees at most one refresh is in flight.
type TokenSource struct {
	config    *oauth2.Config
	token     *oauth2.Token
	onRefresh func(*oauth2.Token) error
	mu        sync.Mutex
}

// NewTokenSource creates a TokenSource that refreshes tokens as needed
// and calls onRefresh to persist new tokens.
func NewTokenSource(cfg *oauth2.Config, token *oauth2.Token, onRefresh func(*oauth2.Token) error) *TokenSource {
	return &TokenSource{
		config:    cfg,
		token:     token,
		onRefresh: onRefresh,
	}
}

// Token returns a valid token, refreshing if it expires within RefreshWindow.
func (ts *TokenSource) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token == nil || (ts.token.AccessToken == "" && ts.token.RefreshToken == "") {
		return nil, ErrUnauthenticated
	}

	if time.Until(ts.token.Expiry) > RefreshWindow {
		return ts.token, nil
	}

	if ts.token.RefreshToken == "" {
		return nil, ErrUnauthenticated
	}

	// Hand oauth2 only the refresh token: a still-valid access token
	// would short-circuit its source, and we want the eager exchange.
	src := ts.config.TokenSource(context.Background(), &oauth2.Token{RefreshToken: ts.token.RefreshToken})
	newToken, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenRefresh, err)
	}

	// Persist before returning so callers never observe a token the
	// store doesn't have.
	if ts.onRefresh != nil {
		if err := ts.onRefresh(newToken); err != nil {
			return nil, fmt.Errorf("persisting refreshed token: %w", err)
		}
	}

	ts.token = newToken
	return newToken, nil
}

// IsExpired checks if the current token is expired or expires within RefreshWindow.
func (ts *TokenSource) IsExpired() bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.token == nil || time.Until(ts.token.Expiry) <= RefreshWindow
}

// CurrentToken returns the current token without refreshing.
func (ts *TokenSource) CurrentToken() *oauth2.Token {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.token
}
