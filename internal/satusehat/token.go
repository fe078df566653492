package satusehat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adisantoso/klinika-platform/pkg/logging"
)

// redisTokenKey is shared by all instances pointed at the same platform
// tenant so one grant serves the whole deployment.
const redisTokenKey = "satusehat:access_token"

// TokenSource supplies a valid bearer token for platform calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenConfig holds configuration for the cached token source.
type TokenConfig struct {
	AuthURL      string // e.g. "https://api-satusehat.kemkes.go.id/oauth2/v1"
	ClientID     string
	ClientSecret string
	// TTL bounds how long a granted token is reused. Must be shorter than
	// the provider's real token lifetime; the platform issues 60-minute
	// tokens, so the default is 50 minutes.
	TTL     time.Duration
	Timeout time.Duration
	// Redis is optional. When set, granted tokens are shared across
	// instances; when Redis is unreachable the source degrades to
	// per-process caching.
	Redis  *redis.Client
	Logger *logging.Logger
}

// CachedTokenSource performs the client-credentials grant and caches the
// result. Concurrent refreshes are serialized under the write lock; a
// caller that loses the race reuses the winner's token.
type CachedTokenSource struct {
	authURL      string
	clientID     string
	clientSecret string
	ttl          time.Duration
	httpClient   *http.Client
	cache        *redis.Client
	logger       *logging.Logger
	now          func() time.Time

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

// NewCachedTokenSource creates a token source for the platform authorization
// endpoint.
func NewCachedTokenSource(cfg TokenConfig) (*CachedTokenSource, error) {
	if cfg.AuthURL == "" {
		return nil, fmt.Errorf("satusehat: AuthURL is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("satusehat: ClientID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("satusehat: ClientSecret is required")
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 50 * time.Minute
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &CachedTokenSource{
		authURL:      strings.TrimSuffix(cfg.AuthURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		ttl:          ttl,
		httpClient:   &http.Client{Timeout: timeout},
		cache:        cfg.Redis,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// Token returns a cached token when one is still inside its TTL, otherwise
// performs a client-credentials grant. A failed grant is returned as-is;
// callers must not retry inside the same request.
func (ts *CachedTokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.RLock()
	if ts.token != "" && ts.now().Before(ts.expiresAt) {
		token := ts.token
		ts.mu.RUnlock()
		return token, nil
	}
	ts.mu.RUnlock()

	ts.mu.Lock()
	defer ts.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if ts.token != "" && ts.now().Before(ts.expiresAt) {
		return ts.token, nil
	}

	// A token taken from the shared cache keeps the expiry of the grant
	// that produced it. Re-basing the TTL on the read time would let a
	// late reader serve the token past its real lifetime.
	if token, expiresAt := ts.fromSharedCache(ctx); token != "" {
		ts.token = token
		ts.expiresAt = expiresAt
		return token, nil
	}

	token, err := ts.grant(ctx)
	if err != nil {
		return "", err
	}

	expiresAt := ts.now().Add(ts.ttl)
	ts.token = token
	ts.expiresAt = expiresAt
	ts.toSharedCache(ctx, token, expiresAt)
	return token, nil
}

func (ts *CachedTokenSource) grant(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("client_id", ts.clientID)
	form.Set("client_secret", ts.clientSecret)

	endpoint := ts.authURL + "/accesstoken?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("satusehat: create grant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("satusehat: grant request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("satusehat: grant failed (status %d): %s", resp.StatusCode, string(body))
	}

	var grantResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&grantResp); err != nil {
		return "", fmt.Errorf("satusehat: decode grant response: %w", err)
	}
	if grantResp.AccessToken == "" {
		return "", fmt.Errorf("satusehat: grant response carried no access_token")
	}

	ts.logger.Info("satusehat token refreshed", "ttl", ts.ttl.String())
	return grantResp.AccessToken, nil
}

// sharedToken is the Redis cache entry. The absolute expiry travels with
// the token so every reader counts down from the original grant.
type sharedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (ts *CachedTokenSource) fromSharedCache(ctx context.Context) (string, time.Time) {
	if ts.cache == nil {
		return "", time.Time{}
	}
	raw, err := ts.cache.Get(ctx, redisTokenKey).Result()
	if err != nil {
		if err != redis.Nil {
			ts.logger.Warn("satusehat token cache read failed", "error", err)
		}
		return "", time.Time{}
	}
	var entry sharedToken
	if err := json.Unmarshal([]byte(raw), &entry); err != nil || entry.Token == "" {
		ts.logger.Warn("satusehat token cache entry malformed, ignoring")
		return "", time.Time{}
	}
	if !ts.now().Before(entry.ExpiresAt) {
		return "", time.Time{}
	}
	return entry.Token, entry.ExpiresAt
}

func (ts *CachedTokenSource) toSharedCache(ctx context.Context, token string, expiresAt time.Time) {
	if ts.cache == nil {
		return
	}
	remaining := expiresAt.Sub(ts.now())
	if remaining <= 0 {
		return
	}
	payload, err := json.Marshal(sharedToken{Token: token, ExpiresAt: expiresAt})
	if err != nil {
		return
	}
	if err := ts.cache.Set(ctx, redisTokenKey, payload, remaining).Err(); err != nil {
		ts.logger.Warn("satusehat token cache write failed", "error", err)
	}
}
