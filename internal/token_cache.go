package internal

import (
	"context"
	"fmt"
	"net/http"
	neturl "net/url"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rm-hull/ev-partner-gateway/internal/models"
	log "github.com/sirupsen/logrus"
	"github.com/tavsec/gin-healthcheck/checks"
	"golang.org/x/sync/singleflight"
)

// TokenCache holds the partner access token for the lifetime of the process. The token is fetched
// lazily on first use and replaced once now >= expiresAt - buffer. Concurrent callers that find the
// cache empty share a single in-flight refresh.
type TokenCache struct {
	tokenURL string
	form     neturl.Values
	client   *http.Client
	buffer   time.Duration
	now      func() time.Time

	mu      sync.Mutex
	token   *models.AccessToken
	lastErr error

	flight singleflight.Group
}

func NewTokenCache(client *http.Client, tokenURL, clientID, clientSecret string, buffer time.Duration) *TokenCache {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &TokenCache{
		tokenURL: tokenURL,
		form: neturl.Values{
			"grant_type":    {"client_credentials"},
			"client_id":     {clientID},
			"client_secret": {clientSecret},
		},
		client: client,
		buffer: buffer,
		now:    time.Now,
	}
}

// Acquire returns a valid access token, requesting a new one from the partner when necessary.
func (tc *TokenCache) Acquire(ctx context.Context) (models.AccessToken, error) {
	if token, ok := tc.cached(); ok {
		return token, nil
	}

	// The refresh outlives any single waiter: others may still be queued on it.
	detached := context.WithoutCancel(ctx)
	ch := tc.flight.DoChan("token", func() (any, error) {
		if token, ok := tc.cached(); ok {
			return token, nil
		}
		return tc.refresh(detached)
	})

	select {
	case <-ctx.Done():
		return models.AccessToken{}, errors.Wrap(ctx.Err(), "waiting for partner access token")
	case res := <-ch:
		if res.Err != nil {
			return models.AccessToken{}, res.Err
		}
		return res.Val.(models.AccessToken), nil
	}
}

// Invalidate drops the cached token so that the next Acquire fetches a fresh one.
func (tc *TokenCache) Invalidate() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.token = nil
}

func (tc *TokenCache) cached() (models.AccessToken, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.token.ValidAt(tc.now(), tc.buffer) {
		return *tc.token, true
	}
	return models.AccessToken{}, false
}

func (tc *TokenCache) refresh(ctx context.Context) (models.AccessToken, error) {
	issuedAt := tc.now()

	log.Debugf("POST %s (client_credentials)", tc.tokenURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tc.tokenURL, strings.NewReader(tc.form.Encode()))
	if err != nil {
		return tc.fail(&AuthError{Message: "failed to create token request", cause: err})
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := tc.client.Do(req)
	if err != nil {
		return tc.fail(&AuthError{Message: "token endpoint unreachable", cause: err})
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warnf("failed to close token response body: %v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return tc.fail(&AuthError{Message: fmt.Sprintf("token endpoint responded with %s", resp.Status)})
	}

	var body models.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return tc.fail(&AuthError{Message: "malformed token response", cause: err})
	}
	if body.AccessToken == "" || body.ExpiresIn <= 0 {
		return tc.fail(&AuthError{Message: "token response is missing access_token or expires_in"})
	}

	token := models.AccessToken{
		Value:     body.AccessToken,
		ExpiresAt: issuedAt.Add(time.Duration(body.ExpiresIn) * time.Second),
	}

	tc.mu.Lock()
	tc.token = &token
	tc.lastErr = nil
	tc.mu.Unlock()

	tokenRefreshes.WithLabelValues("success").Inc()
	log.WithField("expires_in", body.ExpiresIn).Info("Obtained partner access token")
	return token, nil
}

func (tc *TokenCache) fail(err *AuthError) (models.AccessToken, error) {
	tc.mu.Lock()
	tc.token = nil
	tc.lastErr = err
	tc.mu.Unlock()

	tokenRefreshes.WithLabelValues("failure").Inc()
	log.WithError(err).Error("Partner token refresh failed")
	return models.AccessToken{}, err
}

// Check reports whether the most recent token refresh succeeded. A cache that has not refreshed yet
// is considered healthy.
func (tc *TokenCache) Check() checks.Check {
	return &tokenCheck{cache: tc}
}

type tokenCheck struct {
	cache *TokenCache
}

func (c *tokenCheck) Pass() bool {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()
	return c.cache.lastErr == nil
}

func (c *tokenCheck) Name() string {
	return "partner-token"
}
