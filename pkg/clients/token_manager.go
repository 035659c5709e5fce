// Package clients provides the authenticated, rate-limited access layer
// for the Reddit Ads API: token management, request pacing, retry policy,
// and the fetcher that composes them.
package clients

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-reddit-ads/pkg/config"
	"github.com/ajitpratap0/tap-reddit-ads/pkg/errors"
	jsonutil "github.com/ajitpratap0/tap-reddit-ads/pkg/json"
)

// DefaultTokenURL is Reddit's OAuth token endpoint.
const DefaultTokenURL = "https://www.reddit.com/api/v1/access_token"

// TokenManager owns the run's credential store and lazily refreshes the
// access token. A failed refresh is fatal for the run; there is no local
// recovery from an authentication failure.
type TokenManager struct {
	creds      *config.Credentials
	httpClient *http.Client
	logger     *zap.Logger
	tokenURL   string
	now        func() time.Time

	refreshes int64
}

// TokenManagerOption customizes a TokenManager.
type TokenManagerOption func(*TokenManager)

// WithTokenURL overrides the OAuth endpoint (tests point it at a fake).
func WithTokenURL(u string) TokenManagerOption {
	return func(tm *TokenManager) { tm.tokenURL = u }
}

// WithTokenClock overrides the clock used for expiry checks.
func WithTokenClock(now func() time.Time) TokenManagerOption {
	return func(tm *TokenManager) { tm.now = now }
}

// NewTokenManager creates a token manager around the given credential
// store. The store must not be shared with any other writer.
func NewTokenManager(creds *config.Credentials, httpClient *http.Client, logger *zap.Logger, opts ...TokenManagerOption) *TokenManager {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	tm := &TokenManager{
		creds:      creds,
		httpClient: httpClient,
		logger:     logger.With(zap.String("component", "token_manager")),
		tokenURL:   DefaultTokenURL,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// tokenResponse is the OAuth token endpoint payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// EnsureFresh refreshes the access token when the expiry is unset or in
// the past. It reports whether a refresh happened; an unexpired token is
// a no-op with no network call.
func (tm *TokenManager) EnsureFresh(ctx context.Context) (bool, error) {
	if !tm.creds.ExpiresAt.IsZero() && tm.now().Before(tm.creds.ExpiresAt) {
		return false, nil
	}

	params := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {tm.creds.RefreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tm.tokenURL, strings.NewReader(params.Encode()))
	if err != nil {
		return false, errors.Wrap(err, errors.ErrorTypeAuthentication, "failed to build token request")
	}
	req.SetBasicAuth(tm.creds.ClientID, tm.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", tm.creds.UserAgent)

	resp, err := tm.httpClient.Do(req)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrorTypeAuthentication, "token request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return false, errors.Newf(errors.ErrorTypeAuthentication,
			"token refresh failed with status %d: %s", resp.StatusCode, string(body))
	}

	var token tokenResponse
	dec := jsonutil.NewDecoder(resp.Body)
	if err := dec.Decode(&token); err != nil {
		return false, errors.Wrap(err, errors.ErrorTypeAuthentication, "failed to decode token response")
	}
	if token.AccessToken == "" {
		return false, errors.New(errors.ErrorTypeAuthentication, "token response missing access_token")
	}

	tm.creds.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		tm.creds.RefreshToken = token.RefreshToken
	}
	tm.creds.ExpiresAt = tm.now().Add(time.Duration(token.ExpiresIn) * time.Second)
	tm.refreshes++

	tm.logger.Info("access token refreshed",
		zap.Time("expires_at", tm.creds.ExpiresAt))

	return true, nil
}

// AuthHeader returns the Authorization header value for the current
// access token. Reddit expects the lowercase bearer scheme.
func (tm *TokenManager) AuthHeader() string {
	return "bearer " + tm.creds.AccessToken
}

// Refreshes returns how many refreshes this run has performed.
func (tm *TokenManager) Refreshes() int64 {
	return tm.refreshes
}
