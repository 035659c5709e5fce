package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/tap-reddit-ads/pkg/config"
	"github.com/ajitpratap0/tap-reddit-ads/pkg/errors"
)

func testCreds() *config.Credentials {
	return &config.Credentials{
		AccountID:    "acct123",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RefreshToken: "refresh-1",
		UserAgent:    "tap-reddit-ads test",
	}
}

func tokenClock() time.Time {
	return time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)
}

func TestEnsureFreshRefreshesAndMutatesStore(t *testing.T) {
	var calls int
	var gotGrant, gotRefresh, gotUser, gotPass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.NoError(t, r.ParseForm())
		gotGrant = r.PostFormValue("grant_type")
		gotRefresh = r.PostFormValue("refresh_token")
		gotUser, gotPass, _ = r.BasicAuth()
		_, _ = w.Write([]byte(`{"access_token":"tok-1","refresh_token":"refresh-2","expires_in":3600,"token_type":"bearer"}`))
	}))
	defer srv.Close()

	creds := testCreds()
	tm := NewTokenManager(creds, srv.Client(), zaptest.NewLogger(t),
		WithTokenURL(srv.URL), WithTokenClock(tokenClock))

	refreshed, err := tm.EnsureFresh(context.Background())
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Equal(t, 1, calls)

	// Refresh-token grant with client basic auth.
	assert.Equal(t, "refresh_token", gotGrant)
	assert.Equal(t, "refresh-1", gotRefresh)
	assert.Equal(t, "client-id", gotUser)
	assert.Equal(t, "client-secret", gotPass)

	// The store was rotated in place.
	assert.Equal(t, "tok-1", creds.AccessToken)
	assert.Equal(t, "refresh-2", creds.RefreshToken)
	assert.Equal(t, tokenClock().Add(time.Hour), creds.ExpiresAt)
	assert.Equal(t, "bearer tok-1", tm.AuthHeader())
	assert.EqualValues(t, 1, tm.Refreshes())
}

func TestEnsureFreshSkipsUnexpiredToken(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"access_token":"tok-1","expires_in":3600}`))
	}))
	defer srv.Close()

	creds := testCreds()
	tm := NewTokenManager(creds, srv.Client(), zaptest.NewLogger(t),
		WithTokenURL(srv.URL), WithTokenClock(tokenClock))

	refreshed, err := tm.EnsureFresh(context.Background())
	require.NoError(t, err)
	require.True(t, refreshed)

	// Second call rides the cached token; no network traffic.
	refreshed, err = tm.EnsureFresh(context.Background())
	require.NoError(t, err)
	assert.False(t, refreshed)
	assert.Equal(t, 1, calls)
	assert.EqualValues(t, 1, tm.Refreshes())
}

func TestEnsureFreshRefreshesAfterExpiry(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"access_token":"tok-1","expires_in":3600}`))
	}))
	defer srv.Close()

	now := tokenClock()
	creds := testCreds()
	tm := NewTokenManager(creds, srv.Client(), zaptest.NewLogger(t),
		WithTokenURL(srv.URL), WithTokenClock(func() time.Time { return now }))

	_, err := tm.EnsureFresh(context.Background())
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	refreshed, err := tm.EnsureFresh(context.Background())
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Equal(t, 2, calls)
}

func TestEnsureFreshNon200IsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	tm := NewTokenManager(testCreds(), srv.Client(), zaptest.NewLogger(t), WithTokenURL(srv.URL))

	_, err := tm.EnsureFresh(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuthentication))
	assert.False(t, errors.IsRetryable(err))
	assert.Contains(t, err.Error(), "invalid_grant")
}

func TestEnsureFreshMalformedResponseIsFatal(t *testing.T) {
	cases := map[string]string{
		"invalid json":         `not json`,
		"missing access_token": `{"expires_in":3600}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			tm := NewTokenManager(testCreds(), srv.Client(), zaptest.NewLogger(t), WithTokenURL(srv.URL))

			_, err := tm.EnsureFresh(context.Background())
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeAuthentication))
		})
	}
}

func TestEnsureFreshKeepsRefreshTokenWhenOmitted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"tok-1","expires_in":3600}`))
	}))
	defer srv.Close()

	creds := testCreds()
	tm := NewTokenManager(creds, srv.Client(), zaptest.NewLogger(t), WithTokenURL(srv.URL))

	_, err := tm.EnsureFresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", creds.RefreshToken)
}
