package clients

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-reddit-ads/pkg/errors"
	"github.com/ajitpratap0/tap-reddit-ads/pkg/models"
)

// DefaultAPIBaseURL is the Reddit Ads API host.
const DefaultAPIBaseURL = "https://ads-api.reddit.com"

// apiPathPrefix is the account-scoped path all endpoints live under.
const apiPathPrefix = "/api/v2.0/accounts/"

// TokenSource is the narrow credential seam the fetcher needs: it never
// touches the credential store directly.
type TokenSource interface {
	EnsureFresh(ctx context.Context) (bool, error)
	AuthHeader() string
}

// FetcherConfig configures a Fetcher. Zero-value optional fields get the
// production defaults.
type FetcherConfig struct {
	BaseURL   string
	AccountID string
	UserAgent string

	Governor   *RateGovernor
	Retry      *RetryPolicy
	HTTPClient *http.Client
}

// Fetcher issues authenticated GET requests against the Reddit Ads API
// as a composed policy stack: retry policy over rate governor over the
// raw transport. One fetcher is shared by every stream in a run.
type Fetcher struct {
	baseURL    string
	userAgent  string
	tokens     TokenSource
	governor   *RateGovernor
	retry      *RetryPolicy
	httpClient *http.Client
	logger     *zap.Logger
}

// NewFetcher creates a fetcher for one ad account.
func NewFetcher(cfg FetcherConfig, tokens TokenSource, logger *zap.Logger) *Fetcher {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	governor := cfg.Governor
	if governor == nil {
		governor = NewRateGovernor(time.Second)
	}
	retry := cfg.Retry
	if retry == nil {
		retry = DefaultFetchPolicy()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Fetcher{
		baseURL:    strings.TrimSuffix(baseURL, "/") + apiPathPrefix + cfg.AccountID,
		userAgent:  cfg.UserAgent,
		tokens:     tokens,
		governor:   governor,
		retry:      retry,
		httpClient: httpClient,
		logger:     logger.With(zap.String("component", "fetcher")),
	}
}

// Fetch GETs one endpoint and returns the rows under the response's
// `data` field. headerState is the caller's mutable header map; the
// Authorization header is (re)written into it whenever a token refresh
// happens or the header has not been set yet. Rate-limit responses are
// retried with exponential backoff; any other non-200 is immediately
// fatal.
func (f *Fetcher) Fetch(ctx context.Context, endpoint string, params map[string]string, headerState map[string]string) ([]models.Record, error) {
	var records []models.Record

	err := f.retry.ExecuteWithCondition(ctx, func() error {
		var err error
		records, err = f.fetchOnce(ctx, endpoint, params, headerState)
		return err
	}, errors.IsRetryable)

	return records, err
}

func (f *Fetcher) fetchOnce(ctx context.Context, endpoint string, params map[string]string, headerState map[string]string) ([]models.Record, error) {
	if err := f.governor.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "rate governor interrupted")
	}

	refreshed, err := f.tokens.EnsureFresh(ctx)
	if err != nil {
		return nil, err
	}
	if refreshed || headerState["Authorization"] == "" {
		headerState["Authorization"] = f.tokens.AuthHeader()
	}

	url := f.baseURL + endpoint + buildQuery(params)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to build request")
	}
	for k, v := range headerState {
		req.Header.Set(k, v)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to read response body")
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		f.logger.Warn("rate limited by API", zap.String("endpoint", endpoint))
		return nil, errors.New(errors.ErrorTypeRateLimit, string(body))
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Newf(errors.ErrorTypeRequest, "request failed with status %d: %s",
			resp.StatusCode, string(body)).WithDetail("status", resp.StatusCode)
	}

	return extractData(body), nil
}

// buildQuery joins params as a flat key=value query string. Values are
// not percent-encoded; every value this tap sends is a YYYY-MM-DD date,
// which carries no reserved characters. Keys are sorted so request URLs
// are deterministic.
func buildQuery(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteByte('?')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(params[k])
	}
	return sb.String()
}

// extractData reads the `data` field of a 200 response leniently: an
// array yields its object elements, a bare object is wrapped as a
// single row, and an absent or non-object field yields no rows.
func extractData(body []byte) []models.Record {
	data := gjson.GetBytes(body, "data")
	if !data.Exists() {
		return nil
	}

	if data.IsObject() {
		if m, ok := data.Value().(map[string]interface{}); ok {
			return []models.Record{models.Record(m)}
		}
		return nil
	}

	if !data.IsArray() {
		return nil
	}

	var records []models.Record
	for _, item := range data.Array() {
		if m, ok := item.Value().(map[string]interface{}); ok {
			records = append(records, models.Record(m))
		}
	}
	return records
}
