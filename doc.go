// Package tapredditads implements a Singer tap for the Reddit Ads API.
//
// The tap extracts five streams from an ad account: daily performance
// reports (incremental, bookmarked by report date) and the ads,
// campaigns, ad groups, and accounts tables (full snapshots every run).
// Output follows the Singer protocol: SCHEMA, RECORD, and STATE
// messages, one JSON document per line on stdout, with logs on stderr.
//
// Report extraction walks one calendar day per request, starting from
// the committed bookmark (or the configured start date) clamped into
// the platform's conversion window, during which report rows may still
// change. Bookmarks are committed only after a day yields rows, so an
// interrupted run resumes without losing data.
//
// All API traffic flows through a single fetcher that composes a retry
// policy over a request-pacing governor: requests are spaced one per
// second, HTTP 429 responses are retried with exponential backoff, and
// any other failure ends the run.
//
// # Usage
//
//	tap-reddit-ads discover > catalog.json
//	tap-reddit-ads sync --config config.json --state state.json
package tapredditads
