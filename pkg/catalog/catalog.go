// Package catalog builds and loads the stream catalog: which streams
// exist, their schemas, key properties, and replication metadata.
package catalog

import (
	"embed"
	"io"
	"os"

	"github.com/ajitpratap0/tap-reddit-ads/pkg/errors"
	"github.com/ajitpratap0/tap-reddit-ads/pkg/json"
	"github.com/ajitpratap0/tap-reddit-ads/pkg/models"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// ReplicationMethod is how a stream is re-synced across runs.
type ReplicationMethod string

const (
	// FullTable streams are re-fetched in their entirety every run.
	FullTable ReplicationMethod = "FULL_TABLE"
	// Incremental streams resume from a per-stream bookmark.
	Incremental ReplicationMethod = "INCREMENTAL"
)

// ReplicationKeyDate is the only valid replication key for incremental
// streams; report rows are ordered and bookmarked by calendar day.
const ReplicationKeyDate = "date"

// streamOrder fixes catalog order. The orchestrator walks selected
// streams in this order.
var streamOrder = []string{"ads_reports", "ads", "campaigns", "ad_groups", "accounts"}

// Endpoints maps stream IDs to their path below the account root. The
// accounts stream reads the account root itself.
var Endpoints = map[string]string{
	"ads_reports": "/reports",
	"ads":         "/ads",
	"campaigns":   "/campaigns",
	"ad_groups":   "/ad_groups",
	"accounts":    "",
}

// MetadataEntry is one breadcrumbed metadata record in a catalog entry.
type MetadataEntry struct {
	Breadcrumb []string               `json:"breadcrumb"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// Entry describes one stream in the catalog.
type Entry struct {
	TapStreamID   string          `json:"tap_stream_id"`
	Stream        string          `json:"stream"`
	Schema        *models.Schema  `json:"schema"`
	KeyProperties []string        `json:"key_properties"`
	Metadata      []MetadataEntry `json:"metadata"`
}

// Catalog is the full set of stream entries.
type Catalog struct {
	Streams []*Entry `json:"streams"`
}

// Discover builds the catalog from the embedded stream schemas.
func Discover() (*Catalog, error) {
	cat := &Catalog{}

	for _, streamID := range streamOrder {
		raw, err := schemaFS.ReadFile("schemas/" + streamID + ".json")
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "missing embedded schema for "+streamID)
		}

		schema := &models.Schema{}
		if err := json.Unmarshal(raw, schema); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to parse schema for "+streamID)
		}

		keyProps := KeyProperties(streamID)
		cat.Streams = append(cat.Streams, &Entry{
			TapStreamID:   streamID,
			Stream:        streamID,
			Schema:        schema,
			KeyProperties: keyProps,
			Metadata:      buildMetadata(streamID, schema, keyProps),
		})
	}

	return cat, nil
}

// KeyProperties returns the identifying columns for a stream.
func KeyProperties(streamID string) []string {
	if streamID == "ads_reports" {
		return []string{"date", "account_id", "campaign_id", "ad_group_id", "ad_id"}
	}
	return []string{"id"}
}

// buildMetadata constructs the breadcrumbed metadata for a stream entry.
// Object-typed properties contribute their nested properties rather than
// the object itself.
func buildMetadata(streamID string, schema *models.Schema, keyProps []string) []MetadataEntry {
	root := map[string]interface{}{
		"inclusion":                 "available",
		"forced-replication-method": string(FullTable),
	}
	if len(keyProps) > 0 {
		root["table-key-properties"] = keyProps
	}
	if streamID == "ads_reports" {
		root["forced-replication-method"] = string(Incremental)
		root["valid-replication-keys"] = []string{ReplicationKeyDate}
	}

	mdata := []MetadataEntry{{Breadcrumb: []string{}, Metadata: root}}

	keySet := make(map[string]bool, len(keyProps))
	for _, k := range keyProps {
		keySet[k] = true
	}

	for name, prop := range schema.Properties {
		if prop.Type.Contains("object") {
			for sub := range prop.Properties {
				mdata = append(mdata, MetadataEntry{
					Breadcrumb: []string{"properties", name, "properties", sub},
					Metadata:   map[string]interface{}{"inclusion": "available"},
				})
			}
			continue
		}

		inclusion := "available"
		if keySet[name] {
			inclusion = "automatic"
		}
		mdata = append(mdata, MetadataEntry{
			Breadcrumb: []string{"properties", name},
			Metadata:   map[string]interface{}{"inclusion": inclusion},
		})
	}

	return mdata
}

// Load reads a catalog file produced by discover (possibly annotated
// with selection metadata).
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read catalog file")
	}

	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse catalog file")
	}

	return &cat, nil
}

// Dump writes the catalog as indented JSON.
func (c *Catalog) Dump(w io.Writer) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to marshal catalog")
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write catalog")
	}
	return nil
}

// Selected returns the streams to sync, in catalog order. A stream is
// skipped only when its root metadata carries `"selected": false`; a
// freshly discovered catalog has no selection annotations and syncs
// everything.
func (c *Catalog) Selected() []*Entry {
	var out []*Entry
	for _, e := range c.Streams {
		if e.IsSelected() {
			out = append(out, e)
		}
	}
	return out
}

// IsSelected reports whether the entry should be synced.
func (e *Entry) IsSelected() bool {
	root := e.rootMetadata()
	if root == nil {
		return true
	}
	if sel, ok := root["selected"].(bool); ok {
		return sel
	}
	return true
}

// ReplicationMethod returns the replication method forced by metadata,
// defaulting by stream ID when the catalog carries none.
func (e *Entry) ReplicationMethod() ReplicationMethod {
	if root := e.rootMetadata(); root != nil {
		if m, ok := root["forced-replication-method"].(string); ok && m != "" {
			return ReplicationMethod(m)
		}
	}
	if e.TapStreamID == "ads_reports" {
		return Incremental
	}
	return FullTable
}

// ReplicationKey returns the bookmark field for incremental streams.
func (e *Entry) ReplicationKey() string {
	if e.ReplicationMethod() == Incremental {
		return ReplicationKeyDate
	}
	return ""
}

// Endpoint returns the stream's path below the account root.
func (e *Entry) Endpoint() string {
	return Endpoints[e.TapStreamID]
}

func (e *Entry) rootMetadata() map[string]interface{} {
	for _, m := range e.Metadata {
		if len(m.Breadcrumb) == 0 {
			return m.Metadata
		}
	}
	return nil
}
