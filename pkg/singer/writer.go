// Package singer emits the tap's output message stream: SCHEMA, RECORD,
// and STATE lines, one JSON document per line.
package singer

import (
	"io"
	"sync"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/tap-reddit-ads/pkg/errors"
	jsonutil "github.com/ajitpratap0/tap-reddit-ads/pkg/json"
	"github.com/ajitpratap0/tap-reddit-ads/pkg/models"
)

// Writer serializes messages to a single output. The mutex keeps whole
// lines intact; message ordering within a stream is the syncer's job.
type Writer struct {
	out io.Writer
	mu  sync.Mutex
}

// NewWriter creates a message writer.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

type schemaMessage struct {
	Type          string         `json:"type"`
	Stream        string         `json:"stream"`
	Schema        *models.Schema `json:"schema"`
	KeyProperties []string       `json:"key_properties"`
}

type recordMessage struct {
	Type   string        `json:"type"`
	Stream string        `json:"stream"`
	Record models.Record `json:"record"`
}

type stateMessage struct {
	Type  string            `json:"type"`
	Value gojson.RawMessage `json:"value"`
}

// WriteSchema emits a SCHEMA message. Must precede the stream's records.
func (w *Writer) WriteSchema(stream string, schema *models.Schema, keyProperties []string) error {
	return w.write(schemaMessage{
		Type:          "SCHEMA",
		Stream:        stream,
		Schema:        schema,
		KeyProperties: keyProperties,
	})
}

// WriteRecord emits one RECORD message.
func (w *Writer) WriteRecord(stream string, record models.Record) error {
	return w.write(recordMessage{
		Type:   "RECORD",
		Stream: stream,
		Record: record,
	})
}

// WriteState emits a STATE message carrying the full state document.
func (w *Writer) WriteState(value []byte) error {
	return w.write(stateMessage{
		Type:  "STATE",
		Value: gojson.RawMessage(value),
	})
}

func (w *Writer) write(msg interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := jsonutil.MarshalToWriter(w.out, msg); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write message")
	}
	return nil
}
