// Package state holds the tap's persisted bookmark state. The state is
// kept as a raw JSON document and only the touched bookmark path is
// edited, so keys written by other tooling survive a round-trip.
package state

import (
	"os"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/ajitpratap0/tap-reddit-ads/pkg/errors"
)

// State is the nested bookmark document: bookmarks -> stream ->
// replication key -> value.
type State struct {
	raw []byte
}

// New returns an empty state.
func New() *State {
	return &State{raw: []byte("{}")}
}

// FromBytes wraps an existing state blob.
func FromBytes(data []byte) (*State, error) {
	if len(data) == 0 {
		return New(), nil
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.New(errors.ErrorTypeConfig, "state is not valid JSON")
	}
	return &State{raw: data}, nil
}

// Load reads a state file. An empty path yields an empty state.
func Load(path string) (*State, error) {
	if path == "" {
		return New(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read state file")
	}
	return FromBytes(data)
}

// Bookmark returns the committed value for a stream's replication key.
func (s *State) Bookmark(stream, key string) (string, bool) {
	res := gjson.GetBytes(s.raw, "bookmarks."+stream+"."+key)
	if !res.Exists() {
		return "", false
	}
	return res.String(), true
}

// SetBookmark commits a new value for a stream's replication key.
func (s *State) SetBookmark(stream, key, value string) error {
	raw, err := sjson.SetBytes(s.raw, "bookmarks."+stream+"."+key, value)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write bookmark")
	}
	s.raw = raw
	return nil
}

// Bytes returns the current state document.
func (s *State) Bytes() []byte {
	return s.raw
}
