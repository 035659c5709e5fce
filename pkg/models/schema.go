package models

import (
	gojson "github.com/goccy/go-json"
)

// Schema is a JSON-schema node describing a stream's record shape. The
// same representation is used recursively for object properties.
type Schema struct {
	Type       TypeSet            `json:"type,omitempty"`
	Format     string             `json:"format,omitempty"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Items      *Schema            `json:"items,omitempty"`
}

// TypeSet holds the JSON-schema `type` keyword, which may be a single
// string or an array of strings on the wire.
type TypeSet []string

// UnmarshalJSON accepts both `"string"` and `["null", "string"]`.
func (ts *TypeSet) UnmarshalJSON(data []byte) error {
	var single string
	if err := gojson.Unmarshal(data, &single); err == nil {
		*ts = TypeSet{single}
		return nil
	}

	var many []string
	if err := gojson.Unmarshal(data, &many); err != nil {
		return err
	}
	*ts = TypeSet(many)
	return nil
}

// Contains reports whether the type set includes t.
func (ts TypeSet) Contains(t string) bool {
	for _, v := range ts {
		if v == t {
			return true
		}
	}
	return false
}

// Nullable reports whether the schema admits null.
func (s *Schema) Nullable() bool {
	return s.Type.Contains("null")
}

// PrimaryType returns the first non-null type, or "" if none declared.
func (s *Schema) PrimaryType() string {
	for _, t := range s.Type {
		if t != "null" {
			return t
		}
	}
	return ""
}
