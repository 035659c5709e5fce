// Package models provides the record and schema types shared by the tap.
package models

// Record is an untyped row as returned by the remote API. Records are
// transient: conformed against the stream schema, emitted, and dropped.
type Record map[string]interface{}

// GetString returns the value for key if it is a string.
func (r Record) GetString(key string) (string, bool) {
	v, ok := r[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
