package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tap-reddit-ads/pkg/json"
)

func TestTypeSetAcceptsStringOrArray(t *testing.T) {
	var s Schema
	require.NoError(t, json.Unmarshal([]byte(`{"type":"string"}`), &s))
	assert.Equal(t, TypeSet{"string"}, s.Type)

	require.NoError(t, json.Unmarshal([]byte(`{"type":["null","integer"]}`), &s))
	assert.Equal(t, TypeSet{"null", "integer"}, s.Type)

	require.Error(t, json.Unmarshal([]byte(`{"type":42}`), &s))
}

func TestSchemaAccessors(t *testing.T) {
	s := &Schema{Type: TypeSet{"null", "number"}}
	assert.True(t, s.Nullable())
	assert.Equal(t, "number", s.PrimaryType())

	s = &Schema{Type: TypeSet{"string"}}
	assert.False(t, s.Nullable())
	assert.Equal(t, "string", s.PrimaryType())

	s = &Schema{}
	assert.Equal(t, "", s.PrimaryType())
}

func TestRecordGetString(t *testing.T) {
	r := Record{"date": "2024-01-05", "count": float64(3)}

	v, ok := r.GetString("date")
	require.True(t, ok)
	assert.Equal(t, "2024-01-05", v)

	_, ok = r.GetString("count")
	assert.False(t, ok)

	_, ok = r.GetString("missing")
	assert.False(t, ok)
}
