package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tap-reddit-ads/pkg/errors"
	"github.com/ajitpratap0/tap-reddit-ads/pkg/models"
)

func reportSchema() *models.Schema {
	return &models.Schema{
		Type: models.TypeSet{"null", "object"},
		Properties: map[string]*models.Schema{
			"date":        {Type: models.TypeSet{"string"}},
			"impressions": {Type: models.TypeSet{"null", "integer"}},
			"spend":       {Type: models.TypeSet{"null", "number"}},
			"is_archived": {Type: models.TypeSet{"null", "boolean"}},
			"attribution_windows": {
				Type: models.TypeSet{"null", "object"},
				Properties: map[string]*models.Schema{
					"click": {Type: models.TypeSet{"null", "integer"}},
					"view":  {Type: models.TypeSet{"null", "integer"}},
				},
			},
			"labels": {
				Type:  models.TypeSet{"null", "array"},
				Items: &models.Schema{Type: models.TypeSet{"string"}},
			},
		},
	}
}

func TestConformCoercesDeclaredTypes(t *testing.T) {
	out, err := Conform(reportSchema(), models.Record{
		"date":        "2024-01-05",
		"impressions": float64(1200),
		"spend":       float64(34.5),
		"is_archived": "false",
	})
	require.NoError(t, err)

	assert.Equal(t, "2024-01-05", out["date"])
	assert.Equal(t, int64(1200), out["impressions"])
	assert.Equal(t, 34.5, out["spend"])
	assert.Equal(t, false, out["is_archived"])
}

func TestConformDropsUnknownFields(t *testing.T) {
	out, err := Conform(reportSchema(), models.Record{
		"date":          "2024-01-05",
		"internal_only": "x",
		"debug":         map[string]interface{}{"a": 1},
	})
	require.NoError(t, err)

	assert.Equal(t, models.Record{"date": "2024-01-05"}, out)
}

func TestConformSkipsMissingFields(t *testing.T) {
	out, err := Conform(reportSchema(), models.Record{"date": "2024-01-05"})
	require.NoError(t, err)

	_, present := out["impressions"]
	assert.False(t, present)
}

func TestConformNullHandling(t *testing.T) {
	out, err := Conform(reportSchema(), models.Record{
		"date":        "2024-01-05",
		"impressions": nil,
	})
	require.NoError(t, err)
	assert.Nil(t, out["impressions"])

	// date is not nullable.
	_, err = Conform(reportSchema(), models.Record{"date": nil})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestConformNestedObject(t *testing.T) {
	out, err := Conform(reportSchema(), models.Record{
		"attribution_windows": map[string]interface{}{
			"click":   float64(7),
			"view":    float64(1),
			"unknown": "dropped",
		},
	})
	require.NoError(t, err)

	nested, ok := out["attribution_windows"].(models.Record)
	require.True(t, ok)
	assert.Equal(t, int64(7), nested["click"])
	assert.Equal(t, int64(1), nested["view"])
	_, present := nested["unknown"]
	assert.False(t, present)
}

func TestConformArrayItems(t *testing.T) {
	out, err := Conform(reportSchema(), models.Record{
		"labels": []interface{}{"a", float64(2)},
	})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "2"}, out["labels"])
}

func TestConformCoercionFailureIsFatal(t *testing.T) {
	cases := []models.Record{
		{"impressions": "12.7"},
		{"impressions": float64(12.7)},
		{"spend": "not a number"},
		{"is_archived": float64(1)},
		{"attribution_windows": "not an object"},
		{"labels": "not an array"},
	}
	for _, rec := range cases {
		_, err := Conform(reportSchema(), rec)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeData))
	}
}

func TestConformDoesNotMutateInput(t *testing.T) {
	in := models.Record{"impressions": float64(5), "extra": "kept"}
	_, err := Conform(reportSchema(), in)
	require.NoError(t, err)

	assert.Equal(t, float64(5), in["impressions"])
	assert.Equal(t, "kept", in["extra"])
}
