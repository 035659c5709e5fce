// Package transform conforms raw API records to a stream schema before
// emission: values are coerced to the declared types, fields the schema
// does not know are dropped.
package transform

import (
	"fmt"
	"strconv"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/tap-reddit-ads/pkg/errors"
	"github.com/ajitpratap0/tap-reddit-ads/pkg/models"
)

// Conform coerces record against schema. The input record is not
// modified. A value that cannot be coerced to its declared type is a
// fatal data error.
func Conform(schema *models.Schema, record models.Record) (models.Record, error) {
	out := make(models.Record, len(schema.Properties))

	for name, prop := range schema.Properties {
		raw, ok := record[name]
		if !ok {
			continue
		}

		value, err := conformValue(prop, raw)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData,
				fmt.Sprintf("field %q does not conform to schema", name))
		}
		out[name] = value
	}

	return out, nil
}

func conformValue(prop *models.Schema, raw interface{}) (interface{}, error) {
	if raw == nil {
		if prop.Nullable() {
			return nil, nil
		}
		return nil, fmt.Errorf("null not allowed")
	}

	switch prop.PrimaryType() {
	case "string":
		return toString(raw)
	case "integer":
		return toInteger(raw)
	case "number":
		return toNumber(raw)
	case "boolean":
		return toBoolean(raw)
	case "object":
		m, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("expected object, got %T", raw)
		}
		return Conform(prop, models.Record(m))
	case "array":
		items, ok := raw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("expected array, got %T", raw)
		}
		if prop.Items == nil {
			return items, nil
		}
		out := make([]interface{}, 0, len(items))
		for _, item := range items {
			v, err := conformValue(prop.Items, item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	default:
		// No declared type constrains the value.
		return raw, nil
	}
}

func toString(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case gojson.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("cannot convert %T to string", raw)
	}
}

func toInteger(raw interface{}) (int64, error) {
	switch v := raw.(type) {
	case gojson.Number:
		return v.Int64()
	case float64:
		i := int64(v)
		if float64(i) != v {
			return 0, fmt.Errorf("value %v is not an integer", v)
		}
		return i, nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to integer", raw)
	}
}

func toNumber(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case gojson.Number:
		return v.Float64()
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to number", raw)
	}
}

func toBoolean(raw interface{}) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	default:
		return false, fmt.Errorf("cannot convert %T to boolean", raw)
	}
}
