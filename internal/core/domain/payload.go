package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Payload is a decoded JSON object from a remote file.
// Numbers are kept as json.Number so integer precision survives.
type Payload map[string]any

// DecodePayload parses data as a JSON object.
func DecodePayload(data []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayload, err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrPayload)
	}
	return Payload(obj), nil
}

// SchemaID returns the declared schema id. The exact "SchemaID" key wins;
// otherwise keys are matched ignoring case and underscores, so "schemaId"
// and "schema_id" also count, and the first such key in sorted order is used.
func (p Payload) SchemaID() string {
	if s := scalarString(p["SchemaID"]); s != "" {
		return s
	}
	keys := make([]string, 0, len(p))
	for key := range p {
		if strings.ToLower(strings.ReplaceAll(key, "_", "")) == "schemaid" {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	for _, key := range keys {
		if s := scalarString(p[key]); s != "" {
			return s
		}
	}
	return ""
}

// Identifier returns the business key from the "Identifier" or "identifier"
// field, or fallback when neither holds a non-empty value.
func (p Payload) Identifier(fallback string) string {
	for _, key := range []string{"Identifier", "identifier"} {
		if s := scalarString(p[key]); s != "" {
			return s
		}
	}
	return fallback
}

// Flatten turns a payload into a mapping from column name to a value a SQL
// driver accepts. Objects and arrays become JSON text, integral numbers
// become int64 and other numbers float64.
func Flatten(p Payload) (map[string]any, error) {
	row := make(map[string]any, len(p))
	for key, value := range p {
		v, err := flattenValue(value)
		if err != nil {
			return nil, fmt.Errorf("flatten %q: %w", key, err)
		}
		row[key] = v
	}
	return row, nil
}

func flattenValue(value any) (any, error) {
	switch v := value.(type) {
	case nil, string, bool, int64, float64:
		return v, nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	default:
		return fmt.Sprint(v), nil
	}
}

func scalarString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case bool, int64, float64:
		return fmt.Sprint(v)
	default:
		return ""
	}
}
