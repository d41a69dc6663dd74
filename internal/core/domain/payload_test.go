package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload(t *testing.T) {
	t.Run("object", func(t *testing.T) {
		p, err := DecodePayload([]byte(`{"SchemaID":"expA","Count":12}`))
		require.NoError(t, err)
		assert.Equal(t, "expA", p["SchemaID"])
		assert.Equal(t, json.Number("12"), p["Count"])
	})

	t.Run("array is rejected", func(t *testing.T) {
		_, err := DecodePayload([]byte(`[1,2]`))
		assert.True(t, errors.Is(err, ErrPayload))
	})

	t.Run("malformed json is rejected", func(t *testing.T) {
		_, err := DecodePayload([]byte(`{"a":`))
		assert.True(t, errors.Is(err, ErrPayload))
	})
}

func TestPayload_SchemaID(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		want    string
	}{
		{"canonical key", Payload{"SchemaID": "expA"}, "expA"},
		{"snake case key", Payload{"schema_id": "expB"}, "expB"},
		{"lower case key", Payload{"schemaid": "expC"}, "expC"},
		{"numeric value", Payload{"SchemaID": json.Number("42")}, "42"},
		{"missing", Payload{"Identifier": "x"}, ""},
		{"empty value", Payload{"SchemaID": "  "}, ""},
		{"exact key preferred", Payload{"schema_id": "expB", "SchemaID": "expA", "schemaid": "expC"}, "expA"},
		{"variants in key order", Payload{"schemaid": "expC", "schema_id": "expB"}, "expB"},
		{"empty exact key falls back", Payload{"SchemaID": "", "schemaId": "expD"}, "expD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for n := 0; n < 10; n++ {
				assert.Equal(t, tt.want, tt.payload.SchemaID())
			}
		})
	}
}

func TestPayload_Identifier(t *testing.T) {
	assert.Equal(t, "sample-1", Payload{"Identifier": "sample-1"}.Identifier("a"))
	assert.Equal(t, "sample-2", Payload{"identifier": "sample-2"}.Identifier("a"))
	assert.Equal(t, "7", Payload{"Identifier": json.Number("7")}.Identifier("a"))
	assert.Equal(t, "a", Payload{"Identifier": ""}.Identifier("a"))
	assert.Equal(t, "a", Payload{"Identifier": nil}.Identifier("a"))
	assert.Equal(t, "a", Payload{}.Identifier("a"))
}

func TestFlatten(t *testing.T) {
	p, err := DecodePayload([]byte(`{
		"Identifier": "sample-1",
		"Count": 3,
		"Ratio": 0.25,
		"Active": true,
		"Missing": null,
		"Device": {"Name": "scope", "Serial": 9},
		"Tags": ["a", "b"]
	}`))
	require.NoError(t, err)

	row, err := Flatten(p)
	require.NoError(t, err)

	assert.Equal(t, "sample-1", row["Identifier"])
	assert.Equal(t, int64(3), row["Count"])
	assert.Equal(t, 0.25, row["Ratio"])
	assert.Equal(t, true, row["Active"])
	assert.Nil(t, row["Missing"])
	assert.JSONEq(t, `{"Name":"scope","Serial":9}`, row["Device"].(string))
	assert.Equal(t, `["a","b"]`, row["Tags"])
}
