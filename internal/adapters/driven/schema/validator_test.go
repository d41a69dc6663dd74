package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/empirf/mdingest/internal/core/domain"
)

func resolvePatient(t *testing.T) *domain.ResolvedSchema {
	t.Helper()
	dir := t.TempDir()
	writeSchema(t, dir, "patient.json", patientSchema)
	schema, err := NewResolver(dir, nil).Resolve(context.Background(), "patient")
	require.NoError(t, err)
	return schema
}

func decode(t *testing.T, s string) domain.Payload {
	t.Helper()
	p, err := domain.DecodePayload([]byte(s))
	require.NoError(t, err)
	return p
}

func TestValidator_Valid(t *testing.T) {
	schema := resolvePatient(t)
	v := NewValidator()

	result := v.Validate(decode(t, `{"SchemaID":"patient","Identifier":"P-1","Name":"Ada","Age":36,"Sex":"f"}`), schema, "p1")
	assert.True(t, result.Valid())
	assert.Equal(t, "P-1", result.Identifier)
}

func TestValidator_IdentifierFallback(t *testing.T) {
	schema := resolvePatient(t)

	result := NewValidator().Validate(decode(t, `{"Name":"Ada"}`), schema, "p1")
	assert.True(t, result.Valid())
	assert.Equal(t, "p1", result.Identifier)

	result = NewValidator().Validate(decode(t, `{"Name":"Ada","identifier":"lower"}`), schema, "p1")
	assert.Equal(t, "lower", result.Identifier)
}

func TestValidator_Violations(t *testing.T) {
	schema := resolvePatient(t)
	v := NewValidator()

	tests := []struct {
		name    string
		payload string
		field   string
		keyword string
	}{
		{"missing required", `{"Age": 3}`, "", "required"},
		{"wrong type", `{"Name": "A", "Age": "three"}`, "/Age", "type"},
		{"below minimum", `{"Name": "A", "Age": -1}`, "/Age", "minimum"},
		{"not integral", `{"Name": "A", "Age": 1.5}`, "/Age", "type"},
		{"enum", `{"Name": "A", "Sex": "q"}`, "/Sex", "enum"},
		{"too short", `{"Name": ""}`, "/Name", "minLength"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.Validate(decode(t, tt.payload), schema, "id")
			require.False(t, result.Valid())
			require.Len(t, result.Violations, 1)
			assert.Equal(t, tt.field, result.Violations[0].Field)
			assert.Equal(t, tt.keyword, result.Violations[0].Keyword)
			assert.NotEmpty(t, result.Violations[0].Message)
		})
	}
}

func TestValidator_MultipleViolations(t *testing.T) {
	schema := resolvePatient(t)

	result := NewValidator().Validate(decode(t, `{"Name": 5, "Age": -2}`), schema, "id")
	require.Len(t, result.Violations, 2)
	assert.Equal(t, "/Age", result.Violations[0].Field)
	assert.Equal(t, "/Name", result.Violations[1].Field)

	err := &domain.ValidationError{SchemaID: schema.ID, Violations: result.Violations}
	assert.Contains(t, err.Error(), "(and 1 more)")
}

func TestValidator_Draft4(t *testing.T) {
	schema := &domain.ResolvedSchema{
		ID:    "legacy",
		Table: "legacy",
		Document: map[string]any{
			"$schema":    "http://json-schema.org/draft-04/schema#",
			"type":       "object",
			"properties": map[string]any{"n": map[string]any{"type": "number", "maximum": 5.0, "exclusiveMaximum": true}},
		},
	}

	v := NewValidator()
	assert.True(t, v.Validate(decode(t, `{"n": 4}`), schema, "x").Valid())
	assert.False(t, v.Validate(decode(t, `{"n": 5}`), schema, "x").Valid())
}

func TestValidator_BrokenSchema(t *testing.T) {
	schema := &domain.ResolvedSchema{
		ID:       "bad",
		Document: map[string]any{"type": 12},
	}

	result := NewValidator().Validate(decode(t, `{}`), schema, "x")
	require.False(t, result.Valid())
	assert.Contains(t, result.Violations[0].Message, "schema does not compile")
}

func TestValidator_CachesCompiledSchema(t *testing.T) {
	schema := resolvePatient(t)
	v := NewValidator()

	v.Validate(decode(t, `{"Name":"A"}`), schema, "x")
	v.Validate(decode(t, `{"Name":"B"}`), schema, "y")
	assert.Len(t, v.compiled, 1)
}
