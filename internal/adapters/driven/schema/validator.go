package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/url"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/empirf/mdingest/internal/core/domain"
	"github.com/empirf/mdingest/internal/core/ports/driven"
)

// Ensure Validator implements the interface.
var _ driven.PayloadValidator = (*Validator)(nil)

// maxCompiled bounds the compiled schema cache.
const maxCompiled = 256

// Validator checks payloads with JSON Schema. The draft is taken from the
// schema's "$schema" keyword and defaults to draft 7.
type Validator struct {
	mu       sync.Mutex
	compiled map[*domain.ResolvedSchema]*jsonschema.Schema
}

// NewValidator creates a validator.
func NewValidator() *Validator {
	return &Validator{compiled: make(map[*domain.ResolvedSchema]*jsonschema.Schema)}
}

// Validate checks payload against schema and extracts its identifier,
// falling back to fallbackID.
func (v *Validator) Validate(payload domain.Payload, schema *domain.ResolvedSchema, fallbackID string) domain.ValidationResult {
	result := domain.ValidationResult{Identifier: payload.Identifier(fallbackID)}

	compiled, err := v.compile(schema)
	if err != nil {
		result.Violations = []domain.Violation{{Keyword: "$schema", Message: "schema does not compile: " + err.Error()}}
		return result
	}

	if err := compiled.Validate(map[string]any(payload)); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			result.Violations = violations(verr)
		} else {
			result.Violations = []domain.Violation{{Message: err.Error()}}
		}
	}
	return result
}

func (v *Validator) compile(schema *domain.ResolvedSchema) (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if compiled, ok := v.compiled[schema]; ok {
		return compiled, nil
	}

	raw, err := json.Marshal(schema.Document)
	if err != nil {
		return nil, err
	}

	resource := resourceURL(schema)
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource(resource, bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		return nil, err
	}

	if len(v.compiled) >= maxCompiled {
		v.compiled = make(map[*domain.ResolvedSchema]*jsonschema.Schema)
	}
	v.compiled[schema] = compiled
	return compiled, nil
}

// resourceURL names a schema so relative references resolve next to its file.
func resourceURL(schema *domain.ResolvedSchema) string {
	if schema.Location != "" {
		if abs, err := filepath.Abs(schema.Location); err == nil {
			return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
		}
	}
	return "mem:///" + url.PathEscape(schema.ID) + ".json"
}

// violations flattens the leaves of a validation error tree.
func violations(err *jsonschema.ValidationError) []domain.Violation {
	var out []domain.Violation
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			out = append(out, domain.Violation{
				Field:   e.InstanceLocation,
				Keyword: path.Base(strings.TrimSuffix(e.KeywordLocation, "/")),
				Message: e.Message,
			})
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(err)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}
