package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/empirf/mdingest/internal/core/domain"
	"github.com/empirf/mdingest/internal/core/ports/driven"
	"github.com/empirf/mdingest/internal/logger"
)

// Ensure Resolver implements the interface.
var _ driven.SchemaResolver = (*Resolver)(nil)

// extensions are tried in order when looking up a schema file by id.
var extensions = []string{".json", ".yaml", ".yml"}

// tableName matches ids that can be used verbatim as a table name.
var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type cachedSchema struct {
	schema  *domain.ResolvedSchema
	modTime time.Time
}

// Resolver loads schemas from a directory. A schema is found at
// <dir>/<id>.json, <dir>/<id>.yaml or <dir>/<id>.yml, or failing that in any
// schema file of the directory whose "$id" equals the id. Loaded schemas are
// cached until their file changes.
type Resolver struct {
	dir     string
	allowed map[string]struct{}

	mu    sync.Mutex
	cache map[string]cachedSchema
}

// NewResolver creates a resolver over dir. When allowed is non-empty only
// the listed ids resolve.
func NewResolver(dir string, allowed []string) *Resolver {
	r := &Resolver{
		dir:   dir,
		cache: make(map[string]cachedSchema),
	}
	if len(allowed) > 0 {
		r.allowed = make(map[string]struct{}, len(allowed))
		for _, id := range allowed {
			r.allowed[id] = struct{}{}
		}
	}
	return r
}

// Resolve returns the schema for id. It fails with domain.ErrUnknownSchema
// when the id is empty, not allowed, not usable as a table name or not
// present in the directory.
func (r *Resolver) Resolve(ctx context.Context, id string) (*domain.ResolvedSchema, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: missing schema id", domain.ErrUnknownSchema)
	}
	if r.allowed != nil {
		if _, ok := r.allowed[id]; !ok {
			return nil, fmt.Errorf("%w: %s is not an allowed schema id", domain.ErrUnknownSchema, id)
		}
	}
	if !tableName.MatchString(id) {
		return nil, fmt.Errorf("%w: %s is not a valid table name", domain.ErrUnknownSchema, id)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.cache[id]; ok {
		info, err := os.Stat(cached.schema.Location)
		if err == nil && info.ModTime().Equal(cached.modTime) {
			return cached.schema, nil
		}
		delete(r.cache, id)
	}

	for _, ext := range extensions {
		p := filepath.Join(r.dir, id+ext)
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			continue
		}
		doc, err := loadDocument(p)
		if err != nil {
			return nil, err
		}
		return r.store(id, p, info.ModTime(), doc), nil
	}

	return r.scan(id)
}

// scan looks for a schema file whose "$id" equals id.
func (r *Resolver) scan(id string) (*domain.ResolvedSchema, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (reading %s: %v)", domain.ErrUnknownSchema, id, r.dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isSchemaFile(entry.Name()) {
			continue
		}
		p := filepath.Join(r.dir, entry.Name())
		doc, err := loadDocument(p)
		if err != nil {
			logger.Debug("schema: skipping %s: %v", p, err)
			continue
		}
		if docID, _ := doc["$id"].(string); docID != id {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		return r.store(id, p, info.ModTime(), doc), nil
	}

	return nil, domain.UnknownSchemaError(id)
}

func (r *Resolver) store(id, location string, modTime time.Time, doc map[string]any) *domain.ResolvedSchema {
	schema := &domain.ResolvedSchema{
		ID:       id,
		Table:    id,
		Location: location,
		Document: doc,
		Columns:  propertyNames(doc),
	}
	r.cache[id] = cachedSchema{schema: schema, modTime: modTime}
	logger.Debug("schema: loaded %s from %s", id, location)
	return schema
}

// loadDocument reads a JSON or YAML schema file into a JSON-compatible map.
func loadDocument(p string) (map[string]any, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", p, err)
	}

	var doc map[string]any
	switch strings.ToLower(filepath.Ext(p)) {
	case ".yaml", ".yml":
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing schema %s: %w", p, err)
		}
		// Round-trip through JSON so the document only holds JSON types.
		buf, err := json.Marshal(normalizeYAML(raw))
		if err != nil {
			return nil, fmt.Errorf("converting schema %s: %w", p, err)
		}
		data = buf
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing schema %s: %w", p, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("parsing schema %s: not an object", p)
	}
	return doc, nil
}

// normalizeYAML converts map[any]any nodes into map[string]any.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = normalizeYAML(child)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, child := range t {
			m[fmt.Sprint(k)] = normalizeYAML(child)
		}
		return m
	case []any:
		for i, child := range t {
			t[i] = normalizeYAML(child)
		}
		return t
	default:
		return v
	}
}

func propertyNames(doc map[string]any) []string {
	props, ok := doc["properties"].(map[string]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isSchemaFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}
