package schema

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Registry holds compiled JSON Schemas for every section type.
// Compilation happens once at construction, so a bad embedded schema
// fails fast instead of at validation time.
type Registry struct {
	compiled map[SectionType]*jsonschema.Schema
	raw      map[SectionType]string
}

// NewRegistry compiles all embedded section schemas.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		compiled: make(map[SectionType]*jsonschema.Schema, len(order)),
		raw:      make(map[SectionType]string, len(order)),
	}

	compiler := jsonschema.NewCompiler()
	for _, t := range order {
		name := fmt.Sprintf("schemas/%s.json", t)
		content, err := schemaFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", t, err)
		}
		if err := compiler.AddResource(name, bytes.NewReader(content)); err != nil {
			return nil, fmt.Errorf("failed to add schema %s: %w", t, err)
		}
		sch, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", t, err)
		}
		r.compiled[t] = sch
		r.raw[t] = string(content)
	}

	return r, nil
}

// Get returns the compiled schema for a section type, falling back to
// the general schema for anything outside the vocabulary.
func (r *Registry) Get(t SectionType) *jsonschema.Schema {
	if sch, ok := r.compiled[t]; ok {
		return sch
	}
	return r.compiled[TypeGeneral]
}

// Raw returns the schema document text for a section type, used to show
// the model the exact output shape. Falls back to the general schema.
func (r *Registry) Raw(t SectionType) string {
	if raw, ok := r.raw[t]; ok {
		return raw
	}
	return r.raw[TypeGeneral]
}

// Validate checks decoded JSON data against the schema for t.
// data must be the product of encoding/json unmarshaling into any.
func (r *Registry) Validate(t SectionType, data any) error {
	if err := r.Get(t).Validate(data); err != nil {
		return fmt.Errorf("section %s failed schema validation: %w", t, err)
	}
	return nil
}
