// Package shapes declares which attributes combine into each entity kind
// and validates instances against those declarations. A shape does not own
// attributes — many shapes may reference the same attribute definition from
// the attrs.Registry — and the metadata map is always explicitly open: an
// unrecognized attribute is never, by itself, a validation failure.
package shapes

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mindburn-labs/ledgerly/internal/attrs"
)

// Shape lists, by attribute identifier, which attributes a given entity
// kind requires and which it merely permits.
type Shape struct {
	Name     string
	Required []string
	Optional []string
}

// Compiled is a Shape compiled into an executable JSON Schema.
type Compiled struct {
	Shape  Shape
	schema *jsonschema.Schema
}

// Validate checks instance against the compiled shape: every required
// attribute must be present and pass its own validation rule, every
// optional attribute present must pass, and no unrecognized attribute is
// rejected — the schema's additionalProperties is always true.
func (c *Compiled) Validate(instance map[string]any) error {
	// jsonschema validates generic JSON values; round-trip through
	// encoding/json so attribute values (e.g. typed structs) compare the
	// way they will once persisted.
	raw, err := json.Marshal(instance)
	if err != nil {
		return fmt.Errorf("shapes: marshal instance: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("shapes: unmarshal instance: %w", err)
	}
	if err := c.schema.Validate(generic); err != nil {
		return fmt.Errorf("shapes: %s: %w", c.Shape.Name, err)
	}
	return nil
}

// Builder compiles Shapes against an attribute registry, caching compiled
// schemas by name the way pkg/firewall caches per-tool schemas.
type Builder struct {
	mu       sync.Mutex
	registry *attrs.Registry
	compiler *jsonschema.Compiler
	cache    map[string]*Compiled
}

// NewBuilder creates a shape Builder backed by registry.
func NewBuilder(registry *attrs.Registry) *Builder {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	return &Builder{
		registry: registry,
		compiler: c,
		cache:    make(map[string]*Compiled),
	}
}

// Compile builds (or returns the cached) Compiled schema for shape.
func (b *Builder) Compile(shape Shape) (*Compiled, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cached, ok := b.cache[shape.Name]; ok {
		return cached, nil
	}

	properties := map[string]any{}
	for _, id := range append(append([]string{}, shape.Required...), shape.Optional...) {
		def, err := b.registry.Get(id)
		if err != nil {
			return nil, fmt.Errorf("shapes: %s: %w", shape.Name, err)
		}
		properties[propertyKey(id)] = attributeSchema(def)
	}

	// Instances use bare property names, so the required list must be
	// stripped the same way the property keys are.
	required := make([]string, len(shape.Required))
	for i, id := range shape.Required {
		required[i] = propertyKey(id)
	}

	doc := map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": true,
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("shapes: marshal schema for %s: %w", shape.Name, err)
	}

	url := fmt.Sprintf("https://ledgerly.schemas.local/shapes/%s.schema.json", shape.Name)
	if err := b.compiler.AddResource(url, strings.NewReader(string(raw))); err != nil {
		return nil, fmt.Errorf("shapes: add resource %s: %w", shape.Name, err)
	}
	compiled, err := b.compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("shapes: compile %s: %w", shape.Name, err)
	}

	result := &Compiled{Shape: shape, schema: compiled}
	b.cache[shape.Name] = result
	return result, nil
}

// propertyKey strips the shape-scoping prefix ("txn.") used by attribute
// identifiers so instances can use bare field names (the shape already
// knows which attribute each property maps to).
func propertyKey(attributeID string) string {
	if i := strings.LastIndex(attributeID, "."); i >= 0 {
		return attributeID[i+1:]
	}
	return attributeID
}

func attributeSchema(def attrs.Definition) map[string]any {
	s := map[string]any{}
	switch def.Type {
	case attrs.TypeText:
		s["type"] = "string"
		if def.Validation.MinLength > 0 {
			s["minLength"] = def.Validation.MinLength
		}
		if def.Validation.MaxLength > 0 {
			s["maxLength"] = def.Validation.MaxLength
		}
		if def.Validation.Pattern != "" {
			s["pattern"] = def.Validation.Pattern
		}
	case attrs.TypeInteger:
		s["type"] = "integer"
		setRange(s, def.Validation)
	case attrs.TypeDecimal:
		s["type"] = "number"
		setRange(s, def.Validation)
	case attrs.TypeBoolean:
		s["type"] = "boolean"
	case attrs.TypeTimestamp:
		s["type"] = "string"
		s["format"] = "date-time"
	case attrs.TypeEnum:
		s["type"] = "string"
		if len(def.Validation.Enum) > 0 {
			enum := make([]any, len(def.Validation.Enum))
			for i, v := range def.Validation.Enum {
				enum[i] = v
			}
			s["enum"] = enum
		}
	case attrs.TypeJSON:
		// Open-ended: any JSON value is acceptable.
	default:
		// Unknown type: accept anything rather than reject valid data.
	}
	return s
}

func setRange(s map[string]any, v attrs.Validation) {
	if v.Min != nil {
		s["minimum"] = *v.Min
	}
	if v.Max != nil {
		s["maximum"] = *v.Max
	}
}
