// Package schema describes index fields and answers whether a field carries
// payloads.
package schema

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
)

// Field type names.
const (
	TypeText     = "text"
	TypeKeyword  = "keyword"
	TypePayloads = "payloads"
)

var (
	ErrDuplicateField = errors.New("duplicate field name")
	ErrInvalidType    = errors.New("invalid field type")
	ErrEmptyFieldName = errors.New("field name is empty")
)

// Field defines a single indexed field.
type Field struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
}

// PayloadBearing reports whether the field type stores payloads.
func (f Field) PayloadBearing() bool {
	return strings.EqualFold(f.Type, TypePayloads)
}

// Schema is an immutable set of field definitions.
type Schema struct {
	fields map[string]Field
	order  []string
}

// New builds a schema from field definitions.
func New(fields []Field) (*Schema, error) {
	s := &Schema{fields: make(map[string]Field, len(fields))}
	for _, f := range fields {
		if f.Name == "" {
			return nil, ErrEmptyFieldName
		}
		if _, ok := s.fields[f.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateField, f.Name)
		}
		switch strings.ToLower(f.Type) {
		case TypeText, TypeKeyword, TypePayloads:
		case "":
			f.Type = TypeText
		default:
			return nil, fmt.Errorf("field %q: %w: %q", f.Name, ErrInvalidType, f.Type)
		}
		s.fields[f.Name] = f
		s.order = append(s.order, f.Name)
	}
	return s, nil
}

// IsPayloadBearing reports whether field is declared with the payloads type.
// Unknown fields carry no payloads.
func (s *Schema) IsPayloadBearing(field string) bool {
	if s == nil {
		return false
	}
	f, ok := s.fields[field]
	return ok && f.PayloadBearing()
}

// Field returns the definition for name.
func (s *Schema) Field(name string) (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	f, ok := s.fields[name]
	return f, ok
}

// Fields returns the field definitions in declaration order.
func (s *Schema) Fields() []Field {
	if s == nil {
		return nil
	}
	out := make([]Field, len(s.order))
	for i, name := range s.order {
		out[i] = s.fields[name]
	}
	return out
}

// PayloadFields returns the names of payload-bearing fields.
func (s *Schema) PayloadFields() []string {
	var out []string
	for _, f := range s.Fields() {
		if f.PayloadBearing() {
			out = append(out, f.Name)
		}
	}
	return out
}

// Registry holds the current schema and lets it be replaced between requests.
type Registry struct {
	current atomic.Pointer[Schema]
}

// NewRegistry returns a registry serving s.
func NewRegistry(s *Schema) *Registry {
	r := &Registry{}
	r.current.Store(s)
	return r
}

// Load returns the schema in effect.
func (r *Registry) Load() *Schema {
	return r.current.Load()
}

// Replace swaps in a new schema.
func (r *Registry) Replace(s *Schema) {
	r.current.Store(s)
}

// IsPayloadBearing consults the schema in effect at call time.
func (r *Registry) IsPayloadBearing(field string) bool {
	return r.current.Load().IsPayloadBearing(field)
}
