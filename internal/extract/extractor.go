// Package extract loads document records from JSON, YAML and Excel files.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hyperjump/omomi/internal/models"
)

// ErrUnsupportedFormat is returned for file extensions with no loader.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Extensions lists the file extensions Load understands.
var Extensions = []string{".json", ".yaml", ".yml", ".xlsx"}

// Extractor loads document records from files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Load reads the file at path and returns its document records.
func (e *Extractor) Load(path string) ([]*models.DocumentInput, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.LoadBytes(content, ext)
}

// LoadBytes parses content according to ext, which includes the leading dot.
//
// JSON and YAML files hold one record or a list of records. A record is either
// {"id": ..., "fields": {...}} or a flat object whose "id" key is the document
// ID and whose other keys are fields. Excel files use the first row of each
// sheet as field names; an "id" column is optional.
func (e *Extractor) LoadBytes(content []byte, ext string) ([]*models.DocumentInput, error) {
	switch ext {
	case ".json":
		return loadJSON(content)
	case ".yaml", ".yml":
		return loadYAML(content)
	case ".xlsx":
		return loadExcel(content)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// records converts a decoded JSON or YAML value into document inputs.
func records(v interface{}) ([]*models.DocumentInput, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		out := make([]*models.DocumentInput, 0, len(t))
		for i, item := range t {
			m, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("record %d: expected an object, got %T", i, item)
			}
			out = append(out, record(m))
		}
		return out, nil
	case map[string]interface{}:
		return []*models.DocumentInput{record(t)}, nil
	default:
		return nil, fmt.Errorf("expected an object or a list of objects, got %T", v)
	}
}

func record(m map[string]interface{}) *models.DocumentInput {
	in := &models.DocumentInput{Fields: make(map[string]string)}
	if id := m["id"]; id != nil {
		in.ID = stringify(id)
	}
	fields, flat := m, true
	if nested, ok := m["fields"].(map[string]interface{}); ok {
		fields, flat = nested, false
	}
	for k, v := range fields {
		if v == nil || (flat && k == "id") {
			continue
		}
		in.Fields[k] = stringify(v)
	}
	return in
}

// stringify renders a scalar field value. Lists of strings are joined with
// spaces so a payload field may be written as a list of "term|weight" items.
func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, " ")
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+stringify(t[k]))
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(v)
	}
}
