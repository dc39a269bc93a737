package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/hyperjump/omomi/internal/models"
	"gopkg.in/yaml.v3"
)

// loadYAML reads every document of a multi-document stream.
func loadYAML(content []byte) ([]*models.DocumentInput, error) {
	dec := yaml.NewDecoder(bytes.NewReader(content))
	var out []*models.DocumentInput
	for {
		var v interface{}
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
		recs, err := records(v)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
}
