package e2e

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

type fileRecord struct {
	ID     string            `json:"id" yaml:"id"`
	Fields map[string]string `json:"fields" yaml:"fields"`
}

func toRecords(docs []Document) []fileRecord {
	out := make([]fileRecord, len(docs))
	for i, d := range docs {
		out[i] = fileRecord{ID: d.ID, Fields: d.Input().Fields}
	}
	return out
}

// WriteFixtures splits docs across a JSON, a YAML and an XLSX file in dir and
// returns the written paths.
func WriteFixtures(dir string, docs []Document) ([]string, error) {
	third := len(docs) / 3
	parts := [][]Document{docs[:third], docs[third : 2*third], docs[2*third:]}
	writers := []struct {
		name  string
		write func(string, []Document) error
	}{
		{"corpus.json", writeJSON},
		{"corpus.yaml", writeYAML},
		{"corpus.xlsx", writeXLSX},
	}
	paths := make([]string, 0, len(writers))
	for i, w := range writers {
		path := filepath.Join(dir, w.name)
		if err := w.write(path, parts[i]); err != nil {
			return nil, fmt.Errorf("write %s: %w", w.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeJSON(path string, docs []Document) error {
	data, err := json.MarshalIndent(toRecords(docs), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func writeYAML(path string, docs []Document) error {
	data, err := yaml.Marshal(toRecords(docs))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func writeXLSX(path string, docs []Document) error {
	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Sheet1"
	header := []interface{}{"id", "title", "body", "payloads"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, d := range docs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{d.ID, d.Title, d.Body, d.Payloads}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}
