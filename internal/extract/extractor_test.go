package extract

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestLoadBytes_jsonList(t *testing.T) {
	e := NewExtractor()
	content := []byte(`[
		{"id": "a", "title": "First", "tags": "urgent|2.0 billing"},
		{"title": "Second", "views": 42}
	]`)
	got, err := e.LoadBytes(content, ".json")
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].ID != "a" || got[0].Fields["tags"] != "urgent|2.0 billing" {
		t.Errorf("first record = %+v", got[0])
	}
	if _, ok := got[0].Fields["id"]; ok {
		t.Error("id should not be stored as a field")
	}
	if got[1].ID != "" || got[1].Fields["views"] != "42" {
		t.Errorf("second record = %+v", got[1])
	}
}

func TestLoadBytes_jsonNestedFields(t *testing.T) {
	e := NewExtractor()
	got, err := e.LoadBytes([]byte(`{"id": 7, "fields": {"id": "kept", "tags": ["a|1", "b|2"]}}`), ".json")
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].ID != "7" {
		t.Errorf("ID = %q, want 7", got[0].ID)
	}
	if got[0].Fields["tags"] != "a|1 b|2" {
		t.Errorf("tags = %q", got[0].Fields["tags"])
	}
	if got[0].Fields["id"] != "kept" {
		t.Errorf("nested id field = %q", got[0].Fields["id"])
	}
}

func TestLoadBytes_jsonRejectsScalars(t *testing.T) {
	e := NewExtractor()
	if _, err := e.LoadBytes([]byte(`[1, 2]`), ".json"); err == nil {
		t.Error("expected error for list of numbers")
	}
	if _, err := e.LoadBytes([]byte(`{`), ".json"); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLoadBytes_yamlMultiDocument(t *testing.T) {
	e := NewExtractor()
	content := []byte(`id: one
title: Hello
---
- id: two
  tags: "red|0.5"
- id: three
  tags: blue
`)
	got, err := e.LoadBytes(content, ".yml")
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	ids := []string{got[0].ID, got[1].ID, got[2].ID}
	want := []string{"one", "two", "three"}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids = %v, want %v", ids, want)
			break
		}
	}
	if got[1].Fields["tags"] != "red|0.5" {
		t.Errorf("tags = %q", got[1].Fields["tags"])
	}
}

func TestLoadBytes_excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "ID")
	f.SetCellValue("Sheet1", "B1", "title")
	f.SetCellValue("Sheet1", "C1", "tags")
	f.SetCellValue("Sheet1", "A2", "row-1")
	f.SetCellValue("Sheet1", "B2", "Invoice")
	f.SetCellValue("Sheet1", "C2", "urgent|3")
	f.SetCellValue("Sheet1", "B3", "Memo")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	e := NewExtractor()
	got, err := e.LoadBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].ID != "row-1" || got[0].Fields["title"] != "Invoice" || got[0].Fields["tags"] != "urgent|3" {
		t.Errorf("first row = %+v", got[0])
	}
	if got[1].ID != "" || got[1].Fields["title"] != "Memo" {
		t.Errorf("second row = %+v", got[1])
	}
	if _, ok := got[1].Fields["tags"]; ok {
		t.Error("empty cell should not become a field")
	}
}

func TestLoadBytes_unsupported(t *testing.T) {
	e := NewExtractor()
	_, err := e.LoadBytes([]byte("plain"), ".txt")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoad_file(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docs.JSON")
	if err := os.WriteFile(path, []byte(`{"id": "x", "body": "text"}`), 0600); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor()
	got, err := e.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].Fields["body"] != "text" {
		t.Errorf("got %+v", got)
	}

	if _, err := e.Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
