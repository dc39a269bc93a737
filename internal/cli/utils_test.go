package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/omomi/internal/models"
)

func testResponse() *models.SearchResponse {
	return &models.SearchResponse{
		Query:     "tags:urgent",
		Rewritten: "(payload(tags:urgent))",
		QueryTime: 42,
		Total:     1,
		Results: []*models.SearchResult{
			{
				Rank:          1,
				Score:         1.5,
				MatchScore:    1.3653,
				PayloadScore:  1.0986,
				Contributions: map[string]float64{"payload(tags:urgent)": 1.0986},
				Document: &models.Document{
					ID:        "doc-1",
					Fields:    map[string]string{"title": "Overdue invoice", "tags": "urgent|2.0"},
					CreatedAt: time.Now(),
					UpdatedAt: time.Now(),
				},
			},
		},
	}
}

func TestWriteSearchResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, testResponse(), OutputJSON); err != nil {
		t.Fatalf("WriteSearchResults: %v", err)
	}
	var decoded models.SearchResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Total != 1 || len(decoded.Results) != 1 {
		t.Fatalf("decoded = %+v", decoded)
	}
	if decoded.Results[0].Document.Fields["tags"] != "urgent|2.0" {
		t.Errorf("tags = %q", decoded.Results[0].Document.Fields["tags"])
	}
}

func TestWriteSearchResults_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, testResponse(), OutputText); err != nil {
		t.Fatalf("WriteSearchResults: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Found 1 results in 42ms",
		"Query: (payload(tags:urgent))",
		"Rank: 1 | Score: 1.5000 (Match: 1.3653, Payload: 1.0986)",
		"ID: doc-1",
		"tags: urgent|2.0",
		"payload(tags:urgent) = 1.0986",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "tags: urgent") > strings.Index(out, "title: Overdue") {
		t.Error("fields should be sorted by name")
	}
}

func TestWriteStatus(t *testing.T) {
	var buf bytes.Buffer
	status := map[string]interface{}{"payloads": 3, "documents": 2}
	if err := WriteStatus(&buf, status, OutputText); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "documents: 2\npayloads: 3\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 5, "hello..."},
		{"héllo", 2, "hé..."},
		{"x", 0, "x"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
