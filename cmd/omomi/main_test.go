package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/omomi/internal/cli"
	"github.com/hyperjump/omomi/internal/schema"
	"go.uber.org/zap"
)

func TestSearchArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after query are moved first",
			args:     []string{"payloads:urgent", "-limit", "5"},
			expected: []string{"-limit", "5", "payloads:urgent"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-explain", "payloads:urgent"},
			expected: []string{"-explain", "payloads:urgent"},
		},
		{
			name:     "query only returns unchanged",
			args:     []string{"big cat"},
			expected: []string{"big cat"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := searchArgsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("searchArgsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"urgent"}, "urgent"},
		{"multiple words", []string{"big", "cat"}, "big cat"},
		{"quoted phrase", []string{`payloads:"big cat"`}, `payloads:"big cat"`},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildSearchQuery(tt.args)
			if got != tt.expected {
				t.Errorf("buildSearchQuery(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestParseOutputFormat(t *testing.T) {
	if f, err := parseOutputFormat("json"); err != nil || f != cli.OutputJSON {
		t.Errorf("json: got %q, %v", f, err)
	}
	if f, err := parseOutputFormat(""); err != nil || f != cli.OutputText {
		t.Errorf("empty: got %q, %v", f, err)
	}
	if _, err := parseOutputFormat("compact"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS the cwd may resolve through /private; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolvedCanon, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}

func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := "storage:\n  database_path: " + filepath.Join(dir, "omomi.db") +
		"\n  bleve_index_path: " + filepath.Join(dir, "bleve") + "\n" + extra
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return configPath
}

func TestInitializeComponents(t *testing.T) {
	configPath := writeConfig(t, "")
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	components, err := initializeComponents(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer components.Close()
	if !components.Schemas.IsPayloadBearing("payloads") {
		t.Error("default schema should declare payloads as payload-bearing")
	}
}

func TestInitializeComponents_unknownFunction(t *testing.T) {
	configPath := writeConfig(t, "")
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Payload.Function = "median"
	if _, err := initializeComponents(cfg, zap.NewNop()); err == nil {
		t.Error("expected error for unknown payload function")
	}
}

func TestLoadConfig_rejectsUnknownFunction(t *testing.T) {
	configPath := writeConfig(t, "payload:\n  function: median\n")
	if _, _, err := loadConfig(configPath); err == nil {
		t.Error("expected load to reject unknown payload function")
	}
}

func TestReloadSchema(t *testing.T) {
	configPath := writeConfig(t, `schema:
  fields:
    - name: body
      type: text
    - name: tags
      type: payloads
`)
	registry := schema.NewRegistry(nil)
	reloadSchema(configPath, registry, zap.NewNop())
	if !registry.IsPayloadBearing("tags") {
		t.Error("tags should be payload-bearing after reload")
	}

	reloadSchema(filepath.Join(t.TempDir(), "missing.yaml"), registry, zap.NewNop())
	if !registry.IsPayloadBearing("tags") {
		t.Error("failed reload should keep the previous schema")
	}
}

func TestCheckResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"document not found"}`))
	}))
	defer ts.Close()

	err := deleteViaHTTP(ts.URL, "doc-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "document not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStatusViaHTTP(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/status" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"documents":3,"payloads":2}`))
	}))
	defer ts.Close()

	status, err := statusViaHTTP(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	if status["documents"] != float64(3) {
		t.Errorf("documents = %v, want 3", status["documents"])
	}
}
