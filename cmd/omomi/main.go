// Package main is the omomi CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/omomi/internal/cli"
	"github.com/hyperjump/omomi/internal/config"
	"github.com/hyperjump/omomi/internal/extract"
	"github.com/hyperjump/omomi/internal/indexer"
	"github.com/hyperjump/omomi/internal/keyword"
	"github.com/hyperjump/omomi/internal/models"
	"github.com/hyperjump/omomi/internal/payload"
	"github.com/hyperjump/omomi/internal/schema"
	"github.com/hyperjump/omomi/internal/search"
	"github.com/hyperjump/omomi/internal/server"
	"github.com/hyperjump/omomi/internal/storage"
	"github.com/hyperjump/omomi/internal/watcher"
	"github.com/hyperjump/omomi/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/omomi/config.yaml"

const defaultServerURL = "http://localhost:8080"

// loadConfig loads config from path. When path is the default and a config.yaml
// exists in the current directory, that file wins so a checkout can run without
// installing a config. Returns the config and the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "index":
		runIndex()
	case "delete":
		runDelete()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("omomi version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds everything opened from a config.
type Components struct {
	Storage      *storage.SQLiteStorage
	KeywordIndex *keyword.BleveIndex
	Schemas      *schema.Registry
	Engine       *search.Engine
	Indexer      *indexer.Indexer
}

// Close releases the keyword index and the database.
func (c *Components) Close() {
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	s, err := cfg.BuildSchema()
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	fn, err := payload.FunctionByName(cfg.Payload.Function)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath, s)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}
	registry := schema.NewRegistry(s)

	engine := search.NewEngine(store, keywordIndex, registry, fn, &cfg.Search, search.WithLogger(logger))
	idx := indexer.NewIndexer(store, keywordIndex, registry, &cfg.Payload, extract.NewExtractor(), indexer.WithLogger(logger))

	logger.Debug("components initialized",
		zap.String("payload_function", fn.Name),
		zap.Strings("payload_fields", s.PayloadFields()),
	)
	return &Components{
		Storage:      store,
		KeywordIndex: keywordIndex,
		Schemas:      registry,
		Engine:       engine,
		Indexer:      idx,
	}, nil
}

// setup loads the config, builds the logger and opens all components.
func setup(configPath string, debug bool) (*config.Config, *zap.Logger, *Components) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved))

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	return cfg, logger, components
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	exts := cfg.Watch.Extensions
	watchSvc := watcher.NewWatcher(
		cfg.Watch.Directories,
		exts,
		cfg.Watch.RecursiveOrDefault(),
		&indexer.FileSink{Indexer: components.Indexer, Extensions: exts},
		watcher.WithLogger(logger),
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if len(cfg.Watch.Directories) > 0 {
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		watchSvc.SyncExistingFiles()
	}

	srv := server.NewServer(
		components.Engine,
		components.Indexer,
		components.Storage,
		components.KeywordIndex,
		components.Schemas,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range sigChan {
		if sig == syscall.SIGHUP {
			reloadSchema(resolvedConfigPath, components.Schemas, logger)
			continue
		}
		break
	}

	logger.Info("Shutting down...")
	watchSvc.Stop()
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// reloadSchema re-reads the field declarations from path and swaps them into
// the registry. In-flight searches keep the schema they started with.
func reloadSchema(path string, registry *schema.Registry, logger *zap.Logger) {
	cfg, err := config.Load(path)
	if err != nil {
		logger.Warn("schema reload failed", zap.String("config_path", path), zap.Error(err))
		return
	}
	s, err := cfg.BuildSchema()
	if err != nil {
		logger.Warn("schema reload failed", zap.String("config_path", path), zap.Error(err))
		return
	}
	registry.Replace(s)
	logger.Info("schema reloaded", zap.Strings("payload_fields", s.PayloadFields()))
}

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: omomi search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Terms in payload fields are scored by their stored weights, e.g.:
  omomi search payloads:urgent
  omomi search 'payloads:"big cat"'          # both terms adjacent
  omomi search --explain payloads:urgent     # show per-term contributions
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves flags that appear after the query to the front so
// flag.Parse sees them; the flag package stops at the first positional.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// parseOutputFormat maps a --output value to a cli format.
func parseOutputFormat(s string) (cli.SearchOutputFormat, error) {
	switch s {
	case "text", "":
		return cli.OutputText, nil
	case "json":
		return cli.OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = open the index directly)")
	limit := fs.Int("limit", 0, "number of results (0 = server default)")
	offset := fs.Int("offset", 0, "number of results to skip")
	minScore := fs.Float64("min-score", 0, "drop results scoring below this")
	explain := fs.Bool("explain", false, "include per-node payload contributions")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	searchQuery := &models.SearchQuery{
		Query:    queryStr,
		Limit:    *limit,
		Offset:   *offset,
		MinScore: *minScore,
		Explain:  *explain,
	}

	var response *models.SearchResponse
	if *serverURL != "" {
		// Bleve holds an exclusive lock on the index, so go through the running server.
		response, err = searchViaHTTP(*serverURL, searchQuery)
	} else {
		_, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		response, err = components.Engine.Search(context.Background(), searchQuery)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func statusViaHTTP(serverURL string) (map[string]interface{}, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return status, nil
}

func deleteViaHTTP(serverURL, id string) error {
	req, err := http.NewRequest(http.MethodDelete, serverURL+"/api/v1/documents/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return checkResponse(resp)
}

// checkResponse turns a non-2xx reply into an error carrying the server's message.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	b, _ := io.ReadAll(resp.Body)
	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = open the index directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var status map[string]interface{}
	if *serverURL != "" {
		status, err = statusViaHTTP(*serverURL)
	} else {
		cfg, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		srv := server.NewServer(components.Engine, components.Indexer, components.Storage,
			components.KeywordIndex, components.Schemas, cfg, logger)
		status, err = srv.Status(context.Background())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: omomi index [flags] <file-or-directory>...")
		os.Exit(1)
	}

	cfg, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	exts := cfg.Watch.Extensions
	total := 0
	for _, path := range fs.Args() {
		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Index failed: %v\n", err)
			os.Exit(1)
		}
		var n int
		if info.IsDir() {
			n, err = components.Indexer.IndexDirectory(ctx, path, exts)
		} else {
			n, err = components.Indexer.IndexFile(ctx, path, nil)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Index %s failed: %v\n", path, err)
			os.Exit(1)
		}
		total += n
	}
	fmt.Printf("Indexed %d documents\n", total)
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", "", "server URL (empty = open the index directly)")
	source := fs.String("source", "", "delete every document imported from this file")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 && *source == "" {
		fmt.Println("Usage: omomi delete [flags] <id>  |  omomi delete --source <file>")
		os.Exit(1)
	}

	if *serverURL != "" {
		if *source != "" {
			fmt.Fprintln(os.Stderr, "--source requires direct mode (--server \"\")")
			os.Exit(1)
		}
		if err := deleteViaHTTP(*serverURL, fs.Arg(0)); err != nil {
			fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Deleted document: %s\n", fs.Arg(0))
		return
	}

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	if *source != "" {
		abs, err := filepath.Abs(*source)
		if err != nil {
			abs = *source
		}
		n, err := components.Indexer.DeleteBySource(ctx, abs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Deleted %d documents from %s\n", n, abs)
		return
	}

	id := fs.Arg(0)
	if _, err := components.Storage.GetDocument(ctx, id); err != nil {
		if errors.Is(err, storage.ErrDocumentNotFound) {
			fmt.Fprintf(os.Stderr, "Document not found: %s\n", id)
		} else {
			fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
		}
		os.Exit(1)
	}
	if err := components.Indexer.DeleteDocument(ctx, id); err != nil {
		fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Deleted document: %s\n", id)
}

func printUsage() {
	fmt.Println(`omomi - keyword search with payload-weighted scoring

Usage:
  omomi server [flags]                 Start the HTTP server (and directory watcher)
  omomi search [flags] <query>         Search documents
  omomi index [flags] <path>...        Import json/yaml/xlsx files or directories
  omomi delete [flags] <id>            Delete a document
  omomi status [flags]                 Show storage and index status
  omomi version                        Show version
  omomi help                           Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/omomi/config.yaml)
  --debug            Enable debug logging
  Send SIGHUP to reload the schema from the config file.

Search Flags:
  --server string    Server URL (default: http://localhost:8080). Use --server "" to open the index directly.
  --config string    Config file path (direct mode)
  --limit int        Number of results
  --offset int       Number of results to skip
  --min-score float  Drop results scoring below this
  --explain          Show per-node payload contributions
  --output string    Output format: text or json (default: text)

Index Flags:
  --config string    Config file path
  --debug            Enable debug logging

Delete Flags:
  --server string    Server URL (default: direct mode)
  --source string    Delete every document imported from this file

Status Flags:
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct mode.
  --output string    Output format: text or json (default: text)

Examples:
  omomi server
  omomi index ./catalog.yaml ./data
  omomi search 'payloads:"big cat" AND title:zoo'
  omomi search --explain --output json payloads:urgent
  omomi delete --source ./catalog.yaml
  omomi status --output json`)
}
