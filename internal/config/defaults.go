package config

import (
	"github.com/hyperjump/omomi/internal/payload"
	"github.com/hyperjump/omomi/internal/schema"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/omomi/data/db/documents.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/omomi/data/indices/bleve"
	}
	if len(cfg.Schema.Fields) == 0 {
		cfg.Schema.Fields = []schema.Field{
			{Name: "title", Type: schema.TypeText},
			{Name: "body", Type: schema.TypeText},
			{Name: "payloads", Type: schema.TypePayloads},
		}
	}
	if cfg.Payload.Function == "" {
		cfg.Payload.Function = payload.NameAverageOfLog
	}
	if cfg.Payload.Delimiter == "" {
		cfg.Payload.Delimiter = payload.DefaultDelimiter
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.TopKCandidates == 0 {
		cfg.Search.TopKCandidates = 200
	}
	if cfg.Search.DefaultField == "" {
		cfg.Search.DefaultField = "body"
	}
	if cfg.Search.OnInvalidPayload == "" {
		cfg.Search.OnInvalidPayload = InvalidPayloadFail
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".json", ".yaml", ".yml", ".xlsx"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
