package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/omomi/internal/indexer"
	"github.com/hyperjump/omomi/internal/keyword"
	"github.com/hyperjump/omomi/internal/models"
	"github.com/hyperjump/omomi/internal/payload"
	"github.com/hyperjump/omomi/internal/storage"
	"go.uber.org/zap"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrEmptyQuery), errors.Is(err, indexer.ErrNoFields):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, payload.ErrDecode),
		errors.Is(err, payload.ErrInvalidWeight),
		errors.Is(err, payload.ErrInvalidPayload),
		errors.Is(err, keyword.ErrUnsupportedNode):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.fail(w, "search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleIndexDocument(w http.ResponseWriter, r *http.Request) {
	var input models.DocumentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("index document request", zap.String("id", input.ID), zap.Int("fields", len(input.Fields)))
	if err := s.indexer.IndexDocument(r.Context(), &input); err != nil {
		s.fail(w, "indexing failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": input.ID, "status": "indexed"})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.storage.GetDocument(r.Context(), id)
	if err != nil {
		s.fail(w, "get document failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete document request", zap.String("id", id))
	if _, err := s.storage.GetDocument(r.Context(), id); err != nil {
		s.fail(w, "deletion failed", err)
		return
	}
	if err := s.indexer.DeleteDocument(r.Context(), id); err != nil {
		s.fail(w, "deletion failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.Status(r.Context())
	if err != nil {
		s.fail(w, "status failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// Status reports document, payload and index counts along with the active settings.
func (s *Server) Status(ctx context.Context) (map[string]interface{}, error) {
	docCount, err := s.storage.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	payloadCount, err := s.storage.CountPayloads(ctx)
	if err != nil {
		return nil, fmt.Errorf("count payloads: %w", err)
	}
	indexed, err := s.keywordIndex.DocCount()
	if err != nil {
		return nil, fmt.Errorf("keyword index count: %w", err)
	}
	resp := map[string]interface{}{
		"documents":         docCount,
		"payloads":          payloadCount,
		"indexed_documents": indexed,
		"payload_fields":    s.schemas.Load().PayloadFields(),
	}

	if s.config != nil {
		resp["config"] = map[string]interface{}{
			"payload_function":   s.config.Payload.Function,
			"default_field":      s.config.Search.DefaultField,
			"phrase_slop":        s.config.Search.PhraseSlop,
			"normalize_scores":   s.config.Search.NormalizeScores,
			"on_invalid_payload": s.config.Search.OnInvalidPayload,
			"database_path":      s.config.Storage.DatabasePath,
			"bleve_index_path":   s.config.Storage.BleveIndexPath,
		}
		diskBytes, err := storage.DiskUsageBytes(s.config.Storage.DatabasePath, s.config.Storage.BleveIndexPath)
		if err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	return resp, nil
}

func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, zap.Error(err))
	} else {
		s.logger.Debug(msg, zap.Error(err), zap.Int("status", status))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
