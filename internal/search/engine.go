// Package search runs payload-weighted searches: parse, rewrite, match with
// the keyword index, then scale each hit by its payload factors.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/omomi/internal/config"
	"github.com/hyperjump/omomi/internal/keyword"
	"github.com/hyperjump/omomi/internal/models"
	"github.com/hyperjump/omomi/internal/payload"
	"github.com/hyperjump/omomi/internal/query"
	"github.com/hyperjump/omomi/internal/schema"
	"github.com/hyperjump/omomi/internal/storage"
	"go.uber.org/zap"
)

// Engine runs payload-weighted search.
type Engine struct {
	storage      storage.Storage
	keywordIndex keyword.KeywordIndex
	schemas      *schema.Registry
	function     payload.Function
	parser       query.Parser
	config       *config.SearchConfig
	scorer       *Scorer
	logger       *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger used for skipped payloads and missing documents.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithParser replaces the default Bleve query string parser.
func WithParser(p query.Parser) EngineOption {
	return func(e *Engine) { e.parser = p }
}

// NewEngine creates a search engine with the given dependencies. The schema is
// read from schemas on every query, so replacing it takes effect immediately.
func NewEngine(
	storage storage.Storage,
	keywordIndex keyword.KeywordIndex,
	schemas *schema.Registry,
	fn payload.Function,
	cfg *config.SearchConfig,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		storage:      storage,
		keywordIndex: keywordIndex,
		schemas:      schemas,
		function:     fn,
		config:       cfg,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.parser == nil {
		p := &keyword.QueryStringParser{DefaultField: cfg.DefaultField, PhraseSlop: cfg.PhraseSlop}
		if a, ok := keywordIndex.(keyword.FieldAnalyzer); ok {
			p.Analyzer = a
		}
		e.parser = p
	}
	e.scorer = NewScorer(cfg.OnInvalidPayload, cfg.NormalizeScores, e.logger)
	return e
}

// Search runs the query and returns ranked, paged results.
func (e *Engine) Search(ctx context.Context, q *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	node, err := ProcessQuery(q, e.parser, e.schemas, e.function, e.config.DefaultLimit, e.config.MaxLimit)
	if err != nil {
		return nil, err
	}
	response := &models.SearchResponse{
		Results: []*models.SearchResult{},
		Query:   q.Query,
	}
	if node == nil {
		response.QueryTime = time.Since(startTime).Milliseconds()
		return response, nil
	}
	response.Rewritten = node.String()

	candidates := max(e.config.TopKCandidates, q.Offset+q.Limit)
	if query.HasNear(node) {
		// Near windows are checked after matching, so every conjunction
		// hit has to be seen before any is cut.
		count, err := e.keywordIndex.DocCount()
		if err != nil {
			return nil, fmt.Errorf("failed to count documents: %w", err)
		}
		candidates = max(candidates, int(count))
	}
	hits, err := e.keywordIndex.Search(ctx, node, candidates)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	matcher := NewMatcher(e.keywordIndex, hits)
	nodes := query.PayloadNodes(node)
	scores := make([]*DocumentScore, 0, len(hits))
	for _, hit := range hits {
		toks := NewDocTokens(ctx, e.storage, hit.ID)
		ok, err := matcher.Matches(ctx, node, hit, toks)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		s, err := e.scorer.Score(hit, nodes, toks)
		if err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	scores = FilterMinScore(scores, q.MinScore)
	Rank(scores)

	start := q.Offset
	end := q.Offset + q.Limit
	if start > len(scores) {
		start = len(scores)
	}
	if end > len(scores) {
		end = len(scores)
	}
	response.Total = len(scores)

	for i, s := range scores[start:end] {
		doc, err := e.storage.GetDocument(ctx, s.DocumentID)
		if err != nil {
			e.logger.Debug("search hit without stored document", zap.String("id", s.DocumentID), zap.Error(err))
			continue
		}
		result := &models.SearchResult{
			Document:     doc,
			Score:        s.Score,
			MatchScore:   s.MatchScore,
			PayloadScore: s.PayloadScore,
			Rank:         start + i + 1,
		}
		if q.Explain {
			result.Contributions = s.Contributions
		}
		response.Results = append(response.Results, result)
	}
	response.QueryTime = time.Since(startTime).Milliseconds()
	return response, nil
}
