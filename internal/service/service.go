// Package service wraps a textindex.Engine behind a read-write mutex and
// ties index mutations to the operational concerns around them: query-cache
// invalidation, metric updates, and snapshot save/restore. The engine itself
// is single-writer by contract, so every caller (HTTP handlers, the Kafka
// ingest consumer) goes through this one facade.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/searchlite/searchlite/internal/cache"
	"github.com/searchlite/searchlite/pkg/config"
	"github.com/searchlite/searchlite/pkg/logger"
	"github.com/searchlite/searchlite/pkg/metrics"
	"github.com/searchlite/searchlite/pkg/textindex"
	"github.com/searchlite/searchlite/pkg/tracing"
)

// Service serializes access to one engine instance.
type Service struct {
	mu      sync.RWMutex
	engine  *textindex.Engine
	cache   *cache.QueryCache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache attaches a query cache, invalidated on every mutation.
func WithCache(c *cache.QueryCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates a Service around an engine.
func New(engine *textindex.Engine, opts ...Option) *Service {
	s := &Service{
		engine: engine,
		logger: logger.WithComponent("index-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuildEngine constructs an engine from the configured preprocessor and
// tokenizer strategies.
func BuildEngine(cfg config.EngineConfig) (*textindex.Engine, error) {
	var pre textindex.Preprocessor
	switch cfg.Preprocessor {
	case "english":
		pre = textindex.NewEnglishPreprocessor(textindex.WithStopWords(cfg.StopWords...))
	case "basic", "":
		pre = textindex.NewBasicPreprocessor(textindex.WithStopWords(cfg.StopWords...))
	default:
		return nil, fmt.Errorf("unknown preprocessor %q", cfg.Preprocessor)
	}

	var tok textindex.Tokenizer
	switch cfg.Tokenizer {
	case "stem":
		stem, err := textindex.NewStemTokenizer(cfg.StemSuffixes, cfg.StemMinLength)
		if err != nil {
			return nil, err
		}
		tok = stem
	case "ngram", "":
		tok = textindex.NewNGramTokenizer(cfg.NGramWidth)
	default:
		return nil, fmt.Errorf("unknown tokenizer %q", cfg.Tokenizer)
	}
	return textindex.NewEngine(pre, tok), nil
}

// Add indexes text under docID and invalidates cached query results.
func (s *Service) Add(ctx context.Context, docID, text string) {
	s.mu.Lock()
	s.engine.Add(docID, text)
	docs, tokens := s.engine.DocumentCount(), s.engine.TokenCount()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.DocsIndexedTotal.Inc()
		s.metrics.IndexDocuments.Set(float64(docs))
		s.metrics.IndexTokens.Set(float64(tokens))
	}
	s.invalidateCache(ctx)
	s.logger.Debug("document indexed", "doc_id", docID, "length", len(text))
}

// Remove deletes docID from the index. Unknown IDs are a no-op.
func (s *Service) Remove(ctx context.Context, docID string) {
	s.mu.Lock()
	s.engine.Remove(docID)
	docs, tokens := s.engine.DocumentCount(), s.engine.TokenCount()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.DocsRemovedTotal.Inc()
		s.metrics.IndexDocuments.Set(float64(docs))
		s.metrics.IndexTokens.Set(float64(tokens))
	}
	s.invalidateCache(ctx)
	s.logger.Debug("document removed", "doc_id", docID)
}

// Clear discards the whole index.
func (s *Service) Clear(ctx context.Context) {
	s.mu.Lock()
	s.engine.Clear()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.IndexDocuments.Set(0)
		s.metrics.IndexTokens.Set(0)
	}
	s.invalidateCache(ctx)
	s.logger.Info("index cleared")
}

// Search runs a query under a read lock. The returned ResultSet is an
// immutable snapshot and stays valid after the lock is released.
func (s *Service) Search(ctx context.Context, query string) *textindex.ResultSet {
	_, span := tracing.StartChildSpan(ctx, "engine-search")
	s.mu.RLock()
	results := s.engine.Search(query)
	s.mu.RUnlock()
	span.SetAttr("matches", results.Count())
	span.End()
	return results
}

// SnapshotJSON serializes the current index.
func (s *Service) SnapshotJSON() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.ToJSON()
}

// RestoreJSON replaces the index with a previously serialized one. The
// engine must have been built with the same preprocessor and tokenizer
// settings that produced the snapshot.
func (s *Service) RestoreJSON(ctx context.Context, payload string) error {
	s.mu.Lock()
	err := s.engine.FromJSON(payload)
	docs, tokens := s.engine.DocumentCount(), s.engine.TokenCount()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.IndexDocuments.Set(float64(docs))
		s.metrics.IndexTokens.Set(float64(tokens))
	}
	s.invalidateCache(ctx)
	s.logger.Info("index restored from snapshot", "documents", docs, "tokens", tokens)
	return nil
}

// Counts returns the current document and distinct-token counts.
func (s *Service) Counts() (documents, tokens int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.DocumentCount(), s.engine.TokenCount()
}

// Cache returns the attached query cache, or nil.
func (s *Service) Cache() *cache.QueryCache {
	return s.cache
}

func (s *Service) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Error("cache invalidation failed", "error", err)
	}
}
