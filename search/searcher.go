package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/viannik/memoria-tg-bot/ai"
	"github.com/viannik/memoria-tg-bot/core"
	"github.com/viannik/memoria-tg-bot/storage"
)

// defaultMinSimilarity is the floor below which vector matches are dropped.
const defaultMinSimilarity = 0.7

// verbatimBoost is added to the score of chunks containing every query
// keyword, so exact wording outranks purely semantic neighbors.
const verbatimBoost = 0.3

// Searcher provides ranked semantic retrieval over chunked chat history.
type Searcher struct {
	chunks        storage.ChunkRepository
	embedder      ai.Embedder
	minSimilarity float32
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithMinSimilarity sets the similarity floor for vector matches.
// Default is 0.7.
func WithMinSimilarity(min float32) Option {
	return func(s *Searcher) error {
		if min < 0 || min > 1 {
			return fmt.Errorf("similarity floor must be in [0, 1], got %v", min)
		}
		s.minSimilarity = min
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	chunks storage.ChunkRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Searcher, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		chunks:        chunks,
		embedder:      embedder,
		minSimilarity: defaultMinSimilarity,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindSimilar searches for chunks similar to the query, restricted to the
// given scope. Returns up to maxHits results ranked by score descending.
func (s *Searcher) FindSimilar(ctx context.Context, query string, scope core.ChunkScope, maxHits int) ([]*core.ChunkMatch, error) {
	return s.FindSimilarWithMonitor(ctx, query, scope, maxHits, nil)
}

// FindSimilarWithMonitor searches with monitoring. The monitor receives
// callbacks at each stage of the search.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, query string, scope core.ChunkScope, maxHits int, monitor SearchMonitor) ([]*core.ChunkMatch, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	monitor.AfterQueryEmbedding(vector)

	// Over-fetch so the verbatim boost can promote matches from below the
	// requested cut before truncation.
	fetch := maxHits * 2
	if fetch < maxHits {
		fetch = maxHits
	}
	matches, err := s.chunks.FindSimilar(ctx, vector, s.minSimilarity, fetch, scope)
	if err != nil {
		s.logger.Error("error querying for similar chunks", "err", err)
		return nil, err
	}
	monitor.AfterVectorSearch(matches)

	for _, match := range matches {
		if containsAllQueryWords(match.Chunk.ChunkText, query) {
			match.Score += verbatimBoost
			monitor.VerbatimHit(match.Chunk)
		}
	}

	slices.SortFunc(matches, func(a, b *core.ChunkMatch) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if maxHits > 0 && len(matches) > maxHits {
		matches = matches[:maxHits]
	}
	monitor.Finish(matches)

	return matches, nil
}
