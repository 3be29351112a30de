package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/viannik/memoria-tg-bot/ai"
	"github.com/viannik/memoria-tg-bot/core"
	"github.com/viannik/memoria-tg-bot/storage"
)

// BatchProcessor handles embedding generation for batches of chunks.
type BatchProcessor struct {
	repo           storage.ChunkRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.ChunkRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates embeddings for a batch of chunks and stores the vectors.
// Vectors are normalized after embedding to ensure compatibility with cosine
// similarity.
func (bp *BatchProcessor) Process(ctx context.Context, chunks []*core.ChunkEmbedding) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.ChunkText
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
	}

	for i, chunk := range chunks {
		vector := NormalizeVector(embeddings[i])
		if err := bp.repo.UpdateChunkVector(ctx, chunk.Id, vector); err != nil {
			return fmt.Errorf("failed to update chunk %d: %w", chunk.Id, err)
		}
		chunk.Vector = vector
	}

	return nil
}
