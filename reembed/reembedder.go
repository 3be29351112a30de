// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/viannik/memoria-tg-bot/ai"
	"github.com/viannik/memoria-tg-bot/core"
	"github.com/viannik/memoria-tg-bot/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of chunks to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder orchestrates recomputing the vectors of every stored chunk.
type Reembedder struct {
	repo      storage.ChunkRepository
	embedder  ai.Embedder
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *ChunkIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.ChunkRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}

	processor := NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay)
	iterator := NewChunkIterator(repo, config.BatchSize)

	return &Reembedder{
		repo:      repo,
		embedder:  embedder,
		config:    config,
		progress:  progress,
		processor: processor,
		iterator:  iterator,
	}
}

// Run executes the reembedding operation. Every stored chunk is reembedded
// with the configured embedder, including chunks that never received a
// vector in the first place. Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context) error {
	allChunks, err := r.repo.GetAllChunks(ctx)
	if err != nil {
		return fmt.Errorf("failed to query chunks: %w", err)
	}

	totalChunks := len(allChunks)
	if totalChunks == 0 {
		fmt.Fprintf(r.progress, "No chunks found in database (0 chunks)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d chunks (batch size: %d)\n",
		totalChunks, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, totalChunks, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	err = r.iterator.ForEach(ctx, func(chunks []*core.ChunkEmbedding) error {
		if err := r.processor.Process(ctx, chunks); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		processed += len(chunks)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		return err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
		totalChunks, elapsed.Round(time.Second), float64(totalChunks)/elapsed.Seconds())

	return nil
}
