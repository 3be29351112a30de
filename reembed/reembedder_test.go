package reembed

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/viannik/memoria-tg-bot/ai/mock"
	"github.com/viannik/memoria-tg-bot/core"
	badgerstore "github.com/viannik/memoria-tg-bot/storage/badger"
)

func seedChunks(t *testing.T, repos *badgerstore.MemoryRepositories, count int) []*core.ChunkEmbedding {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	chunks := make([]*core.ChunkEmbedding, 0, count)
	for i := 0; i < count; i++ {
		chunk, err := repos.Chunks.AddChunk(context.Background(), &core.ChunkEmbedding{
			ChatId:     -100,
			ChunkText:  "chunk text",
			FromTime:   now.Add(time.Duration(i) * time.Minute),
			ToTime:     now.Add(time.Duration(i+1) * time.Minute),
			MessageIds: []int64{int64(i + 1)},
			UserIds:    []int64{1},
		})
		if err != nil {
			t.Fatalf("Failed to seed chunk: %v", err)
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

func TestReembedder_Run(t *testing.T) {
	repos, err := badgerstore.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	seedChunks(t, repos, 5)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{3, 4}
		}
		return vectors, nil
	}

	var progress bytes.Buffer
	reembedder := NewReembedder(repos.Chunks, embedder, &Config{
		BatchSize:      2,
		ReportInterval: 1,
		MaxRetries:     1,
		RetryDelay:     time.Millisecond,
	}, &progress)

	if err := reembedder.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	chunks, err := repos.Chunks.GetAllChunks(context.Background())
	if err != nil {
		t.Fatalf("Failed to get chunks: %v", err)
	}
	for _, chunk := range chunks {
		if len(chunk.Vector) != 2 {
			t.Fatalf("Chunk %d has no vector", chunk.Id)
		}
		// Stored vectors are normalized to unit length
		if math.Abs(float64(chunk.Vector[0])-0.6) > 1e-6 {
			t.Errorf("Chunk %d vector not normalized: %v", chunk.Id, chunk.Vector)
		}
	}
}

func TestReembedder_EmptyDatabase(t *testing.T) {
	repos, err := badgerstore.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	var progress bytes.Buffer
	reembedder := NewReembedder(repos.Chunks, mock.NewMockEmbedder(), nil, &progress)
	if err := reembedder.Run(context.Background()); err != nil {
		t.Fatalf("Run on empty database should succeed: %v", err)
	}
}

func TestReembedder_EmbedFailure(t *testing.T) {
	repos, err := badgerstore.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	seedChunks(t, repos, 2)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("service unavailable")
	}

	var progress bytes.Buffer
	reembedder := NewReembedder(repos.Chunks, embedder, &Config{
		BatchSize:      10,
		ReportInterval: 10,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
	}, &progress)

	if err := reembedder.Run(context.Background()); err == nil {
		t.Fatal("Expected error when embedding fails")
	}
}

func TestBatchProcessor_CountMismatch(t *testing.T) {
	repos, err := badgerstore.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	chunks := seedChunks(t, repos, 3)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil
	}

	processor := NewBatchProcessor(repos.Chunks, embedder, 1, time.Millisecond)
	if err := processor.Process(context.Background(), chunks); err == nil {
		t.Fatal("Expected error on embedding count mismatch")
	}
}
