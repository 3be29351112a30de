package memoria

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viannik/memoria-tg-bot/ai/mock"
	"github.com/viannik/memoria-tg-bot/core"
	"github.com/viannik/memoria-tg-bot/ingestion"
)

func TestNewStore(t *testing.T) {
	t.Run("create new store", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		store, err := NewStore(tmpDir, WithEmbedder(mock.NewMockEmbedder()))
		require.NoError(t, err)
		require.NotNil(t, store)
		defer store.Close()

		assert.NotNil(t, store.UserRepository())
		assert.NotNil(t, store.ChatRepository())
		assert.NotNil(t, store.MediaRepository())
		assert.NotNil(t, store.MessageRepository())
		assert.NotNil(t, store.ChunkRepository())
		assert.NotNil(t, store.Embedder())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0o644))

		_, err := NewStore(filepath.Join(tmpFile, "db"), WithEmbedder(mock.NewMockEmbedder()))
		assert.Error(t, err)
	})

	t.Run("in memory", func(t *testing.T) {
		store, err := NewStore("", WithInMemory(), WithEmbedder(mock.NewMockEmbedder()))
		require.NoError(t, err)
		assert.NoError(t, store.Close())
	})
}

func TestStore_Pipelines(t *testing.T) {
	store, err := NewStore("", WithInMemory(), WithEmbedder(mock.NewMockEmbedder()))
	require.NoError(t, err)
	defer store.Close()

	chunker, err := store.NewChunker(ingestion.WithConfig(ingestion.Config{ChunkSize: 2, ChunkOverlap: 0}))
	require.NoError(t, err)
	defer chunker.Release()

	processor, err := store.NewProcessor(chunker)
	require.NoError(t, err)

	ctx := context.Background()
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	for i := int64(1); i <= 2; i++ {
		_, err := processor.Process(ctx, &ingestion.InboundMessage{
			Id:   i,
			Chat: ingestion.InboundChat{Id: -100, Type: "private"},
			From: ingestion.InboundUser{Id: 7, Username: "ghopper"},
			Date: base.Add(time.Duration(i) * time.Minute),
			Text: "hello",
		})
		require.NoError(t, err)
	}

	chunk, err := store.ChunkRepository().GetLatestChunk(ctx, -100)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, chunk.MessageIds)

	importer, err := store.NewImporter()
	require.NoError(t, err)
	assert.NotNil(t, importer)

	searcher, err := store.NewSearcher()
	require.NoError(t, err)
	assert.NotNil(t, searcher)

	assert.NotNil(t, store.NewReembedder(nil, os.Stderr))
}

func TestStore_ChunkScope(t *testing.T) {
	store, err := NewStore("", WithInMemory(), WithEmbedder(mock.NewMockEmbedder()))
	require.NoError(t, err)
	defer store.Close()

	now := time.Now().UTC().Truncate(time.Microsecond)
	_, err = store.ChunkRepository().AddChunk(context.Background(), &core.ChunkEmbedding{
		ChatId:     -100,
		ChunkText:  "scoped",
		FromTime:   now.Add(-time.Hour),
		ToTime:     now,
		MessageIds: []int64{1},
		UserIds:    []int64{7},
	})
	require.NoError(t, err)

	ids, err := store.ChunkRepository().GetChunksByUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}
