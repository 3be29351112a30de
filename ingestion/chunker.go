package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/viannik/memoria-tg-bot/ai"
	"github.com/viannik/memoria-tg-bot/core"
	"github.com/viannik/memoria-tg-bot/format"
	"github.com/viannik/memoria-tg-bot/storage"
)

// Config holds the sliding-window parameters.
type Config struct {
	// ChunkSize is the number of messages in every chunk.
	ChunkSize int

	// ChunkOverlap is the number of messages consecutive chunks share.
	// Must satisfy 0 <= ChunkOverlap < ChunkSize.
	ChunkOverlap int
}

// DefaultConfig returns the windowing parameters used in production.
func DefaultConfig() Config {
	return Config{ChunkSize: 10, ChunkOverlap: 2}
}

// Validate checks the window parameters.
func (c Config) Validate() error {
	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk size %d", ErrInvalidChunkConfig, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap %d for size %d", ErrInvalidChunkConfig, c.ChunkOverlap, c.ChunkSize)
	}
	return nil
}

// Step is the number of positions the window advances between chunks.
func (c Config) Step() int {
	step := c.ChunkSize - c.ChunkOverlap
	if step < 1 {
		step = 1
	}
	return step
}

// Window is a half-open index range [Start, End) over a message sequence.
type Window struct {
	Start int
	End   int
}

// Windows computes the sliding windows over a sequence of n items. Start
// positions advance by max(1, size-overlap) and every window spans exactly
// size items; the partial tail is never emitted.
func Windows(n, size, overlap int) []Window {
	if size < 1 || n < size {
		return nil
	}
	step := size - overlap
	if step < 1 {
		step = 1
	}

	var windows []Window
	for start := 0; start+size <= n; start += step {
		windows = append(windows, Window{Start: start, End: start + size})
	}
	return windows
}

// Chunker derives overlapping fixed-size chunks from a chat's message
// history and keeps the latest chunk in sync with new traffic. Chunk text
// is embedded asynchronously on a worker pool when an embedder is set.
type Chunker struct {
	messages storage.MessageRepository
	chunks   storage.ChunkRepository
	config   Config
	embedder ai.Embedder
	pool     *ants.Pool
	logger   *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithConfig sets the window parameters. Default is DefaultConfig().
func WithConfig(config Config) Option {
	return func(c *Chunker) error {
		if err := config.Validate(); err != nil {
			return err
		}
		c.config = config
		return nil
	}
}

// WithEmbedder sets the embedding service used to vectorize new chunks.
// Without an embedder, chunks are created with a nil vector.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(c *Chunker) error {
		c.embedder = embedder
		return nil
	}
}

// WithPoolSize sets the worker pool size for async embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(c *Chunker) error {
		if size < 1 {
			size = 1
		}
		if c.pool != nil {
			c.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		c.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewChunker creates a new Chunker.
func NewChunker(messages storage.MessageRepository, chunks storage.ChunkRepository, opts ...Option) (*Chunker, error) {
	if messages == nil {
		return nil, ErrMessageRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	c := &Chunker{
		messages: messages,
		chunks:   chunks,
		config:   DefaultConfig(),
		pool:     pool,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(c); optErr != nil {
			c.Release()
			return nil, optErr
		}
	}

	return c, nil
}

// Release releases the embedding worker pool.
// The chunker should not be used after calling Release.
func (c *Chunker) Release() {
	if c.pool != nil {
		c.pool.Release()
	}
}

// ChunkChat runs initial bulk chunking for one chat: it windows the chat's
// unchunked messages in timestamp order and creates one chunk per window.
// Messages in the discarded tail stay unchunked and are picked up by a later
// pass. Returns the number of chunks created.
func (c *Chunker) ChunkChat(ctx context.Context, chatId int64) (int, error) {
	msgs, err := c.messages.GetUnchunkedMessages(ctx, chatId)
	if err != nil {
		return 0, err
	}

	windows := Windows(len(msgs), c.config.ChunkSize, c.config.ChunkOverlap)
	created := 0
	for _, w := range windows {
		chunk, err := c.createChunk(ctx, msgs[w.Start:w.End])
		if err != nil {
			return created, err
		}
		created++
		c.logger.Info("chunk created",
			"chat", chatId, "chunk", chunk.Id,
			"messages", fmt.Sprintf("%d-%d", msgs[w.Start].Id, msgs[w.End-1].Id))
	}
	return created, nil
}

// ChunkAllChats runs ChunkChat for every chat with stored messages.
// Returns the total number of chunks created.
func (c *Chunker) ChunkAllChats(ctx context.Context) (int, error) {
	chatIds, err := c.messages.GetChatIDs(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, chatId := range chatIds {
		created, err := c.ChunkChat(ctx, chatId)
		total += created
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// RefreshLatest recreates the latest chunk for a chat if enough new messages
// have arrived to slide the window by one step. The previous latest chunk is
// retained as a historical snapshot. With no existing chunk, the first chunk
// is created once the chat accumulates ChunkSize messages.
//
// The refresh fetches only the last ChunkSize messages, independent of the
// chat's total history length.
func (c *Chunker) RefreshLatest(ctx context.Context, chatId int64) error {
	latest, err := c.chunks.GetLatestChunk(ctx, chatId)
	if errors.Is(err, storage.ErrNotFound) {
		msgs, err := c.messages.GetRecentMessages(ctx, chatId, c.config.ChunkSize)
		if err != nil {
			return err
		}
		if len(msgs) != c.config.ChunkSize {
			return nil
		}
		return c.createTailChunk(ctx, chatId, msgs)
	}
	if err != nil {
		return err
	}

	lastMemberTime, ok := c.latestMemberTime(ctx, latest)
	if !ok {
		// Member set unresolvable; treat as transient and skip this refresh.
		c.logger.Warn("latest chunk members unresolved, skipping refresh",
			"chat", chatId, "chunk", latest.Id)
		return nil
	}

	newCount, err := c.messages.CountMessagesAfter(ctx, chatId, lastMemberTime)
	if err != nil {
		return err
	}
	if newCount < c.config.Step() {
		return nil
	}

	msgs, err := c.messages.GetRecentMessages(ctx, chatId, c.config.ChunkSize)
	if err != nil {
		return err
	}
	if len(msgs) < c.config.ChunkSize {
		return nil
	}
	return c.createTailChunk(ctx, chatId, msgs)
}

// latestMemberTime returns the timestamp of the chunk's newest member
// message. The second return is false when no member resolves.
func (c *Chunker) latestMemberTime(ctx context.Context, chunk *core.ChunkEmbedding) (time.Time, bool) {
	var lastTime time.Time
	found := false
	for _, msgId := range chunk.MessageIds {
		msg, err := c.messages.GetMessage(ctx, chunk.ChatId, msgId)
		if err != nil {
			continue
		}
		if !found || msg.Date.After(lastTime) {
			lastTime = msg.Date
			found = true
		}
	}
	return lastTime, found
}

// createTailChunk builds and stores a chunk from the chat's message tail.
func (c *Chunker) createTailChunk(ctx context.Context, chatId int64, msgs []*core.Message) error {
	chunk, err := c.createChunk(ctx, msgs)
	if err != nil {
		return err
	}
	c.logger.Info("chunk created",
		"chat", chatId, "chunk", chunk.Id,
		"messages", fmt.Sprintf("%d-%d", msgs[0].Id, msgs[len(msgs)-1].Id))
	return nil
}

// createChunk builds a chunk from its member messages, persists it, and
// submits its text for async embedding. Messages must be in ascending
// timestamp order.
func (c *Chunker) createChunk(ctx context.Context, msgs []*core.Message) (*core.ChunkEmbedding, error) {
	resolved, err := c.messages.ResolveMessages(ctx, msgs...)
	if err != nil {
		return nil, err
	}

	lines := make([]string, len(resolved))
	for i, rm := range resolved {
		lines[i] = format.Display(rm)
	}

	chunk := &core.ChunkEmbedding{
		ChatId:    msgs[0].ChatId,
		ChunkText: strings.Join(lines, "\n"),
		FromTime:  msgs[0].Date,
		ToTime:    msgs[len(msgs)-1].Date,
	}

	seenUsers := make(map[int64]bool)
	seenMedia := make(map[string]bool)
	for _, rm := range resolved {
		chunk.MessageIds = append(chunk.MessageIds, rm.Message.Id)
		if rm.From != nil && !seenUsers[rm.From.Id] {
			seenUsers[rm.From.Id] = true
			chunk.UserIds = append(chunk.UserIds, rm.From.Id)
		}
		if rm.Media != nil && !seenMedia[rm.Media.FileUniqueId] {
			seenMedia[rm.Media.FileUniqueId] = true
			chunk.MediaIds = append(chunk.MediaIds, rm.Media.FileUniqueId)
		}
	}

	chunk, err = c.chunks.AddChunk(ctx, chunk)
	if err != nil {
		return nil, err
	}

	c.submitEmbedding(chunk.Id, chunk.ChunkText)
	return chunk, nil
}

// submitEmbedding schedules async vector computation for a chunk.
// Errors are logged and never propagate to the ingestion path.
func (c *Chunker) submitEmbedding(id core.ID, text string) {
	if c.embedder == nil {
		return
	}
	err := c.pool.Submit(func() {
		vector, err := c.embedder.EmbedText(context.Background(), text)
		if err != nil {
			c.logger.Error("error embedding chunk", "chunk", id, "err", err)
			return
		}
		if err := c.chunks.UpdateChunkVector(context.Background(), id, vector); err != nil {
			c.logger.Error("error storing chunk vector", "chunk", id, "err", err)
		}
	})
	if err != nil {
		c.logger.Error("error submitting chunk for embedding", "chunk", id, "err", err)
	}
}
