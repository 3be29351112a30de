package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/viannik/memoria-tg-bot/core"
	"github.com/viannik/memoria-tg-bot/storage"
)

const defaultBatchSize = 5000

// Report summarizes one import run.
type Report struct {
	// Imported is the number of newly persisted messages.
	Imported int

	// Existing is the number of records skipped because the chat already
	// held a message with that id.
	Existing int

	// UsersCreated is the number of sender rows created during the run.
	UsersCreated int

	// Skipped is the number of malformed or senderless records dropped.
	Skipped int
}

// Importer performs one-shot bulk imports of chat history export files.
// Designed for large backfills: senders are cached up front, already-stored
// message ids are fetched in one query and records are written in
// transactional batches with a per-record fallback.
//
// The importer only persists the entity graph. Chunking a freshly imported
// chat is a separate bulk pass, run after the import completes.
type Importer struct {
	users     storage.UserRepository
	chats     storage.ChatRepository
	messages  storage.MessageRepository
	batchSize int
	poolSize  int
	logger    *slog.Logger
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer) error

// WithBatchSize sets the number of records per transactional write.
// Default is 5000.
func WithBatchSize(size int) ImporterOption {
	return func(i *Importer) error {
		if size < 1 {
			return fmt.Errorf("batch size must be positive, got %d", size)
		}
		i.batchSize = size
		return nil
	}
}

// WithPoolSize sets the worker pool size for per-record transformation.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) ImporterOption {
	return func(i *Importer) error {
		if size < 1 {
			size = 1
		}
		i.poolSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ImporterOption {
	return func(i *Importer) error {
		if logger == nil {
			logger = slog.Default()
		}
		i.logger = logger
		return nil
	}
}

// NewImporter creates a new Importer.
func NewImporter(
	users storage.UserRepository,
	chats storage.ChatRepository,
	messages storage.MessageRepository,
	opts ...ImporterOption,
) (*Importer, error) {
	if users == nil {
		return nil, ErrUserRepositoryRequired
	}
	if chats == nil {
		return nil, ErrChatRepositoryRequired
	}
	if messages == nil {
		return nil, ErrMessageRepositoryRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	imp := &Importer{
		users:     users,
		chats:     chats,
		messages:  messages,
		batchSize: defaultBatchSize,
		poolSize:  poolSize,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(imp); err != nil {
			return nil, err
		}
	}

	return imp, nil
}

// Run imports the export file at path. Re-running over the same file is
// idempotent: records whose message id is already stored for the chat are
// counted as existing and not rewritten.
func (imp *Importer) Run(ctx context.Context, path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export file: %w", err)
	}

	var export Export
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse export file: %w", err)
	}

	return imp.ImportExport(ctx, &export)
}

// ImportExport imports an already-parsed export document.
func (imp *Importer) ImportExport(ctx context.Context, export *Export) (*Report, error) {
	report := &Report{}
	chatId := export.ChatId()

	records := make([]*ExportMessage, 0, len(export.Messages))
	for _, raw := range export.Messages {
		var rec ExportMessage
		if err := json.Unmarshal(raw, &rec); err != nil {
			report.Skipped++
			continue
		}
		if rec.Type != "message" {
			continue
		}
		if rec.Id == 0 {
			imp.logger.Warn("record missing message id, skipping", "chat", chatId)
			report.Skipped++
			continue
		}
		records = append(records, &rec)
	}
	if len(records) == 0 {
		return nil, ErrNoMessages
	}

	chatType := export.Type
	if chatType == "" {
		chatType = "private"
	}
	if _, created, err := imp.chats.GetOrCreateChat(ctx, &core.Chat{
		Id:    chatId,
		Type:  chatType,
		Title: export.Name,
	}); err != nil {
		return nil, fmt.Errorf("failed to resolve chat %d: %w", chatId, err)
	} else if created {
		imp.logger.Info("created chat", "chat", chatId, "title", export.Name)
	}

	userCache, err := imp.preloadUsers(ctx, records)
	if err != nil {
		return nil, err
	}

	existing, err := imp.existingIDs(ctx, chatId)
	if err != nil {
		return nil, err
	}

	fresh := records[:0]
	for _, rec := range records {
		if existing[rec.Id] {
			report.Existing++
			continue
		}
		fresh = append(fresh, rec)
	}
	imp.logger.Info("import plan",
		"chat", chatId, "new", len(fresh), "existing", report.Existing)

	pool, err := ants.NewPool(imp.poolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	for start := 0; start < len(fresh); start += imp.batchSize {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		end := start + imp.batchSize
		if end > len(fresh) {
			end = len(fresh)
		}
		imp.importBatch(ctx, pool, fresh[start:end], chatId, userCache, report)
	}

	imp.logger.Info("import finished", "chat", chatId,
		"imported", report.Imported, "existing", report.Existing,
		"users_created", report.UsersCreated, "skipped", report.Skipped)
	return report, nil
}

// preloadUsers fetches every distinct sender already stored, so the batch
// loop only touches the user repository for senders seen for the first time.
func (imp *Importer) preloadUsers(ctx context.Context, records []*ExportMessage) (map[int64]bool, error) {
	distinct := make(map[int64]bool)
	var ids []int64
	for _, rec := range records {
		if rec.FromId.Valid && !distinct[rec.FromId.Id] {
			distinct[rec.FromId.Id] = true
			ids = append(ids, rec.FromId.Id)
		}
	}

	cache := make(map[int64]bool, len(ids))
	users, err := imp.users.GetUsers(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("failed to preload users: %w", err)
	}
	for _, user := range users {
		cache[user.Id] = true
	}
	return cache, nil
}

// existingIDs fetches the chat's stored message ids in one index pass.
func (imp *Importer) existingIDs(ctx context.Context, chatId int64) (map[int64]bool, error) {
	ids, err := imp.messages.GetMessageIDs(ctx, chatId)
	if err != nil {
		return nil, fmt.Errorf("failed to list existing messages: %w", err)
	}
	existing := make(map[int64]bool, len(ids))
	for _, id := range ids {
		existing[id] = true
	}
	return existing, nil
}

// importBatch transforms one batch of records on the worker pool, creates
// any first-seen senders, then persists the batch in a single transaction.
// If the bulk write fails the batch falls back to per-record writes;
// per-record failures are logged and excluded from the success count.
func (imp *Importer) importBatch(
	ctx context.Context,
	pool *ants.Pool,
	batch []*ExportMessage,
	chatId int64,
	userCache map[int64]bool,
	report *Report,
) {
	results := make([]*core.Message, len(batch))
	var wg sync.WaitGroup
	for i, rec := range batch {
		i, rec := i, rec
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i] = imp.transform(rec, chatId)
		}
		if err := pool.Submit(task); err != nil {
			// Pool rejected the task, transform inline.
			task()
		}
	}
	wg.Wait()

	msgs := make([]*core.Message, 0, len(results))
	for _, msg := range results {
		if msg == nil {
			report.Skipped++
			continue
		}
		if !userCache[msg.FromUserId] {
			_, created, err := imp.users.GetOrCreateUser(ctx, &core.User{Id: msg.FromUserId})
			if err != nil {
				imp.logger.Warn("failed to create sender, skipping message",
					"user", msg.FromUserId, "message", msg.Id, "err", err)
				report.Skipped++
				continue
			}
			userCache[msg.FromUserId] = true
			if created {
				report.UsersCreated++
			}
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return
	}

	_, err := imp.messages.AddMessages(ctx, msgs...)
	if err == nil {
		report.Imported += len(msgs)
		return
	}
	imp.logger.Error("batch write failed, falling back to per-record writes",
		"chat", chatId, "batch_size", len(msgs), "err", err)

	for _, msg := range msgs {
		_, created, err := imp.messages.GetOrCreateMessage(ctx, msg)
		if err != nil {
			imp.logger.Error("failed to write message", "chat", chatId, "message", msg.Id, "err", err)
			continue
		}
		if created {
			report.Imported++
		} else {
			report.Existing++
		}
	}
}

// transform converts one export record into a message row. Returns nil for
// records without a resolvable sender; those are dropped, matching the
// best-effort contract of the import.
func (imp *Importer) transform(rec *ExportMessage, chatId int64) *core.Message {
	if !rec.FromId.Valid {
		imp.logger.Warn("record has no valid sender, skipping", "chat", chatId, "message", rec.Id)
		return nil
	}

	text, entities := rec.Segments().BuildText()

	if prefix := rec.MediaPrefix(); prefix != "" {
		text = prefix + " " + text
		// Entity offsets no longer line up with the prefixed text; the
		// annotation is for display, so the entities are dropped.
		entities = nil
	}

	forwardSenderName := ""
	if rec.FromId.IsChannel {
		forwardSenderName = rec.From
	} else if rec.ForwardedFrom != "" {
		forwardSenderName = rec.ForwardedFrom
		text = "(forwarded from " + forwardSenderName + "): " + text
		entities = nil
	}

	date, ok := rec.Date()
	if !ok {
		imp.logger.Warn("record has malformed date, using import time",
			"chat", chatId, "message", rec.Id)
		date = time.Now().UTC()
	}

	return &core.Message{
		Id:                rec.Id,
		ChatId:            chatId,
		FromUserId:        rec.FromId.Id,
		Date:              date,
		Text:              text,
		Entities:          entities,
		ReplyToMessageId:  rec.ReplyToMessageId,
		ForwardSenderName: forwardSenderName,
	}
}
