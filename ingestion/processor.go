package ingestion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/viannik/memoria-tg-bot/core"
	"github.com/viannik/memoria-tg-bot/storage"
)

// Processor persists one inbound message into the entity graph and triggers
// an incremental chunk refresh for its chat. Messages of the same chat are
// serialized so concurrent refreshes never race on the latest-chunk read;
// different chats proceed independently.
type Processor struct {
	users    storage.UserRepository
	chats    storage.ChatRepository
	media    storage.MediaRepository
	messages storage.MessageRepository
	chunker  *Chunker
	logger   *slog.Logger

	mu        sync.Mutex
	chatLocks map[int64]*sync.Mutex
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithProcessorLogger sets a custom logger.
// Default is slog.Default().
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
	}
}

// NewProcessor creates a new Processor.
func NewProcessor(
	users storage.UserRepository,
	chats storage.ChatRepository,
	media storage.MediaRepository,
	messages storage.MessageRepository,
	chunker *Chunker,
	opts ...ProcessorOption,
) (*Processor, error) {
	if users == nil {
		return nil, ErrUserRepositoryRequired
	}
	if chats == nil {
		return nil, ErrChatRepositoryRequired
	}
	if media == nil {
		return nil, ErrMediaRepositoryRequired
	}
	if messages == nil {
		return nil, ErrMessageRepositoryRequired
	}
	if chunker == nil {
		return nil, ErrChunkerRequired
	}

	p := &Processor{
		users:     users,
		chats:     chats,
		media:     media,
		messages:  messages,
		chunker:   chunker,
		logger:    slog.Default(),
		chatLocks: make(map[int64]*sync.Mutex),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// chatLock returns the serialization mutex for one chat, creating it on
// first use. Locks are never removed; the map grows with the number of
// distinct chats seen, which is small in practice.
func (p *Processor) chatLock(chatId int64) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.chatLocks[chatId]
	if !ok {
		lock = &sync.Mutex{}
		p.chatLocks[chatId] = lock
	}
	return lock
}

// Process ingests one inbound message: get-or-creates its sender, chat and
// media rows, upserts the message keyed by its (chat, id) identity, then
// refreshes the chat's latest chunk. Ingesting a duplicate identity is a
// no-op that returns the stored row.
//
// Failures resolving the optional media attachment degrade to an absent
// relation; failures on the mandatory sender or chat are returned. Chunk
// refresh errors are logged and swallowed so the triggering message is
// never rolled back.
func (p *Processor) Process(ctx context.Context, in *InboundMessage) (*core.Message, error) {
	lock := p.chatLock(in.Chat.Id)
	lock.Lock()
	defer lock.Unlock()

	if _, _, err := p.users.GetOrCreateUser(ctx, &core.User{
		Id:           in.From.Id,
		FirstName:    in.From.FirstName,
		LastName:     in.From.LastName,
		Username:     in.From.Username,
		LanguageCode: in.From.LanguageCode,
	}); err != nil {
		return nil, err
	}

	if _, _, err := p.chats.GetOrCreateChat(ctx, &core.Chat{
		Id:       in.Chat.Id,
		Type:     in.Chat.Type,
		Title:    in.Chat.Title,
		Username: in.Chat.Username,
	}); err != nil {
		return nil, err
	}

	mediaId := ""
	if in.Media != nil {
		stored, _, err := p.media.GetOrCreateMedia(ctx, &core.Media{
			FileUniqueId: in.Media.FileUniqueId,
			MediaType:    in.Media.MediaType,
			FileId:       in.Media.FileId,
			Caption:      in.Media.Caption,
			MimeType:     in.Media.MimeType,
			FileSize:     in.Media.FileSize,
			Width:        in.Media.Width,
			Height:       in.Media.Height,
			Duration:     in.Media.Duration,
		})
		if err != nil {
			p.logger.Warn("media resolution failed, storing message without attachment",
				"chat", in.Chat.Id, "message", in.Id, "err", err)
		} else {
			mediaId = stored.FileUniqueId
		}
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	msg, created, err := p.messages.GetOrCreateMessage(ctx, &core.Message{
		Id:                   in.Id,
		ChatId:               in.Chat.Id,
		FromUserId:           in.From.Id,
		Date:                 date,
		Text:                 in.Text,
		Entities:             in.Entities,
		MediaId:              mediaId,
		ReplyToMessageId:     in.ReplyToMessageId,
		ForwardFromUserId:    in.ForwardFromUserId,
		ForwardFromChatId:    in.ForwardFromChatId,
		ForwardFromMessageId: in.ForwardFromMessageId,
		ForwardSenderName:    in.ForwardSenderName,
	})
	if err != nil {
		return nil, err
	}

	if created {
		if err := p.chunker.RefreshLatest(ctx, in.Chat.Id); err != nil {
			p.logger.Error("chunk refresh failed", "chat", in.Chat.Id, "err", err)
		}
	}

	return msg, nil
}
