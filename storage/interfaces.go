package storage

import (
	"context"
	"time"

	"github.com/viannik/memoria-tg-bot/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the repository and releases resources.
	Close() error
}

// UserRepository provides operations for managing users.
type UserRepository interface {
	Repository

	// GetOrCreateUser returns the user with the given id, creating it from
	// the provided defaults if it does not exist. Existing rows are never
	// overwritten. Returns the stored user and whether it was created.
	// Safe under concurrent creation attempts for the same id.
	GetOrCreateUser(ctx context.Context, user *core.User) (*core.User, bool, error)

	// GetUser retrieves a single user by id.
	// Returns ErrNotFound if the user doesn't exist.
	GetUser(ctx context.Context, id int64) (*core.User, error)

	// GetUsers retrieves multiple users by their ids.
	// Returns only the users that exist (no error for missing users).
	GetUsers(ctx context.Context, ids ...int64) ([]*core.User, error)
}

// ChatRepository provides operations for managing chats.
type ChatRepository interface {
	Repository

	// GetOrCreateChat returns the chat with the given id, creating it from
	// the provided defaults if it does not exist. Existing rows are never
	// overwritten. Returns the stored chat and whether it was created.
	GetOrCreateChat(ctx context.Context, chat *core.Chat) (*core.Chat, bool, error)

	// GetChat retrieves a single chat by id.
	// Returns ErrNotFound if the chat doesn't exist.
	GetChat(ctx context.Context, id int64) (*core.Chat, error)
}

// MediaRepository provides operations for managing media attachments.
type MediaRepository interface {
	Repository

	// GetOrCreateMedia returns the media with the given file token, creating
	// it from the provided defaults if it does not exist. The token is stable
	// across re-imports, so repeated ingestion converges on one row.
	GetOrCreateMedia(ctx context.Context, media *core.Media) (*core.Media, bool, error)

	// GetMedia retrieves a single media row by its file token.
	// Returns ErrNotFound if it doesn't exist.
	GetMedia(ctx context.Context, fileUniqueId string) (*core.Media, error)
}

// MessageRepository provides operations for managing messages.
// Messages are keyed by the (chat id, message id) pair; message ids alone
// are not globally unique across chats.
type MessageRepository interface {
	Repository

	// AddMessages persists one or more messages in a single transaction.
	// Sets InsertedAt on each message. The whole batch fails together;
	// callers that need partial progress fall back to per-message writes.
	AddMessages(ctx context.Context, msgs ...*core.Message) ([]*core.Message, error)

	// GetOrCreateMessage returns the message with the given (chat, id)
	// identity, creating it if absent. If the message already exists the
	// stored row is returned unchanged and created is false; ingestion of
	// a duplicate is a no-op, not an update.
	GetOrCreateMessage(ctx context.Context, msg *core.Message) (*core.Message, bool, error)

	// GetMessage retrieves a single message by chat id and message id.
	// Returns ErrNotFound if it doesn't exist.
	GetMessage(ctx context.Context, chatId, id int64) (*core.Message, error)

	// GetMessageIDs returns the ids of all messages stored for a chat,
	// in one pass over the index. Used by the bulk importer to skip
	// already-imported ranges.
	GetMessageIDs(ctx context.Context, chatId int64) ([]int64, error)

	// GetRecentMessages retrieves the chat's most recent messages by
	// timestamp, returned in ascending timestamp order. Fetches a bounded
	// tail of at most limit messages.
	GetRecentMessages(ctx context.Context, chatId int64, limit int) ([]*core.Message, error)

	// CountMessagesAfter counts the chat's messages with a timestamp
	// strictly newer than after.
	CountMessagesAfter(ctx context.Context, chatId int64, after time.Time) (int, error)

	// GetUnchunkedMessages retrieves the chat's messages with zero chunk
	// associations, ordered by timestamp ascending.
	GetUnchunkedMessages(ctx context.Context, chatId int64) ([]*core.Message, error)

	// GetChatIDs returns the ids of all chats that have at least one
	// stored message.
	GetChatIDs(ctx context.Context) ([]int64, error)

	// ResolveMessages prefetches the graph neighbors of the given messages:
	// sender, chat, forward origins, reply target (with its sender) and
	// media. Unresolvable optional relations are left nil, never an error.
	ResolveMessages(ctx context.Context, msgs ...*core.Message) ([]*core.ResolvedMessage, error)
}

// ChunkRepository provides operations for managing chunk embeddings.
// Chunk member associations are append-only: they are set once at creation
// and removed only by whole-chunk deletion.
type ChunkRepository interface {
	Repository

	// AddChunk persists a chunk and its member associations in a single
	// transaction. For chunks with Id=0, generates a new id from sequence.
	// Sets InsertedAt. Returns the chunk with id and timestamp populated.
	AddChunk(ctx context.Context, chunk *core.ChunkEmbedding) (*core.ChunkEmbedding, error)

	// GetChunk retrieves a single chunk by id.
	// Returns ErrNotFound if it doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.ChunkEmbedding, error)

	// GetChunksByChat retrieves all chunks of a chat ordered by to_time
	// ascending.
	GetChunksByChat(ctx context.Context, chatId int64) ([]*core.ChunkEmbedding, error)

	// GetLatestChunk retrieves the chat's most recent chunk by to_time.
	// Returns ErrNotFound if the chat has no chunks.
	GetLatestChunk(ctx context.Context, chatId int64) (*core.ChunkEmbedding, error)

	// GetChunksByUser returns the ids of chunks whose member users include
	// the given user.
	GetChunksByUser(ctx context.Context, userId int64) ([]core.ID, error)

	// GetAllChunks retrieves every stored chunk. Used by the reembedding
	// pipeline.
	GetAllChunks(ctx context.Context) ([]*core.ChunkEmbedding, error)

	// UpdateChunkVector stores the embedding vector for a chunk. This is
	// the only permitted mutation of an existing chunk.
	UpdateChunkVector(ctx context.Context, id core.ID, vector []float32) error

	// DeleteChunk removes a chunk and all its member associations.
	// Returns ErrNotFound if the chunk doesn't exist.
	DeleteChunk(ctx context.Context, id core.ID) error

	// FindSimilar finds chunks similar to the given vector, restricted to
	// the given scope. Returns chunks with similarity >= minSimilarity, up
	// to limit results, ordered by similarity score (highest first).
	// Chunks without a computed vector are skipped.
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int, scope core.ChunkScope) ([]*core.ChunkMatch, error)
}
