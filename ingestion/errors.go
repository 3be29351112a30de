package ingestion

import "errors"

var (
	// ErrUserRepositoryRequired is returned when a user repository is not provided.
	ErrUserRepositoryRequired = errors.New("user repository required")

	// ErrChatRepositoryRequired is returned when a chat repository is not provided.
	ErrChatRepositoryRequired = errors.New("chat repository required")

	// ErrMediaRepositoryRequired is returned when a media repository is not provided.
	ErrMediaRepositoryRequired = errors.New("media repository required")

	// ErrMessageRepositoryRequired is returned when a message repository is not provided.
	ErrMessageRepositoryRequired = errors.New("message repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrChunkerRequired is returned when a chunker is not provided.
	ErrChunkerRequired = errors.New("chunker required")

	// ErrInvalidChunkConfig is returned for a chunk size/overlap combination
	// that cannot produce valid windows.
	ErrInvalidChunkConfig = errors.New("invalid chunk config")
)
