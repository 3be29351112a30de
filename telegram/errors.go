package telegram

import "errors"

var (
	// ErrUserRepositoryRequired is returned when constructing an importer
	// without a user repository.
	ErrUserRepositoryRequired = errors.New("user repository is required")

	// ErrChatRepositoryRequired is returned when constructing an importer
	// without a chat repository.
	ErrChatRepositoryRequired = errors.New("chat repository is required")

	// ErrMessageRepositoryRequired is returned when constructing an importer
	// without a message repository.
	ErrMessageRepositoryRequired = errors.New("message repository is required")

	// ErrNoMessages is returned when the export file contains no importable
	// message records.
	ErrNoMessages = errors.New("export contains no messages")
)
