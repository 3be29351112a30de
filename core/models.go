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


package core

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for derived entities (chunks) and for
// content-hashed index components. Chats, users and messages keep the
// integer identities assigned by the messaging platform.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs. It is used to give
// string-keyed entities (media file tokens) a fixed-width identity in index keys.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Chat is a conversation the bot participates in. Created lazily on the first
// message seen from it and never updated in place afterwards.
type Chat struct {
	Id         int64
	Type       string
	Title      string
	Username   string
	InsertedAt time.Time
}

// User is a message sender. Same lazy-creation policy as Chat.
type User struct {
	Id           int64
	FirstName    string
	LastName     string
	Username     string
	LanguageCode string
	InsertedAt   time.Time
}

// FullName returns the user's display name built from the name fields.
// Returns an empty string when both name fields are empty.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.LastName
	}
}

// Label returns the preferred human-readable identifier for the user:
// username if present, else full name, else the raw integer id.
func (u *User) Label() string {
	if u.Username != "" {
		return u.Username
	}
	if name := u.FullName(); name != "" {
		return name
	}
	return strconv.FormatInt(u.Id, 10)
}

// Media is a file attachment. Its identity is the provider-assigned unique
// file token, which is stable across re-imports. At most one Media per Message.
type Media struct {
	FileUniqueId string
	MediaType    string
	FileId       string
	Caption      string
	MimeType     string
	FileSize     int64
	Width        int
	Height       int
	Duration     int
	InsertedAt   time.Time
}

// MessageEntity is one element of a message's structured formatting.
// Offset and Length are measured in runes over the message text.
type MessageEntity struct {
	Type          string
	Offset        int
	Length        int
	URL           string
	UserId        int64
	Language      string
	CustomEmojiId string
}

// Message is one chat message with its cross-references. Message ids are
// assigned per chat by the upstream protocol and are not globally unique,
// so the storage identity is the (ChatId, Id) pair.
//
// All relation fields hold identities, not handles; a referenced message may
// not exist in the store yet (a forward or reply target imported later), and
// lookups resolve such references to absent rather than fail.
type Message struct {
	Id         int64
	ChatId     int64
	FromUserId int64
	Date       time.Time
	Text       string
	Entities   []MessageEntity

	// MediaId is the file token of the single attachment, empty if none.
	MediaId string

	// Self-referential links, 0 when absent.
	ReplyToMessageId     int64
	ForwardFromUserId    int64
	ForwardFromChatId    int64
	ForwardFromMessageId int64

	// ForwardSenderName is the free-text fallback when the forwarded origin
	// cannot be resolved to an entity.
	ForwardSenderName string

	InsertedAt time.Time
}

// ResolvedMessage is a Message together with its prefetched graph neighbors.
// Absent relations are nil. Built by MessageRepository.ResolveMessages and
// consumed by the formatter, which performs no I/O of its own.
type ResolvedMessage struct {
	Message         *Message
	From            *User
	Chat            *Chat
	ForwardFromUser *User
	ForwardFromChat *Chat
	ReplyTo         *Message
	ReplyFrom       *User
	Media           *Media
}

// ChunkEmbedding is a derived artifact: a fixed-size sliding window over one
// chat's message history, materialized as text plus metadata for the
// embedding subsystem.
//
// Member relations are set once at creation and never mutated afterwards;
// a stale chunk is deleted and recreated wholesale, not edited. Vector is
// nil until the external embedding collaborator computes it.
type ChunkEmbedding struct {
	Id        ID
	ChatId    int64
	ChunkText string
	Vector    []float32
	FromTime  time.Time
	ToTime    time.Time

	// Many-to-many member relations: the window's messages, the distinct
	// users who authored them and the distinct media attached to them.
	MessageIds []int64
	UserIds    []int64
	MediaIds   []string

	InsertedAt time.Time
}

// String returns a short description for logging.
func (c *ChunkEmbedding) String() string {
	text := c.ChunkText
	if len(text) > 50 {
		text = text[:50] + "..."
	}
	return "Chunk " + strconv.FormatUint(uint64(c.Id), 10) + ": " + strings.ReplaceAll(text, "\n", " ")
}

// ChunkScope narrows a vector search to one chat and/or one member user.
// Zero values leave the corresponding dimension unscoped.
type ChunkScope struct {
	ChatId int64
	UserId int64
}

// Matches reports whether the chunk falls inside the scope.
func (s ChunkScope) Matches(chunk *ChunkEmbedding) bool {
	if s.ChatId != 0 && chunk.ChatId != s.ChatId {
		return false
	}
	if s.UserId != 0 {
		found := false
		for _, id := range chunk.UserIds {
			if id == s.UserId {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ChunkMatch is a chunk with its similarity score from a vector search.
type ChunkMatch struct {
	Chunk *ChunkEmbedding
	Score float32
}
