package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viannik/memoria-tg-bot/core"
)

func TestMarshalUnmarshalChat(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name string
		chat *core.Chat
	}{
		{
			name: "private chat",
			chat: &core.Chat{
				Id:         12345,
				Type:       "private",
				InsertedAt: now,
			},
		},
		{
			name: "supergroup with title and username",
			chat: &core.Chat{
				Id:         -1001234567890,
				Type:       "supergroup",
				Title:      "Weekend Plans",
				Username:   "weekendplans",
				InsertedAt: now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalChat(tt.chat)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalChat(data)
			require.NoError(t, err)
			assert.Equal(t, tt.chat, decoded)
		})
	}
}

func TestMarshalUnmarshalUser(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	user := &core.User{
		Id:           987654,
		FirstName:    "Grace",
		LastName:     "Hopper",
		Username:     "ghopper",
		LanguageCode: "en",
		InsertedAt:   now,
	}

	data := MarshalUser(user)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalUser(data)
	require.NoError(t, err)
	assert.Equal(t, user, decoded)
}

func TestMarshalUnmarshalMedia(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name  string
		media *core.Media
	}{
		{
			name: "photo",
			media: &core.Media{
				FileUniqueId: "AQADAgADx8",
				MediaType:    "photo",
				FileId:       "AgACAgIAAxkBAAIB",
				Caption:      "sunset over the bay",
				Width:        1280,
				Height:       960,
				FileSize:     204800,
				InsertedAt:   now,
			},
		},
		{
			name: "voice note",
			media: &core.Media{
				FileUniqueId: "AgADkQcAAl",
				MediaType:    "voice",
				FileId:       "AwACAgIAAxkBAAIC",
				MimeType:     "audio/ogg",
				Duration:     17,
				FileSize:     34567,
				InsertedAt:   now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalMedia(tt.media)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalMedia(data)
			require.NoError(t, err)
			assert.Equal(t, tt.media, decoded)
		})
	}
}

func TestMarshalUnmarshalMessage(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name string
		msg  *core.Message
	}{
		{
			name: "plain text",
			msg: &core.Message{
				Id:         100,
				ChatId:     -1001234567890,
				FromUserId: 987654,
				Date:       now,
				Text:       "see you at noon",
				InsertedAt: now,
			},
		},
		{
			name: "entities and forward",
			msg: &core.Message{
				Id:         101,
				ChatId:     -1001234567890,
				FromUserId: 987654,
				Date:       now,
				Text:       "check this link out",
				Entities: []core.MessageEntity{
					{Type: "bold", Offset: 0, Length: 5},
					{Type: "text_link", Offset: 11, Length: 4, URL: "https://example.com"},
				},
				ReplyToMessageId:     99,
				ForwardFromUserId:    111222,
				ForwardFromMessageId: 7,
				ForwardSenderName:    "Deleted Account",
				InsertedAt:           now,
			},
		},
		{
			name: "media reference",
			msg: &core.Message{
				Id:         102,
				ChatId:     12345,
				FromUserId: 987654,
				Date:       now,
				MediaId:    "AQADAgADx8",
				InsertedAt: now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalMessage(tt.msg)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalMessage(data)
			require.NoError(t, err)
			assert.Equal(t, tt.msg, decoded)
		})
	}
}

func TestMarshalUnmarshalChunk(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name  string
		chunk *core.ChunkEmbedding
	}{
		{
			name: "without vector",
			chunk: &core.ChunkEmbedding{
				Id:         core.ID(1),
				ChatId:     -1001234567890,
				ChunkText:  "01.02.2026 10:00 ghopper: hello\n01.02.2026 10:01 ada: hi",
				FromTime:   now.Add(-time.Hour),
				ToTime:     now,
				MessageIds: []int64{100, 101},
				UserIds:    []int64{987654, 111222},
				InsertedAt: now,
			},
		},
		{
			name: "with vector and media",
			chunk: &core.ChunkEmbedding{
				Id:         core.ID(2),
				ChatId:     12345,
				ChunkText:  "01.02.2026 10:02 ghopper: <photo> sunset",
				Vector:     []float32{0.125, -0.5, 0.75, 0.0625},
				FromTime:   now,
				ToTime:     now,
				MessageIds: []int64{102},
				UserIds:    []int64{987654},
				MediaIds:   []string{"AQADAgADx8"},
				InsertedAt: now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalChunk(tt.chunk)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalChunk(data)
			require.NoError(t, err)
			assert.Equal(t, tt.chunk, decoded)
		})
	}
}

func TestUnmarshalChunk_Truncated(t *testing.T) {
	chunk := &core.ChunkEmbedding{
		Id:         core.ID(1),
		ChatId:     12345,
		ChunkText:  "some text",
		FromTime:   time.Now().UTC(),
		ToTime:     time.Now().UTC(),
		MessageIds: []int64{1, 2, 3},
	}
	data := MarshalChunk(chunk)

	_, err := UnmarshalChunk(data[:len(data)/2])
	assert.Error(t, err)
}
