package telegram

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viannik/memoria-tg-bot/core"
)

func TestPeerID_Unmarshal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want PeerID
	}{
		{"user prefix", `"user123"`, PeerID{Id: 123, Valid: true}},
		{"channel prefix", `"channel456"`, PeerID{Id: 456, IsChannel: true, Valid: true}},
		{"raw integer", `789`, PeerID{Id: 789, Valid: true}},
		{"negative integer", `-100987`, PeerID{Id: -100987, Valid: true}},
		{"bare numeric string", `"42"`, PeerID{Id: 42, Valid: true}},
		{"null", `null`, PeerID{}},
		{"garbage string", `"usersmith"`, PeerID{}},
		{"empty string", `""`, PeerID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got PeerID
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTextField_Unmarshal(t *testing.T) {
	t.Run("plain string", func(t *testing.T) {
		var tf TextField
		require.NoError(t, json.Unmarshal([]byte(`"hello world"`), &tf))
		require.Len(t, tf, 1)
		assert.Equal(t, TextSegment{Text: "hello world", Type: "plain"}, tf[0])
	})

	t.Run("empty string", func(t *testing.T) {
		var tf TextField
		require.NoError(t, json.Unmarshal([]byte(`""`), &tf))
		assert.Empty(t, tf)
	})

	t.Run("mixed list", func(t *testing.T) {
		raw := `["see ", {"type": "bold", "text": "this"}, {"type": "text_link", "text": "link", "href": "https://example.com"}]`
		var tf TextField
		require.NoError(t, json.Unmarshal([]byte(raw), &tf))
		require.Len(t, tf, 3)
		assert.Equal(t, "plain", tf[0].Type)
		assert.Equal(t, "see ", tf[0].Text)
		assert.Equal(t, "bold", tf[1].Type)
		assert.Equal(t, "https://example.com", tf[2].Href)
	})

	t.Run("null", func(t *testing.T) {
		var tf TextField
		require.NoError(t, json.Unmarshal([]byte(`null`), &tf))
		assert.Empty(t, tf)
	})
}

func TestTextField_BuildText(t *testing.T) {
	tf := TextField{
		{Text: "see ", Type: "plain"},
		{Text: "это", Type: "bold"},
		{Text: " and ", Type: "plain"},
		{Text: "link", Type: "text_link", Href: "https://example.com"},
	}

	text, entities := tf.BuildText()
	assert.Equal(t, "see это and link", text)
	require.Len(t, entities, 2)

	// Offsets count runes, not bytes: "это" is 3 runes at offset 4.
	assert.Equal(t, core.MessageEntity{Type: "bold", Offset: 4, Length: 3}, entities[0])
	assert.Equal(t, core.MessageEntity{
		Type: "text_link", Offset: 12, Length: 4, URL: "https://example.com",
	}, entities[1])
}

func TestExport_ChatId(t *testing.T) {
	tests := []struct {
		name string
		id   int64
		want int64
	}{
		{"positive supergroup id gains -100 prefix", 1234567890, -1001234567890},
		{"negative id passes through", -1001234567890, -1001234567890},
		{"zero passes through", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Export{Id: tt.id}
			assert.Equal(t, tt.want, e.ChatId())
		})
	}
}

func TestExportMessage_Date(t *testing.T) {
	m := &ExportMessage{DateUnixtime: "1738406400"}
	date, ok := m.Date()
	require.True(t, ok)
	assert.Equal(t, int64(1738406400), date.Unix())

	m = &ExportMessage{DateUnixtime: "not-a-number"}
	_, ok = m.Date()
	assert.False(t, ok)

	m = &ExportMessage{}
	_, ok = m.Date()
	assert.False(t, ok)
}

func TestExportMessage_MediaPrefix(t *testing.T) {
	assert.Equal(t, "", (&ExportMessage{}).MediaPrefix())
	assert.Equal(t, "(photo)", (&ExportMessage{Photo: json.RawMessage(`"photos/file_1.jpg"`)}).MediaPrefix())
	assert.Equal(t, "(voice_message)", (&ExportMessage{MediaType: "voice_message"}).MediaPrefix())
}

func TestExportMessage_Segments(t *testing.T) {
	m := &ExportMessage{
		Text:         TextField{{Text: "fallback", Type: "plain"}},
		TextEntities: TextField{{Text: "preferred", Type: "plain"}},
	}
	text, _ := m.Segments().BuildText()
	assert.Equal(t, "preferred", text)

	m.TextEntities = nil
	text, _ = m.Segments().BuildText()
	assert.Equal(t, "fallback", text)
}
