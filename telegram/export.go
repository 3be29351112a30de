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


package telegram

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/viannik/memoria-tg-bot/core"
)

// Export is the top-level document of a chat history export file. Messages
// are kept raw so one malformed record does not fail the whole document.
type Export struct {
	Id       int64             `json:"id"`
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Messages []json.RawMessage `json:"messages"`
}

// ChatId returns the canonical chat id for the export. Export files carry
// positive ids for supergroups and channels; the live protocol identifies
// the same chats with a -100 prefix, so positive ids are normalized to that
// form to keep both ingestion paths in one identity space.
func (e *Export) ChatId() int64 {
	if e.Id > 0 {
		if id, err := strconv.ParseInt("-100"+strconv.FormatInt(e.Id, 10), 10, 64); err == nil {
			return id
		}
	}
	return e.Id
}

// PeerID decodes the from_id field, which is either a raw integer or a
// string with a "user" or "channel" prefix before the numeric id. Both
// kinds resolve to the same integer identity space, so an exported channel
// sender and a live participant with the same number collide on purpose.
// Malformed values decode as not Valid rather than failing the record.
type PeerID struct {
	Id        int64
	IsChannel bool
	Valid     bool
}

func (p *PeerID) UnmarshalJSON(data []byte) error {
	*p = PeerID{}
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] != '"' {
		var n int64
		if err := json.Unmarshal(data, &n); err != nil {
			return nil
		}
		p.Id, p.Valid = n, true
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "user"):
		s = s[len("user"):]
	case strings.HasPrefix(s, "channel"):
		s = s[len("channel"):]
		p.IsChannel = true
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		*p = PeerID{}
		return nil
	}
	p.Id, p.Valid = n, true
	return nil
}

// TextSegment is one element of a segmented message text.
type TextSegment struct {
	Text          string `json:"text"`
	Type          string `json:"type"`
	Href          string `json:"href"`
	UserId        int64  `json:"user_id"`
	Language      string `json:"language"`
	CustomEmojiId string `json:"custom_emoji_id"`
}

// TextField decodes the text field, which is either a plain string or an
// ordered list mixing bare strings and formatted segments. A plain string
// and a bare list element both become a single "plain" segment.
type TextField []TextSegment

func (t *TextField) UnmarshalJSON(data []byte) error {
	*t = nil
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != "" {
			*t = TextField{{Text: s, Type: "plain"}}
		}
		return nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	segments := make(TextField, 0, len(raws))
	for _, raw := range raws {
		if len(raw) > 0 && raw[0] == '"' {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				continue
			}
			segments = append(segments, TextSegment{Text: s, Type: "plain"})
			continue
		}
		var seg TextSegment
		if err := json.Unmarshal(raw, &seg); err != nil {
			continue
		}
		segments = append(segments, seg)
	}
	*t = segments
	return nil
}

// BuildText flattens the segments into the full message text plus the
// formatting entities of the non-plain segments. Offsets and lengths are
// measured in runes over the flattened text.
func (t TextField) BuildText() (string, []core.MessageEntity) {
	var b strings.Builder
	var entities []core.MessageEntity
	offset := 0
	for _, seg := range t {
		b.WriteString(seg.Text)
		length := utf8.RuneCountInString(seg.Text)
		if seg.Type != "" && seg.Type != "plain" {
			entities = append(entities, core.MessageEntity{
				Type:          seg.Type,
				Offset:        offset,
				Length:        length,
				URL:           seg.Href,
				UserId:        seg.UserId,
				Language:      seg.Language,
				CustomEmojiId: seg.CustomEmojiId,
			})
		}
		offset += length
	}
	return b.String(), entities
}

// ExportMessage is one record of the export's message list.
type ExportMessage struct {
	Id               int64           `json:"id"`
	Type             string          `json:"type"`
	DateUnixtime     string          `json:"date_unixtime"`
	From             string          `json:"from"`
	FromId           PeerID          `json:"from_id"`
	Text             TextField       `json:"text"`
	TextEntities     TextField       `json:"text_entities"`
	Photo            json.RawMessage `json:"photo"`
	MediaType        string          `json:"media_type"`
	ForwardedFrom    string          `json:"forwarded_from"`
	ReplyToMessageId int64           `json:"reply_to_message_id"`
}

// Date parses the string-encoded epoch timestamp. Reports false for a
// missing or malformed value so the caller can substitute import time.
func (m *ExportMessage) Date() (time.Time, bool) {
	unix, err := strconv.ParseInt(strings.TrimSpace(m.DateUnixtime), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(unix, 0).UTC(), true
}

// Segments returns the richest available text representation: the
// text_entities list when present, otherwise the text field.
func (m *ExportMessage) Segments() TextField {
	if len(m.TextEntities) > 0 {
		return m.TextEntities
	}
	return m.Text
}

// MediaPrefix returns the attachment annotation prepended to the message
// text, or an empty string when the record carries no media.
func (m *ExportMessage) MediaPrefix() string {
	if len(m.Photo) > 0 && string(m.Photo) != "null" {
		return "(photo)"
	}
	if m.MediaType != "" {
		return "(" + m.MediaType + ")"
	}
	return ""
}
