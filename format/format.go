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


// Package format renders messages into canonical display strings for
// chunking. All functions are pure; the caller supplies a message with its
// resolved relations and no I/O happens here.
package format

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/viannik/memoria-tg-bot/core"
)

// displayDateFormat is the timestamp layout used in rendered lines.
const displayDateFormat = "02.01.2006 15:04"

// SenderLabel returns the display label for a user: username if set,
// otherwise full name, otherwise the numeric id.
func SenderLabel(user *core.User) string {
	if user == nil {
		return "Unknown"
	}
	return user.Label()
}

// ApplyEntities applies rich-text markup to text according to its formatting
// entities. Offsets and lengths are in runes. Entities are applied by
// descending offset so inserting delimiters never shifts the offsets of
// entities not yet processed. Unrecognized entity kinds pass through
// unmodified; overlapping ranges produce best-effort output.
func ApplyEntities(text string, entities []core.MessageEntity) string {
	if len(entities) == 0 {
		return text
	}

	sorted := slices.Clone(entities)
	slices.SortFunc(sorted, func(a, b core.MessageEntity) int {
		return b.Offset - a.Offset
	})

	runes := []rune(text)
	for _, ent := range sorted {
		if ent.Offset < 0 || ent.Length <= 0 || ent.Offset+ent.Length > len(runes) {
			continue
		}
		segment := string(runes[ent.Offset : ent.Offset+ent.Length])

		switch ent.Type {
		case "bold":
			segment = "**" + segment + "**"
		case "italic":
			segment = "*" + segment + "*"
		case "underline":
			segment = "__" + segment + "__"
		case "strikethrough":
			segment = "~~" + segment + "~~"
		case "blockquote":
			segment = "> " + segment
		case "pre":
			segment = "`" + segment + "`"
		case "spoiler":
			segment = "||" + segment + "||"
		case "text_link":
			if ent.URL != "" {
				segment = "[" + segment + "](" + ent.URL + ")"
			}
		}

		runes = append(runes[:ent.Offset:ent.Offset], append([]rune(segment), runes[ent.Offset+ent.Length:]...)...)
	}
	return string(runes)
}

// Display renders a resolved message as a single line:
//
//	<date> <sender>[ (forwarded from X)][ (reply to Y)]:[ (<media-type>)] <marked-up text>
//
// Exactly one forward annotation is shown even if multiple forward fields
// are populated; precedence is forward-from-user (when different from the
// sender), then forward-from-chat, then the free-text sender name.
func Display(rm *core.ResolvedMessage) string {
	msg := rm.Message

	dt := msg.Date.Format(displayDateFormat)
	sender := SenderLabel(rm.From)

	forward := ""
	switch {
	case rm.ForwardFromUser != nil && (rm.From == nil || rm.ForwardFromUser.Id != rm.From.Id):
		forward = " (forwarded from " + SenderLabel(rm.ForwardFromUser) + ")"
	case rm.ForwardFromChat != nil:
		origin := rm.ForwardFromChat.Title
		if origin == "" {
			origin = strconv.FormatInt(rm.ForwardFromChat.Id, 10)
		}
		forward = " (forwarded from chat: " + origin + ")"
	case msg.ForwardSenderName != "":
		forward = " (forwarded from " + msg.ForwardSenderName + ")"
	}

	reply := ""
	if msg.ReplyToMessageId != 0 {
		if rm.ReplyTo != nil && rm.ReplyFrom != nil {
			reply = " (reply to " + SenderLabel(rm.ReplyFrom) + ")"
		} else {
			reply = " (reply)"
		}
	}

	media := ""
	if rm.Media != nil && rm.Media.MediaType != "" {
		media = " (" + rm.Media.MediaType + ")"
	}

	text := ApplyEntities(msg.Text, msg.Entities)

	return fmt.Sprintf("%s %s%s%s:%s %s", dt, sender, forward, reply, media, text)
}
