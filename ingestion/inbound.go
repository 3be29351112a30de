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


package ingestion

import (
	"time"

	"github.com/viannik/memoria-tg-bot/core"
)

// InboundUser describes the sender of an inbound message.
type InboundUser struct {
	Id           int64
	FirstName    string
	LastName     string
	Username     string
	LanguageCode string
}

// InboundChat describes the chat an inbound message belongs to.
type InboundChat struct {
	Id       int64
	Type     string
	Title    string
	Username string
}

// InboundMedia describes the single media attachment of an inbound message.
// FileUniqueId is the provider-assigned token that is stable across
// re-imports and identifies the media row.
type InboundMedia struct {
	FileUniqueId string
	MediaType    string
	FileId       string
	Caption      string
	MimeType     string
	FileSize     int64
	Width        int
	Height       int
	Duration     int
}

// InboundMessage is the transport-layer shape of one message handed to the
// Processor. Optional members are explicit: a nil Media means no attachment,
// zero-valued forward and reply ids mean no such link.
type InboundMessage struct {
	Id   int64
	Chat InboundChat
	From InboundUser
	Date time.Time

	Text     string
	Entities []core.MessageEntity
	Media    *InboundMedia

	ReplyToMessageId     int64
	ForwardFromUserId    int64
	ForwardFromChatId    int64
	ForwardFromMessageId int64
	ForwardSenderName    string
}
