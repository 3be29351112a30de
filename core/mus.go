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
	"errors"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the domain entities. Fields are encoded
// in declaration order; timestamps are encoded as Unix microseconds.

// ErrNegativeLength indicates a corrupted length prefix in serialized data.
var ErrNegativeLength = errors.New("negative length prefix")

// IDMUS serializes ID values.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(v ID) int {
	return varint.Uint64.Size(uint64(v))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

// timeMUS serializes time.Time as Unix microseconds (UTC on decode).
var timeMUS = timeSer{}

type timeSer struct{}

func (timeSer) Marshal(v time.Time, bs []byte) int {
	return varint.Int64.Marshal(v.UnixMicro(), bs)
}

func (timeSer) Unmarshal(bs []byte) (time.Time, int, error) {
	micro, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micro).UTC(), n, nil
}

func (timeSer) Size(v time.Time) int {
	return varint.Int64.Size(v.UnixMicro())
}

// ChatMUS serializes Chat values.
var ChatMUS = chatMUS{}

type chatMUS struct{}

func (chatMUS) Marshal(v Chat, bs []byte) (n int) {
	n = varint.Int64.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Type, bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Username, bs[n:])
	n += timeMUS.Marshal(v.InsertedAt, bs[n:])
	return
}

func (chatMUS) Unmarshal(bs []byte) (v Chat, n int, err error) {
	var n1 int
	if v.Id, n, err = varint.Int64.Unmarshal(bs); err != nil {
		return
	}
	if v.Type, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Title, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Username, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	v.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (chatMUS) Size(v Chat) (size int) {
	size = varint.Int64.Size(v.Id)
	size += ord.String.Size(v.Type)
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.Username)
	size += timeMUS.Size(v.InsertedAt)
	return
}

// UserMUS serializes User values.
var UserMUS = userMUS{}

type userMUS struct{}

func (userMUS) Marshal(v User, bs []byte) (n int) {
	n = varint.Int64.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.FirstName, bs[n:])
	n += ord.String.Marshal(v.LastName, bs[n:])
	n += ord.String.Marshal(v.Username, bs[n:])
	n += ord.String.Marshal(v.LanguageCode, bs[n:])
	n += timeMUS.Marshal(v.InsertedAt, bs[n:])
	return
}

func (userMUS) Unmarshal(bs []byte) (v User, n int, err error) {
	var n1 int
	if v.Id, n, err = varint.Int64.Unmarshal(bs); err != nil {
		return
	}
	for _, field := range []*string{&v.FirstName, &v.LastName, &v.Username, &v.LanguageCode} {
		if *field, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return v, n + n1, err
		}
		n += n1
	}
	v.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (userMUS) Size(v User) (size int) {
	size = varint.Int64.Size(v.Id)
	size += ord.String.Size(v.FirstName)
	size += ord.String.Size(v.LastName)
	size += ord.String.Size(v.Username)
	size += ord.String.Size(v.LanguageCode)
	size += timeMUS.Size(v.InsertedAt)
	return
}

// MediaMUS serializes Media values.
var MediaMUS = mediaMUS{}

type mediaMUS struct{}

func (mediaMUS) Marshal(v Media, bs []byte) (n int) {
	n = ord.String.Marshal(v.FileUniqueId, bs)
	n += ord.String.Marshal(v.MediaType, bs[n:])
	n += ord.String.Marshal(v.FileId, bs[n:])
	n += ord.String.Marshal(v.Caption, bs[n:])
	n += ord.String.Marshal(v.MimeType, bs[n:])
	n += varint.Int64.Marshal(v.FileSize, bs[n:])
	n += varint.Int.Marshal(v.Width, bs[n:])
	n += varint.Int.Marshal(v.Height, bs[n:])
	n += varint.Int.Marshal(v.Duration, bs[n:])
	n += timeMUS.Marshal(v.InsertedAt, bs[n:])
	return
}

func (mediaMUS) Unmarshal(bs []byte) (v Media, n int, err error) {
	var n1 int
	for _, field := range []*string{&v.FileUniqueId, &v.MediaType, &v.FileId, &v.Caption, &v.MimeType} {
		if *field, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return v, n + n1, err
		}
		n += n1
	}
	if v.FileSize, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	for _, field := range []*int{&v.Width, &v.Height, &v.Duration} {
		if *field, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
			return v, n + n1, err
		}
		n += n1
	}
	v.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (mediaMUS) Size(v Media) (size int) {
	size = ord.String.Size(v.FileUniqueId)
	size += ord.String.Size(v.MediaType)
	size += ord.String.Size(v.FileId)
	size += ord.String.Size(v.Caption)
	size += ord.String.Size(v.MimeType)
	size += varint.Int64.Size(v.FileSize)
	size += varint.Int.Size(v.Width)
	size += varint.Int.Size(v.Height)
	size += varint.Int.Size(v.Duration)
	size += timeMUS.Size(v.InsertedAt)
	return
}

// MessageEntityMUS serializes MessageEntity values.
var MessageEntityMUS = messageEntityMUS{}

type messageEntityMUS struct{}

func (messageEntityMUS) Marshal(v MessageEntity, bs []byte) (n int) {
	n = ord.String.Marshal(v.Type, bs)
	n += varint.Int.Marshal(v.Offset, bs[n:])
	n += varint.Int.Marshal(v.Length, bs[n:])
	n += ord.String.Marshal(v.URL, bs[n:])
	n += varint.Int64.Marshal(v.UserId, bs[n:])
	n += ord.String.Marshal(v.Language, bs[n:])
	n += ord.String.Marshal(v.CustomEmojiId, bs[n:])
	return
}

func (messageEntityMUS) Unmarshal(bs []byte) (v MessageEntity, n int, err error) {
	var n1 int
	if v.Type, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if v.Offset, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Length, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.URL, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.UserId, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Language, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	v.CustomEmojiId, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (messageEntityMUS) Size(v MessageEntity) (size int) {
	size = ord.String.Size(v.Type)
	size += varint.Int.Size(v.Offset)
	size += varint.Int.Size(v.Length)
	size += ord.String.Size(v.URL)
	size += varint.Int64.Size(v.UserId)
	size += ord.String.Size(v.Language)
	size += ord.String.Size(v.CustomEmojiId)
	return
}

// MessageMUS serializes Message values.
var MessageMUS = messageMUS{}

type messageMUS struct{}

func (messageMUS) Marshal(v Message, bs []byte) (n int) {
	n = varint.Int64.Marshal(v.Id, bs)
	n += varint.Int64.Marshal(v.ChatId, bs[n:])
	n += varint.Int64.Marshal(v.FromUserId, bs[n:])
	n += timeMUS.Marshal(v.Date, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += varint.Int.Marshal(len(v.Entities), bs[n:])
	for _, ent := range v.Entities {
		n += MessageEntityMUS.Marshal(ent, bs[n:])
	}
	n += ord.String.Marshal(v.MediaId, bs[n:])
	n += varint.Int64.Marshal(v.ReplyToMessageId, bs[n:])
	n += varint.Int64.Marshal(v.ForwardFromUserId, bs[n:])
	n += varint.Int64.Marshal(v.ForwardFromChatId, bs[n:])
	n += varint.Int64.Marshal(v.ForwardFromMessageId, bs[n:])
	n += ord.String.Marshal(v.ForwardSenderName, bs[n:])
	n += timeMUS.Marshal(v.InsertedAt, bs[n:])
	return
}

func (messageMUS) Unmarshal(bs []byte) (v Message, n int, err error) {
	var n1 int
	for _, field := range []*int64{&v.Id, &v.ChatId, &v.FromUserId} {
		if *field, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
			return v, n + n1, err
		}
		n += n1
	}
	if v.Date, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var count int
	if count, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if count < 0 {
		return v, n, ErrNegativeLength
	}
	if count > 0 {
		v.Entities = make([]MessageEntity, count)
		for i := 0; i < count; i++ {
			if v.Entities[i], n1, err = MessageEntityMUS.Unmarshal(bs[n:]); err != nil {
				return v, n + n1, err
			}
			n += n1
		}
	}
	if v.MediaId, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	for _, field := range []*int64{&v.ReplyToMessageId, &v.ForwardFromUserId, &v.ForwardFromChatId, &v.ForwardFromMessageId} {
		if *field, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
			return v, n + n1, err
		}
		n += n1
	}
	if v.ForwardSenderName, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	v.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (messageMUS) Size(v Message) (size int) {
	size = varint.Int64.Size(v.Id)
	size += varint.Int64.Size(v.ChatId)
	size += varint.Int64.Size(v.FromUserId)
	size += timeMUS.Size(v.Date)
	size += ord.String.Size(v.Text)
	size += varint.Int.Size(len(v.Entities))
	for _, ent := range v.Entities {
		size += MessageEntityMUS.Size(ent)
	}
	size += ord.String.Size(v.MediaId)
	size += varint.Int64.Size(v.ReplyToMessageId)
	size += varint.Int64.Size(v.ForwardFromUserId)
	size += varint.Int64.Size(v.ForwardFromChatId)
	size += varint.Int64.Size(v.ForwardFromMessageId)
	size += ord.String.Size(v.ForwardSenderName)
	size += timeMUS.Size(v.InsertedAt)
	return
}

// ChunkEmbeddingMUS serializes ChunkEmbedding values.
var ChunkEmbeddingMUS = chunkEmbeddingMUS{}

type chunkEmbeddingMUS struct{}

func (chunkEmbeddingMUS) Marshal(v ChunkEmbedding, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += varint.Int64.Marshal(v.ChatId, bs[n:])
	n += ord.String.Marshal(v.ChunkText, bs[n:])
	n += varint.Int.Marshal(len(v.Vector), bs[n:])
	for _, f := range v.Vector {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	n += timeMUS.Marshal(v.FromTime, bs[n:])
	n += timeMUS.Marshal(v.ToTime, bs[n:])
	n += varint.Int.Marshal(len(v.MessageIds), bs[n:])
	for _, id := range v.MessageIds {
		n += varint.Int64.Marshal(id, bs[n:])
	}
	n += varint.Int.Marshal(len(v.UserIds), bs[n:])
	for _, id := range v.UserIds {
		n += varint.Int64.Marshal(id, bs[n:])
	}
	n += varint.Int.Marshal(len(v.MediaIds), bs[n:])
	for _, token := range v.MediaIds {
		n += ord.String.Marshal(token, bs[n:])
	}
	n += timeMUS.Marshal(v.InsertedAt, bs[n:])
	return
}

func (chunkEmbeddingMUS) Unmarshal(bs []byte) (v ChunkEmbedding, n int, err error) {
	var n1 int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.ChatId, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.ChunkText, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var count int
	if count, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if count < 0 {
		return v, n, ErrNegativeLength
	}
	if count > 0 {
		v.Vector = make([]float32, count)
		for i := 0; i < count; i++ {
			if v.Vector[i], n1, err = raw.Float32.Unmarshal(bs[n:]); err != nil {
				return v, n + n1, err
			}
			n += n1
		}
	}
	if v.FromTime, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.ToTime, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.MessageIds, n1, err = unmarshalInt64Slice(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.UserIds, n1, err = unmarshalInt64Slice(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if count, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if count < 0 {
		return v, n, ErrNegativeLength
	}
	if count > 0 {
		v.MediaIds = make([]string, count)
		for i := 0; i < count; i++ {
			if v.MediaIds[i], n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
				return v, n + n1, err
			}
			n += n1
		}
	}
	v.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (chunkEmbeddingMUS) Size(v ChunkEmbedding) (size int) {
	size = IDMUS.Size(v.Id)
	size += varint.Int64.Size(v.ChatId)
	size += ord.String.Size(v.ChunkText)
	size += varint.Int.Size(len(v.Vector))
	for _, f := range v.Vector {
		size += raw.Float32.Size(f)
	}
	size += timeMUS.Size(v.FromTime)
	size += timeMUS.Size(v.ToTime)
	size += varint.Int.Size(len(v.MessageIds))
	for _, id := range v.MessageIds {
		size += varint.Int64.Size(id)
	}
	size += varint.Int.Size(len(v.UserIds))
	for _, id := range v.UserIds {
		size += varint.Int64.Size(id)
	}
	size += varint.Int.Size(len(v.MediaIds))
	for _, token := range v.MediaIds {
		size += ord.String.Size(token)
	}
	size += timeMUS.Size(v.InsertedAt)
	return
}

func unmarshalInt64Slice(bs []byte) (sl []int64, n int, err error) {
	var count int
	if count, n, err = varint.Int.Unmarshal(bs); err != nil {
		return
	}
	if count < 0 {
		return nil, n, ErrNegativeLength
	}
	if count == 0 {
		return nil, n, nil
	}
	sl = make([]int64, count)
	var n1 int
	for i := 0; i < count; i++ {
		if sl[i], n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
			return sl, n + n1, err
		}
		n += n1
	}
	return
}
