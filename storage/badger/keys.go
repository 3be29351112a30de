package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/viannik/memoria-tg-bot/core"
)

// Key prefixes for different data types
const (
	userPrefix     = "usr"
	chatPrefix     = "cht"
	mediaPrefix    = "med"
	messagePrefix  = "msg"
	messageDatePfx = "msgd"
	chunkPrefix    = "chk"
	chunkDatePfx   = "chkd"
	chunkMemberPfx = "chkm"
	chunkUserPfx   = "chku"
	chunkMediaPfx  = "chkmed"
	chunkIDSeq     = "chkseq"
)

// makeUserKey generates a key for a user by id.
func makeUserKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s:%d", userPrefix, id))
}

// makeChatKey generates a key for a chat by id.
func makeChatKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s:%d", chatPrefix, id))
}

// makeMediaKey generates a key for a media row by its file token.
func makeMediaKey(fileUniqueId string) []byte {
	return []byte(fmt.Sprintf("%s:%s", mediaPrefix, fileUniqueId))
}

// makeMessageKey generates a key for a message by its (chat, id) identity.
func makeMessageKey(chatId, id int64) []byte {
	return []byte(fmt.Sprintf("%s:%d:%d", messagePrefix, chatId, id))
}

// makeMessageDateKey generates a composite key for the per-chat date index.
// Format: prefix:chatId:timestamp:messageId with all components written in
// BigEndian so lexicographic iteration yields timestamp order within a chat.
func makeMessageDateKey(chatId int64, timestamp time.Time, id int64) []byte {
	buf := makeMessageDatePrefix(chatId)
	buf = binary.BigEndian.AppendUint64(buf, uint64(timestamp.UnixMicro()))
	buf = binary.BigEndian.AppendUint64(buf, uint64(id))
	return buf
}

// makeMessageDatePrefix generates the date index prefix for one chat.
func makeMessageDatePrefix(chatId int64) []byte {
	buf := make([]byte, 0, len(messageDatePfx)+1+8+16)
	buf = append(buf, messageDatePfx...)
	buf = append(buf, ':')
	buf = binary.BigEndian.AppendUint64(buf, uint64(chatId))
	return buf
}

// makePartialMessageDateKey generates a partial date index key for range scans.
func makePartialMessageDateKey(chatId int64, timestamp time.Time) []byte {
	buf := makeMessageDatePrefix(chatId)
	buf = binary.BigEndian.AppendUint64(buf, uint64(timestamp.UnixMicro()))
	return buf
}

// parseMessageDateKey extracts the message id from a date index key.
func parseMessageDateKey(key []byte) int64 {
	return int64(binary.BigEndian.Uint64(key[len(key)-8:]))
}

// makeChunkKey generates a key for a chunk by id.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkPrefix, id))
}

// makeChunkDateKey generates a composite key for the per-chat chunk index,
// ordered by the chunk's end timestamp.
// Format: prefix:chatId:toTime:chunkId in BigEndian.
func makeChunkDateKey(chatId int64, toTime time.Time, id core.ID) []byte {
	buf := makeChunkDatePrefix(chatId)
	buf = binary.BigEndian.AppendUint64(buf, uint64(toTime.UnixMicro()))
	buf = binary.BigEndian.AppendUint64(buf, uint64(id))
	return buf
}

// makeChunkDatePrefix generates the chunk date index prefix for one chat.
func makeChunkDatePrefix(chatId int64) []byte {
	buf := make([]byte, 0, len(chunkDatePfx)+1+8+16)
	buf = append(buf, chunkDatePfx...)
	buf = append(buf, ':')
	buf = binary.BigEndian.AppendUint64(buf, uint64(chatId))
	return buf
}

// parseChunkIndexKey extracts the chunk id from any chunk index key.
// All chunk index keys end with the BigEndian chunk id.
func parseChunkIndexKey(key []byte) core.ID {
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))
}

// makeChunkMemberKey generates a composite key recording that a message
// belongs to a chunk. Format: prefix:chatId:messageId:chunkId in BigEndian.
func makeChunkMemberKey(chatId, messageId int64, chunkId core.ID) []byte {
	buf := makeChunkMemberPrefix(chatId, messageId)
	buf = binary.BigEndian.AppendUint64(buf, uint64(chunkId))
	return buf
}

// chunkMemberChatPrefix generates the membership prefix covering all
// messages of a chat.
func chunkMemberChatPrefix(chatId int64) []byte {
	buf := make([]byte, 0, len(chunkMemberPfx)+1+8)
	buf = append(buf, chunkMemberPfx...)
	buf = append(buf, ':')
	buf = binary.BigEndian.AppendUint64(buf, uint64(chatId))
	return buf
}

// makeChunkMemberPrefix generates the membership prefix for one message.
func makeChunkMemberPrefix(chatId, messageId int64) []byte {
	buf := make([]byte, 0, len(chunkMemberPfx)+1+16+8)
	buf = append(buf, chunkMemberPfx...)
	buf = append(buf, ':')
	buf = binary.BigEndian.AppendUint64(buf, uint64(chatId))
	buf = binary.BigEndian.AppendUint64(buf, uint64(messageId))
	return buf
}

// makeChunkUserKey generates a composite key recording that a user appears
// in a chunk. Format: prefix:userId:chunkId in BigEndian.
func makeChunkUserKey(userId int64, chunkId core.ID) []byte {
	buf := makeChunkUserPrefix(userId)
	buf = binary.BigEndian.AppendUint64(buf, uint64(chunkId))
	return buf
}

// makeChunkUserPrefix generates the user index prefix for one user.
func makeChunkUserPrefix(userId int64) []byte {
	buf := make([]byte, 0, len(chunkUserPfx)+1+8+8)
	buf = append(buf, chunkUserPfx...)
	buf = append(buf, ':')
	buf = binary.BigEndian.AppendUint64(buf, uint64(userId))
	return buf
}

// makeChunkMediaKey generates a composite key recording that a media row
// appears in a chunk. The variable-width file token is hashed to keep the
// key components fixed width. Format: prefix:mediaHash:chunkId in BigEndian.
func makeChunkMediaKey(fileUniqueId string, chunkId core.ID) []byte {
	buf := makeChunkMediaPrefix(fileUniqueId)
	buf = binary.BigEndian.AppendUint64(buf, uint64(chunkId))
	return buf
}

// makeChunkMediaPrefix generates the media index prefix for one media row.
func makeChunkMediaPrefix(fileUniqueId string) []byte {
	buf := make([]byte, 0, len(chunkMediaPfx)+1+8+8)
	buf = append(buf, chunkMediaPfx...)
	buf = append(buf, ':')
	buf = binary.BigEndian.AppendUint64(buf, uint64(core.IDFromContent(fileUniqueId)))
	return buf
}
