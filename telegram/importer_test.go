package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viannik/memoria-tg-bot/core"
	"github.com/viannik/memoria-tg-bot/storage"
	badgerstore "github.com/viannik/memoria-tg-bot/storage/badger"
)

// flakyMessageRepository fails a fixed number of bulk writes before
// delegating, to drive the importer onto its per-record fallback.
type flakyMessageRepository struct {
	storage.MessageRepository
	bulkFailures int
}

func (r *flakyMessageRepository) AddMessages(ctx context.Context, msgs ...*core.Message) ([]*core.Message, error) {
	if r.bulkFailures > 0 {
		r.bulkFailures--
		return nil, errors.New("simulated write failure")
	}
	return r.MessageRepository.AddMessages(ctx, msgs...)
}

func newTestImporter(t *testing.T, opts ...ImporterOption) (*Importer, *badgerstore.MemoryRepositories) {
	t.Helper()
	repos, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	imp, err := NewImporter(repos.Users, repos.Chats, repos.Messages, opts...)
	require.NoError(t, err)
	return imp, repos
}

func writeExport(t *testing.T, export map[string]any) string {
	t.Helper()
	data, err := json.Marshal(export)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "result.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func exportRecord(id int, fromId, text string) map[string]any {
	return map[string]any{
		"id":            id,
		"type":          "message",
		"date_unixtime": strconv.Itoa(1738406400 + id*60),
		"from":          "Sender " + fromId,
		"from_id":       fromId,
		"text":          text,
	}
}

func TestImporter_Run(t *testing.T) {
	imp, repos := newTestImporter(t)
	ctx := context.Background()

	path := writeExport(t, map[string]any{
		"id":   1234567890,
		"name": "Test Group",
		"type": "private_supergroup",
		"messages": []map[string]any{
			exportRecord(1, "user100", "first"),
			exportRecord(2, "user100", "second"),
			exportRecord(3, "user200", "third"),
			{"id": 4, "type": "service", "date_unixtime": "1738406400"},
		},
	})

	report, err := imp.Run(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Imported)
	assert.Equal(t, 0, report.Existing)
	assert.Equal(t, 2, report.UsersCreated)
	assert.Equal(t, 0, report.Skipped)

	chatId := int64(-1001234567890)
	chat, err := repos.Chats.GetChat(ctx, chatId)
	require.NoError(t, err)
	assert.Equal(t, "Test Group", chat.Title)

	ids, err := repos.Messages.GetMessageIDs(ctx, chatId)
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	msg, err := repos.Messages.GetMessage(ctx, chatId, 1)
	require.NoError(t, err)
	assert.Equal(t, "first", msg.Text)
	assert.Equal(t, int64(100), msg.FromUserId)

	_, err = repos.Users.GetUser(ctx, 200)
	require.NoError(t, err)
}

func TestImporter_Rerun_IsIdempotent(t *testing.T) {
	imp, _ := newTestImporter(t)
	ctx := context.Background()

	path := writeExport(t, map[string]any{
		"id":   1234567890,
		"name": "Test Group",
		"type": "private_supergroup",
		"messages": []map[string]any{
			exportRecord(1, "user100", "first"),
			exportRecord(2, "user100", "second"),
		},
	})

	report, err := imp.Run(ctx, path)
	require.NoError(t, err)
	require.Equal(t, 2, report.Imported)

	report, err = imp.Run(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Imported)
	assert.Equal(t, 2, report.Existing)
	assert.Equal(t, 0, report.UsersCreated)
}

func TestImporter_ChannelSender(t *testing.T) {
	imp, repos := newTestImporter(t)
	ctx := context.Background()

	rec := exportRecord(1, "channel123", "broadcast")
	rec["from"] = "News Channel"
	path := writeExport(t, map[string]any{
		"id":       1234567890,
		"name":     "News Channel",
		"type":     "public_channel",
		"messages": []map[string]any{rec},
	})

	report, err := imp.Run(ctx, path)
	require.NoError(t, err)
	require.Equal(t, 1, report.Imported)

	// A channel sender lands in the same identity space as live users.
	msg, err := repos.Messages.GetMessage(ctx, -1001234567890, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(123), msg.FromUserId)
	assert.Equal(t, "News Channel", msg.ForwardSenderName)
	assert.Equal(t, int64(0), msg.ReplyToMessageId)

	_, err = repos.Users.GetUser(ctx, 123)
	require.NoError(t, err)
}

func TestImporter_SkipsMalformedRecords(t *testing.T) {
	imp, repos := newTestImporter(t)
	ctx := context.Background()

	path := writeExport(t, map[string]any{
		"id":   1234567890,
		"name": "Test Group",
		"type": "private_supergroup",
		"messages": []map[string]any{
			exportRecord(1, "user100", "kept"),
			{"type": "message", "date_unixtime": "1738406400", "from_id": "user100", "text": "no id"},
			{"id": 3, "type": "message", "date_unixtime": "1738406400", "text": "no sender"},
		},
	})

	report, err := imp.Run(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 2, report.Skipped)

	ids, err := repos.Messages.GetMessageIDs(ctx, -1001234567890)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestImporter_MediaAndForwardAnnotations(t *testing.T) {
	imp, repos := newTestImporter(t)
	ctx := context.Background()

	photo := exportRecord(1, "user100", "caption")
	photo["photo"] = "photos/file_1.jpg"
	forwarded := exportRecord(2, "user100", "quoted")
	forwarded["forwarded_from"] = "Alice"

	path := writeExport(t, map[string]any{
		"id":       1234567890,
		"name":     "Test Group",
		"type":     "private_supergroup",
		"messages": []map[string]any{photo, forwarded},
	})

	_, err := imp.Run(ctx, path)
	require.NoError(t, err)

	msg, err := repos.Messages.GetMessage(ctx, -1001234567890, 1)
	require.NoError(t, err)
	assert.Equal(t, "(photo) caption", msg.Text)

	msg, err = repos.Messages.GetMessage(ctx, -1001234567890, 2)
	require.NoError(t, err)
	assert.Equal(t, "(forwarded from Alice): quoted", msg.Text)
	assert.Equal(t, "Alice", msg.ForwardSenderName)
}

func TestImporter_SmallBatches(t *testing.T) {
	imp, repos := newTestImporter(t, WithBatchSize(2), WithPoolSize(2))
	ctx := context.Background()

	var records []map[string]any
	for i := 1; i <= 7; i++ {
		records = append(records, exportRecord(i, "user100", "msg"))
	}
	path := writeExport(t, map[string]any{
		"id":       1234567890,
		"name":     "Test Group",
		"type":     "private_supergroup",
		"messages": records,
	})

	report, err := imp.Run(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 7, report.Imported)

	ids, err := repos.Messages.GetMessageIDs(ctx, -1001234567890)
	require.NoError(t, err)
	assert.Len(t, ids, 7)
}

func TestImporter_EmptyExport(t *testing.T) {
	imp, _ := newTestImporter(t)
	path := writeExport(t, map[string]any{
		"id": 1, "name": "Empty", "type": "private", "messages": []map[string]any{},
	})

	_, err := imp.Run(context.Background(), path)
	assert.ErrorIs(t, err, ErrNoMessages)
}

func TestImporter_BulkWriteFailureFallsBackPerRecord(t *testing.T) {
	repos, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	flaky := &flakyMessageRepository{MessageRepository: repos.Messages, bulkFailures: 1}
	imp, err := NewImporter(repos.Users, repos.Chats, flaky)
	require.NoError(t, err)

	ctx := context.Background()
	path := writeExport(t, map[string]any{
		"id":   1234567890,
		"name": "Test Group",
		"type": "private_supergroup",
		"messages": []map[string]any{
			exportRecord(1, "user100", "first"),
			exportRecord(2, "user100", "second"),
			exportRecord(3, "user200", "third"),
		},
	})

	report, err := imp.Run(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Imported)
	assert.Equal(t, 0, report.Existing)
	assert.Equal(t, 0, report.Skipped)

	chatId := int64(-1001234567890)
	ids, err := repos.Messages.GetMessageIDs(ctx, chatId)
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	msg, err := repos.Messages.GetMessage(ctx, chatId, 3)
	require.NoError(t, err)
	assert.Equal(t, "third", msg.Text)
}
