package badger

import (
	"context"
	"testing"

	"github.com/viannik/memoria-tg-bot/core"
	"github.com/viannik/memoria-tg-bot/storage"
)

func TestGetOrCreateUser(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	user, created, err := repos.Users.GetOrCreateUser(ctx, &core.User{
		Id:        100,
		FirstName: "Grace",
		Username:  "ghopper",
	})
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	if !created {
		t.Fatal("Expected user to be created")
	}
	if user.InsertedAt.IsZero() {
		t.Fatal("Expected InsertedAt to be set")
	}

	// Second call with different defaults must return the stored row unchanged
	again, created, err := repos.Users.GetOrCreateUser(ctx, &core.User{
		Id:        100,
		FirstName: "Someone",
		Username:  "else",
	})
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if created {
		t.Fatal("Expected existing user, not a new one")
	}
	if again.FirstName != "Grace" || again.Username != "ghopper" {
		t.Fatalf("Existing row was overwritten: %+v", again)
	}
}

func TestGetUsers_SkipsMissing(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	for _, id := range []int64{1, 2, 3} {
		if _, _, err := repos.Users.GetOrCreateUser(ctx, &core.User{Id: id}); err != nil {
			t.Fatalf("Failed to create user %d: %v", id, err)
		}
	}

	users, err := repos.Users.GetUsers(ctx, 1, 42, 3)
	if err != nil {
		t.Fatalf("Failed to get users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("Expected 2 users, got %d", len(users))
	}
}

func TestGetUser_NotFound(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	_, err = repos.Users.GetUser(context.Background(), 999)
	if err != storage.ErrNotFound {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetOrCreateChat(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	chat, created, err := repos.Chats.GetOrCreateChat(ctx, &core.Chat{
		Id:    -1001234567890,
		Type:  "supergroup",
		Title: "Weekend Plans",
	})
	if err != nil {
		t.Fatalf("Failed to create chat: %v", err)
	}
	if !created {
		t.Fatal("Expected chat to be created")
	}
	if chat.Title != "Weekend Plans" {
		t.Fatalf("Unexpected title: %s", chat.Title)
	}

	_, created, err = repos.Chats.GetOrCreateChat(ctx, &core.Chat{Id: -1001234567890})
	if err != nil {
		t.Fatalf("Failed to get chat: %v", err)
	}
	if created {
		t.Fatal("Expected existing chat, not a new one")
	}
}

func TestGetOrCreateMedia(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	media, created, err := repos.Media.GetOrCreateMedia(ctx, &core.Media{
		FileUniqueId: "AQADAgADx8",
		MediaType:    "photo",
		Caption:      "sunset",
	})
	if err != nil {
		t.Fatalf("Failed to create media: %v", err)
	}
	if !created {
		t.Fatal("Expected media to be created")
	}

	got, err := repos.Media.GetMedia(ctx, media.FileUniqueId)
	if err != nil {
		t.Fatalf("Failed to get media: %v", err)
	}
	if got.Caption != "sunset" {
		t.Fatalf("Unexpected caption: %s", got.Caption)
	}
}

func TestGetOrCreateMedia_RequiresToken(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	_, _, err = repos.Media.GetOrCreateMedia(context.Background(), &core.Media{MediaType: "photo"})
	if err == nil {
		t.Fatal("Expected validation error for empty file token")
	}
}
