package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"simple token", "AgADcQkAAr0"},
		{"empty string", ""},
		{"long token", "AQADBAADq7cxG2evYUkACAIAA2evYUkABMM1qm1vYjVmLwQ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("token1")
	id2 := IDFromContent("token2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestUser_FullName(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"first and last", User{FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{"first only", User{FirstName: "Ada"}, "Ada"},
		{"last only", User{LastName: "Lovelace"}, "Lovelace"},
		{"neither", User{Id: 42}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.FullName(); got != tt.want {
				t.Errorf("FullName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUser_Label(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"username wins", User{Id: 42, FirstName: "Ada", Username: "ada"}, "ada"},
		{"falls back to full name", User{Id: 42, FirstName: "Ada"}, "Ada"},
		{"falls back to id", User{Id: 42}, "42"},
		{"negative id", User{Id: -100123}, "-100123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChunkScope_Matches(t *testing.T) {
	chunk := &ChunkEmbedding{
		Id:      1,
		ChatId:  -100123,
		UserIds: []int64{10, 20},
	}

	tests := []struct {
		name  string
		scope ChunkScope
		want  bool
	}{
		{"unscoped", ChunkScope{}, true},
		{"matching chat", ChunkScope{ChatId: -100123}, true},
		{"other chat", ChunkScope{ChatId: 7}, false},
		{"member user", ChunkScope{UserId: 20}, true},
		{"non-member user", ChunkScope{UserId: 30}, false},
		{"chat and user", ChunkScope{ChatId: -100123, UserId: 10}, true},
		{"chat matches, user does not", ChunkScope{ChatId: -100123, UserId: 30}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.scope.Matches(chunk); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
