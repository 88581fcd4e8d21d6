package store

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryUserRoundTrip(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	id, err := m.CreateUser(ctx, "Alice", "Smith", "deadbeef", "0011223344556677")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u, err := m.GetUser(ctx, id)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.Name != "Alice" || u.Surname != "Smith" || u.PasswordHash != "deadbeef" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.LastActive == 0 {
		t.Fatalf("expected initial last_active to be set")
	}

	if _, err := m.GetUser(ctx, id+1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryChatMembershipAndMessages(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	uid, err := m.CreateUser(ctx, "Bob", "Jones", "hash", "salt")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	cid, err := m.CreateChat(ctx, "Team", "desc")
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}

	chats, err := m.GetChats(ctx, uid)
	if err != nil {
		t.Fatalf("GetChats: %v", err)
	}
	if len(chats) != 0 {
		t.Fatalf("expected no chats before membership, got %d", len(chats))
	}

	if err := m.AddMember(ctx, cid, uid); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	chats, err = m.GetChats(ctx, uid)
	if err != nil {
		t.Fatalf("GetChats: %v", err)
	}
	if len(chats) != 1 || chats[0].ID != cid {
		t.Fatalf("expected chat %d in list, got %+v", cid, chats)
	}

	if err := m.StoreMessage(ctx, cid, uid, "hello"); err != nil {
		t.Fatalf("StoreMessage: %v", err)
	}
	msgs, err := m.GetMessages(ctx, cid)
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "hello" || msgs[0].UserID != uid {
		t.Fatalf("unexpected messages: %+v", msgs)
	}

	if err := m.StoreMessage(ctx, cid+99, uid, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown chat, got %v", err)
	}
}

func TestMemoryCreateChatWithMember(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	uid, err := m.CreateUser(ctx, "Carol", "King", "hash", "salt")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	cid, err := m.CreateChatWithMember(ctx, "Founders", "no orphans", uid)
	if err != nil {
		t.Fatalf("CreateChatWithMember: %v", err)
	}

	chats, err := m.GetChats(ctx, uid)
	if err != nil {
		t.Fatalf("GetChats: %v", err)
	}
	if len(chats) != 1 || chats[0].ID != cid {
		t.Fatalf("creator is not a member of the new chat: %+v", chats)
	}
}

func TestMemoryUpdateLastActivityUnknownUser(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	if err := m.UpdateLastActivity(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
