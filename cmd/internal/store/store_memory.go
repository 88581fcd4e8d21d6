package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory implements Store in process memory.
//
// It is the dev fallback when no database is configured and the substitute
// used by tests; it implements the full capability set so the credential
// manager and facade never notice the difference.
type Memory struct {
	mu sync.Mutex

	nextUserID UserID
	nextChatID ChatID

	users    map[UserID]User
	chats    map[ChatID]Chat
	members  map[ChatID]map[UserID]struct{}
	messages map[ChatID][]Message
	devices  map[UserID][]Device
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		nextUserID: 1,
		nextChatID: 1,
		users:      make(map[UserID]User),
		chats:      make(map[ChatID]Chat),
		members:    make(map[ChatID]map[UserID]struct{}),
		messages:   make(map[ChatID][]Message),
		devices:    make(map[UserID][]Device),
	}
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close(_ context.Context) error { return nil }

func (m *Memory) GetUser(ctx context.Context, id UserID) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, storageErr("get_user", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) GetUsers(ctx context.Context) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("get_users", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetChats(ctx context.Context, userID UserID) ([]Chat, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("get_chats", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Chat
	for chatID, members := range m.members {
		if _, ok := members[userID]; ok {
			out = append(out, m.chats[chatID])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetMessages(ctx context.Context, chatID ChatID) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("get_messages", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Message(nil), m.messages[chatID]...), nil
}

func (m *Memory) GetDevices(ctx context.Context, userID UserID) ([]Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("get_devices", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Device(nil), m.devices[userID]...), nil
}

func (m *Memory) StoreMessage(ctx context.Context, chatID ChatID, userID UserID, content string) error {
	if err := ctx.Err(); err != nil {
		return storageErr("store_message", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.chats[chatID]; !ok {
		return ErrNotFound
	}
	m.messages[chatID] = append(m.messages[chatID], Message{
		ChatID:  chatID,
		UserID:  userID,
		Content: content,
		SentAt:  time.Now().Unix(),
	})
	return nil
}

func (m *Memory) CreateUser(ctx context.Context, name, surname, passwordHash, salt string) (UserID, error) {
	if err := ctx.Err(); err != nil {
		return 0, storageErr("create_user", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextUserID
	m.nextUserID++
	m.users[id] = User{
		ID:           id,
		Name:         name,
		Surname:      surname,
		PasswordHash: passwordHash,
		Salt:         salt,
		LastActive:   time.Now().Unix(),
	}
	return id, nil
}

func (m *Memory) CreateChat(ctx context.Context, title, description string) (ChatID, error) {
	if err := ctx.Err(); err != nil {
		return 0, storageErr("create_chat", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.createChatLocked(title, description), nil
}

func (m *Memory) createChatLocked(title, description string) ChatID {
	id := m.nextChatID
	m.nextChatID++
	m.chats[id] = Chat{ID: id, Title: title, Description: description}
	m.members[id] = make(map[UserID]struct{})
	return id
}

func (m *Memory) AddMember(ctx context.Context, chatID ChatID, userID UserID) error {
	if err := ctx.Err(); err != nil {
		return storageErr("add_member", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.members[chatID]
	if !ok {
		return ErrNotFound
	}
	members[userID] = struct{}{}
	return nil
}

func (m *Memory) CreateChatWithMember(ctx context.Context, title, description string, userID UserID) (ChatID, error) {
	if err := ctx.Err(); err != nil {
		return 0, storageErr("create_chat_with_member", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	// Both inserts happen under one lock acquisition, which is this store's
	// transactional boundary.
	id := m.createChatLocked(title, description)
	m.members[id][userID] = struct{}{}
	return id, nil
}

func (m *Memory) UpdateLastActivity(ctx context.Context, userID UserID) error {
	if err := ctx.Err(); err != nil {
		return storageErr("update_last_activity", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.LastActive = time.Now().Unix()
	m.users[userID] = u
	return nil
}

// AddDevice records a device row; used by tests and the dev store seeding.
func (m *Memory) AddDevice(ctx context.Context, d Device) error {
	if err := ctx.Err(); err != nil {
		return storageErr("add_device", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[d.UserID]; !ok {
		return ErrNotFound
	}
	m.devices[d.UserID] = append(m.devices[d.UserID], d)
	return nil
}
