// Package store defines the persistence boundary of the Relay core.
//
// The rest of the service only ever talks to the Store interface; concrete
// adapters (Postgres, in-memory) live in this package but are interchangeable.
// Entities carry the identifiers storage assigns and nothing the core has to
// interpret beyond them.
package store

import "context"

// UserID and ChatID are storage-assigned 64-bit identifiers.
type (
	UserID = int64
	ChatID = int64
)

// User mirrors the users table. The password is stored only as a salted
// digest; the plaintext never reaches this layer.
type User struct {
	ID           UserID `json:"id"`
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	PasswordHash string `json:"-"`
	Salt         string `json:"-"`
	LastActive   int64  `json:"-"`
}

// Chat mirrors the chats table.
type Chat struct {
	ID          ChatID `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Message mirrors the messages table. SentAt is unix seconds.
type Message struct {
	ChatID  ChatID `json:"chat_id"`
	UserID  UserID `json:"user_id"`
	Content string `json:"content"`
	SentAt  int64  `json:"sent_at"`
}

// Device mirrors the devices table.
type Device struct {
	UserID   UserID `json:"-"`
	IP       string `json:"ip"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// Membership links a user to a chat they can read and write.
type Membership struct {
	ChatID ChatID `json:"chat_id"`
	UserID UserID `json:"user_id"`
}

// Store is the storage port consumed by the Relay core.
//
// Contract:
//   - Every driver-level failure is reported as a *StorageError; callers only
//     interpret success/failure, never the wrapped message.
//   - Lookups for a missing row return an error matching ErrNotFound.
//   - Implementations serialize access internally; callers may invoke any
//     method from any goroutine.
type Store interface {
	// GetUser loads one user by id.
	GetUser(ctx context.Context, id UserID) (User, error)

	// GetUsers lists every registered user.
	GetUsers(ctx context.Context) ([]User, error)

	// GetChats lists the chats the user is a member of.
	GetChats(ctx context.Context, userID UserID) ([]Chat, error)

	// GetMessages lists the messages of a chat in send order.
	GetMessages(ctx context.Context, chatID ChatID) ([]Message, error)

	// GetDevices lists the devices that logged in as the user.
	GetDevices(ctx context.Context, userID UserID) ([]Device, error)

	// StoreMessage appends a message to a chat.
	StoreMessage(ctx context.Context, chatID ChatID, userID UserID, content string) error

	// CreateUser inserts a user with an initial last_active stamp of the
	// current time and returns the assigned id.
	CreateUser(ctx context.Context, name, surname, passwordHash, salt string) (UserID, error)

	// CreateChat inserts a chat and returns the assigned id.
	CreateChat(ctx context.Context, title, description string) (ChatID, error)

	// AddMember adds a user to a chat.
	AddMember(ctx context.Context, chatID ChatID, userID UserID) error

	// CreateChatWithMember inserts a chat and its founding member in a single
	// atomic step, so a chat can never be observed without any member.
	CreateChatWithMember(ctx context.Context, title, description string, userID UserID) (ChatID, error)

	// UpdateLastActivity stamps the user's last_active with the current time.
	UpdateLastActivity(ctx context.Context, userID UserID) error

	// Close releases the underlying connection, if any.
	Close(ctx context.Context) error
}
