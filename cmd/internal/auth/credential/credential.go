package credential

import (
	"context"
	"time"

	"relay/cmd/internal/auth/session"
	"relay/cmd/internal/store"
)

// Manager registers users and verifies login attempts. Successful logins
// mint a session in the session store.
type Manager struct {
	store    store.Store
	sessions *session.Store
}

// NewManager constructs a Manager over the given storage port and session
// store.
func NewManager(st store.Store, sessions *session.Store) *Manager {
	return &Manager{store: st, sessions: sessions}
}

// Register creates a user with a freshly salted password digest. The initial
// activity stamp is part of the CreateUser contract. Storage failures are
// returned as-is; there is no retry.
func (m *Manager) Register(ctx context.Context, name, surname, password string) (store.UserID, error) {
	salt, err := newSalt()
	if err != nil {
		return 0, err
	}

	return m.store.CreateUser(ctx, name, surname, hashPassword(salt, password), salt)
}

// Login verifies the password for the user and, on a match, asks the session
// store to mint a new session bound to that user.
func (m *Manager) Login(ctx context.Context, userID store.UserID, password string) (int64, error) {
	u, err := m.store.GetUser(ctx, userID)
	if err != nil {
		if store.IsNotFound(err) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}

	if !hashEqual(u.PasswordHash, hashPassword(u.Salt, password)) {
		return 0, ErrInvalidCredentials
	}

	return m.sessions.Insert(u.ID, time.Now())
}
