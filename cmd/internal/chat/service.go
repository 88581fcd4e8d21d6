package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"relay/cmd/internal/auth/credential"
	"relay/cmd/internal/auth/session"
	"relay/cmd/internal/metrics"
	"relay/cmd/internal/realtime"
	"relay/cmd/internal/store"
)

// Publisher receives stored messages for best-effort realtime delivery.
type Publisher interface {
	Publish(chatID int64, env realtime.Envelope)
}

// Service is the coordinating facade of the Relay core.
//
// The session store and the storage port are guarded by independent locks;
// operations that touch both (login, heartbeat) run two separate critical
// sections with no cross-resource atomicity.
type Service struct {
	log      *slog.Logger
	store    store.Store
	creds    *credential.Manager
	sessions *session.Store
	events   Publisher
}

// NewService wires the facade. events may be nil when realtime delivery is
// not wanted (tests, tooling).
func NewService(log *slog.Logger, st store.Store, creds *credential.Manager, sessions *session.Store, events Publisher) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		log:      log,
		store:    st,
		creds:    creds,
		sessions: sessions,
		events:   events,
	}
}

// Register creates a new user. Name and password must be non-empty; surname
// may be blank.
func (s *Service) Register(ctx context.Context, name, surname, password string) (store.UserID, error) {
	if strings.TrimSpace(name) == "" || password == "" {
		return 0, ErrInvalidInput
	}

	id, err := s.creds.Register(ctx, name, surname, password)
	if err != nil {
		s.log.Error("chat.register.fail", "err", err)
		return 0, err
	}

	s.log.Info("chat.register", "user_id", id)
	return id, nil
}

// Login verifies credentials and mints a session for the user.
func (s *Service) Login(ctx context.Context, userID store.UserID, password string) (int64, error) {
	sid, err := s.creds.Login(ctx, userID, password)
	if err != nil {
		s.log.Info("chat.login.fail", "user_id", userID, "err", err)
		return 0, err
	}

	s.log.Info("chat.login", "user_id", userID)
	return sid, nil
}

// ValidateSession resolves a textual session id to its owning user.
func (s *Service) ValidateSession(text string) (int64, bool) {
	return s.sessions.ValidateString(text)
}

// Logout removes the session. Idempotent: logging out an absent session is
// not an error.
func (s *Service) Logout(sessionID int64) {
	s.sessions.Remove(sessionID)
	s.log.Info("chat.logout", "session_id", sessionID)
}

// Heartbeat refreshes the session's activity and then stamps the owning
// user's last_active in storage. The two updates are independent critical
// sections: the session refresh stands even when the storage write fails.
func (s *Service) Heartbeat(ctx context.Context, sessionID int64) error {
	userID, ok := s.sessions.Touch(sessionID, time.Now())
	if !ok {
		return ErrSessionNotFound
	}

	if err := s.store.UpdateLastActivity(ctx, userID); err != nil {
		s.log.Error("chat.heartbeat.storage.fail", "user_id", userID, "err", err)
		return err
	}
	return nil
}

// IsActive reports whether any live session belongs to the user.
func (s *Service) IsActive(userID store.UserID) bool {
	return s.sessions.ActiveForUser(userID)
}

// CreateChat creates an empty chat. Callers are expected to have validated
// the acting session beforehand.
func (s *Service) CreateChat(ctx context.Context, title, description string) (store.ChatID, error) {
	if strings.TrimSpace(title) == "" {
		return 0, ErrInvalidInput
	}
	return s.store.CreateChat(ctx, title, description)
}

// CreateChatOwned creates a chat with its creator as the founding member in
// one atomic storage step, so a memberless chat can never be observed.
func (s *Service) CreateChatOwned(ctx context.Context, title, description string, creator store.UserID) (store.ChatID, error) {
	if strings.TrimSpace(title) == "" {
		return 0, ErrInvalidInput
	}

	id, err := s.store.CreateChatWithMember(ctx, title, description, creator)
	if err != nil {
		s.log.Error("chat.create.fail", "creator", creator, "err", err)
		return 0, err
	}

	s.log.Info("chat.create", "chat_id", id, "creator", creator)
	return id, nil
}

// Invite adds a user to a chat.
func (s *Service) Invite(ctx context.Context, userID store.UserID, chatID store.ChatID) error {
	return s.store.AddMember(ctx, chatID, userID)
}

// Message stores a message and fans it out to realtime subscribers.
func (s *Service) Message(ctx context.Context, userID store.UserID, chatID store.ChatID, content string) error {
	if content == "" {
		return ErrInvalidInput
	}

	if err := s.store.StoreMessage(ctx, chatID, userID, content); err != nil {
		return err
	}
	metrics.MessagesStored.Inc()

	if s.events != nil {
		s.events.Publish(chatID, realtime.NewMessageEnvelope(chatID, userID, content, time.Now().Unix()))
	}
	return nil
}

// Users lists every registered user.
func (s *Service) Users(ctx context.Context) ([]store.User, error) {
	return s.store.GetUsers(ctx)
}

// ChatsFor lists the chats the user is a member of.
func (s *Service) ChatsFor(ctx context.Context, userID store.UserID) ([]store.Chat, error) {
	return s.store.GetChats(ctx, userID)
}

// MessagesIn lists a chat's messages in send order.
func (s *Service) MessagesIn(ctx context.Context, chatID store.ChatID) ([]store.Message, error) {
	return s.store.GetMessages(ctx, chatID)
}

// DevicesFor lists the devices that logged in as the user.
func (s *Service) DevicesFor(ctx context.Context, userID store.UserID) ([]store.Device, error) {
	return s.store.GetDevices(ctx, userID)
}
