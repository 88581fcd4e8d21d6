package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// Postgres implements Store over a single PostgreSQL connection.
//
// Concurrency model: one connection, one exclusive lock. Every call holds the
// lock for its full duration, so at most one statement is in flight at any
// time. This serializes all writes against each other and trades throughput
// for a race-free storage layer; a stalled statement stalls every caller.
type Postgres struct {
	mu   chan struct{} // buffered-1 semaphore; ctx-aware unlike sync.Mutex
	conn *pgx.Conn
}

// NewPostgres wraps an established connection. The caller transfers
// ownership; Close releases it.
func NewPostgres(conn *pgx.Conn) (*Postgres, error) {
	if conn == nil {
		return nil, errors.New("store: nil connection")
	}
	p := &Postgres{
		mu:   make(chan struct{}, 1),
		conn: conn,
	}
	return p, nil
}

// acquire takes the connection lock, honoring context cancellation while
// waiting. Callers must release() after use.
func (p *Postgres) acquire(ctx context.Context) error {
	select {
	case p.mu <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Postgres) release() { <-p.mu }

// Ping verifies the connection is alive.
func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.acquire(ctx); err != nil {
		return storageErr("ping", err)
	}
	defer p.release()
	return storageErr("ping", p.conn.Ping(ctx))
}

// Close closes the underlying connection.
func (p *Postgres) Close(ctx context.Context) error {
	if err := p.acquire(ctx); err != nil {
		return storageErr("close", err)
	}
	defer p.release()
	return storageErr("close", p.conn.Close(ctx))
}

func (p *Postgres) GetUser(ctx context.Context, id UserID) (User, error) {
	if err := p.acquire(ctx); err != nil {
		return User{}, storageErr("get_user", err)
	}
	defer p.release()

	var u User
	err := p.conn.QueryRow(ctx,
		`SELECT id, name, surname, password_hash, salt, last_active FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Name, &u.Surname, &u.PasswordHash, &u.Salt, &u.LastActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, storageErr("get_user", err)
	}
	return u, nil
}

func (p *Postgres) GetUsers(ctx context.Context) ([]User, error) {
	if err := p.acquire(ctx); err != nil {
		return nil, storageErr("get_users", err)
	}
	defer p.release()

	rows, err := p.conn.Query(ctx,
		`SELECT id, name, surname, password_hash, salt, last_active FROM users ORDER BY id`)
	if err != nil {
		return nil, storageErr("get_users", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Surname, &u.PasswordHash, &u.Salt, &u.LastActive); err != nil {
			return nil, storageErr("get_users", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("get_users", err)
	}
	return out, nil
}

func (p *Postgres) GetChats(ctx context.Context, userID UserID) ([]Chat, error) {
	if err := p.acquire(ctx); err != nil {
		return nil, storageErr("get_chats", err)
	}
	defer p.release()

	rows, err := p.conn.Query(ctx,
		`SELECT c.id, c.title, c.description
		   FROM chats c
		   JOIN memberships m ON m.chat_id = c.id
		  WHERE m.user_id = $1
		  ORDER BY c.id`,
		userID,
	)
	if err != nil {
		return nil, storageErr("get_chats", err)
	}
	defer rows.Close()

	var out []Chat
	for rows.Next() {
		var c Chat
		if err := rows.Scan(&c.ID, &c.Title, &c.Description); err != nil {
			return nil, storageErr("get_chats", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("get_chats", err)
	}
	return out, nil
}

func (p *Postgres) GetMessages(ctx context.Context, chatID ChatID) ([]Message, error) {
	if err := p.acquire(ctx); err != nil {
		return nil, storageErr("get_messages", err)
	}
	defer p.release()

	rows, err := p.conn.Query(ctx,
		`SELECT chat_id, user_id, content, sent_at FROM messages WHERE chat_id = $1 ORDER BY id`,
		chatID,
	)
	if err != nil {
		return nil, storageErr("get_messages", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ChatID, &m.UserID, &m.Content, &m.SentAt); err != nil {
			return nil, storageErr("get_messages", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("get_messages", err)
	}
	return out, nil
}

func (p *Postgres) GetDevices(ctx context.Context, userID UserID) ([]Device, error) {
	if err := p.acquire(ctx); err != nil {
		return nil, storageErr("get_devices", err)
	}
	defer p.release()

	rows, err := p.conn.Query(ctx,
		`SELECT user_id, ip, name, is_active FROM devices WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, storageErr("get_devices", err)
	}
	defer rows.Close()

	var out []Device
	for rows.Next() {
		var d Device
		if err := rows.Scan(&d.UserID, &d.IP, &d.Name, &d.IsActive); err != nil {
			return nil, storageErr("get_devices", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("get_devices", err)
	}
	return out, nil
}

func (p *Postgres) StoreMessage(ctx context.Context, chatID ChatID, userID UserID, content string) error {
	if err := p.acquire(ctx); err != nil {
		return storageErr("store_message", err)
	}
	defer p.release()

	_, err := p.conn.Exec(ctx,
		`INSERT INTO messages (chat_id, user_id, content, sent_at) VALUES ($1, $2, $3, $4)`,
		chatID, userID, content, time.Now().Unix(),
	)
	return storageErr("store_message", err)
}

func (p *Postgres) CreateUser(ctx context.Context, name, surname, passwordHash, salt string) (UserID, error) {
	if err := p.acquire(ctx); err != nil {
		return 0, storageErr("create_user", err)
	}
	defer p.release()

	var id UserID
	err := p.conn.QueryRow(ctx,
		`INSERT INTO users (name, surname, password_hash, salt, last_active)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		name, surname, passwordHash, salt, time.Now().Unix(),
	).Scan(&id)
	if err != nil {
		return 0, storageErr("create_user", err)
	}
	return id, nil
}

func (p *Postgres) CreateChat(ctx context.Context, title, description string) (ChatID, error) {
	if err := p.acquire(ctx); err != nil {
		return 0, storageErr("create_chat", err)
	}
	defer p.release()

	var id ChatID
	err := p.conn.QueryRow(ctx,
		`INSERT INTO chats (title, description) VALUES ($1, $2) RETURNING id`,
		title, description,
	).Scan(&id)
	if err != nil {
		return 0, storageErr("create_chat", err)
	}
	return id, nil
}

func (p *Postgres) AddMember(ctx context.Context, chatID ChatID, userID UserID) error {
	if err := p.acquire(ctx); err != nil {
		return storageErr("add_member", err)
	}
	defer p.release()

	_, err := p.conn.Exec(ctx,
		`INSERT INTO memberships (chat_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		chatID, userID,
	)
	return storageErr("add_member", err)
}

// CreateChatWithMember runs the chat insert and the founding membership in
// one transaction so a chat without any member is never visible.
func (p *Postgres) CreateChatWithMember(ctx context.Context, title, description string, userID UserID) (ChatID, error) {
	if err := p.acquire(ctx); err != nil {
		return 0, storageErr("create_chat_with_member", err)
	}
	defer p.release()

	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return 0, storageErr("create_chat_with_member", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id ChatID
	err = tx.QueryRow(ctx,
		`INSERT INTO chats (title, description) VALUES ($1, $2) RETURNING id`,
		title, description,
	).Scan(&id)
	if err != nil {
		return 0, storageErr("create_chat_with_member", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO memberships (chat_id, user_id) VALUES ($1, $2)`,
		id, userID,
	); err != nil {
		return 0, storageErr("create_chat_with_member", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, storageErr("create_chat_with_member", err)
	}
	return id, nil
}

func (p *Postgres) UpdateLastActivity(ctx context.Context, userID UserID) error {
	if err := p.acquire(ctx); err != nil {
		return storageErr("update_last_activity", err)
	}
	defer p.release()

	tag, err := p.conn.Exec(ctx,
		`UPDATE users SET last_active = $1 WHERE id = $2`,
		time.Now().Unix(), userID,
	)
	if err != nil {
		return storageErr("update_last_activity", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
