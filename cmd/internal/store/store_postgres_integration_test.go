package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

// Integration tests are enabled when RELAY_DATABASE_URL is set.
// This keeps local "go test ./..." fast & deterministic without requiring Postgres.

var migrateMu sync.Mutex

func TestPostgresUserRoundTrip(t *testing.T) {
	t.Parallel()

	st, admin, schema := mustNewTestPostgres(t)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	id, err := st.CreateUser(ctx, "Alice", "Smith", "deadbeef", "0011223344556677")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u, err := st.GetUser(ctx, id)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.Name != "Alice" || u.Surname != "Smith" || u.PasswordHash != "deadbeef" || u.Salt != "0011223344556677" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.LastActive == 0 {
		t.Fatalf("CreateUser did not set an initial last_active stamp")
	}

	if _, err := st.GetUser(ctx, id+1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown user: got %v, want ErrNotFound", err)
	}

	users, err := st.GetUsers(ctx)
	if err != nil {
		t.Fatalf("GetUsers: %v", err)
	}
	if len(users) != 1 || users[0].ID != id {
		t.Fatalf("unexpected user list: %+v", users)
	}

	if n := mustCountRows(t, admin, schema, "users"); n != 1 {
		t.Fatalf("expected 1 user row, got %d", n)
	}
}

func TestPostgresChatMembershipAndMessages(t *testing.T) {
	t.Parallel()

	st, _, _ := mustNewTestPostgres(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	uid, err := st.CreateUser(ctx, "Bob", "Jones", "hash", "salt")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	cid, err := st.CreateChat(ctx, "Team", "the team chat")
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}

	chats, err := st.GetChats(ctx, uid)
	if err != nil {
		t.Fatalf("GetChats: %v", err)
	}
	if len(chats) != 0 {
		t.Fatalf("expected no chats before membership, got %+v", chats)
	}

	if err := st.AddMember(ctx, cid, uid); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	// Adding the same member twice is a no-op.
	if err := st.AddMember(ctx, cid, uid); err != nil {
		t.Fatalf("AddMember (repeat): %v", err)
	}

	chats, err = st.GetChats(ctx, uid)
	if err != nil {
		t.Fatalf("GetChats: %v", err)
	}
	if len(chats) != 1 || chats[0].ID != cid || chats[0].Title != "Team" {
		t.Fatalf("unexpected chat list: %+v", chats)
	}

	for _, content := range []string{"first", "second", "third"} {
		if err := st.StoreMessage(ctx, cid, uid, content); err != nil {
			t.Fatalf("StoreMessage(%q): %v", content, err)
		}
	}

	msgs, err := st.GetMessages(ctx, cid)
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i, want := range []string{"first", "second", "third"} {
		if msgs[i].Content != want || msgs[i].UserID != uid || msgs[i].SentAt == 0 {
			t.Fatalf("message %d out of order or incomplete: %+v", i, msgs[i])
		}
	}

	devices, err := st.GetDevices(ctx, uid)
	if err != nil {
		t.Fatalf("GetDevices: %v", err)
	}
	if len(devices) != 0 {
		t.Fatalf("expected no devices, got %+v", devices)
	}
}

func TestPostgresUpdateLastActivity(t *testing.T) {
	t.Parallel()

	st, _, _ := mustNewTestPostgres(t)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	uid, err := st.CreateUser(ctx, "Carol", "King", "hash", "salt")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	before, err := st.GetUser(ctx, uid)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}

	if err := st.UpdateLastActivity(ctx, uid); err != nil {
		t.Fatalf("UpdateLastActivity: %v", err)
	}

	after, err := st.GetUser(ctx, uid)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if after.LastActive < before.LastActive {
		t.Fatalf("last_active went backwards: before=%d after=%d", before.LastActive, after.LastActive)
	}

	if err := st.UpdateLastActivity(ctx, uid+999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown user: got %v, want ErrNotFound", err)
	}
}

func TestPostgresCreateChatWithMember(t *testing.T) {
	t.Parallel()

	st, admin, schema := mustNewTestPostgres(t)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	uid, err := st.CreateUser(ctx, "Dana", "Fox", "hash", "salt")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	cid, err := st.CreateChatWithMember(ctx, "Founders", "no orphans", uid)
	if err != nil {
		t.Fatalf("CreateChatWithMember: %v", err)
	}

	chats, err := st.GetChats(ctx, uid)
	if err != nil {
		t.Fatalf("GetChats: %v", err)
	}
	if len(chats) != 1 || chats[0].ID != cid {
		t.Fatalf("creator is not a member of the new chat: %+v", chats)
	}

	if n := mustCountRows(t, admin, schema, "memberships"); n != 1 {
		t.Fatalf("expected 1 membership row, got %d", n)
	}
}

func TestPostgresCreateChatWithMemberRollsBack(t *testing.T) {
	t.Parallel()

	st, admin, schema := mustNewTestPostgres(t)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// The membership insert violates the users FK, so the whole transaction
	// must roll back and no orphan chat row may remain.
	if _, err := st.CreateChatWithMember(ctx, "Ghost", "must not persist", 424242); err == nil {
		t.Fatalf("expected error for unknown founding member")
	}

	if n := mustCountRows(t, admin, schema, "chats"); n != 0 {
		t.Fatalf("orphan chat survived the rolled-back transaction: %d rows", n)
	}
	if n := mustCountRows(t, admin, schema, "memberships"); n != 0 {
		t.Fatalf("membership survived the rolled-back transaction: %d rows", n)
	}
}

// ---- test helpers ----

// mustNewTestPostgres provisions an isolated schema, runs the embedded goose
// migrations into it, and returns a store serialized over one connection plus
// an admin connection for direct row inspection.
func mustNewTestPostgres(t *testing.T) (*Postgres, *pgx.Conn, string) {
	t.Helper()

	raw := strings.TrimSpace(os.Getenv("RELAY_DATABASE_URL"))
	if raw == "" {
		t.Skip("integration test skipped: RELAY_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := pgx.Connect(ctx, raw)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	t.Cleanup(func() {
		cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer ccancel()
		_ = admin.Close(cctx)
	})

	schema := "relay_it_" + randomHex(8)
	if _, err := admin.Exec(ctx, `CREATE SCHEMA `+pgx.Identifier{schema}.Sanitize()); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer ccancel()
		_, _ = admin.Exec(cctx, `DROP SCHEMA IF EXISTS `+pgx.Identifier{schema}.Sanitize()+` CASCADE`)
	})

	// Scope the URL's search_path so both the migrations and the store land
	// in the throwaway schema; goose's version table follows along.
	scoped := mustScopeURL(t, raw, schema)

	// goose configuration is package-global; serialize across parallel tests.
	migrateMu.Lock()
	err = RunMigrations(ctx, scoped)
	migrateMu.Unlock()
	if err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}

	conn, err := pgx.Connect(ctx, scoped)
	if err != nil {
		t.Fatalf("connect store: %v", err)
	}

	st, err := NewPostgres(conn)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	t.Cleanup(func() {
		cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer ccancel()
		_ = st.Close(cctx)
	})

	return st, admin, schema
}

func mustScopeURL(t *testing.T, raw, schema string) string {
	t.Helper()

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse RELAY_DATABASE_URL: %v", err)
	}
	q := u.Query()
	q.Set("options", "-csearch_path="+schema)
	u.RawQuery = q.Encode()
	return u.String()
}

func mustCountRows(t *testing.T, admin *pgx.Conn, schema, table string) int {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var n int
	err := admin.QueryRow(ctx,
		`SELECT COUNT(*) FROM `+pgx.Identifier{schema, table}.Sanitize(),
	).Scan(&n)
	if err != nil {
		t.Fatalf("count %s.%s: %v", schema, table, err)
	}
	return n
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
