package chat

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"relay/cmd/internal/auth/credential"
	"relay/cmd/internal/auth/session"
	"relay/cmd/internal/realtime"
	"relay/cmd/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Memory, *session.Store, *realtime.Hub) {
	t.Helper()

	st := store.NewMemory()
	sessions := session.NewStore()
	creds := credential.NewManager(st, sessions)
	hub := realtime.NewHub(nil)
	svc := NewService(nil, st, creds, sessions, hub)
	return svc, st, sessions, hub
}

func TestRegisterLoginHeartbeatLogoutFlow(t *testing.T) {
	t.Parallel()

	svc, st, _, _ := newTestService(t)
	ctx := context.Background()

	uid, err := svc.Register(ctx, "Alice", "Smith", "secret")
	require.NoError(t, err)

	sid, err := svc.Login(ctx, uid, "secret")
	require.NoError(t, err)

	got, ok := svc.ValidateSession(strconv.FormatInt(sid, 10))
	require.True(t, ok)
	require.Equal(t, uid, got)

	before, err := st.GetUser(ctx, uid)
	require.NoError(t, err)

	require.NoError(t, svc.Heartbeat(ctx, sid))

	after, err := st.GetUser(ctx, uid)
	require.NoError(t, err)
	require.GreaterOrEqual(t, after.LastActive, before.LastActive)

	svc.Logout(sid)
	_, ok = svc.ValidateSession(strconv.FormatInt(sid, 10))
	require.False(t, ok, "session must be gone after logout")

	// Logout is idempotent.
	svc.Logout(sid)
}

func TestLoginFailures(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	uid, err := svc.Register(ctx, "Alice", "Smith", "secret")
	require.NoError(t, err)

	_, err = svc.Login(ctx, uid, "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, uid+99, "secret")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestRegisterRejectsEmptyInput(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "Smith", "secret")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(ctx, "Alice", "Smith", "")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidateSessionMalformedText(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(t)

	for _, text := range []string{"not-a-number", "", "12x", "1.5"} {
		_, ok := svc.ValidateSession(text)
		require.False(t, ok, "text %q must resolve to no session", text)
	}
}

func TestHeartbeatUnknownSession(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(t)
	require.ErrorIs(t, svc.Heartbeat(context.Background(), 12345), ErrSessionNotFound)
}

func TestIsActive(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	uid, err := svc.Register(ctx, "Alice", "Smith", "secret")
	require.NoError(t, err)
	require.False(t, svc.IsActive(uid))

	sid, err := svc.Login(ctx, uid, "secret")
	require.NoError(t, err)
	require.True(t, svc.IsActive(uid))

	svc.Logout(sid)
	require.False(t, svc.IsActive(uid))
}

func TestCreateChatInviteAndList(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	uid, err := svc.Register(ctx, "Alice", "Smith", "secret")
	require.NoError(t, err)

	cid, err := svc.CreateChat(ctx, "Team", "desc")
	require.NoError(t, err)

	require.NoError(t, svc.Invite(ctx, uid, cid))

	chats, err := svc.ChatsFor(ctx, uid)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	require.Equal(t, cid, chats[0].ID)
}

func TestCreateChatOwnedLeavesNoOrphan(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	uid, err := svc.Register(ctx, "Alice", "Smith", "secret")
	require.NoError(t, err)

	cid, err := svc.CreateChatOwned(ctx, "Founders", "desc", uid)
	require.NoError(t, err)

	chats, err := svc.ChatsFor(ctx, uid)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	require.Equal(t, cid, chats[0].ID)
}

func TestMessageStoresAndPublishes(t *testing.T) {
	t.Parallel()

	svc, _, _, hub := newTestService(t)
	ctx := context.Background()

	uid, err := svc.Register(ctx, "Alice", "Smith", "secret")
	require.NoError(t, err)
	cid, err := svc.CreateChatOwned(ctx, "Team", "desc", uid)
	require.NoError(t, err)

	sub := realtime.NewClient("sub", uid, 4)
	hub.Subscribe(cid, sub)

	require.NoError(t, svc.Message(ctx, uid, cid, "hello"))

	msgs, err := svc.MessagesIn(ctx, cid)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "hello", msgs[0].Content)

	select {
	case env := <-sub.Send:
		require.Equal(t, "message", env.Type)
		require.Equal(t, cid, env.ChatID)
		require.Equal(t, "hello", env.Content)
	default:
		t.Fatal("stored message was not published to subscribers")
	}

	require.ErrorIs(t, svc.Message(ctx, uid, cid, ""), ErrInvalidInput)

	var se *store.StorageError
	err = svc.Message(ctx, uid, cid+999, "ghost")
	require.Error(t, err)
	if !store.IsNotFound(err) {
		require.ErrorAs(t, err, &se)
	}
}
