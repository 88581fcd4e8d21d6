package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/oklog/ulid/v2"
)

const (
	wsSubprotocol = "relay.v1"

	wsDefaultSendQueueSize = 256
	wsDefaultWriteTimeout  = 5 * time.Second
)

// SessionValidator resolves a textual session id to its owning user.
// Malformed or unknown ids resolve to ok=false, never an error.
type SessionValidator interface {
	ValidateSession(text string) (userID int64, ok bool)
}

// WSGateway is the websocket entrypoint for message delivery.
//
// A client connects with GET /ws?session_id=<id>&chat_id=<id>; the session is
// validated up front and the connection then receives every message stored in
// that chat until either side closes.
type WSGateway struct {
	log      *slog.Logger
	hub      *Hub
	sessions SessionValidator

	sendQueueSize int
	writeTimeout  time.Duration
}

// NewWSGateway constructs a gateway over the given hub and session validator.
func NewWSGateway(log *slog.Logger, hub *Hub, sessions SessionValidator) *WSGateway {
	if log == nil {
		log = slog.Default()
	}
	if hub == nil {
		hub = NewHub(log)
	}
	return &WSGateway{
		log:           log,
		hub:           hub,
		sessions:      sessions,
		sendQueueSize: wsDefaultSendQueueSize,
		writeTimeout:  wsDefaultWriteTimeout,
	}
}

// HandleWS upgrades the request and streams chat messages to the client.
func (g *WSGateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	userID, ok := g.sessions.ValidateSession(q.Get("session_id"))
	if !ok {
		http.Error(w, "invalid session", http.StatusUnauthorized)
		return
	}

	chatID, err := strconv.ParseInt(q.Get("chat_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid chat_id", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols: []string{wsSubprotocol},
	})
	if err != nil {
		g.log.Info("ws.accept.fail", "err", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	client := NewClient(ulid.Make().String(), userID, g.sendQueueSize)
	g.hub.Subscribe(chatID, client)
	defer g.hub.Unsubscribe(chatID, client.ID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader exists only to observe the close handshake; inbound frames are
	// not part of the protocol (messages are posted over HTTP).
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	g.log.Info("ws.connect", "chat_id", chatID, "user_id", userID, "client_id", client.ID)

	for {
		select {
		case <-ctx.Done():
			return
		case <-client.Done():
			return
		case env := <-client.Send:
			if err := g.writeEnvelope(ctx, conn, env); err != nil {
				g.log.Info("ws.write.fail", "client_id", client.ID, "err", err)
				return
			}
		}
	}
}

func (g *WSGateway) writeEnvelope(ctx context.Context, conn *websocket.Conn, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	wctx, cancel := context.WithTimeout(ctx, g.writeTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, data)
}
