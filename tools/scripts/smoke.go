// Package main provides a CI-friendly smoke test for a running Relay server.
//
// It validates:
//   - register + login over HTTP
//   - websocket handshake + subprotocol selection
//   - chat creation with founding membership
//   - send over HTTP -> fanout to both websocket subscribers
//   - message persistence via /messages
//   - heartbeat + activity reporting
//   - logout invalidates the session
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
)

const (
	wantSubprotocol = "relay.v1"
	maxReadBytes    = 1 << 20 // 1MiB
)

type envelope struct {
	Type    string `json:"type"`
	ChatID  int64  `json:"chat_id"`
	UserID  int64  `json:"user_id"`
	Content string `json:"content"`
	SentAt  int64  `json:"sent_at"`
}

type wsClient struct {
	name string
	conn *websocket.Conn

	inbox chan envelope
	errCh chan error
}

func main() {
	var (
		baseURL = flag.String("url", "http://127.0.0.1:8080", "Relay base URL")
		text    = flag.String("text", "hello relay", "Message text to send")
		timeout = flag.Duration("timeout", 7*time.Second, "Per-step timeout")
		verbose = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if err := validateBaseURL(*baseURL); err != nil {
		fatalf("invalid -url: %v", err)
	}

	root := context.Background()
	suffix := time.Now().UnixNano()

	alice := mustRegister(root, *baseURL, fmt.Sprintf("smoke-alice-%d", suffix), "alicepw", *timeout)
	bob := mustRegister(root, *baseURL, fmt.Sprintf("smoke-bob-%d", suffix), "bobpw", *timeout)

	aliceSID := mustLogin(root, *baseURL, alice, "alicepw", *timeout)
	bobSID := mustLogin(root, *baseURL, bob, "bobpw", *timeout)

	if *verbose {
		fmt.Printf("registered: alice=%d bob=%d\n", alice, bob)
	}

	chatID := mustCreateChat(root, *baseURL, aliceSID, fmt.Sprintf("smoke-%d", suffix), *timeout)
	mustPostOK(root, *baseURL, fmt.Sprintf("/invite?session_id=%d", aliceSID),
		map[string]any{"user_id": bob, "chat_id": chatID}, *timeout)

	a := mustConnect(root, "A", *baseURL, aliceSID, chatID, *timeout)
	defer closeWS(a.conn)

	b := mustConnect(root, "B", *baseURL, bobSID, chatID, *timeout)
	defer closeWS(b.conn)

	mustPostOK(root, *baseURL, fmt.Sprintf("/message?session_id=%d", aliceSID),
		map[string]any{"chat_id": chatID, "content": *text}, *timeout)

	mustReceive(root, a, chatID, alice, *text, *timeout)
	mustReceive(root, b, chatID, alice, *text, *timeout)

	mustMessageStored(root, *baseURL, chatID, alice, *text, *timeout)

	mustPostOK(root, *baseURL, fmt.Sprintf("/heartbeat?session_id=%d", bobSID), struct{}{}, *timeout)
	if !mustActivity(root, *baseURL, bob, *timeout) {
		fatalf("bob should be active while logged in")
	}

	mustLogout(root, *baseURL, bobSID, *timeout)
	if mustActivity(root, *baseURL, bob, *timeout) {
		fatalf("bob should be inactive after logout")
	}

	fmt.Printf("OK: alice=%d bob=%d chat_id=%d\n", alice, bob, chatID)
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("missing host")
	}
	return nil
}

func wsURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	default:
		return "ws://" + strings.TrimPrefix(base, "http://")
	}
}

func postJSON(parent context.Context, rawURL string, body any, stepTimeout time.Duration) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return http.DefaultClient.Do(req)
}

func mustDecode(resp *http.Response, dst any) {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		fatalf("decode response: %v", err)
	}
}

func mustRegister(parent context.Context, base, name, password string, stepTimeout time.Duration) int64 {
	resp, err := postJSON(parent, base+"/register", map[string]string{
		"name": name, "surname": "smoke", "password": password,
	}, stepTimeout)
	if err != nil {
		fatalf("register %s: %v", name, err)
	}
	if resp.StatusCode != http.StatusOK {
		fatalf("register %s: status=%d", name, resp.StatusCode)
	}
	var out struct {
		UserID int64 `json:"user_id"`
	}
	mustDecode(resp, &out)
	if out.UserID <= 0 {
		fatalf("register %s: invalid user_id %d", name, out.UserID)
	}
	return out.UserID
}

func mustLogin(parent context.Context, base string, userID int64, password string, stepTimeout time.Duration) int64 {
	resp, err := postJSON(parent, base+"/login", map[string]any{
		"user_id": userID, "password": password,
	}, stepTimeout)
	if err != nil {
		fatalf("login %d: %v", userID, err)
	}
	if resp.StatusCode != http.StatusOK {
		fatalf("login %d: status=%d", userID, resp.StatusCode)
	}
	var out struct {
		SessionID int64 `json:"session_id"`
	}
	mustDecode(resp, &out)
	return out.SessionID
}

func mustCreateChat(parent context.Context, base string, sid int64, title string, stepTimeout time.Duration) int64 {
	resp, err := postJSON(parent, fmt.Sprintf("%s/create?session_id=%d", base, sid),
		map[string]string{"title": title, "description": "smoke chat"}, stepTimeout)
	if err != nil {
		fatalf("create chat: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		fatalf("create chat: status=%d", resp.StatusCode)
	}
	var out struct {
		ChatID int64 `json:"chat_id"`
	}
	mustDecode(resp, &out)
	if out.ChatID <= 0 {
		fatalf("create chat: invalid chat_id %d", out.ChatID)
	}
	return out.ChatID
}

func mustPostOK(parent context.Context, base, path string, body any, stepTimeout time.Duration) {
	resp, err := postJSON(parent, base+path, body, stepTimeout)
	if err != nil {
		fatalf("POST %s: %v", path, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fatalf("POST %s: status=%d", path, resp.StatusCode)
	}
}

func mustActivity(parent context.Context, base string, userID int64, stepTimeout time.Duration) bool {
	resp, err := postJSON(parent, base+"/getActivity", map[string]any{"user_id": userID}, stepTimeout)
	if err != nil {
		fatalf("getActivity: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		fatalf("getActivity: status=%d", resp.StatusCode)
	}
	var out struct {
		Active bool `json:"active"`
	}
	mustDecode(resp, &out)
	return out.Active
}

func mustLogout(parent context.Context, base string, sid int64, stepTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/logout?session_id=%d", base, sid), nil)
	if err != nil {
		fatalf("logout: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fatalf("logout: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fatalf("logout: status=%d", resp.StatusCode)
	}
}

func mustMessageStored(parent context.Context, base string, chatID, userID int64, text string, stepTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/messages?chat_id=%d", base, chatID), nil)
	if err != nil {
		fatalf("messages: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fatalf("messages: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		fatalf("messages: status=%d", resp.StatusCode)
	}
	var out struct {
		Messages []struct {
			UserID  int64  `json:"user_id"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	mustDecode(resp, &out)

	for _, m := range out.Messages {
		if m.UserID == userID && m.Content == text {
			return
		}
	}
	fatalf("messages: stored message not found in chat %d", chatID)
}

func mustConnect(parent context.Context, name, base string, sid, chatID int64, stepTimeout time.Duration) *wsClient {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	target := fmt.Sprintf("%s/ws?session_id=%d&chat_id=%d", wsURL(base), sid, chatID)
	conn, resp, err := websocket.Dial(ctx, target, &websocket.DialOptions{
		Subprotocols: []string{wantSubprotocol},
	})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		fatalf("connect %s: %v", name, err)
	}

	assertSubprotocol(resp, wantSubprotocol)
	conn.SetReadLimit(maxReadBytes)

	c := &wsClient{
		name:  name,
		conn:  conn,
		inbox: make(chan envelope, 64),
		errCh: make(chan error, 1),
	}
	c.startReadLoop()
	return c
}

func assertSubprotocol(resp *http.Response, want string) {
	if resp == nil {
		return
	}
	got := strings.TrimSpace(resp.Header.Get("Sec-WebSocket-Protocol"))
	if got == "" {
		return
	}
	if got != want {
		fatalf("subprotocol mismatch: got=%q want=%q", got, want)
	}
}

func (c *wsClient) startReadLoop() {
	go func() {
		defer close(c.inbox)

		for {
			mt, data, err := c.conn.Read(context.Background())
			if err != nil {
				select {
				case c.errCh <- err:
				default:
				}
				return
			}
			if mt != websocket.MessageText {
				select {
				case c.errCh <- fmt.Errorf("unsupported message type: %v", mt):
				default:
				}
				return
			}

			var env envelope
			if err := json.Unmarshal(data, &env); err != nil {
				select {
				case c.errCh <- fmt.Errorf("bad json: %w", err):
				default:
				}
				return
			}

			select {
			case c.inbox <- env:
			default:
				select {
				case c.errCh <- errors.New("inbox overflow: consumer too slow"):
				default:
				}
				return
			}
		}
	}()
}

func mustReceive(parent context.Context, c *wsClient, chatID, userID int64, text string, stepTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			fatalf("timeout waiting for message (%s): %v", c.name, ctx.Err())
		case err := <-c.errCh:
			fatalf("connection error while waiting for message (%s): %v", c.name, err)
		case env, ok := <-c.inbox:
			if !ok {
				fatalf("connection closed while waiting for message (%s)", c.name)
			}
			if env.Type != "message" {
				fatalf("unexpected envelope type (%s): %q", c.name, env.Type)
			}
			if env.ChatID != chatID {
				fatalf("chat_id mismatch (%s): got=%d want=%d", c.name, env.ChatID, chatID)
			}
			if env.UserID != userID {
				fatalf("user_id mismatch (%s): got=%d want=%d", c.name, env.UserID, userID)
			}
			if env.Content != text {
				fatalf("content mismatch (%s): got=%q want=%q", c.name, env.Content, text)
			}
			if env.SentAt <= 0 {
				fatalf("sent_at missing (%s)", c.name)
			}
			return
		}
	}
}

func closeWS(conn *websocket.Conn) {
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
