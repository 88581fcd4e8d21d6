package realtime

import (
	"log/slog"
	"sync"
)

// Hub owns the per-chat subscriber sets and fans stored messages out to them.
type Hub struct {
	log *slog.Logger

	mu    sync.RWMutex
	rooms map[int64]map[string]*Client
}

// NewHub constructs a Hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:   log,
		rooms: make(map[int64]map[string]*Client),
	}
}

// Subscribe adds a client to a chat's subscriber set.
func (h *Hub) Subscribe(chatID int64, c *Client) {
	if h == nil || c == nil || c.ID == "" {
		return
	}

	h.mu.Lock()
	room, ok := h.rooms[chatID]
	if !ok {
		room = make(map[string]*Client)
		h.rooms[chatID] = room
	}
	room[c.ID] = c
	h.mu.Unlock()

	h.log.Info("realtime.subscribe", "chat_id", chatID, "client_id", c.ID)
}

// Unsubscribe removes a client and signals its shutdown.
func (h *Hub) Unsubscribe(chatID int64, clientID string) {
	if h == nil || clientID == "" {
		return
	}

	var c *Client

	h.mu.Lock()
	if room, ok := h.rooms[chatID]; ok {
		c = room[clientID]
		delete(room, clientID)
		if len(room) == 0 {
			delete(h.rooms, chatID)
		}
	}
	h.mu.Unlock()

	// Signal shutdown only after removal so a concurrent Publish cannot race
	// against client teardown.
	if c != nil {
		c.Close()
	}

	h.log.Info("realtime.unsubscribe", "chat_id", chatID, "client_id", clientID)
}

// Publish fans env out to every subscriber of the chat.
// Non-blocking: a full queue or a closing client means the frame is dropped
// for that subscriber.
func (h *Hub) Publish(chatID int64, env Envelope) {
	if h == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.rooms[chatID] {
		if c == nil {
			continue
		}

		select {
		case <-c.Done():
			continue
		default:
		}

		select {
		case c.Send <- env:
		default:
			// Drop rather than block the whole chat.
		}
	}
}

// Subscribers returns the current subscriber count for a chat.
func (h *Hub) Subscribers(chatID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[chatID])
}
