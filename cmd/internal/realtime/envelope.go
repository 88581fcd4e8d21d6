// Package realtime pushes newly stored chat messages to connected websocket
// clients. Delivery is best-effort: persistence is authoritative and slow
// consumers are dropped rather than allowed to block a chat.
package realtime

// Envelope is the wire frame sent to websocket subscribers.
type Envelope struct {
	Type    string `json:"type"`
	ChatID  int64  `json:"chat_id"`
	UserID  int64  `json:"user_id"`
	Content string `json:"content"`
	SentAt  int64  `json:"sent_at"`
}

// NewMessageEnvelope builds the frame for a stored chat message.
func NewMessageEnvelope(chatID, userID int64, content string, sentAt int64) Envelope {
	return Envelope{
		Type:    "message",
		ChatID:  chatID,
		UserID:  userID,
		Content: content,
		SentAt:  sentAt,
	}
}
