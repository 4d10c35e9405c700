package chat

import "time"

// Sender 标识消息来源。
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Message is one line of the append-only transcript. A long bot answer is
// stored as several consecutive bot messages, one per display chunk.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Intent    string    `json:"intent,omitempty"`
	Provider  string    `json:"provider,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
