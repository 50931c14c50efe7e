package models

import (
	"time"
)

type MessageKind string

const (
	MessageText  MessageKind = "text"
	MessageVoice MessageKind = "voice"
)

// Message is immutable once created. For voice messages Body holds the
// fetchable URL of the uploaded audio clip.
type Message struct {
	ID        string      `json:"id"`
	TicketID  string      `json:"ticket_id"`
	SenderID  string      `json:"sender_id"`
	Body      string      `json:"body"`
	Kind      MessageKind `json:"kind"` // text, voice
	Checksum  string      `json:"checksum,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

type NewMessage struct {
	TicketID string      `json:"ticket_id"`
	SenderID string      `json:"sender_id"`
	Body     string      `json:"body"`
	Kind     MessageKind `json:"kind"`
	Checksum string      `json:"checksum,omitempty"`
}
