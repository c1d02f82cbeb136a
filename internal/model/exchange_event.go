package model

import "time"

type ExchangeEventKind string

const (
	EventSessionCreated   ExchangeEventKind = "session_created"
	EventSessionEnded     ExchangeEventKind = "session_ended"
	EventMessageExchanged ExchangeEventKind = "message_exchanged"
)

// ExchangeEvent is the audit record published for lifecycle transitions and
// completed model exchanges.
type ExchangeEvent struct {
	ID          string            `gorm:"primaryKey;size:36" json:"id"`
	SessionID   string            `gorm:"size:36;not null;index" json:"session_id"`
	Kind        ExchangeEventKind `gorm:"size:32;not null;index" json:"kind"`
	UserContent string            `gorm:"type:text" json:"user_content,omitempty"`
	RawReply    string            `gorm:"type:text" json:"raw_reply,omitempty"`
	Fallback    bool              `json:"fallback"`
	CreatedAt   time.Time         `json:"created_at"`
}
