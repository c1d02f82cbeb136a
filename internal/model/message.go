package model

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one persisted turn. ID is the insertion sequence and is the only
// ordering key for transcripts.
type Message struct {
	ID        uint      `gorm:"primaryKey;index:idx_messages_session_seq,priority:2" json:"sequence"`
	SessionID string    `gorm:"size:36;not null;index:idx_messages_session_seq,priority:1" json:"session_id"`
	Role      Role      `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Turn is the role/content pair sent to the model.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func (m Message) Turn() Turn {
	return Turn{Role: m.Role, Content: m.Content}
}
