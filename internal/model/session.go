package model

import "time"

// Session is a bounded conversation. Active only ever goes from true to false.
type Session struct {
	ID        string    `gorm:"primaryKey;size:36" json:"session_id"`
	Active    bool      `gorm:"not null;index" json:"active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
