package types

import (
	"time"

	"github.com/google/uuid"
)

// Conversation stores one chat turn. SessionID is a small per-user counter
// so the frontend can group turns without minting ids of its own.
type Conversation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	SessionID int       `gorm:"index;not null" json:"session_id"`
	Role      string    `gorm:"not null" json:"role"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Context   string    `gorm:"type:text" json:"context,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (Conversation) TableName() string {
	return "conversation"
}
