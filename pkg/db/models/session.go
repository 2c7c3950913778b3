package models

import (
	"time"

	"github.com/medovik-lab/honeybot-backend/pkg/enums"
)

// LastAction is the typed per-flow scratch state correlating UI messages with
// backend transitions. It replaces an untyped keyed bag: every field that a
// later step may need is declared here explicitly.
type LastAction struct {
	Event             string     `json:"event,omitempty"`
	ReadyInMinutes    *int       `json:"ready_in,omitempty"`
	ReactionInMinutes *int       `json:"reaction_in,omitempty"`
	ExpectedReceiving *time.Time `json:"expected_recieving,omitempty"`
	LastMessageChatID int64      `json:"last_message_chat_id,omitempty"`
	LastMessageID     int        `json:"last_message_id,omitempty"`
}

// Session is one interaction flow of a user: registration, order building,
// tasting sign-up. Sessions are finished, never deleted.
type Session struct {
	ID          int64       `gorm:"column:id;primaryKey;autoIncrement"`
	TgUserID    int64       `gorm:"column:tg_user_id;not null;index"`
	RoleID      enums.Role  `gorm:"column:role_id;not null;default:1"`
	LastAction  *LastAction `gorm:"column:last_action;type:jsonb;serializer:json"`
	SentMessage bool        `gorm:"column:sent_message;not null;default:false"`
	IsActive    bool        `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time   `gorm:"column:updated_at;autoUpdateTime"`
	FinishedAt  *time.Time  `gorm:"column:finished_at"`
}

// TableName implements the GORM naming override.
func (Session) TableName() string { return "sessions" }
