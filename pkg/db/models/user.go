package models

import "time"

// User is a registered Telegram account, customer or seller alike.
type User struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement"`
	TgUserID    int64      `gorm:"column:tg_user_id;not null;uniqueIndex"`
	Username    *string    `gorm:"column:username;size:50"`
	Firstname   *string    `gorm:"column:firstname;size:50"`
	PhoneNumber *string    `gorm:"column:phone_number;size:20"`
	IsActive    bool       `gorm:"column:is_active;not null;default:true"`
	IsBot       bool       `gorm:"column:is_bot;not null;default:false"`
	SourceID    *int64     `gorm:"column:source_id"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	Sessions []Session `gorm:"foreignKey:TgUserID;references:TgUserID"`
}

// TableName implements the GORM naming override.
func (User) TableName() string { return "users" }

// DisplayName picks the best available human-readable name.
func (u User) DisplayName() string {
	if u.Firstname != nil && *u.Firstname != "" {
		return *u.Firstname
	}
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	return "—"
}

// Phone returns the phone number or a placeholder.
func (u User) Phone() string {
	if u.PhoneNumber != nil && *u.PhoneNumber != "" {
		return *u.PhoneNumber
	}
	return "не указан"
}
