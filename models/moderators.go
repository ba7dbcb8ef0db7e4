package models

import (
	"time"
)

type Moderator struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"size:255;uniqueIndex" json:"email"`
	Password  string    `gorm:"size:255" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (Moderator) TableName() string {
	return "moderators"
}

type ModeratorToken struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ModeratorID int64  `gorm:"index:moderator_token_idx,unique" json:"moderator_id"`
	Token       string `gorm:"size:255;index:moderator_token_idx,unique" json:"token"`
}

func (ModeratorToken) TableName() string {
	return "moderator_tokens"
}
