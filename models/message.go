package models

import (
	"time"
)

// Message - анонимная записка на доске. Колонка user_email никогда не
// сериализуется наружу, approved управляет видимостью в публичном списке.
type Message struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Recipients string    `gorm:"size:255;not null" json:"recipients"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	Color      string    `gorm:"size:32" json:"color"`
	UserEmail  string    `gorm:"column:user_email;size:255;index" json:"-"`
	Approved   bool      `gorm:"index" json:"approved"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}

// BoardMessage - публичное представление записки для GET /messages
type BoardMessage struct {
	ID         int64     `json:"id"`
	Recipients string    `json:"recipients"`
	Body       string    `json:"body"`
	Color      string    `json:"color"`
	CreatedAt  time.Time `json:"created_at"`
}

// BoardEvent - событие жизненного цикла записки для exchange и WebSocket
type BoardEvent struct {
	Event     string        `json:"event"` // "message.published", "message.approved", "message.rejected"
	MessageID int64         `json:"message_id"`
	Message   *BoardMessage `json:"message,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}
