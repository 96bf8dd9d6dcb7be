package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId uuid.UUID `gorm:"type:uuid;not null;index"`
	Role      string    `gorm:"type:varchar(50);not null"`
	Message   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
