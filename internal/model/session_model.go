package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Session struct {
	Id                  uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId              uuid.UUID         `gorm:"type:uuid;not null;index"`
	Status              string            `gorm:"type:varchar(50);not null;default:'CREATED'"`
	IdeaDescription     string            `gorm:"type:text;not null"`
	ClarifiedSummary    *string           `gorm:"type:text"`
	ClarificationSchema datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt           time.Time         `gorm:"autoCreateTime"`
	UpdatedAt           *time.Time        `gorm:"autoUpdateTime"`
}

func (Session) TableName() string {
	return "sessions"
}
