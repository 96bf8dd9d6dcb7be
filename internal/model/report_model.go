package model

import (
	"time"

	"github.com/google/uuid"
)

type Report struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId uuid.UUID `gorm:"type:uuid;not null;index"`
	Topic     string    `gorm:"type:text;not null"`
	Status    string    `gorm:"type:varchar(50);not null;default:'draft'"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Report) TableName() string {
	return "reports"
}

type Section struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReportId   uuid.UUID `gorm:"type:uuid;not null;index"`
	Title      string    `gorm:"type:varchar(255);not null"`
	OrderIndex int       `gorm:"not null;default:0"`
}

func (Section) TableName() string {
	return "sections"
}
