package model

import (
	"time"

	"github.com/google/uuid"
)

type Source struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReportId  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sources_report_url,priority:1"`
	URL       string    `gorm:"type:text;not null;uniqueIndex:idx_sources_report_url,priority:2"`
	Domain    string    `gorm:"type:varchar(255);not null"`
	Type      string    `gorm:"type:varchar(20);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Source) TableName() string {
	return "sources"
}

type SourceEvidence struct {
	Id       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SourceId uuid.UUID `gorm:"type:uuid;not null;index"`
	Snippet  string    `gorm:"type:text;not null"`
}

func (SourceEvidence) TableName() string {
	return "source_evidences"
}
