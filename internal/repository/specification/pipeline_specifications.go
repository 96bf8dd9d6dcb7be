package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BySessionID struct {
	SessionID uuid.UUID
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

type ByUserID struct {
	UserID uuid.UUID
}

func (s ByUserID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type ByReportID struct {
	ReportID uuid.UUID
}

func (s ByReportID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("report_id = ?", s.ReportID)
}

type BySourceID struct {
	SourceID uuid.UUID
}

func (s BySourceID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source_id = ?", s.SourceID)
}

type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

type ByURL struct {
	URL string
}

func (s ByURL) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("url = ?", s.URL)
}
