package entity

import (
	"time"

	"github.com/google/uuid"
)

// Report is the single research artifact of a session. Its status mirrors
// the session's research stage for UI consumption.
type Report struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	Topic     string
	Status    string
	CreatedAt time.Time
}

// Section is one ordered outline title. Sections are only ever replaced as
// a full ordered set, never partially updated.
type Section struct {
	Id         uuid.UUID
	ReportId   uuid.UUID
	Title      string
	OrderIndex int
}
