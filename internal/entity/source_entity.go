package entity

import (
	"time"

	"github.com/google/uuid"
)

// Source is one discovered evidence item. At most one Source may exist per
// (report, url) pair.
type Source struct {
	Id        uuid.UUID
	ReportId  uuid.UUID
	URL       string
	Domain    string
	Type      string // web | news | patent
	CreatedAt time.Time
}

// SourceEvidence is one extracted text snippet belonging to a Source.
type SourceEvidence struct {
	Id       uuid.UUID
	SourceId uuid.UUID
	Snippet  string
}
