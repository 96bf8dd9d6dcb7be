package dto

import (
	"time"

	"github.com/google/uuid"
)

type SectionResponse struct {
	Id         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	OrderIndex int       `json:"order_index"`
}

type SourceResponse struct {
	Id       uuid.UUID `json:"id"`
	URL      string    `json:"url"`
	Domain   string    `json:"domain"`
	Type     string    `json:"type"`
	Snippets []string  `json:"snippets"`
}

type ReportResponse struct {
	Id        uuid.UUID         `json:"id"`
	SessionId uuid.UUID         `json:"session_id"`
	Topic     string            `json:"topic"`
	Status    string            `json:"status"`
	Sections  []SectionResponse `json:"sections"`
	Sources   []SourceResponse  `json:"sources"`
	CreatedAt time.Time         `json:"created_at"`
}

type EvidenceSearchRequest struct {
	Query string `json:"query" validate:"required,min=3"`
	Limit int    `json:"limit"`
}

type EvidenceSearchResult struct {
	SourceId uuid.UUID `json:"source_id"`
	Document string    `json:"document"`
}
