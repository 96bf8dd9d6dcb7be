package entity

import (
	"time"

	"stratos-backend/pkg/pipeline/state"

	"github.com/google/uuid"
)

// Session is one end-to-end pipeline run for one idea. The idea description
// is an immutable seed; the schema accumulates write-once; status only moves
// forward along the transition graph.
type Session struct {
	Id                  uuid.UUID
	UserId              uuid.UUID
	Status              state.Status
	IdeaDescription     string
	ClarifiedSummary    *string
	ClarificationSchema map[string]string
	CreatedAt           time.Time
	UpdatedAt           *time.Time
}
