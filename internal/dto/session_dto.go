package dto

import (
	"time"

	"github.com/google/uuid"
)

type StartSessionRequest struct {
	IdeaDescription string `json:"idea_description" validate:"required,min=10"`
}

type StartSessionResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type UserMessageRequest struct {
	SessionId uuid.UUID
	Message   string `json:"message" validate:"required"`
}

type UserMessageResponse struct {
	Accepted bool   `json:"accepted"`
	Status   string `json:"status"`
}

type ConsentRequest struct {
	SessionId uuid.UUID
}

type ConsentResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type SessionStatusResponse struct {
	Id               uuid.UUID         `json:"id"`
	Status           string            `json:"status"`
	IdeaDescription  string            `json:"idea_description"`
	ClarifiedSummary *string           `json:"clarified_summary,omitempty"`
	Schema           map[string]string `json:"clarification_schema"`
	Confidence       float64           `json:"confidence"`
	CreatedAt        time.Time         `json:"created_at"`
}

type ChatMessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type TranscriptResponse struct {
	SessionId uuid.UUID             `json:"session_id"`
	Messages  []ChatMessageResponse `json:"messages"`
}
