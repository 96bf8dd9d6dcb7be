package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is an append-only transcript entry for a session.
type ChatMessage struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	Role      string // user | assistant | system
	Message   string
	CreatedAt time.Time
}
