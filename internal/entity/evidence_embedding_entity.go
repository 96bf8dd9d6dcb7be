package entity

import (
	"time"

	"github.com/google/uuid"
)

// EvidenceEmbedding is one embedded snippet chunk for semantic retrieval.
type EvidenceEmbedding struct {
	Id             uuid.UUID
	SourceId       uuid.UUID
	ChunkIndex     int
	Document       string
	EmbeddingValue []float32
	CreatedAt      time.Time
}
