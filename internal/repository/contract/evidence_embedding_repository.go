package contract

import (
	"context"

	"stratos-backend/internal/entity"
	"stratos-backend/internal/repository/specification"

	"github.com/google/uuid"
)

type EvidenceEmbeddingRepository interface {
	CreateBulk(ctx context.Context, embeddings []*entity.EvidenceEmbedding) error
	DeleteBySourceId(ctx context.Context, sourceId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.EvidenceEmbedding, error)
	SearchSimilar(ctx context.Context, embedding []float32, limit int, reportId uuid.UUID) ([]*entity.EvidenceEmbedding, error)
}
