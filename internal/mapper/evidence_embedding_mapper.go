package mapper

import (
	"stratos-backend/internal/entity"
	"stratos-backend/internal/model"

	"github.com/pgvector/pgvector-go"
)

type EvidenceEmbeddingMapper struct{}

func NewEvidenceEmbeddingMapper() *EvidenceEmbeddingMapper {
	return &EvidenceEmbeddingMapper{}
}

func (m *EvidenceEmbeddingMapper) ToEntity(e *model.EvidenceEmbedding) *entity.EvidenceEmbedding {
	if e == nil {
		return nil
	}

	return &entity.EvidenceEmbedding{
		Id:             e.Id,
		SourceId:       e.SourceId,
		ChunkIndex:     e.ChunkIndex,
		Document:       e.Document,
		EmbeddingValue: e.EmbeddingValue.Slice(),
		CreatedAt:      e.CreatedAt,
	}
}

func (m *EvidenceEmbeddingMapper) ToModel(e *entity.EvidenceEmbedding) *model.EvidenceEmbedding {
	if e == nil {
		return nil
	}

	return &model.EvidenceEmbedding{
		Id:             e.Id,
		SourceId:       e.SourceId,
		ChunkIndex:     e.ChunkIndex,
		Document:       e.Document,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		CreatedAt:      e.CreatedAt,
	}
}

func (m *EvidenceEmbeddingMapper) ToModels(embeddings []*entity.EvidenceEmbedding) []*model.EvidenceEmbedding {
	models := make([]*model.EvidenceEmbedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = m.ToModel(e)
	}
	return models
}
