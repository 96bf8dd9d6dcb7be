package implementation

import (
	"context"

	"stratos-backend/internal/entity"
	"stratos-backend/internal/mapper"
	"stratos-backend/internal/model"
	"stratos-backend/internal/repository/contract"
	"stratos-backend/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type EvidenceEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.EvidenceEmbeddingMapper
}

func NewEvidenceEmbeddingRepository(db *gorm.DB) contract.EvidenceEmbeddingRepository {
	return &EvidenceEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewEvidenceEmbeddingMapper(),
	}
}

func (r *EvidenceEmbeddingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *EvidenceEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.EvidenceEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	models := r.mapper.ToModels(embeddings)
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*embeddings[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *EvidenceEmbeddingRepositoryImpl) DeleteBySourceId(ctx context.Context, sourceId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("source_id = ?", sourceId).Delete(&model.EvidenceEmbedding{}).Error
}

func (r *EvidenceEmbeddingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.EvidenceEmbedding, error) {
	var models []*model.EvidenceEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.EvidenceEmbedding, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *EvidenceEmbeddingRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int, reportId uuid.UUID) ([]*entity.EvidenceEmbedding, error) {
	if limit <= 0 {
		limit = 5
	}
	var models []*model.EvidenceEmbedding

	// Cosine distance via pgvector: embedding_value <=> vector.
	// Join sources to scope results to one report.
	err := r.db.WithContext(ctx).
		Joins("JOIN sources ON sources.id = evidence_embeddings.source_id").
		Where("sources.report_id = ?", reportId).
		Order(gorm.Expr("embedding_value <=> ?", pgvector.NewVector(embedding))).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	entities := make([]*entity.EvidenceEmbedding, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}
