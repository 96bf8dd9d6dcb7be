package implementation

import (
	"context"
	"errors"

	"stratos-backend/internal/entity"
	"stratos-backend/internal/mapper"
	"stratos-backend/internal/model"
	"stratos-backend/internal/repository/contract"
	"stratos-backend/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SourceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SourceMapper
}

func NewSourceRepository(db *gorm.DB) contract.SourceRepository {
	return &SourceRepositoryImpl{
		db:     db,
		mapper: mapper.NewSourceMapper(),
	}
}

func (r *SourceRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SourceRepositoryImpl) Create(ctx context.Context, source *entity.Source) error {
	m := r.mapper.ToModel(source)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*source = *r.mapper.ToEntity(m)
	return nil
}

func (r *SourceRepositoryImpl) ExistsByReportAndURL(ctx context.Context, reportId uuid.UUID, url string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Source{}).
		Where("report_id = ? AND url = ?", reportId, url).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *SourceRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Source, error) {
	var m model.Source
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SourceRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Source, error) {
	var models []*model.Source
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *SourceRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Source{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type SourceEvidenceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SourceEvidenceMapper
}

func NewSourceEvidenceRepository(db *gorm.DB) contract.SourceEvidenceRepository {
	return &SourceEvidenceRepositoryImpl{
		db:     db,
		mapper: mapper.NewSourceEvidenceMapper(),
	}
}

func (r *SourceEvidenceRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SourceEvidenceRepositoryImpl) CreateBulk(ctx context.Context, evidences []*entity.SourceEvidence) error {
	if len(evidences) == 0 {
		return nil
	}
	models := r.mapper.ToModels(evidences)
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*evidences[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *SourceEvidenceRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SourceEvidence, error) {
	var models []*model.SourceEvidence
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}
