package implementation

import (
	"context"
	"errors"

	"stratos-backend/internal/entity"
	"stratos-backend/internal/mapper"
	"stratos-backend/internal/model"
	"stratos-backend/internal/repository/contract"
	"stratos-backend/internal/repository/specification"

	"gorm.io/gorm"
)

type ReportRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ReportMapper
}

func NewReportRepository(db *gorm.DB) contract.ReportRepository {
	return &ReportRepositoryImpl{
		db:     db,
		mapper: mapper.NewReportMapper(),
	}
}

func (r *ReportRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ReportRepositoryImpl) Create(ctx context.Context, report *entity.Report) error {
	m := r.mapper.ToModel(report)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*report = *r.mapper.ToEntity(m)
	return nil
}

func (r *ReportRepositoryImpl) Update(ctx context.Context, report *entity.Report) error {
	m := r.mapper.ToModel(report)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*report = *r.mapper.ToEntity(m)
	return nil
}

func (r *ReportRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Report, error) {
	var m model.Report
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ReportRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Report, error) {
	var models []*model.Report
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Report, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}
