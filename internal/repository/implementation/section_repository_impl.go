package implementation

import (
	"context"

	"stratos-backend/internal/entity"
	"stratos-backend/internal/mapper"
	"stratos-backend/internal/model"
	"stratos-backend/internal/repository/contract"
	"stratos-backend/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SectionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SectionMapper
}

func NewSectionRepository(db *gorm.DB) contract.SectionRepository {
	return &SectionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSectionMapper(),
	}
}

func (r *SectionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SectionRepositoryImpl) CreateBulk(ctx context.Context, sections []*entity.Section) error {
	if len(sections) == 0 {
		return nil
	}
	models := r.mapper.ToModels(sections)
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*sections[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *SectionRepositoryImpl) DeleteByReportId(ctx context.Context, reportId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("report_id = ?", reportId).Delete(&model.Section{}).Error
}

func (r *SectionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Section, error) {
	var models []*model.Section
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}
