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

type SessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewSessionRepository(db *gorm.DB) contract.SessionRepository {
	return &SessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *SessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SessionRepositoryImpl) Create(ctx context.Context, session *entity.Session) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

func (r *SessionRepositoryImpl) Update(ctx context.Context, session *entity.Session) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

func (r *SessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Session, error) {
	var m model.Session
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Session, error) {
	var models []*model.Session
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *SessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Session{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
