package unitofwork

import (
	"context"
	"fmt"

	"stratos-backend/internal/repository/contract"
	"stratos-backend/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) UserRepository() contract.UserRepository {
	return implementation.NewUserRepository(u.getDB())
}

func (u *UnitOfWorkImpl) SessionRepository() contract.SessionRepository {
	return implementation.NewSessionRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ChatMessageRepository() contract.ChatMessageRepository {
	return implementation.NewChatMessageRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ReportRepository() contract.ReportRepository {
	return implementation.NewReportRepository(u.getDB())
}

func (u *UnitOfWorkImpl) SectionRepository() contract.SectionRepository {
	return implementation.NewSectionRepository(u.getDB())
}

func (u *UnitOfWorkImpl) SourceRepository() contract.SourceRepository {
	return implementation.NewSourceRepository(u.getDB())
}

func (u *UnitOfWorkImpl) SourceEvidenceRepository() contract.SourceEvidenceRepository {
	return implementation.NewSourceEvidenceRepository(u.getDB())
}

func (u *UnitOfWorkImpl) EvidenceEmbeddingRepository() contract.EvidenceEmbeddingRepository {
	return implementation.NewEvidenceEmbeddingRepository(u.getDB())
}
