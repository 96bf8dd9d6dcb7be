package unitofwork

import (
	"context"

	"stratos-backend/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	SessionRepository() contract.SessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
	ReportRepository() contract.ReportRepository
	SectionRepository() contract.SectionRepository
	SourceRepository() contract.SourceRepository
	SourceEvidenceRepository() contract.SourceEvidenceRepository
	EvidenceEmbeddingRepository() contract.EvidenceEmbeddingRepository
}
