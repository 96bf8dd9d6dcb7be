package contract

import (
	"context"

	"stratos-backend/internal/entity"
	"stratos-backend/internal/repository/specification"

	"github.com/google/uuid"
)

type SourceRepository interface {
	Create(ctx context.Context, source *entity.Source) error
	ExistsByReportAndURL(ctx context.Context, reportId uuid.UUID, url string) (bool, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Source, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Source, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type SourceEvidenceRepository interface {
	CreateBulk(ctx context.Context, evidences []*entity.SourceEvidence) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SourceEvidence, error)
}
