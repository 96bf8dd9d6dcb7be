package contract

import (
	"context"

	"stratos-backend/internal/entity"
	"stratos-backend/internal/repository/specification"

	"github.com/google/uuid"
)

type SectionRepository interface {
	CreateBulk(ctx context.Context, sections []*entity.Section) error
	DeleteByReportId(ctx context.Context, reportId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Section, error)
}
