package contract

import (
	"context"

	"stratos-backend/internal/entity"
	"stratos-backend/internal/repository/specification"
)

type ReportRepository interface {
	Create(ctx context.Context, report *entity.Report) error
	Update(ctx context.Context, report *entity.Report) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Report, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Report, error)
}
