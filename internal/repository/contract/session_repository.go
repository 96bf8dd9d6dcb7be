package contract

import (
	"context"

	"stratos-backend/internal/entity"
	"stratos-backend/internal/repository/specification"
)

type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	Update(ctx context.Context, session *entity.Session) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Session, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Session, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
