package contract

import (
	"context"

	"stratos-backend/internal/entity"
	"stratos-backend/internal/repository/specification"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error)
	UpdateAvatar(ctx context.Context, userId uuid.UUID, avatarURL string) error
	UpdatePassword(ctx context.Context, userId uuid.UUID, hash string) error

	CreateProvider(ctx context.Context, provider *entity.UserProvider) error
	FindProvider(ctx context.Context, specs ...specification.Specification) (*entity.UserProvider, error)

	CreateRefreshToken(ctx context.Context, token *entity.UserRefreshToken) error
	FindRefreshToken(ctx context.Context, specs ...specification.Specification) (*entity.UserRefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
}
