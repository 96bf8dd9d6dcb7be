package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"stratos-backend/internal/dto"
	"stratos-backend/internal/entity"
	"stratos-backend/internal/repository/specification"
	"stratos-backend/internal/repository/unitofwork"
	"stratos-backend/pkg/events"
	pktNats "stratos-backend/pkg/nats"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.LoginResponse, error)
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

type authService struct {
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher *pktNats.Publisher
}

func NewAuthService(uowFactory unitofwork.RepositoryFactory, eventPublisher *pktNats.Publisher) IAuthService {
	return &authService{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, _ := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if existing != nil {
		return nil, errors.New("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	user := &entity.User{
		Id:           uuid.New(),
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: &hashStr,
		Role:         entity.UserRoleUser,
		Status:       entity.UserStatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}

	return &dto.RegisterResponse{Id: user.Id, Email: user.Email}, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.LoginResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, errors.New("invalid credentials")
	}
	if user == nil {
		return nil, errors.New("invalid credentials")
	}

	// OAuth-only accounts have no password to compare.
	if user.PasswordHash == nil {
		return nil, errors.New("user registered via OAuth")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	if user.Status == entity.UserStatusBlocked {
		return nil, errors.New("user account is blocked")
	}

	signedToken, err := signAccessToken(user)
	if err != nil {
		return nil, err
	}

	var rawRefreshToken string

	if req.RememberMe {
		rawRefreshToken = uuid.New().String()

		refreshTokenEntity := &entity.UserRefreshToken{
			Id:        uuid.New(),
			UserId:    user.Id,
			TokenHash: hashToken(rawRefreshToken),
			ExpiresAt: time.Now().Add(time.Hour * 24 * 30),
			Revoked:   false,
			CreatedAt: time.Now(),
		}

		if err := uow.UserRepository().CreateRefreshToken(ctx, refreshTokenEntity); err != nil {
			return nil, fmt.Errorf("failed to create session: %v", err)
		}
	}

	if s.eventPublisher != nil {
		event := events.BaseEvent{
			Type: "USER_LOGIN",
			Data: map[string]interface{}{
				"user_id": user.Id,
				"device":  userAgent,
				"ip":      ipAddress,
				"time":    time.Now().Format(time.RFC822),
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			fmt.Printf("[WARN] Failed to publish USER_LOGIN event: %v\n", err)
		}
	}

	return &dto.LoginResponse{
		AccessToken:  signedToken,
		RefreshToken: rawRefreshToken,
		User:         toUserDTO(user),
	}, nil
}

func (s *authService) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.LoginResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	stored, err := uow.UserRepository().FindRefreshToken(ctx, specification.ByTokenHash{TokenHash: hashToken(req.RefreshToken)})
	if err != nil {
		return nil, err
	}
	if stored == nil || stored.Revoked || time.Now().After(stored.ExpiresAt) {
		return nil, errors.New("invalid or expired refresh token")
	}

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: stored.UserId})
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status == entity.UserStatusBlocked {
		return nil, errors.New("invalid or expired refresh token")
	}

	signedToken, err := signAccessToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		AccessToken:  signedToken,
		RefreshToken: req.RefreshToken,
		User:         toUserDTO(user),
	}, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		// Stateless access tokens expire on their own.
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.UserRepository().RevokeRefreshToken(ctx, hashToken(refreshToken))
}

func signAccessToken(user *entity.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.Id.String(),
		"role":    user.Role,
		"exp":     time.Now().Add(time.Hour * 24).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_secret"
	}
	return token.SignedString([]byte(secret))
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func toUserDTO(user *entity.User) dto.UserDTO {
	d := dto.UserDTO{
		Id:       user.Id,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     string(user.Role),
	}
	if user.AvatarURL != nil {
		d.AvatarURL = *user.AvatarURL
	}
	return d
}
