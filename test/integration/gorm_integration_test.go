package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"stratos-backend/internal/entity"
	"stratos-backend/internal/repository/specification"
	"stratos-backend/internal/repository/unitofwork"
	"stratos-backend/pkg/database"
	"stratos-backend/pkg/pipeline/state"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.SessionRepository())
	assert.NotNil(t, uow.ReportRepository())
	assert.NotNil(t, uow.SourceRepository())
	assert.NotNil(t, uow.EvidenceEmbeddingRepository())

	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)

	t.Run("Check Session Repository", func(t *testing.T) {
		count, err := uow.SessionRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Session count: %d", count)
	})

	t.Run("Transactional Session Create Rolls Back", func(t *testing.T) {
		ctx := context.Background()
		txUow := uowFactory.NewUnitOfWork(ctx)

		require.NoError(t, txUow.Begin(ctx))

		user := &entity.User{
			Id:        uuid.New(),
			Email:     "test-integration-" + uuid.New().String() + "@example.com",
			FullName:  "Integration Test User",
			Role:      entity.UserRoleUser,
			Status:    entity.UserStatusActive,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		require.NoError(t, txUow.UserRepository().Create(ctx, user))

		session := &entity.Session{
			Id:                  uuid.New(),
			UserId:              user.Id,
			Status:              state.Created,
			IdeaDescription:     "An integration test idea that goes nowhere",
			ClarificationSchema: map[string]string{},
			CreatedAt:           time.Now(),
		}
		require.NoError(t, txUow.SessionRepository().Create(ctx, session))

		require.NoError(t, txUow.Rollback())

		// After rollback neither row must exist.
		found, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: session.Id})
		assert.NoError(t, err)
		assert.Nil(t, found)
	})
}
