package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stratos-backend/internal/entity"
	"stratos-backend/internal/pkg/logger"
	"stratos-backend/internal/repository/specification"
	"stratos-backend/internal/repository/unitofwork"
	"stratos-backend/pkg/embedding"
	"stratos-backend/pkg/utils"

	"github.com/google/uuid"
)

type IConsumerService interface {
	Run(ctx context.Context, args map[string]string) error
}

type consumerService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
}

func NewConsumerService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		logger:            log,
	}
}

// Run embeds the evidence snippets of one source. The snippets are joined
// into a single document, split into overlapping chunks, and each chunk is
// embedded and stored. Old embeddings for the source are replaced in the
// same transaction, so a retried job never leaves duplicates behind.
func (cs *consumerService) Run(ctx context.Context, args map[string]string) error {
	sourceId, err := uuid.Parse(args["source_id"])
	if err != nil {
		return fmt.Errorf("invalid source_id %q: %w", args["source_id"], err)
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	source, err := uow.SourceRepository().FindOne(ctx, specification.ByID{ID: sourceId})
	if err != nil {
		return err
	}
	if source == nil {
		// Source deleted between dispatch and execution. Nothing to embed.
		cs.logger.Warn("EmbeddingConsumer", "Source not found, skipping", map[string]interface{}{
			"source_id": sourceId.String(),
		})
		return nil
	}

	evidences, err := uow.SourceEvidenceRepository().FindAll(ctx, specification.BySourceID{SourceID: sourceId})
	if err != nil {
		return err
	}
	if len(evidences) == 0 {
		cs.logger.Info("EmbeddingConsumer", "Source has no evidence snippets", map[string]interface{}{
			"source_id": sourceId.String(),
		})
		return nil
	}

	snippets := make([]string, 0, len(evidences))
	for _, ev := range evidences {
		snippets = append(snippets, ev.Snippet)
	}

	content := fmt.Sprintf("Source: %s\nType: %s\n\n%s",
		source.URL,
		source.Type,
		strings.Join(snippets, "\n"),
	)

	chunks := utils.SplitText(content, 1500, 200)

	newEmbeddings := make([]*entity.EvidenceEmbedding, 0, len(chunks))
	for i, chunk := range chunks {
		res, err := cs.embeddingProvider.Generate(chunk, embedding.TaskDocument)
		if err != nil {
			return fmt.Errorf("failed to embed chunk %d of source %s: %w", i, sourceId, err)
		}

		newEmbeddings = append(newEmbeddings, &entity.EvidenceEmbedding{
			Id:             uuid.New(),
			SourceId:       source.Id,
			ChunkIndex:     i,
			Document:       chunk,
			EmbeddingValue: res.Embedding.Values,
			CreatedAt:      time.Now(),
		})
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.EvidenceEmbeddingRepository().DeleteBySourceId(ctx, source.Id); err != nil {
		return err
	}
	if err := uow.EvidenceEmbeddingRepository().CreateBulk(ctx, newEmbeddings); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	cs.logger.Info("EmbeddingConsumer", "Embedded source evidence", map[string]interface{}{
		"source_id": sourceId.String(),
		"chunks":    len(chunks),
	})
	return nil
}
