package service

import (
	"context"
	"fmt"

	"stratos-backend/internal/dto"
	"stratos-backend/internal/entity"
	"stratos-backend/internal/repository/specification"
	"stratos-backend/internal/repository/unitofwork"
	"stratos-backend/pkg/embedding"

	"github.com/google/uuid"
)

type IReportService interface {
	GetReport(ctx context.Context, userId, reportId uuid.UUID) (*dto.ReportResponse, error)
	SearchEvidence(ctx context.Context, userId, reportId uuid.UUID, query string, limit int) ([]dto.EvidenceSearchResult, error)
}

type reportService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
}

func NewReportService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
) IReportService {
	return &reportService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
	}
}

// GetReport assembles the full report view: ordered sections plus every
// source with its evidence snippets. Ownership is checked through the
// owning session.
func (s *reportService) GetReport(ctx context.Context, userId, reportId uuid.UUID) (*dto.ReportResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	report, err := s.ownedReport(ctx, uow, userId, reportId)
	if err != nil {
		return nil, err
	}

	sections, err := uow.SectionRepository().FindAll(ctx,
		specification.ByReportID{ReportID: report.Id},
		specification.OrderBy{Field: "order_index"},
	)
	if err != nil {
		return nil, err
	}

	sources, err := uow.SourceRepository().FindAll(ctx,
		specification.ByReportID{ReportID: report.Id},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	resp := &dto.ReportResponse{
		Id:        report.Id,
		SessionId: report.SessionId,
		Topic:     report.Topic,
		Status:    report.Status,
		Sections:  make([]dto.SectionResponse, 0, len(sections)),
		Sources:   make([]dto.SourceResponse, 0, len(sources)),
		CreatedAt: report.CreatedAt,
	}

	for _, section := range sections {
		resp.Sections = append(resp.Sections, dto.SectionResponse{
			Id:         section.Id,
			Title:      section.Title,
			OrderIndex: section.OrderIndex,
		})
	}

	for _, source := range sources {
		evidences, err := uow.SourceEvidenceRepository().FindAll(ctx,
			specification.BySourceID{SourceID: source.Id},
		)
		if err != nil {
			return nil, err
		}

		snippets := make([]string, 0, len(evidences))
		for _, ev := range evidences {
			snippets = append(snippets, ev.Snippet)
		}

		resp.Sources = append(resp.Sources, dto.SourceResponse{
			Id:       source.Id,
			URL:      source.URL,
			Domain:   source.Domain,
			Type:     source.Type,
			Snippets: snippets,
		})
	}

	return resp, nil
}

// SearchEvidence runs a semantic lookup over the report's embedded evidence
// chunks. The query is embedded with the retrieval-query task type so it
// lands in the same vector space as the stored documents.
func (s *reportService) SearchEvidence(ctx context.Context, userId, reportId uuid.UUID, query string, limit int) ([]dto.EvidenceSearchResult, error) {
	if limit <= 0 || limit > 20 {
		limit = 5
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	report, err := s.ownedReport(ctx, uow, userId, reportId)
	if err != nil {
		return nil, err
	}

	res, err := s.embeddingProvider.Generate(query, embedding.TaskQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed search query: %w", err)
	}

	matches, err := uow.EvidenceEmbeddingRepository().SearchSimilar(ctx, res.Embedding.Values, limit, report.Id)
	if err != nil {
		return nil, err
	}

	results := make([]dto.EvidenceSearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, dto.EvidenceSearchResult{
			SourceId: m.SourceId,
			Document: m.Document,
		})
	}
	return results, nil
}

func (s *reportService) ownedReport(ctx context.Context, uow unitofwork.UnitOfWork, userId, reportId uuid.UUID) (*entity.Report, error) {
	report, err := uow.ReportRepository().FindOne(ctx, specification.ByID{ID: reportId})
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, fmt.Errorf("%w: report %s", ErrNotFound, reportId)
	}

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: report.SessionId})
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserId != userId {
		return nil, ErrForbidden
	}

	return report, nil
}
