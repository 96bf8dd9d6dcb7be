package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"stratos-backend/internal/constant"
	"stratos-backend/internal/dto"
	"stratos-backend/internal/entity"
	"stratos-backend/internal/pkg/logger"
	"stratos-backend/internal/repository/specification"
	"stratos-backend/internal/repository/unitofwork"
	"stratos-backend/pkg/bus"
	"stratos-backend/pkg/dispatch"
	"stratos-backend/pkg/llm"
	"stratos-backend/pkg/scrape"
	"stratos-backend/pkg/search"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	maxResearchWorkers  = 4
	resultsPerVariant   = 5
	maxSnippetsPerPage  = 5
	minQueryWords       = 3
	maxQueryWords       = 12
	minGeneratedQueries = 3
	maxGeneratedQueries = 5
)

type IResearchService interface {
	Run(ctx context.Context, args map[string]string) error
}

type researchService struct {
	uowFactory     unitofwork.RepositoryFactory
	provider       llm.LLMProvider
	searchProvider search.Provider
	fetcher        scrape.Fetcher
	eventBus       *bus.EventBus
	dispatcher     *dispatch.Dispatcher
	logger         logger.ILogger
}

func NewResearchService(
	uowFactory unitofwork.RepositoryFactory,
	provider llm.LLMProvider,
	searchProvider search.Provider,
	fetcher scrape.Fetcher,
	eventBus *bus.EventBus,
	dispatcher *dispatch.Dispatcher,
	log logger.ILogger,
) IResearchService {
	return &researchService{
		uowFactory:     uowFactory,
		provider:       provider,
		searchProvider: searchProvider,
		fetcher:        fetcher,
		eventBus:       eventBus,
		dispatcher:     dispatcher,
		logger:         log,
	}
}

// Run gathers external evidence for a report: generate queries, fan the
// searches out across a bounded worker pool, then persist deduplicated
// sources and snippets. A returned error re-enters the retry policy after
// research_failed is published.
func (s *researchService) Run(ctx context.Context, args map[string]string) error {
	reportId, err := uuid.Parse(args["report_id"])
	if err != nil {
		return fmt.Errorf("invalid report_id %q: %w", args["report_id"], err)
	}

	if err := s.run(ctx, reportId); err != nil {
		if pubErr := s.eventBus.Publish(constant.EventResearchFailed, map[string]interface{}{
			"report_id": reportId.String(),
			"error":     err.Error(),
		}); pubErr != nil {
			s.logger.Error("Research", "Failed to publish research_failed", map[string]interface{}{"error": pubErr.Error()})
		}
		return err
	}

	return s.eventBus.Publish(constant.EventResearchDone, map[string]interface{}{
		"report_id": reportId.String(),
	})
}

func (s *researchService) run(ctx context.Context, reportId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	report, err := uow.ReportRepository().FindOne(ctx, specification.ByID{ID: reportId})
	if err != nil {
		return err
	}
	if report == nil {
		return fmt.Errorf("%w: report %s", ErrNotFound, reportId)
	}

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: report.SessionId})
	if err != nil {
		return err
	}
	if session == nil || session.ClarifiedSummary == nil || *session.ClarifiedSummary == "" {
		return fmt.Errorf("%w: clarified summary missing for report %s", ErrMissingPrerequisite, reportId)
	}

	queries := s.generateQueries(ctx, *session.ClarifiedSummary)
	s.logger.Info("Research", "Starting evidence fan-out", map[string]interface{}{
		"report_id": reportId.String(),
		"queries":   queries,
	})

	workers := maxResearchWorkers
	if len(queries) < workers {
		workers = len(queries)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for _, query := range queries {
		query := query
		group.Go(func() error {
			s.processQuery(groupCtx, reportId, query)
			return nil
		})
	}

	// Workers swallow their own failures; only context cancellation
	// surfaces here.
	if err := group.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// generateQueries asks the provider for short keyword queries and validates
// each one. Any failure, including out-of-range counts or word lengths,
// falls back to the fixed deterministic set; research never blocks on the
// provider.
func (s *researchService) generateQueries(ctx context.Context, clarifiedSummary string) []string {
	prompt := strings.ReplaceAll(constant.ResearchQueryPrompt, "{{CLARIFIED_SUMMARY}}", clarifiedSummary)

	raw, err := s.provider.Generate(ctx, prompt, llm.WithTemperature(0.2))
	if err != nil {
		s.logger.Warn("Research", "Query generation failed, using fallback queries", map[string]interface{}{"error": err.Error()})
		return constant.FallbackQueries
	}

	var out dto.QueryGenOutput
	if err := llm.DecodeJSON(raw, &out); err != nil {
		s.logger.Warn("Research", "Query generation returned malformed output, using fallback queries", map[string]interface{}{"error": err.Error()})
		return constant.FallbackQueries
	}

	if len(out.Queries) < minGeneratedQueries || len(out.Queries) > maxGeneratedQueries {
		return constant.FallbackQueries
	}

	for _, q := range out.Queries {
		words := len(strings.Fields(q))
		if words < minQueryWords || words > maxQueryWords {
			return constant.FallbackQueries
		}
	}

	return out.Queries
}

// processQuery searches the three variants of one query in parallel, then
// persists the collected results sequentially so dedup stays race-free
// within the query. Search or persistence failures are logged and the rest
// of the fan-out continues.
func (s *researchService) processQuery(ctx context.Context, reportId uuid.UUID, query string) {
	variants := []search.ResultType{search.TypeWeb, search.TypeNews, search.TypePatent}
	collected := make([][]search.Result, len(variants))

	var wg sync.WaitGroup
	for i, variant := range variants {
		wg.Add(1)
		go func(i int, variant search.ResultType) {
			defer wg.Done()
			results, err := s.searchProvider.Search(ctx, query, variant, resultsPerVariant)
			if err != nil {
				s.logger.Warn("Research", "Search variant failed", map[string]interface{}{
					"query":   query,
					"variant": string(variant),
					"error":   err.Error(),
				})
				return
			}
			collected[i] = results
		}(i, variant)
	}
	wg.Wait()

	for _, results := range collected {
		for _, result := range results {
			if err := s.processResult(ctx, reportId, result); err != nil {
				s.logger.Warn("Research", "Result processing failed", map[string]interface{}{
					"url":   result.URL,
					"error": err.Error(),
				})
			}
		}
	}
}

func (s *researchService) processResult(ctx context.Context, reportId uuid.UUID, result search.Result) error {
	if result.URL == "" {
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	exists, err := uow.SourceRepository().ExistsByReportAndURL(ctx, reportId, result.URL)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	var snippets []string
	switch result.Type {
	case search.TypeNews:
		// News results carry their snippet inline; no fetch.
		if result.Snippet != "" {
			snippets = []string{result.Snippet}
		}
	case search.TypePatent:
		// Patent results are metadata only.
	default:
		lines, err := s.fetcher.FetchLines(ctx, result.URL)
		if err != nil {
			s.logger.Warn("Research", "Page fetch failed", map[string]interface{}{"url": result.URL, "error": err.Error()})
			return nil
		}
		snippets = scrape.FilterSnippets(lines, maxSnippetsPerPage)
		if len(snippets) == 0 {
			// A web source with no usable evidence is skipped entirely.
			return nil
		}
	}

	source := &entity.Source{
		Id:        uuid.New(),
		ReportId:  reportId,
		URL:       result.URL,
		Domain:    result.Domain,
		Type:      string(result.Type),
		CreatedAt: time.Now(),
	}

	evidences := make([]*entity.SourceEvidence, len(snippets))
	for i, snippet := range snippets {
		evidences[i] = &entity.SourceEvidence{
			Id:       uuid.New(),
			SourceId: source.Id,
			Snippet:  snippet,
		}
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.SourceRepository().Create(ctx, source); err != nil {
		return err
	}
	if err := uow.SourceEvidenceRepository().CreateBulk(ctx, evidences); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	if len(evidences) > 0 {
		if err := s.dispatcher.Dispatch(ctx, constant.JobEmbedEvidence, map[string]string{
			"source_id": source.Id.String(),
		}); err != nil {
			s.logger.Warn("Research", "Failed to dispatch embed job", map[string]interface{}{"source_id": source.Id.String(), "error": err.Error()})
		}
	}

	return nil
}
