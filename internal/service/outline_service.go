package service

import (
	"context"
	"fmt"
	"strings"

	"stratos-backend/internal/constant"
	"stratos-backend/internal/dto"
	"stratos-backend/internal/entity"
	"stratos-backend/internal/pkg/logger"
	"stratos-backend/internal/repository/specification"
	"stratos-backend/internal/repository/unitofwork"
	"stratos-backend/pkg/bus"
	"stratos-backend/pkg/llm"

	"github.com/google/uuid"
)

type IOutlineService interface {
	Run(ctx context.Context, args map[string]string) error
}

type outlineService struct {
	uowFactory unitofwork.RepositoryFactory
	provider   llm.LLMProvider
	eventBus   *bus.EventBus
	logger     logger.ILogger
}

func NewOutlineService(
	uowFactory unitofwork.RepositoryFactory,
	provider llm.LLMProvider,
	eventBus *bus.EventBus,
	log logger.ILogger,
) IOutlineService {
	return &outlineService{
		uowFactory: uowFactory,
		provider:   provider,
		eventBus:   eventBus,
		logger:     log,
	}
}

// Run generates the report outline: the fixed core sections always come
// first, provider extras are filtered against the allow-list, and the
// resulting list replaces any previous outline in one transaction.
func (s *outlineService) Run(ctx context.Context, args map[string]string) error {
	reportId, err := uuid.Parse(args["report_id"])
	if err != nil {
		return fmt.Errorf("invalid report_id %q: %w", args["report_id"], err)
	}

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

	prompt := strings.ReplaceAll(constant.OutlinePrompt, "{{CLARIFIED_SUMMARY}}", *session.ClarifiedSummary)

	raw, err := s.provider.Generate(ctx, prompt, llm.WithTemperature(0.2))
	if err != nil {
		return fmt.Errorf("outline provider call failed: %w", err)
	}

	titles, err := ParseOutline(raw)
	if err != nil {
		return err
	}

	sections := make([]*entity.Section, len(titles))
	for i, title := range titles {
		sections[i] = &entity.Section{
			Id:         uuid.New(),
			ReportId:   reportId,
			Title:      title,
			OrderIndex: i + 1,
		}
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.SectionRepository().DeleteByReportId(ctx, reportId); err != nil {
		return err
	}
	if err := uow.SectionRepository().CreateBulk(ctx, sections); err != nil {
		return err
	}

	report.Topic = firstLine(*session.ClarifiedSummary, report.Topic)
	report.Status = "outline_ready"
	if err := uow.ReportRepository().Update(ctx, report); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	sectionPayload := make([]map[string]interface{}, len(sections))
	for i, sec := range sections {
		sectionPayload[i] = map[string]interface{}{
			"section_id":  sec.Id.String(),
			"title":       sec.Title,
			"order_index": sec.OrderIndex,
		}
	}

	return s.eventBus.Publish(constant.EventOutlineReady, map[string]interface{}{
		"report_id":  reportId.String(),
		"session_id": session.Id.String(),
		"sections":   sectionPayload,
	})
}

// ParseOutline validates untrusted provider output. The core sections are
// enforced first in fixed order; extras are accepted only when they are
// strings, not case-insensitive duplicates, and members of the allow-list,
// up to core+3 total. Malformed output is an error, never a fallback list.
func ParseOutline(raw string) ([]string, error) {
	var out dto.OutlineOutput
	if err := llm.DecodeJSON(raw, &out); err != nil {
		return nil, err
	}
	if len(out.Sections) == 0 {
		return nil, fmt.Errorf("%w: missing or empty sections array", llm.ErrMalformedOutput)
	}

	cleaned := make([]string, 0, len(constant.CoreSections)+constant.MaxOptionalSections)
	seen := make(map[string]bool)

	for _, core := range constant.CoreSections {
		cleaned = append(cleaned, core)
		seen[strings.ToLower(core)] = true
	}

	for _, raw := range out.Sections {
		title, ok := raw.(string)
		if !ok {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(title))
		if seen[key] {
			continue
		}
		if constant.AllowedOptionalSections[title] {
			cleaned = append(cleaned, title)
			seen[key] = true
		}
		if len(cleaned) >= len(constant.CoreSections)+constant.MaxOptionalSections {
			break
		}
	}

	return cleaned, nil
}

// firstLine derives a display topic from the clarified summary.
func firstLine(summary, fallback string) string {
	line := strings.TrimSpace(strings.SplitN(summary, "\n", 2)[0])
	if line == "" {
		return fallback
	}
	if len(line) > 120 {
		line = line[:120]
	}
	return line
}
