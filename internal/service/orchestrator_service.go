package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"stratos-backend/internal/constant"
	"stratos-backend/internal/dto"
	"stratos-backend/internal/entity"
	"stratos-backend/internal/pkg/logger"
	"stratos-backend/internal/pkg/mailer"
	"stratos-backend/internal/repository/specification"
	"stratos-backend/internal/repository/unitofwork"
	"stratos-backend/pkg/bus"
	"stratos-backend/pkg/dispatch"
	"stratos-backend/pkg/pipeline/state"

	"github.com/google/uuid"
)

type IOrchestratorService interface {
	StartSession(ctx context.Context, userId uuid.UUID, req *dto.StartSessionRequest) (*dto.StartSessionResponse, error)
	HandleUserMessage(ctx context.Context, userId uuid.UUID, req *dto.UserMessageRequest) (*dto.UserMessageResponse, error)
	AcceptConsent(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.ConsentResponse, error)
	GetStatus(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.SessionStatusResponse, error)
	GetTranscript(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.TranscriptResponse, error)

	// Bus-driven operations, invoked by the event listener.
	RequestConsent(ctx context.Context, sessionId uuid.UUID, summary string) error
	AcceptOutline(ctx context.Context, sessionId uuid.UUID) error
	CompleteResearch(ctx context.Context, reportId uuid.UUID) error
}

type orchestratorService struct {
	uowFactory   unitofwork.RepositoryFactory
	eventBus     *bus.EventBus
	dispatcher   *dispatch.Dispatcher
	emailService mailer.IEmailService
	logger       logger.ILogger
}

func NewOrchestratorService(
	uowFactory unitofwork.RepositoryFactory,
	eventBus *bus.EventBus,
	dispatcher *dispatch.Dispatcher,
	emailService mailer.IEmailService,
	log logger.ILogger,
) IOrchestratorService {
	return &orchestratorService{
		uowFactory:   uowFactory,
		eventBus:     eventBus,
		dispatcher:   dispatcher,
		emailService: emailService,
		logger:       log,
	}
}

// advance performs one guarded transition: check the session is exactly in
// the expected state, move it to the single successor, persist, and emit one
// domain event. A mismatch returns InvalidTransitionError with no mutation,
// which makes duplicate event deliveries harmless.
func (s *orchestratorService) advance(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.Session, expected state.Status, eventType string, payload map[string]interface{}) error {
	next, err := state.Guard(session.Status, expected)
	if err != nil {
		return err
	}

	session.Status = next
	if err := uow.SessionRepository().Update(ctx, session); err != nil {
		return fmt.Errorf("failed to persist transition to %s: %w", next, err)
	}

	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["session_id"] = session.Id.String()
	payload["status"] = string(next)

	return s.eventBus.Publish(eventType, payload)
}

func (s *orchestratorService) StartSession(ctx context.Context, userId uuid.UUID, req *dto.StartSessionRequest) (*dto.StartSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session := &entity.Session{
		Id:                  uuid.New(),
		UserId:              userId,
		Status:              state.Created,
		IdeaDescription:     req.IdeaDescription,
		ClarificationSchema: map[string]string{},
		CreatedAt:           time.Now(),
	}

	seed := &entity.ChatMessage{
		Id:        uuid.New(),
		SessionId: session.Id,
		Role:      constant.ChatMessageRoleUser,
		Message:   req.IdeaDescription,
		CreatedAt: time.Now(),
	}

	report := &entity.Report{
		Id:        uuid.New(),
		SessionId: session.Id,
		Topic:     "Pending clarification",
		Status:    "draft",
		CreatedAt: time.Now(),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.SessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, seed); err != nil {
		return nil, err
	}
	if err := uow.ReportRepository().Create(ctx, report); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if err := s.eventBus.Publish(constant.EventSessionCreated, map[string]interface{}{
		"session_id": session.Id.String(),
		"user_id":    userId.String(),
	}); err != nil {
		s.logger.Warn("Orchestrator", "Failed to publish session_created", map[string]interface{}{"error": err.Error()})
	}

	if err := s.startClarification(ctx, session); err != nil {
		return nil, err
	}

	return &dto.StartSessionResponse{Id: session.Id, Status: string(session.Status)}, nil
}

func (s *orchestratorService) startClarification(ctx context.Context, session *entity.Session) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := s.advance(ctx, uow, session, state.Created, constant.EventClarificationStarted, nil); err != nil {
		return err
	}

	return s.dispatcher.Dispatch(ctx, constant.JobClarification, map[string]string{
		"session_id": session.Id.String(),
	})
}

func (s *orchestratorService) loadOwnedSession(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) (*entity.Session, error) {
	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNotFound
	}
	if session.UserId != userId {
		return nil, ErrForbidden
	}
	return session, nil
}

func (s *orchestratorService) HandleUserMessage(ctx context.Context, userId uuid.UUID, req *dto.UserMessageRequest) (*dto.UserMessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.loadOwnedSession(ctx, uow, userId, req.SessionId)
	if err != nil {
		return nil, err
	}

	if session.Status != state.Clarifying && session.Status != state.AwaitingConsent {
		return nil, &state.InvalidTransitionError{Current: session.Status, Expected: state.Clarifying}
	}

	message := &entity.ChatMessage{
		Id:        uuid.New(),
		SessionId: session.Id,
		Role:      constant.ChatMessageRoleUser,
		Message:   req.Message,
		CreatedAt: time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, message); err != nil {
		return nil, err
	}

	if err := s.dispatcher.Dispatch(ctx, constant.JobClarification, map[string]string{
		"session_id": session.Id.String(),
	}); err != nil {
		return nil, err
	}

	return &dto.UserMessageResponse{Accepted: true, Status: string(session.Status)}, nil
}

// RequestConsent moves a session out of the clarification loop once the
// schema is confidently filled. The clarified summary is written exactly once.
func (s *orchestratorService) RequestConsent(ctx context.Context, sessionId uuid.UUID, summary string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return err
	}
	if session == nil {
		return ErrNotFound
	}

	if session.ClarifiedSummary == nil && summary != "" {
		session.ClarifiedSummary = &summary
	}

	if err := s.advance(ctx, uow, session, state.Clarifying, constant.EventClarificationConsentRequest, map[string]interface{}{
		"summary": summary,
	}); err != nil {
		return err
	}

	go s.sendConsentMail(session)

	return nil
}

func (s *orchestratorService) sendConsentMail(session *entity.Session) {
	uow := s.uowFactory.NewUnitOfWork(context.Background())
	user, err := uow.UserRepository().FindOne(context.Background(), specification.ByID{ID: session.UserId})
	if err != nil || user == nil {
		s.logger.Warn("Orchestrator", "Consent mail skipped, user lookup failed", map[string]interface{}{"session_id": session.Id.String()})
		return
	}

	summary := ""
	if session.ClarifiedSummary != nil {
		summary = *session.ClarifiedSummary
	}
	if err := s.emailService.SendConsentRequested(user.Email, summary); err != nil {
		s.logger.Warn("Orchestrator", "Failed to send consent mail", map[string]interface{}{"error": err.Error()})
	}
}

func (s *orchestratorService) AcceptConsent(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.ConsentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.loadOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	if session.ClarifiedSummary == nil || *session.ClarifiedSummary == "" {
		return nil, fmt.Errorf("%w: clarified summary missing", ErrMissingPrerequisite)
	}

	if err := s.advance(ctx, uow, session, state.AwaitingConsent, constant.EventClarificationCompleted, nil); err != nil {
		return nil, err
	}

	report, err := uow.ReportRepository().FindOne(ctx, specification.BySessionID{SessionID: session.Id})
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, fmt.Errorf("%w: report missing for session %s", ErrMissingPrerequisite, session.Id)
	}

	if err := s.dispatcher.Dispatch(ctx, constant.JobOutline, map[string]string{
		"report_id": report.Id.String(),
	}); err != nil {
		return nil, err
	}

	return &dto.ConsentResponse{Id: session.Id, Status: string(session.Status)}, nil
}

// AcceptOutline is driven by the outline_ready event. It performs two
// guarded transitions back to back and hands the report to research.
// Duplicate deliveries fail the first guard and change nothing.
func (s *orchestratorService) AcceptOutline(ctx context.Context, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return err
	}
	if session == nil {
		return ErrNotFound
	}

	if err := s.advance(ctx, uow, session, state.ReadyForResearch, constant.EventOutlineAccepted, nil); err != nil {
		return err
	}

	if err := s.advance(ctx, uow, session, state.OutlineGenerated, constant.EventResearchStarted, nil); err != nil {
		return err
	}

	report, err := uow.ReportRepository().FindOne(ctx, specification.BySessionID{SessionID: session.Id})
	if err != nil {
		return err
	}
	if report == nil {
		return fmt.Errorf("%w: report missing for session %s", ErrMissingPrerequisite, session.Id)
	}

	return s.dispatcher.Dispatch(ctx, constant.JobResearch, map[string]string{
		"report_id": report.Id.String(),
	})
}

// CompleteResearch is driven by the research_done event: mark the report,
// advance the session to the writing stage, and notify the owner.
func (s *orchestratorService) CompleteResearch(ctx context.Context, reportId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	report, err := uow.ReportRepository().FindOne(ctx, specification.ByID{ID: reportId})
	if err != nil {
		return err
	}
	if report == nil {
		return ErrNotFound
	}

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: report.SessionId})
	if err != nil {
		return err
	}
	if session == nil {
		return ErrNotFound
	}

	// research_done was already published by the worker; this transition
	// only records the advance, it must not re-emit the event.
	next, err := state.Guard(session.Status, state.ResearchRunning)
	if err != nil {
		return err
	}

	report.Status = "research_complete"
	if err := uow.ReportRepository().Update(ctx, report); err != nil {
		return err
	}

	session.Status = next
	if err := uow.SessionRepository().Update(ctx, session); err != nil {
		return err
	}

	go func() {
		bgUow := s.uowFactory.NewUnitOfWork(context.Background())
		user, err := bgUow.UserRepository().FindOne(context.Background(), specification.ByID{ID: session.UserId})
		if err != nil || user == nil {
			return
		}
		if err := s.emailService.SendReportReady(user.Email, report.Topic); err != nil {
			s.logger.Warn("Orchestrator", "Failed to send report-ready mail", map[string]interface{}{"error": err.Error()})
		}
	}()

	return nil
}

func (s *orchestratorService) GetStatus(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.SessionStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.loadOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	return &dto.SessionStatusResponse{
		Id:               session.Id,
		Status:           string(session.Status),
		IdeaDescription:  session.IdeaDescription,
		ClarifiedSummary: session.ClarifiedSummary,
		Schema:           session.ClarificationSchema,
		Confidence:       ComputeConfidence(session.ClarificationSchema),
		CreatedAt:        session.CreatedAt,
	}, nil
}

func (s *orchestratorService) GetTranscript(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.TranscriptResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.loadOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: session.Id},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	res := &dto.TranscriptResponse{SessionId: session.Id, Messages: make([]dto.ChatMessageResponse, len(messages))}
	for i, m := range messages {
		res.Messages[i] = dto.ChatMessageResponse{
			Id:        m.Id,
			Role:      m.Role,
			Message:   m.Message,
			CreatedAt: m.CreatedAt,
		}
	}
	return res, nil
}

// ComputeConfidence is the deterministic clarification progress metric:
// the fraction of schema fields holding a non-empty value, rounded to two
// decimals. Provider-reported confidence is ignored.
func ComputeConfidence(schema map[string]string) float64 {
	filled := 0
	for _, field := range constant.SchemaFields {
		if schema[field] != "" {
			filled++
		}
	}
	ratio := float64(filled) / float64(len(constant.SchemaFields))
	return math.Round(ratio*100) / 100
}
