package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

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

type IClarificationService interface {
	Run(ctx context.Context, args map[string]string) error
}

type clarificationService struct {
	uowFactory unitofwork.RepositoryFactory
	provider   llm.LLMProvider
	eventBus   *bus.EventBus
	logger     logger.ILogger
}

func NewClarificationService(
	uowFactory unitofwork.RepositoryFactory,
	provider llm.LLMProvider,
	eventBus *bus.EventBus,
	log logger.ILogger,
) IClarificationService {
	return &clarificationService{
		uowFactory: uowFactory,
		provider:   provider,
		eventBus:   eventBus,
		logger:     log,
	}
}

// Run executes one stateless clarification turn: replay the transcript
// through the provider, merge the extracted schema write-once, emit the
// update, and signal readiness when confidence crosses the threshold.
// Any returned error sends the whole job back through the retry policy.
func (s *clarificationService) Run(ctx context.Context, args map[string]string) error {
	sessionId, err := uuid.Parse(args["session_id"])
	if err != nil {
		return fmt.Errorf("invalid session_id %q: %w", args["session_id"], err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return err
	}
	if session == nil {
		// Session deleted mid-flight; nothing to retry.
		s.logger.Warn("Clarification", "Session not found, dropping job", map[string]interface{}{"session_id": sessionId.String()})
		return nil
	}

	transcript, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return err
	}

	history := make([]llm.Message, 0, len(transcript)+1)
	history = append(history, llm.Message{Role: "system", Content: constant.ClarificationControllerPrompt})
	for _, msg := range transcript {
		history = append(history, llm.Message{Role: msg.Role, Content: msg.Message})
	}

	raw, err := s.provider.Chat(ctx, history, llm.WithTemperature(0.2))
	if err != nil {
		return fmt.Errorf("clarification provider call failed: %w", err)
	}

	var result dto.ClarificationTurnOutput
	if err := llm.DecodeJSON(raw, &result); err != nil {
		return err
	}

	merged := MergeSchema(session.ClarificationSchema, result.UpdatedSchema)
	session.ClarificationSchema = merged
	confidence := ComputeConfidence(merged)

	assistantBody, err := json.Marshal(map[string]string{
		"mirror_summary": result.MirrorSummary,
		"next_question":  result.NextQuestion,
	})
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.SessionRepository().Update(ctx, session); err != nil {
		return err
	}
	if err := uow.ChatMessageRepository().Create(ctx, &entity.ChatMessage{
		Id:        uuid.New(),
		SessionId: sessionId,
		Role:      constant.ChatMessageRoleAssistant,
		Message:   string(assistantBody),
		CreatedAt: time.Now(),
	}); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	updatePayload := map[string]interface{}{
		"session_id":          sessionId.String(),
		"schema":              merged,
		"hard_constraints":    result.HardConstraints,
		"hypotheses":          result.Hypotheses,
		"knowledge_gaps":      result.KnowledgeGaps,
		"research_directives": result.ResearchDirectives,
		"confidence_score":    confidence,
		"unknown_detected":    result.UnknownDetected,
		"turn_fatigue":        result.TurnFatigue,
		"mirror_summary":      result.MirrorSummary,
		"next_question":       result.NextQuestion,
	}
	if err := s.eventBus.Publish(constant.EventClarificationUpdate, updatePayload); err != nil {
		return err
	}

	// Confidence crossing the threshold is the only stop trigger.
	if confidence >= constant.ConfidenceThreshold {
		return s.eventBus.Publish(constant.EventClarificationReady, map[string]interface{}{
			"session_id":          sessionId.String(),
			"schema":              merged,
			"hard_constraints":    result.HardConstraints,
			"hypotheses":          result.Hypotheses,
			"knowledge_gaps":      result.KnowledgeGaps,
			"research_directives": result.ResearchDirectives,
			"unknown_detected":    result.UnknownDetected,
			"confidence_score":    confidence,
			"mirror_summary":      result.MirrorSummary,
		})
	}

	return nil
}

// MergeSchema folds an incoming extraction into the accumulated schema.
// A field already holding a non-empty value is never overwritten, so the
// merge is idempotent and a replayed turn cannot erase knowledge.
func MergeSchema(existing, incoming map[string]string) map[string]string {
	merged := make(map[string]string, len(constant.SchemaFields))
	for key, value := range existing {
		merged[key] = value
	}

	for _, key := range constant.SchemaFields {
		if merged[key] != "" {
			continue
		}
		if value := incoming[key]; value != "" {
			merged[key] = value
		}
	}
	return merged
}
