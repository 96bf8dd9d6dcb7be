package mapper

import (
	"time"

	"stratos-backend/internal/entity"
	"stratos-backend/internal/model"
	"stratos-backend/pkg/pipeline/state"

	"gorm.io/datatypes"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToEntity(s *model.Session) *entity.Session {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if s.UpdatedAt != nil && !s.UpdatedAt.IsZero() {
		t := *s.UpdatedAt
		updatedAt = &t
	}

	schema := make(map[string]string, len(s.ClarificationSchema))
	for key, value := range s.ClarificationSchema {
		if str, ok := value.(string); ok {
			schema[key] = str
		}
	}

	return &entity.Session{
		Id:                  s.Id,
		UserId:              s.UserId,
		Status:              state.Status(s.Status),
		IdeaDescription:     s.IdeaDescription,
		ClarifiedSummary:    s.ClarifiedSummary,
		ClarificationSchema: schema,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           updatedAt,
	}
}

func (m *SessionMapper) ToModel(s *entity.Session) *model.Session {
	if s == nil {
		return nil
	}

	schema := make(datatypes.JSONMap, len(s.ClarificationSchema))
	for key, value := range s.ClarificationSchema {
		schema[key] = value
	}

	return &model.Session{
		Id:                  s.Id,
		UserId:              s.UserId,
		Status:              string(s.Status),
		IdeaDescription:     s.IdeaDescription,
		ClarifiedSummary:    s.ClarifiedSummary,
		ClarificationSchema: schema,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}

func (m *SessionMapper) ToEntities(sessions []*model.Session) []*entity.Session {
	entities := make([]*entity.Session, len(sessions))
	for i, s := range sessions {
		entities[i] = m.ToEntity(s)
	}
	return entities
}
