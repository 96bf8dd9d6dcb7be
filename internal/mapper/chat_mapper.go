package mapper

import (
	"stratos-backend/internal/entity"
	"stratos-backend/internal/model"
)

type ChatMessageMapper struct{}

func NewChatMessageMapper() *ChatMessageMapper {
	return &ChatMessageMapper{}
}

func (m *ChatMessageMapper) ToEntity(c *model.ChatMessage) *entity.ChatMessage {
	if c == nil {
		return nil
	}

	return &entity.ChatMessage{
		Id:        c.Id,
		SessionId: c.SessionId,
		Role:      c.Role,
		Message:   c.Message,
		CreatedAt: c.CreatedAt,
	}
}

func (m *ChatMessageMapper) ToModel(c *entity.ChatMessage) *model.ChatMessage {
	if c == nil {
		return nil
	}

	return &model.ChatMessage{
		Id:        c.Id,
		SessionId: c.SessionId,
		Role:      c.Role,
		Message:   c.Message,
		CreatedAt: c.CreatedAt,
	}
}

func (m *ChatMessageMapper) ToEntities(messages []*model.ChatMessage) []*entity.ChatMessage {
	entities := make([]*entity.ChatMessage, len(messages))
	for i, c := range messages {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
