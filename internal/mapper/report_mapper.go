package mapper

import (
	"stratos-backend/internal/entity"
	"stratos-backend/internal/model"
)

type ReportMapper struct{}

func NewReportMapper() *ReportMapper {
	return &ReportMapper{}
}

func (m *ReportMapper) ToEntity(r *model.Report) *entity.Report {
	if r == nil {
		return nil
	}

	return &entity.Report{
		Id:        r.Id,
		SessionId: r.SessionId,
		Topic:     r.Topic,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
}

func (m *ReportMapper) ToModel(r *entity.Report) *model.Report {
	if r == nil {
		return nil
	}

	return &model.Report{
		Id:        r.Id,
		SessionId: r.SessionId,
		Topic:     r.Topic,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
}

type SectionMapper struct{}

func NewSectionMapper() *SectionMapper {
	return &SectionMapper{}
}

func (m *SectionMapper) ToEntity(s *model.Section) *entity.Section {
	if s == nil {
		return nil
	}

	return &entity.Section{
		Id:         s.Id,
		ReportId:   s.ReportId,
		Title:      s.Title,
		OrderIndex: s.OrderIndex,
	}
}

func (m *SectionMapper) ToModel(s *entity.Section) *model.Section {
	if s == nil {
		return nil
	}

	return &model.Section{
		Id:         s.Id,
		ReportId:   s.ReportId,
		Title:      s.Title,
		OrderIndex: s.OrderIndex,
	}
}

func (m *SectionMapper) ToEntities(sections []*model.Section) []*entity.Section {
	entities := make([]*entity.Section, len(sections))
	for i, s := range sections {
		entities[i] = m.ToEntity(s)
	}
	return entities
}

func (m *SectionMapper) ToModels(sections []*entity.Section) []*model.Section {
	models := make([]*model.Section, len(sections))
	for i, s := range sections {
		models[i] = m.ToModel(s)
	}
	return models
}
