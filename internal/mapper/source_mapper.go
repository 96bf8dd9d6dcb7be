package mapper

import (
	"stratos-backend/internal/entity"
	"stratos-backend/internal/model"
)

type SourceMapper struct{}

func NewSourceMapper() *SourceMapper {
	return &SourceMapper{}
}

func (m *SourceMapper) ToEntity(s *model.Source) *entity.Source {
	if s == nil {
		return nil
	}

	return &entity.Source{
		Id:        s.Id,
		ReportId:  s.ReportId,
		URL:       s.URL,
		Domain:    s.Domain,
		Type:      s.Type,
		CreatedAt: s.CreatedAt,
	}
}

func (m *SourceMapper) ToModel(s *entity.Source) *model.Source {
	if s == nil {
		return nil
	}

	return &model.Source{
		Id:        s.Id,
		ReportId:  s.ReportId,
		URL:       s.URL,
		Domain:    s.Domain,
		Type:      s.Type,
		CreatedAt: s.CreatedAt,
	}
}

func (m *SourceMapper) ToEntities(sources []*model.Source) []*entity.Source {
	entities := make([]*entity.Source, len(sources))
	for i, s := range sources {
		entities[i] = m.ToEntity(s)
	}
	return entities
}

type SourceEvidenceMapper struct{}

func NewSourceEvidenceMapper() *SourceEvidenceMapper {
	return &SourceEvidenceMapper{}
}

func (m *SourceEvidenceMapper) ToEntity(e *model.SourceEvidence) *entity.SourceEvidence {
	if e == nil {
		return nil
	}

	return &entity.SourceEvidence{
		Id:       e.Id,
		SourceId: e.SourceId,
		Snippet:  e.Snippet,
	}
}

func (m *SourceEvidenceMapper) ToModel(e *entity.SourceEvidence) *model.SourceEvidence {
	if e == nil {
		return nil
	}

	return &model.SourceEvidence{
		Id:       e.Id,
		SourceId: e.SourceId,
		Snippet:  e.Snippet,
	}
}

func (m *SourceEvidenceMapper) ToEntities(evidences []*model.SourceEvidence) []*entity.SourceEvidence {
	entities := make([]*entity.SourceEvidence, len(evidences))
	for i, e := range evidences {
		entities[i] = m.ToEntity(e)
	}
	return entities
}

func (m *SourceEvidenceMapper) ToModels(evidences []*entity.SourceEvidence) []*model.SourceEvidence {
	models := make([]*model.SourceEvidence, len(evidences))
	for i, e := range evidences {
		models[i] = m.ToModel(e)
	}
	return models
}
