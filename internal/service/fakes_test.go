package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"stratos-backend/internal/entity"
	"stratos-backend/internal/repository/contract"
	"stratos-backend/internal/repository/specification"
	"stratos-backend/internal/repository/unitofwork"
	"stratos-backend/pkg/llm"
	"stratos-backend/pkg/scrape"
	"stratos-backend/pkg/search"

	"github.com/google/uuid"
)

// fakeStore is a shared in-memory backing store so that every UnitOfWork
// handed out by the factory sees the same data, mirroring one database.
type fakeStore struct {
	mu sync.Mutex

	users      map[uuid.UUID]*entity.User
	sessions   map[uuid.UUID]*entity.Session
	messages   []*entity.ChatMessage
	reports    map[uuid.UUID]*entity.Report
	sections   []*entity.Section
	sources    []*entity.Source
	evidences  []*entity.SourceEvidence
	embeddings []*entity.EvidenceEmbedding
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[uuid.UUID]*entity.User{},
		sessions: map[uuid.UUID]*entity.Session{},
		reports:  map[uuid.UUID]*entity.Report{},
	}
}

type fakeFactory struct {
	store *fakeStore
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: f.store}
}

type fakeUow struct {
	store *fakeStore
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) UserRepository() contract.UserRepository { return &fakeUserRepo{u.store} }
func (u *fakeUow) SessionRepository() contract.SessionRepository {
	return &fakeSessionRepo{u.store}
}
func (u *fakeUow) ChatMessageRepository() contract.ChatMessageRepository {
	return &fakeChatRepo{u.store}
}
func (u *fakeUow) ReportRepository() contract.ReportRepository   { return &fakeReportRepo{u.store} }
func (u *fakeUow) SectionRepository() contract.SectionRepository { return &fakeSectionRepo{u.store} }
func (u *fakeUow) SourceRepository() contract.SourceRepository   { return &fakeSourceRepo{u.store} }
func (u *fakeUow) SourceEvidenceRepository() contract.SourceEvidenceRepository {
	return &fakeEvidenceRepo{u.store}
}
func (u *fakeUow) EvidenceEmbeddingRepository() contract.EvidenceEmbeddingRepository {
	return &fakeEmbeddingRepo{u.store}
}

func specID(specs []specification.Specification) (uuid.UUID, bool) {
	for _, s := range specs {
		if byID, ok := s.(specification.ByID); ok {
			return byID.ID, true
		}
	}
	return uuid.Nil, false
}

type fakeUserRepo struct{ store *fakeStore }

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.users[user.Id] = user
	return nil
}
func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	return r.Create(ctx, user)
}
func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if id, ok := specID(specs); ok {
		return r.store.users[id], nil
	}
	for _, s := range specs {
		if byEmail, ok := s.(specification.ByEmail); ok {
			for _, u := range r.store.users {
				if u.Email == byEmail.Email {
					return u, nil
				}
			}
		}
	}
	return nil, nil
}
func (r *fakeUserRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	return nil, nil
}
func (r *fakeUserRepo) UpdateAvatar(ctx context.Context, userId uuid.UUID, avatarURL string) error {
	return nil
}
func (r *fakeUserRepo) UpdatePassword(ctx context.Context, userId uuid.UUID, hash string) error {
	return nil
}
func (r *fakeUserRepo) CreateProvider(ctx context.Context, provider *entity.UserProvider) error {
	return nil
}
func (r *fakeUserRepo) FindProvider(ctx context.Context, specs ...specification.Specification) (*entity.UserProvider, error) {
	return nil, nil
}
func (r *fakeUserRepo) CreateRefreshToken(ctx context.Context, token *entity.UserRefreshToken) error {
	return nil
}
func (r *fakeUserRepo) FindRefreshToken(ctx context.Context, specs ...specification.Specification) (*entity.UserRefreshToken, error) {
	return nil, nil
}
func (r *fakeUserRepo) RevokeRefreshToken(ctx context.Context, tokenHash string) error { return nil }

type fakeSessionRepo struct{ store *fakeStore }

func (r *fakeSessionRepo) Create(ctx context.Context, session *entity.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.sessions[session.Id] = session
	return nil
}
func (r *fakeSessionRepo) Update(ctx context.Context, session *entity.Session) error {
	return r.Create(ctx, session)
}
func (r *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if id, ok := specID(specs); ok {
		return r.store.sessions[id], nil
	}
	return nil, nil
}
func (r *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Session, error) {
	return nil, nil
}
func (r *fakeSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.sessions)), nil
}

type fakeChatRepo struct{ store *fakeStore }

func (r *fakeChatRepo) Create(ctx context.Context, message *entity.ChatMessage) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.messages = append(r.store.messages, message)
	return nil
}
func (r *fakeChatRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.ChatMessage
	for _, m := range r.store.messages {
		if matchesSession(specs, m.SessionId) {
			out = append(out, m)
		}
	}
	return out, nil
}
func (r *fakeChatRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	msgs, _ := r.FindAll(ctx, specs...)
	return int64(len(msgs)), nil
}

func matchesSession(specs []specification.Specification, sessionId uuid.UUID) bool {
	for _, s := range specs {
		if bySession, ok := s.(specification.BySessionID); ok {
			return bySession.SessionID == sessionId
		}
	}
	return true
}

type fakeReportRepo struct{ store *fakeStore }

func (r *fakeReportRepo) Create(ctx context.Context, report *entity.Report) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.reports[report.Id] = report
	return nil
}
func (r *fakeReportRepo) Update(ctx context.Context, report *entity.Report) error {
	return r.Create(ctx, report)
}
func (r *fakeReportRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Report, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if id, ok := specID(specs); ok {
		return r.store.reports[id], nil
	}
	for _, s := range specs {
		if bySession, ok := s.(specification.BySessionID); ok {
			for _, rep := range r.store.reports {
				if rep.SessionId == bySession.SessionID {
					return rep, nil
				}
			}
		}
	}
	return nil, nil
}
func (r *fakeReportRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Report, error) {
	return nil, nil
}

type fakeSectionRepo struct{ store *fakeStore }

func (r *fakeSectionRepo) CreateBulk(ctx context.Context, sections []*entity.Section) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.sections = append(r.store.sections, sections...)
	return nil
}
func (r *fakeSectionRepo) DeleteByReportId(ctx context.Context, reportId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	kept := r.store.sections[:0]
	for _, s := range r.store.sections {
		if s.ReportId != reportId {
			kept = append(kept, s)
		}
	}
	r.store.sections = kept
	return nil
}
func (r *fakeSectionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Section, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Section
	for _, s := range r.store.sections {
		if matchesReport(specs, s.ReportId) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func matchesReport(specs []specification.Specification, reportId uuid.UUID) bool {
	for _, s := range specs {
		if byReport, ok := s.(specification.ByReportID); ok {
			return byReport.ReportID == reportId
		}
	}
	return true
}

type fakeSourceRepo struct{ store *fakeStore }

// Create enforces the unique (report_id, url) index the way the database
// does, so concurrent dedup races surface as errors rather than duplicates.
func (r *fakeSourceRepo) Create(ctx context.Context, source *entity.Source) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.sources {
		if existing.ReportId == source.ReportId && strings.EqualFold(existing.URL, source.URL) {
			return errors.New("duplicate source url for report")
		}
	}
	r.store.sources = append(r.store.sources, source)
	return nil
}
func (r *fakeSourceRepo) ExistsByReportAndURL(ctx context.Context, reportId uuid.UUID, url string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range r.store.sources {
		if s.ReportId == reportId && strings.EqualFold(s.URL, url) {
			return true, nil
		}
	}
	return false, nil
}
func (r *fakeSourceRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Source, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if id, ok := specID(specs); ok {
		for _, s := range r.store.sources {
			if s.Id == id {
				return s, nil
			}
		}
	}
	return nil, nil
}
func (r *fakeSourceRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Source, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Source
	for _, s := range r.store.sources {
		if matchesReport(specs, s.ReportId) {
			out = append(out, s)
		}
	}
	return out, nil
}
func (r *fakeSourceRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	sources, _ := r.FindAll(ctx, specs...)
	return int64(len(sources)), nil
}

type fakeEvidenceRepo struct{ store *fakeStore }

func (r *fakeEvidenceRepo) CreateBulk(ctx context.Context, evidences []*entity.SourceEvidence) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.evidences = append(r.store.evidences, evidences...)
	return nil
}
func (r *fakeEvidenceRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SourceEvidence, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.SourceEvidence
	for _, e := range r.store.evidences {
		matched := true
		for _, s := range specs {
			if bySource, ok := s.(specification.BySourceID); ok {
				matched = bySource.SourceID == e.SourceId
			}
		}
		if matched {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeEmbeddingRepo struct{ store *fakeStore }

func (r *fakeEmbeddingRepo) CreateBulk(ctx context.Context, embeddings []*entity.EvidenceEmbedding) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.embeddings = append(r.store.embeddings, embeddings...)
	return nil
}
func (r *fakeEmbeddingRepo) DeleteBySourceId(ctx context.Context, sourceId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	kept := r.store.embeddings[:0]
	for _, e := range r.store.embeddings {
		if e.SourceId != sourceId {
			kept = append(kept, e)
		}
	}
	r.store.embeddings = kept
	return nil
}
func (r *fakeEmbeddingRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.EvidenceEmbedding, error) {
	return nil, nil
}
func (r *fakeEmbeddingRepo) SearchSimilar(ctx context.Context, embedding []float32, limit int, reportId uuid.UUID) ([]*entity.EvidenceEmbedding, error) {
	return nil, nil
}

// fakeLLM returns canned responses per call, in order, then repeats the
// last one. Safe for concurrent use.
type fakeLLM struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
}

func (f *fakeLLM) next() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	idx := f.calls
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	f.calls++
	return f.responses[idx], nil
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return f.next()
}
func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.next()
}

// fakeSearch serves fixed results keyed by result type.
type fakeSearch struct {
	mu      sync.Mutex
	results map[search.ResultType][]search.Result
	err     error
	queries []string
}

func (f *fakeSearch) Search(ctx context.Context, query string, resultType search.ResultType, limit int) ([]search.Result, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.results[resultType], nil
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type fakeFetcher struct {
	lines map[string][]string
}

var _ scrape.Fetcher = &fakeFetcher{}

func (f *fakeFetcher) FetchLines(ctx context.Context, url string) ([]string, error) {
	return f.lines[url], nil
}
