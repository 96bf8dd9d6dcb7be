package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"stratos-backend/internal/entity"
	"stratos-backend/pkg/embedding"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	mu    sync.Mutex
	texts []string
	tasks []string
	err   error
}

func (f *fakeEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.texts = append(f.texts, text)
	f.tasks = append(f.tasks, taskType)
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

func seedSourceWithEvidence(store *fakeStore, snippets ...string) *entity.Source {
	source := &entity.Source{
		Id:       uuid.New(),
		ReportId: uuid.New(),
		URL:      "https://agritech.example.com/report",
		Domain:   "agritech.example.com",
		Type:     "web",
	}
	store.sources = append(store.sources, source)
	for _, snippet := range snippets {
		store.evidences = append(store.evidences, &entity.SourceEvidence{
			Id:       uuid.New(),
			SourceId: source.Id,
			Snippet:  snippet,
		})
	}
	return source
}

func TestConsumerEmbedsSourceEvidence(t *testing.T) {
	store := newFakeStore()
	source := seedSourceWithEvidence(store,
		"Precision agriculture platforms are growing rapidly.",
		"Advisory apps doubled among smallholder farms last year.",
	)

	embedder := &fakeEmbedder{}
	svc := NewConsumerService(&fakeFactory{store: store}, embedder, nopLogger{})

	err := svc.Run(context.Background(), map[string]string{"source_id": source.Id.String()})
	require.NoError(t, err)

	require.NotEmpty(t, store.embeddings)
	for i, emb := range store.embeddings {
		assert.Equal(t, source.Id, emb.SourceId)
		assert.Equal(t, i, emb.ChunkIndex)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, emb.EmbeddingValue)
	}

	// The embedded document leads with the source header so retrieval hits
	// stay attributable.
	assert.True(t, strings.HasPrefix(store.embeddings[0].Document, "Source: https://agritech.example.com/report"))
	assert.Contains(t, store.embeddings[0].Document, "Precision agriculture platforms")

	for _, task := range embedder.tasks {
		assert.Equal(t, "RETRIEVAL_DOCUMENT", task)
	}
}

func TestConsumerReplacesPreviousEmbeddings(t *testing.T) {
	store := newFakeStore()
	source := seedSourceWithEvidence(store, "Advisory apps doubled among smallholder farms last year.")
	store.embeddings = append(store.embeddings, &entity.EvidenceEmbedding{
		Id:       uuid.New(),
		SourceId: source.Id,
		Document: "stale chunk from a previous attempt",
	})

	svc := NewConsumerService(&fakeFactory{store: store}, &fakeEmbedder{}, nopLogger{})

	err := svc.Run(context.Background(), map[string]string{"source_id": source.Id.String()})
	require.NoError(t, err)

	for _, emb := range store.embeddings {
		assert.NotEqual(t, "stale chunk from a previous attempt", emb.Document)
	}
}

func TestConsumerSkipsMissingSource(t *testing.T) {
	store := newFakeStore()
	svc := NewConsumerService(&fakeFactory{store: store}, &fakeEmbedder{}, nopLogger{})

	// A vanished source is not an error; retrying would never succeed.
	err := svc.Run(context.Background(), map[string]string{"source_id": uuid.NewString()})
	assert.NoError(t, err)
	assert.Empty(t, store.embeddings)
}

func TestConsumerFailsWhenProviderErrors(t *testing.T) {
	store := newFakeStore()
	source := seedSourceWithEvidence(store, "Advisory apps doubled among smallholder farms last year.")

	svc := NewConsumerService(&fakeFactory{store: store}, &fakeEmbedder{err: errors.New("quota exceeded")}, nopLogger{})

	err := svc.Run(context.Background(), map[string]string{"source_id": source.Id.String()})
	require.Error(t, err)
	assert.Empty(t, store.embeddings)
}
