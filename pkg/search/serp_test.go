package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchParsesOrganicResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "google", r.URL.Query().Get("engine"))
		assert.Equal(t, "competitor tools", r.URL.Query().Get("q"))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"organic_results": []map[string]string{
				{"link": "https://www.example.com/a", "title": "A", "snippet": "about a"},
				{"link": "https://other.io/b", "title": "B", "snippet": "about b"},
			},
		})
	}))
	defer srv.Close()

	p := NewSerpProvider("test-key")
	p.BaseURL = srv.URL

	results, err := p.Search(context.Background(), "competitor tools", TypeWeb, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "example.com", results[0].Domain)
	assert.Equal(t, TypeWeb, results[0].Type)
	assert.Equal(t, "https://other.io/b", results[1].URL)
}

func TestSearchRespectsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"news_results": []map[string]string{
				{"link": "https://n.com/1", "title": "1", "snippet": "s1"},
				{"link": "https://n.com/2", "title": "2", "snippet": "s2"},
				{"link": "https://n.com/3", "title": "3", "snippet": "s3"},
			},
		})
	}))
	defer srv.Close()

	p := NewSerpProvider("test-key")
	p.BaseURL = srv.URL

	results, err := p.Search(context.Background(), "market news", TypeNews, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchWithoutKeyReturnsEmpty(t *testing.T) {
	p := NewSerpProvider("")
	results, err := p.Search(context.Background(), "anything", TypeWeb, 5)
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchUpstreamErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewSerpProvider("test-key")
	p.BaseURL = srv.URL

	_, err := p.Search(context.Background(), "anything", TypeWeb, 5)
	assert.Error(t, err)
}

func TestDomainOf(t *testing.T) {
	assert.Equal(t, "example.com", DomainOf("https://www.Example.com/path?q=1"))
	assert.Equal(t, "patents.google.com", DomainOf("https://patents.google.com/patent/US123"))
	assert.Equal(t, "", DomainOf("://bad"))
}
