package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<html>
<head><title>Widget Market</title><script>var x = 1;</script></head>
<body>
<nav>Home | About | Contact</nav>
<header>Sign in</header>
<article>
<p>The widget market has grown 40% year over year, driven by small manufacturers.</p>
<p>Cookie settings</p>
<p>Analysts expect consolidation as the top five vendors acquire regional players.</p>
</article>
<footer>© 2025 Widget Corp. All rights reserved.</footer>
</body>
</html>`

func TestFetchLinesStripsBoilerplateTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	f := NewHTTPFetcher()
	lines, err := f.FetchLines(context.Background(), srv.URL)
	require.NoError(t, err)

	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "widget market has grown")
	assert.NotContains(t, joined, "var x = 1")
	assert.NotContains(t, joined, "Home | About")
	assert.NotContains(t, joined, "Widget Corp")
}

func TestFetchLinesCachesPages(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	f := NewHTTPFetcher()
	_, err := f.FetchLines(context.Background(), srv.URL)
	require.NoError(t, err)
	_, err = f.FetchLines(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, 1, hits)
}

func TestFetchLinesNonSuccessYieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher()
	lines, err := f.FetchLines(context.Background(), srv.URL)
	assert.NoError(t, err)
	assert.Empty(t, lines)
}

func TestFilterSnippets(t *testing.T) {
	lines := []string{
		"Short line",
		"Cookie consent required before continuing to use this site today",
		"The widget market has grown 40% year over year, driven by small manufacturers.",
		"Analysts expect consolidation as the top five vendors acquire regional players.",
		"Sign in to continue reading the rest of this very long article right now",
		"A third sufficiently long line of genuine article prose about widget demand.",
		"A fourth sufficiently long line of genuine article prose about widget supply.",
		"A fifth sufficiently long line of genuine article prose about widget pricing.",
		"A sixth sufficiently long line that should be cut off by the snippet cap.",
	}

	snippets := FilterSnippets(lines, 5)
	require.Len(t, snippets, 5)
	assert.Equal(t, "The widget market has grown 40% year over year, driven by small manufacturers.", snippets[0])
	for _, s := range snippets {
		assert.NotContains(t, strings.ToLower(s), "cookie")
		assert.NotContains(t, strings.ToLower(s), "sign in")
	}
}

func TestFilterSnippetsAllNoiseYieldsEmpty(t *testing.T) {
	lines := []string{
		"Cookie banner text that is long enough to pass the minimum length bar",
		"Subscribe to our newsletter for more content delivered to your inbox weekly",
	}
	assert.Empty(t, FilterSnippets(lines, 5))
}
