package sparql

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArticleRecommender/internal/domain"
)

const articleURL = "https://news.example.org/ai"

type request struct {
	path        string
	contentType string
	body        string
}

// fuseki answers every request with the next canned response.
type fuseki struct {
	mu        sync.Mutex
	requests  []request
	responses []string
	status    int
}

func (f *fuseki) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	n := len(f.requests)
	f.requests = append(f.requests, request{path: r.URL.Path, contentType: r.Header.Get("Content-Type"), body: string(body)})
	f.mu.Unlock()

	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte("dataset unavailable"))
		return
	}
	w.Header().Set("Content-Type", acceptResultsJSON)
	if n < len(f.responses) {
		_, _ = w.Write([]byte(f.responses[n]))
		return
	}
	_, _ = w.Write([]byte(`{"head":{"vars":[]},"results":{"bindings":[]}}`))
}

func newTestStore(t *testing.T, f *fuseki) *Store {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	client := NewClient(Config{Endpoint: srv.URL + "/", Dataset: "news"}, srv.Client(), nil, nil)
	return NewStore(client, nil, nil)
}

const describeResult = `{
  "head": {"vars": ["p", "o", "subP", "subO"]},
  "results": {"bindings": [
    {"p": {"type": "uri", "value": "http://schema.org/headline"}, "o": {"type": "literal", "value": "AI breakthrough"}},
    {"p": {"type": "uri", "value": "http://schema.org/wordCount"}, "o": {"type": "literal", "value": "500", "datatype": "http://www.w3.org/2001/XMLSchema#integer"}},
    {"p": {"type": "uri", "value": "http://schema.org/author"}, "o": {"type": "bnode", "value": "b0"},
     "subP": {"type": "uri", "value": "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"}, "subO": {"type": "uri", "value": "http://schema.org/Person"}},
    {"p": {"type": "uri", "value": "http://schema.org/author"}, "o": {"type": "bnode", "value": "b0"},
     "subP": {"type": "uri", "value": "http://schema.org/name"}, "subO": {"type": "literal", "value": "Alice", "xml:lang": "en"}}
  ]}
}`

func TestDescribeArticle(t *testing.T) {
	t.Parallel()

	f := &fuseki{responses: []string{describeResult}}
	store := newTestStore(t, f)

	tuples, err := store.DescribeArticle(context.Background(), articleURL)
	require.NoError(t, err)
	require.Len(t, tuples, 4)
	assert.Equal(t, domain.Tuple{Predicate: "http://schema.org/headline", Object: "AI breakthrough"}, tuples[0])
	assert.Equal(t, "_:b0", tuples[2].Object)
	assert.Equal(t, "Alice", tuples[3].SubObject)

	require.Len(t, f.requests, 1)
	assert.Equal(t, "/news/query", f.requests[0].path)
	assert.Equal(t, contentTypeQuery, f.requests[0].contentType)
	assert.Contains(t, f.requests[0].body, "<"+articleURL+"> ?p ?o")
}

func TestDescribeArticleRejectsBadIRI(t *testing.T) {
	t.Parallel()

	f := &fuseki{}
	store := newTestStore(t, f)

	_, err := store.DescribeArticle(context.Background(), "https://x.example/> ?p ?o } #")
	assert.Error(t, err)
	assert.Empty(t, f.requests)
}

func TestDescribeArticleStatusError(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, &fuseki{status: http.StatusServiceUnavailable})

	_, err := store.DescribeArticle(context.Background(), articleURL)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "dataset unavailable")
}

func expansionRow(article, p, o string) string {
	return `{"article": {"type": "uri", "value": "` + article + `"}, "p": {"type": "uri", "value": "http://schema.org/` + p + `"}, "o": {"type": "literal", "value": "` + o + `"}}`
}

func TestSearchMatchesExactThenPartial(t *testing.T) {
	t.Parallel()

	partial := `{"head": {"vars": []}, "results": {"bindings": [` +
		expansionRow("https://a.example/2", "headline", "Robots") + `,` +
		expansionRow("https://a.example/1", "headline", "AI") + `,` +
		expansionRow("https://a.example/2", "keywords", "robot") +
		`]}}`
	f := &fuseki{responses: []string{`{"results": {"bindings": []}}`, partial}}
	store := newTestStore(t, f)

	found, kind, err := store.SearchMatches(context.Background(), domain.SearchFilters{Keywords: "AI robot", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, domain.MatchPartial, kind)
	require.Len(t, found, 2)
	assert.Equal(t, "https://a.example/2", found[0].URL)
	assert.Equal(t, []string{"robot"}, found[0].Keywords)
	assert.Equal(t, domain.Some("AI"), found[1].Headline)

	require.Len(t, f.requests, 2)
	assert.Contains(t, f.requests[0].body, `CONTAINS(LCASE(STR(?kw)), "ai")) } && EXISTS`)
	assert.Contains(t, f.requests[1].body, `CONTAINS(LCASE(STR(?kw)), "ai")) } || EXISTS`)
	assert.Contains(t, f.requests[0].body, "LIMIT 5")
}

func TestSearchSingleConditionSkipsPartial(t *testing.T) {
	t.Parallel()

	f := &fuseki{}
	store := newTestStore(t, f)

	found, kind, err := store.SearchMatches(context.Background(), domain.SearchFilters{Keywords: "solar"})
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.Equal(t, domain.MatchNone, kind)
	assert.Len(t, f.requests, 1)
	assert.Contains(t, f.requests[0].body, "LIMIT 10")
}

func TestListArticles(t *testing.T) {
	t.Parallel()

	result := `{"results": {"bindings": [` + expansionRow("https://a.example/1", "headline", "One") + `]}}`
	f := &fuseki{responses: []string{result}}
	store := newTestStore(t, f)

	found, err := store.ListArticles(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.NotContains(t, f.requests[0].body, "FILTER(EXISTS")
	assert.Contains(t, f.requests[0].body, "LIMIT 3")
}

func TestWrites(t *testing.T) {
	t.Parallel()

	f := &fuseki{}
	store := newTestStore(t, f)
	payload := []byte("<" + articleURL + "> <http://schema.org/headline> \"AI\" .\n")

	require.NoError(t, store.InsertNTriples(context.Background(), payload))
	require.NoError(t, store.DeleteArticle(context.Background(), articleURL))
	assert.Error(t, store.InsertNTriples(context.Background(), nil))

	require.Len(t, f.requests, 2)
	assert.Equal(t, "/news/data", f.requests[0].path)
	assert.Equal(t, contentTypeNTriples, f.requests[0].contentType)
	assert.Equal(t, string(payload), f.requests[0].body)

	assert.Equal(t, "/news/update", f.requests[1].path)
	assert.Equal(t, contentTypeUpdate, f.requests[1].contentType)
	assert.Contains(t, f.requests[1].body, "NOT IN (schema:author, schema:publisher, schema:editor)")
	assert.Contains(t, f.requests[1].body, "DELETE WHERE { <"+articleURL+"> ?p ?o . }")
}

type observer struct {
	mu       sync.Mutex
	outcomes []string
	states   []int
}

func (o *observer) SPARQLRequest(operation string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	outcome := operation + ":ok"
	if err != nil {
		outcome = operation + ":error"
	}
	o.outcomes = append(o.outcomes, outcome)
}

func (o *observer) SetBreakerState(_ string, state int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, state)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	f := &fuseki{status: http.StatusInternalServerError}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	obs := &observer{}
	client := NewClient(Config{Endpoint: srv.URL, Dataset: "news", BreakerFailures: 2}, srv.Client(), obs, nil)

	for range 3 {
		_, err := client.Select(context.Background(), "SELECT * WHERE { ?s ?p ?o }")
		assert.Error(t, err)
	}

	assert.Len(t, f.requests, 2, "third call is rejected by the open breaker")
	assert.Equal(t, []int{0, 2}, obs.states)
	assert.Equal(t, []string{"select:error", "select:error", "select:error"}, obs.outcomes)
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	t.Parallel()

	f := &fuseki{}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	obs := &observer{}
	client := NewClient(Config{Endpoint: srv.URL, Dataset: "news", BreakerFailures: 2}, srv.Client(), obs, nil)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	for range 5 {
		_, err := client.Select(cancelled, "SELECT * WHERE { ?s ?p ?o }")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, err, ErrCallerGone)
	}

	_, err := client.Select(context.Background(), "SELECT * WHERE { ?s ?p ?o }")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, obs.states, "breaker never left the closed state")
}

func TestStatusErrorKeepsRunesWhole(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("a", maxErrorBody-1) + "é"
	assert.Equal(t, strings.Repeat("a", maxErrorBody-1), truncate(body, maxErrorBody))
	assert.Equal(t, "short", truncate("short", maxErrorBody))
	assert.True(t, utf8.ValidString(truncate(strings.Repeat("ж", 400), maxErrorBody)))
}

func TestQueryEscaping(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"say \"hi\"\nnow \\ ok"`, literal("say \"hi\"\nnow \\ ok"))

	conds := conditions(domain.SearchFilters{AuthorName: `O"Brien`, Publisher: "Le Monde"})
	require.Len(t, conds, 2)
	assert.Contains(t, conds[0], `schema:author/schema:name ?an . FILTER(STR(?an) = "O\"Brien")`)
	assert.True(t, strings.HasPrefix(conds[1], "EXISTS { ?article schema:publisher/schema:name"))
}
