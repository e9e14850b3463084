package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArticleRecommender/internal/domain"
)

const (
	historyURL = "https://news.example.org/history/ai-breakthrough"
	aiURL      = "https://news.example.org/ai-research"
	cookURL    = "https://news.example.org/cooking"
)

func withAuthor(g *fakeGraph, url, author, publisher string) {
	g.tuples[url] = append(g.tuples[url],
		domain.Tuple{Predicate: schema + "author", Object: "_:a", SubPredicate: schema + "@type", SubObject: "Person"},
		domain.Tuple{Predicate: schema + "author", Object: "_:a", SubPredicate: schema + "name", SubObject: author},
		domain.Tuple{Predicate: schema + "publisher", Object: "_:p", SubPredicate: schema + "@type", SubObject: "Organization"},
		domain.Tuple{Predicate: schema + "publisher", Object: "_:p", SubPredicate: schema + "name", SubObject: publisher},
	)
}

func TestGetRecommendationsRanksTopicalFirst(t *testing.T) {
	t.Parallel()

	graph := newFakeGraph()
	graph.add(historyURL, "AI breakthrough", "500", "ai", "research")
	source := &fakeCandidates{responses: [][]domain.ArticleRecord{{
		candidate(cookURL, "Slow cooking stews", 900, "cooking", "food"),
		candidate(historyURL, "AI breakthrough", 500, "ai", "research"),
		candidate(aiURL, "New AI research results", 480, "ai", "research"),
	}}}
	metrics := &fakeMetrics{}

	rec := NewRecommender(RecommenderDeps{Graph: graph, Candidates: source, Metrics: metrics}, RecommenderOptions{})
	got := rec.GetRecommendations(context.Background(), []string{historyURL}, 10)

	require.Len(t, got, 2, "history article is excluded")
	assert.Equal(t, aiURL, got[0].URL)
	assert.Equal(t, cookURL, got[1].URL)

	require.Len(t, source.seen, 1, "strict search hit, no relaxation")
	assert.Equal(t, "ai research", source.seen[0].Keywords)
	require.NotNil(t, source.seen[0].WordCountMin)
	assert.Equal(t, 500, *source.seen[0].WordCountMin)
	assert.Empty(t, source.seen[0].InLanguage)
	assert.Equal(t, 100, source.seen[0].Limit)
	assert.Equal(t, []string{"strict:hit"}, metrics.searches)
	assert.Equal(t, 1, metrics.observed)
}

func TestGetRecommendationsRelaxesExactlyOnce(t *testing.T) {
	t.Parallel()

	graph := newFakeGraph()
	graph.add(historyURL, "AI breakthrough", "500", "ai")
	withAuthor(graph, historyURL, "Alice", "The Daily")

	tests := []struct {
		name      string
		source    *fakeCandidates
		wantCalls int
		wantLen   int
	}{
		{
			name:      "relaxed call finds candidates",
			source:    &fakeCandidates{responses: [][]domain.ArticleRecord{nil, {candidate(aiURL, "AI research", 480, "ai")}}},
			wantCalls: 2,
			wantLen:   1,
		},
		{
			name:      "both calls empty",
			source:    &fakeCandidates{},
			wantCalls: 2,
			wantLen:   0,
		},
		{
			name: "strict call fails",
			source: &fakeCandidates{
				errs:      []error{errors.New("endpoint down")},
				responses: [][]domain.ArticleRecord{nil, {candidate(aiURL, "AI research", 480, "ai")}},
			},
			wantCalls: 2,
			wantLen:   1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := NewRecommender(RecommenderDeps{Graph: graph, Candidates: tc.source}, RecommenderOptions{})
			got := rec.GetRecommendations(context.Background(), []string{historyURL}, 5)

			assert.NotNil(t, got)
			assert.Len(t, got, tc.wantLen)
			require.Len(t, tc.source.seen, tc.wantCalls)

			strict, relaxed := tc.source.seen[0], tc.source.seen[1]
			assert.Equal(t, "Alice", strict.AuthorName)
			assert.Equal(t, "The Daily", strict.Publisher)
			assert.Empty(t, relaxed.AuthorName)
			assert.Empty(t, relaxed.Publisher)
			assert.Equal(t, strict.Keywords, relaxed.Keywords)
			assert.Equal(t, strict.WordCountMin, relaxed.WordCountMin)
		})
	}
}

func TestGetRecommendationsCandidateTimeout(t *testing.T) {
	t.Parallel()

	graph := newFakeGraph()
	graph.add(historyURL, "AI breakthrough", "500", "ai")
	source := &fakeCandidates{block: true}

	rec := NewRecommender(RecommenderDeps{Graph: graph, Candidates: source}, RecommenderOptions{CandidateTimeout: 10 * time.Millisecond})

	started := time.Now()
	got := rec.GetRecommendations(context.Background(), []string{historyURL}, 5)

	assert.Empty(t, got)
	assert.Len(t, source.seen, 2)
	assert.Less(t, time.Since(started), 2*time.Second)
}

func TestGetRecommendationsDegradedHistory(t *testing.T) {
	t.Parallel()

	graph := newFakeGraph()
	graph.failing["https://broken.example"] = true
	source := &fakeCandidates{responses: [][]domain.ArticleRecord{{candidate(aiURL, "AI", 10, "ai")}}}
	metrics := &fakeMetrics{}
	rec := NewRecommender(RecommenderDeps{Graph: graph, Candidates: source, Metrics: metrics}, RecommenderOptions{})

	assert.Empty(t, rec.GetRecommendations(context.Background(), nil, 5))
	assert.Empty(t, rec.GetRecommendations(context.Background(), []string{"https://unknown.example"}, 5))
	assert.Empty(t, rec.GetRecommendations(context.Background(), []string{"https://broken.example"}, 5))
	assert.Empty(t, source.seen, "no candidate search without a usable history")
	assert.Equal(t, 1, metrics.failures)
}

func TestGetRecommendationsKeepsHistoryOrderAndSkipsGaps(t *testing.T) {
	t.Parallel()

	graph := newFakeGraph()
	var urls []string
	for i := range 8 {
		url := fmt.Sprintf("https://news.example.org/h%d", i)
		urls = append(urls, url)
		if i%3 == 1 {
			continue
		}
		graph.add(url, fmt.Sprintf("Story %d", i), "100", fmt.Sprintf("kw%d", i))
	}

	rec := NewRecommender(RecommenderDeps{Graph: graph, Candidates: &fakeCandidates{}}, RecommenderOptions{MaterializeWorkers: 3})
	viewed := rec.materializeHistory(context.Background(), urls)

	require.Len(t, viewed, 5)
	assert.Equal(t, []string{urls[0], urls[2], urls[3], urls[5], urls[6]}, []string{
		viewed[0].URL, viewed[1].URL, viewed[2].URL, viewed[3].URL, viewed[4].URL,
	})
	assert.Len(t, graph.calls, 8)
}

func TestGetRecommendationsDefaultTopK(t *testing.T) {
	t.Parallel()

	graph := newFakeGraph()
	graph.add(historyURL, "Solar storage", "300", "solar")
	var pool []domain.ArticleRecord
	for i := range 15 {
		pool = append(pool, candidate(fmt.Sprintf("https://a.example/%d", i), "Solar panels", 300, "solar"))
	}
	source := &fakeCandidates{responses: [][]domain.ArticleRecord{pool}}

	rec := NewRecommender(RecommenderDeps{Graph: graph, Candidates: source}, RecommenderOptions{DefaultTopK: 7})
	assert.Len(t, rec.GetRecommendations(context.Background(), []string{historyURL}, 0), 7)
}

func TestForReader(t *testing.T) {
	t.Parallel()

	graph := newFakeGraph()
	graph.add(historyURL, "AI breakthrough", "500", "ai")
	source := &fakeCandidates{responses: [][]domain.ArticleRecord{{candidate(aiURL, "AI research", 480, "ai")}}}
	history := &fakeHistory{urls: []string{historyURL}}

	rec := NewRecommender(RecommenderDeps{Graph: graph, Candidates: source, History: history}, RecommenderOptions{HistoryDepth: 5})
	got, err := rec.ForReader(context.Background(), "reader@example.org", 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, aiURL, got[0].URL)
	assert.Equal(t, 5, history.limit)

	history.err = errors.New("db down")
	_, err = rec.ForReader(context.Background(), "reader@example.org", 3)
	assert.Error(t, err)

	_, err = NewRecommender(RecommenderDeps{Graph: graph, Candidates: source}, RecommenderOptions{}).
		ForReader(context.Background(), "reader@example.org", 3)
	assert.ErrorIs(t, err, ErrUnavailable)
}
