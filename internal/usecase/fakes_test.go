package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"ArticleRecommender/internal/domain"
)

const schema = "http://schema.org/"

// fakeGraph serves canned tuples per URL.
type fakeGraph struct {
	mu      sync.Mutex
	tuples  map[string][]domain.Tuple
	failing map[string]bool
	calls   []string
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{tuples: map[string][]domain.Tuple{}, failing: map[string]bool{}}
}

func (g *fakeGraph) add(url, headline string, words string, keywords ...string) {
	rows := []domain.Tuple{
		{Predicate: schema + "headline", Object: headline},
		{Predicate: schema + "wordCount", Object: words},
	}
	for _, kw := range keywords {
		rows = append(rows, domain.Tuple{Predicate: schema + "keywords", Object: kw})
	}
	g.tuples[url] = rows
}

func (g *fakeGraph) DescribeArticle(_ context.Context, url string) ([]domain.Tuple, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, url)
	if g.failing[url] {
		return nil, errors.New("graph unavailable")
	}
	return g.tuples[url], nil
}

// fakeCandidates replays one response per call and records the filters it saw.
type fakeCandidates struct {
	mu        sync.Mutex
	responses [][]domain.ArticleRecord
	errs      []error
	block     bool
	seen      []domain.SearchFilters
}

func (c *fakeCandidates) Search(ctx context.Context, filters domain.SearchFilters) ([]domain.ArticleRecord, error) {
	c.mu.Lock()
	call := len(c.seen)
	c.seen = append(c.seen, filters)
	c.mu.Unlock()

	if c.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if call < len(c.errs) && c.errs[call] != nil {
		return nil, c.errs[call]
	}
	if call < len(c.responses) {
		return c.responses[call], nil
	}
	return nil, nil
}

type fakeSearcher struct {
	found  []domain.ArticleRecord
	kind   domain.MatchKind
	err    error
	seen   domain.SearchFilters
	listed int
}

func (s *fakeSearcher) SearchMatches(_ context.Context, filters domain.SearchFilters) ([]domain.ArticleRecord, domain.MatchKind, error) {
	s.seen = filters
	return s.found, s.kind, s.err
}

func (s *fakeSearcher) ListArticles(_ context.Context, limit int) ([]domain.ArticleRecord, error) {
	s.listed = limit
	return s.found, s.err
}

type fakeWriter struct {
	inserted [][]byte
	deleted  []string
	err      error
	onInsert func()
}

func (w *fakeWriter) InsertNTriples(_ context.Context, payload []byte) error {
	if w.err != nil {
		return w.err
	}
	w.inserted = append(w.inserted, payload)
	if w.onInsert != nil {
		w.onInsert()
	}
	return nil
}

func (w *fakeWriter) DeleteArticle(_ context.Context, url string) error {
	if w.err != nil {
		return w.err
	}
	w.deleted = append(w.deleted, url)
	return nil
}

type fakeExtractor struct {
	payload []byte
	err     error
}

func (e fakeExtractor) Extract(context.Context, string) ([]byte, error) {
	return e.payload, e.err
}

type fakeHistory struct {
	urls  []string
	err   error
	limit int
}

func (h *fakeHistory) AddHistory(context.Context, string, string) error {
	return nil
}
func (h *fakeHistory) History(context.Context, string) ([]domain.HistoryEntry, error) {
	return nil, h.err
}
func (h *fakeHistory) TopHistory(_ context.Context, _ string, limit int) ([]string, error) {
	h.limit = limit
	return h.urls, h.err
}
func (h *fakeHistory) AddFavorite(context.Context, string, string) error {
	return nil
}
func (h *fakeHistory) RemoveFavorite(context.Context, string, string) error {
	return nil
}
func (h *fakeHistory) Favorites(context.Context, string) ([]domain.Favorite, error) {
	return nil, nil
}
func (h *fakeHistory) FavoritedAmong(context.Context, string, []string) (map[string]bool, error) {
	return map[string]bool{}, nil
}

type fakeMetrics struct {
	mu       sync.Mutex
	searches []string
	failures int
	observed int
}

func (m *fakeMetrics) ObserveRecommendation(time.Duration, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observed++
}

func (m *fakeMetrics) CandidateSearch(stage, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, stage+":"+outcome)
}

func (m *fakeMetrics) MaterializeFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func candidate(url, headline string, words int, keywords ...string) domain.ArticleRecord {
	rec := domain.NewArticleRecord(url)
	rec.Headline = domain.Some(headline)
	rec.WordCount = domain.Some(words)
	rec.Keywords = keywords
	return rec
}
