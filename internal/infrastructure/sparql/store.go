package sparql

import (
	"context"
	"fmt"
	"log/slog"

	"ArticleRecommender/internal/domain"
	"ArticleRecommender/internal/materializer"
	"ArticleRecommender/internal/ports"
)

// DefaultSearchLimit caps searches that do not set their own limit.
const DefaultSearchLimit = 10

var (
	_ ports.ArticleGraph    = (*Store)(nil)
	_ ports.CandidateSource = (*Store)(nil)
	_ ports.ArticleSearcher = (*Store)(nil)
	_ ports.GraphWriter     = (*Store)(nil)
)

// Store is the knowledge-graph adapter over a SPARQL client.
type Store struct {
	client       *Client
	materializer *materializer.Materializer
	logger       *slog.Logger
}

// NewStore wraps client; records are rebuilt with mat.
func NewStore(client *Client, mat *materializer.Materializer, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if mat == nil {
		mat = materializer.New(logger)
	}
	return &Store{client: client, materializer: mat, logger: logger}
}

// DescribeArticle returns the 2-hop tuples about url; none means the article is unknown.
func (s *Store) DescribeArticle(ctx context.Context, url string) ([]domain.Tuple, error) {
	subject, err := iriRef(url)
	if err != nil {
		return nil, fmt.Errorf("describe article: %w", err)
	}

	rows, err := s.client.Select(ctx, describeQuery(subject))
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", url, err)
	}

	tuples := make([]domain.Tuple, 0, len(rows))
	for _, row := range rows {
		if t, ok := tupleFromBinding(row); ok {
			tuples = append(tuples, t)
		}
	}
	return tuples, nil
}

// Search returns candidates for filters, exact match first, then partial.
func (s *Store) Search(ctx context.Context, filters domain.SearchFilters) ([]domain.ArticleRecord, error) {
	found, _, err := s.SearchMatches(ctx, filters)
	return found, err
}

// SearchMatches runs the exact query and, when it finds nothing, the partial one.
func (s *Store) SearchMatches(ctx context.Context, filters domain.SearchFilters) ([]domain.ArticleRecord, domain.MatchKind, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	conds := conditions(filters)

	found, err := s.selectArticles(ctx, articlesQuery(conds, matchAll, limit))
	if err != nil {
		return nil, domain.MatchNone, fmt.Errorf("exact search: %w", err)
	}
	if len(found) > 0 || len(conds) < 2 {
		return found, matchKind(found, domain.MatchExact), nil
	}

	s.logger.Debug("no exact match, trying partial", "conditions", len(conds))
	found, err = s.selectArticles(ctx, articlesQuery(conds, matchAny, limit))
	if err != nil {
		return nil, domain.MatchNone, fmt.Errorf("partial search: %w", err)
	}
	return found, matchKind(found, domain.MatchPartial), nil
}

// ListArticles returns up to limit articles.
func (s *Store) ListArticles(ctx context.Context, limit int) ([]domain.ArticleRecord, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	found, err := s.selectArticles(ctx, articlesQuery(nil, matchAll, limit))
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return found, nil
}

// InsertNTriples uploads statements to the default graph.
func (s *Store) InsertNTriples(ctx context.Context, payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("insert: empty payload")
	}
	return s.client.Upload(ctx, payload)
}

// DeleteArticle removes the article while keeping shared agents.
func (s *Store) DeleteArticle(ctx context.Context, url string) error {
	subject, err := iriRef(url)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	return s.client.Update(ctx, deleteUpdate(subject))
}

// selectArticles groups expansion rows by ?article, keeping result order, and materializes each group.
func (s *Store) selectArticles(ctx context.Context, query string) ([]domain.ArticleRecord, error) {
	rows, err := s.client.Select(ctx, query)
	if err != nil {
		return nil, err
	}

	var order []string
	groups := map[string][]domain.Tuple{}
	for _, row := range rows {
		url, ok := row.Value("article")
		if !ok {
			continue
		}
		t, ok := tupleFromBinding(row)
		if !ok {
			continue
		}
		if _, seen := groups[url]; !seen {
			order = append(order, url)
		}
		groups[url] = append(groups[url], t)
	}

	records := make([]domain.ArticleRecord, 0, len(order))
	for _, url := range order {
		records = append(records, s.materializer.Materialize(url, groups[url]))
	}
	return records, nil
}

// tupleFromBinding converts one ?p ?o ?subP ?subO row; unbound sub-variables mean a first-hop row.
func tupleFromBinding(b Binding) (domain.Tuple, bool) {
	p, okP := b.Value("p")
	o, okO := b.Node("o")
	if !okP || !okO {
		return domain.Tuple{}, false
	}
	t := domain.Tuple{Predicate: p, Object: o}
	if subP, ok := b.Value("subP"); ok {
		t.SubPredicate = subP
		t.SubObject, _ = b.Node("subO")
	}
	return t, true
}

func matchKind(found []domain.ArticleRecord, kind domain.MatchKind) domain.MatchKind {
	if len(found) == 0 {
		return domain.MatchNone
	}
	return kind
}
