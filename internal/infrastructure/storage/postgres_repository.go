package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"ArticleRecommender/internal/domain"
	"ArticleRecommender/internal/ports"
)

const schema = `CREATE TABLE IF NOT EXISTS user_history (
    id BIGSERIAL PRIMARY KEY,
    user_email TEXT NOT NULL,
    article_url TEXT NOT NULL,
    date_accessed TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS user_history_email_accessed_idx ON user_history (user_email, date_accessed DESC);
CREATE TABLE IF NOT EXISTS user_favorites (
    user_email TEXT NOT NULL,
    article_url TEXT NOT NULL,
    date_favorited TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_email, article_url)
);`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository persists reader history and favorites into Postgres.
type PostgresRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ ports.HistoryRepository = (*PostgresRepository)(nil)

// Open connects to Postgres through lib/pq and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// EnsureSchema creates the history and favorites tables when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// AddHistory records that the reader opened url.
func (r *PostgresRepository) AddHistory(ctx context.Context, email, url string) error {
	if r.db == nil {
		return nil
	}

	query, args, err := psql.Insert("user_history").
		Columns("user_email", "article_url", "date_accessed").
		Values(email, url, r.now()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert history: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// History returns every recorded view, newest first.
func (r *PostgresRepository) History(ctx context.Context, email string) ([]domain.HistoryEntry, error) {
	if r.db == nil {
		return []domain.HistoryEntry{}, nil
	}

	query, args, err := psql.Select("article_url", "date_accessed").
		From("user_history").
		Where(sq.Eq{"user_email": email}).
		OrderBy("date_accessed DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select history: %w", err)
	}

	entries := []domain.HistoryEntry{}
	err = r.query(ctx, query, args, func(rows *sql.Rows) error {
		entry := domain.HistoryEntry{Email: email}
		if err := rows.Scan(&entry.ArticleURL, &entry.AccessedAt); err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return entries, nil
}

// TopHistory returns up to limit distinct URLs the reader opened most recently.
func (r *PostgresRepository) TopHistory(ctx context.Context, email string, limit int) ([]string, error) {
	if r.db == nil {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	query, args, err := psql.Select("article_url").
		From("user_history").
		Where(sq.Eq{"user_email": email}).
		GroupBy("article_url").
		OrderBy("MAX(date_accessed) DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select top history: %w", err)
	}

	urls := []string{}
	err = r.query(ctx, query, args, func(rows *sql.Rows) error {
		var url string
		if err := rows.Scan(&url); err != nil {
			return err
		}
		urls = append(urls, url)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("top history: %w", err)
	}
	return urls, nil
}

// AddFavorite bookmarks url; adding it twice is a no-op.
func (r *PostgresRepository) AddFavorite(ctx context.Context, email, url string) error {
	if r.db == nil {
		return nil
	}

	query, args, err := psql.Insert("user_favorites").
		Columns("user_email", "article_url", "date_favorited").
		Values(email, url, r.now()).
		Suffix("ON CONFLICT (user_email, article_url) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert favorite: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert favorite: %w", err)
	}
	return nil
}

// RemoveFavorite deletes the bookmark if present.
func (r *PostgresRepository) RemoveFavorite(ctx context.Context, email, url string) error {
	if r.db == nil {
		return nil
	}

	query, args, err := psql.Delete("user_favorites").
		Where(sq.And{sq.Eq{"user_email": email}, sq.Eq{"article_url": url}}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete favorite: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	return nil
}

// Favorites lists the reader's bookmarks, newest first.
func (r *PostgresRepository) Favorites(ctx context.Context, email string) ([]domain.Favorite, error) {
	if r.db == nil {
		return []domain.Favorite{}, nil
	}

	query, args, err := psql.Select("article_url", "date_favorited").
		From("user_favorites").
		Where(sq.Eq{"user_email": email}).
		OrderBy("date_favorited DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select favorites: %w", err)
	}

	favorites := []domain.Favorite{}
	err = r.query(ctx, query, args, func(rows *sql.Rows) error {
		fav := domain.Favorite{Email: email}
		if err := rows.Scan(&fav.ArticleURL, &fav.FavoritedAt); err != nil {
			return err
		}
		favorites = append(favorites, fav)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("favorites: %w", err)
	}
	return favorites, nil
}

// FavoritedAmong reports which of urls the reader has bookmarked.
func (r *PostgresRepository) FavoritedAmong(ctx context.Context, email string, urls []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if r.db == nil || len(urls) == 0 {
		return result, nil
	}

	query, args, err := psql.Select("article_url").
		From("user_favorites").
		Where(sq.Eq{"user_email": email}).
		Where(sq.Expr("article_url = ANY(?)", pq.StringArray(urls))).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select favorited: %w", err)
	}

	err = r.query(ctx, query, args, func(rows *sql.Rows) error {
		var url string
		if err := rows.Scan(&url); err != nil {
			return err
		}
		result[url] = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("favorited among: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) query(ctx context.Context, query string, args []any, scan func(*sql.Rows) error) error {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	for rows.Next() {
		if err := scan(rows); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan: %w", err)
		}
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return fmt.Errorf("close rows: %w", closeErr)
	}

	return nil
}
