package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reader = "reader@example.org"

func newMockRepository(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewPostgresRepository(db)
	repo.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }
	return repo, mock
}

func TestAddHistory(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_history (user_email,article_url,date_accessed) VALUES ($1,$2,$3)")).
		WithArgs(reader, "https://a.example/1", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.AddHistory(context.Background(), reader, "https://a.example/1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistory(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)
	accessed := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT article_url, date_accessed FROM user_history WHERE user_email = $1 ORDER BY date_accessed DESC, id DESC")).
		WithArgs(reader).
		WillReturnRows(sqlmock.NewRows([]string{"article_url", "date_accessed"}).
			AddRow("https://a.example/2", accessed).
			AddRow("https://a.example/1", accessed.Add(-time.Hour)))

	entries, err := repo.History(context.Background(), reader)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "https://a.example/2", entries[0].ArticleURL)
	assert.Equal(t, reader, entries[0].Email)
	assert.True(t, entries[0].AccessedAt.Equal(accessed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopHistory(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT article_url FROM user_history WHERE user_email = $1 GROUP BY article_url ORDER BY MAX(date_accessed) DESC LIMIT 5")).
		WithArgs(reader).
		WillReturnRows(sqlmock.NewRows([]string{"article_url"}).AddRow("https://a.example/3").AddRow("https://a.example/1"))

	urls, err := repo.TopHistory(context.Background(), reader, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example/3", "https://a.example/1"}, urls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopHistoryQueryError(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)
	mock.ExpectQuery("SELECT article_url FROM user_history").WillReturnError(errors.New("connection reset"))

	_, err := repo.TopHistory(context.Background(), reader, 0)
	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFavorites(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_favorites (user_email,article_url,date_favorited) VALUES ($1,$2,$3) ON CONFLICT (user_email, article_url) DO NOTHING")).
		WithArgs(reader, "https://a.example/1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT article_url, date_favorited FROM user_favorites WHERE user_email = $1 ORDER BY date_favorited DESC")).
		WithArgs(reader).
		WillReturnRows(sqlmock.NewRows([]string{"article_url", "date_favorited"}).AddRow("https://a.example/1", time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM user_favorites WHERE (user_email = $1 AND article_url = $2)")).
		WithArgs(reader, "https://a.example/1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	require.NoError(t, repo.AddFavorite(ctx, reader, "https://a.example/1"))
	favorites, err := repo.Favorites(ctx, reader)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, "https://a.example/1", favorites[0].ArticleURL)
	require.NoError(t, repo.RemoveFavorite(ctx, reader, "https://a.example/1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFavoritedAmong(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT article_url FROM user_favorites WHERE user_email = $1 AND article_url = ANY($2)")).
		WithArgs(reader, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"article_url"}).AddRow("https://a.example/2"))

	got, err := repo.FavoritedAmong(context.Background(), reader, []string{"https://a.example/1", "https://a.example/2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"https://a.example/2": true}, got)

	empty, err := repo.FavoritedAmong(context.Background(), reader, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS user_history").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNilDatabaseIsNoop(t *testing.T) {
	t.Parallel()

	repo := NewPostgresRepository(nil)
	ctx := context.Background()

	assert.NoError(t, repo.AddHistory(ctx, reader, "u"))
	assert.NoError(t, repo.AddFavorite(ctx, reader, "u"))
	urls, err := repo.TopHistory(ctx, reader, 3)
	require.NoError(t, err)
	assert.Empty(t, urls)
}
