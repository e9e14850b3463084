package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker/v2"

	"ArticleRecommender/internal/domain"
	"ArticleRecommender/internal/infrastructure/parser"
	"ArticleRecommender/internal/ports"
	"ArticleRecommender/internal/usecase"
)

type handlers struct {
	recommender Recommendations
	catalog     Catalog
	ingestor    Ingester
	readers     ports.HistoryRepository
	logger      *slog.Logger
}

type recommendRequest struct {
	URLs  []string `json:"urls"`
	Email string   `json:"email"`
	Max   int      `json:"max"`
}

type recommendation struct {
	domain.ScoredCandidate
	Favorited bool `json:"favorited"`
}

type urlRequest struct {
	URL string `json:"url" binding:"required"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// recommend handles POST /api/v1/recommendations for explicit history URLs or a reader's stored history.
func (h *handlers) recommend(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	switch {
	case len(req.URLs) > 0:
		scored := h.recommender.GetRecommendations(ctx, req.URLs, req.Max)
		c.JSON(http.StatusOK, gin.H{"recommendations": h.withFavorites(ctx, req.Email, scored)})
	case req.Email != "":
		scored, err := h.recommender.ForReader(ctx, req.Email, req.Max)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"recommendations": h.withFavorites(ctx, req.Email, scored)})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "urls or email is required"})
	}
}

// withFavorites flags the recommendations the reader already bookmarked; lookup failures leave them unflagged.
func (h *handlers) withFavorites(ctx context.Context, email string, scored []domain.ScoredCandidate) []recommendation {
	out := make([]recommendation, len(scored))
	for i, sc := range scored {
		out[i] = recommendation{ScoredCandidate: sc}
	}
	if email == "" || h.readers == nil || len(scored) == 0 {
		return out
	}

	urls := make([]string, len(scored))
	for i, sc := range scored {
		urls[i] = sc.URL
	}
	favorited, err := h.readers.FavoritedAmong(ctx, email, urls)
	if err != nil {
		h.logger.Warn("favorites lookup failed", "email", email, "error", err)
		return out
	}
	for i := range out {
		out[i].Favorited = favorited[out[i].URL]
	}
	return out
}

// articles handles GET /api/v1/articles: one article with ?url=, the archive otherwise.
func (h *handlers) articles(c *gin.Context) {
	ctx := c.Request.Context()

	if url := strings.TrimSpace(c.Query("url")); url != "" {
		record, err := h.catalog.Article(ctx, url)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
		return
	}

	records, err := h.catalog.All(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": records, "count": len(records)})
}

func (h *handlers) deleteArticle(c *gin.Context) {
	url := strings.TrimSpace(c.Query("url"))
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}
	if err := h.catalog.Delete(c.Request.Context(), url); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "url": url})
}

// search handles GET /api/v1/search?q=space separated keywords.
func (h *handlers) search(c *gin.Context) {
	records, kind, err := h.catalog.SearchKeywords(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": kind, "articles": records, "count": len(records)})
}

func (h *handlers) advancedSearch(c *gin.Context) {
	var filters domain.SearchFilters
	if err := c.ShouldBindJSON(&filters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, kind, err := h.catalog.AdvancedSearch(c.Request.Context(), filters)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": kind, "articles": records, "count": len(records)})
}

func (h *handlers) ingest(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.ingestor.Ingest(c.Request.Context(), req.URL)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *handlers) history(c *gin.Context) {
	email, ok := h.reader(c)
	if !ok {
		return
	}
	entries, err := h.readers.History(c.Request.Context(), email)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries, "count": len(entries)})
}

func (h *handlers) addHistory(c *gin.Context) {
	email, ok := h.reader(c)
	if !ok {
		return
	}
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.readers.AddHistory(c.Request.Context(), email, req.URL); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "recorded"})
}

func (h *handlers) favorites(c *gin.Context) {
	email, ok := h.reader(c)
	if !ok {
		return
	}
	favorites, err := h.readers.Favorites(c.Request.Context(), email)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": favorites, "count": len(favorites)})
}

func (h *handlers) addFavorite(c *gin.Context) {
	email, ok := h.reader(c)
	if !ok {
		return
	}
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.readers.AddFavorite(c.Request.Context(), email, req.URL); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "added"})
}

func (h *handlers) removeFavorite(c *gin.Context) {
	email, ok := h.reader(c)
	if !ok {
		return
	}
	url := strings.TrimSpace(c.Query("url"))
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}
	if err := h.readers.RemoveFavorite(c.Request.Context(), email, url); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// reader validates the :email parameter and that reader storage is configured.
func (h *handlers) reader(c *gin.Context) (string, bool) {
	if h.readers == nil {
		h.fail(c, usecase.ErrUnavailable)
		return "", false
	}
	email := strings.TrimSpace(c.Param("email"))
	if !strings.Contains(email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email"})
		return "", false
	}
	return email, true
}

func (h *handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, parser.ErrNoArticle):
		return http.StatusUnprocessableEntity
	case errors.Is(err, usecase.ErrUnavailable),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
