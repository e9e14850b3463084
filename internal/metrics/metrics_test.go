package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUsesIsolatedRegistry(t *testing.T) {
	t.Parallel()

	// Two instances must not collide on registration.
	a, b := New(), New()
	a.CandidateSearch("strict", "hit")

	assert.InDelta(t, 1, testutil.ToFloat64(a.CandidateSearches.WithLabelValues("strict", "hit")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.CandidateSearches.WithLabelValues("strict", "hit")), 0)
}

func TestRecorders(t *testing.T) {
	t.Parallel()

	m := New()
	m.MaterializeFailure()
	m.MaterializeFailure()
	m.SPARQLRequest("select", nil)
	m.SPARQLRequest("select", errors.New("boom"))
	m.SetBreakerState("sparql", 2)
	m.ObserveRecommendation(120*time.Millisecond, 4)
	m.HTTPRequest("/health", "GET", "200", time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.MaterializeFailures), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SPARQLRequests.WithLabelValues("select", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SPARQLRequests.WithLabelValues("select", "error")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.BreakerState.WithLabelValues("sparql")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.RecommendationDuration))
}

func TestHandlerExposesMetrics(t *testing.T) {
	t.Parallel()

	m := New()
	m.CandidateSearch("relaxed", "empty")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `article_recommender_candidate_searches_total{outcome="empty",stage="relaxed"} 1`)
}
