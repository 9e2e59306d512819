package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	r := NewRouter(Deps{Answerer: &mockAnswerer{}})

	rec := do(t, r, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRequestID_Reused(t *testing.T) {
	r := NewRouter(Deps{Answerer: &mockAnswerer{}})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestAnswer(t *testing.T) {
	answerer := &mockAnswerer{record: &domain.RunRecord{
		ID:              "q1",
		Type:            domain.QuestionYesNo,
		GeneratedAnswer: "Yes.",
		ExactAnswer:     "Yes",
	}}
	base := domain.DefaultAnswerOptions()
	r := NewRouter(Deps{Answerer: answerer, Options: base})

	rec := do(t, r, http.MethodPost, "/api/v1/answer",
		`{"question": "Is aspirin an NSAID?", "type": "yesno", "exact": true, "max_results": 7}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Yes.", body["generated_answer"])
	assert.Equal(t, "Yes", body["exact_answer"])
	assert.Equal(t, domain.QuestionYesNo, answerer.question.Type)
	assert.True(t, answerer.opts.ExactAnswers)
	assert.Equal(t, 7, answerer.opts.Search.MaxResults)
	assert.Equal(t, base.Workers, answerer.opts.Workers)
}

func TestAnswer_BadRequest(t *testing.T) {
	r := NewRouter(Deps{Answerer: &mockAnswerer{}})

	for _, body := range []string{`not json`, `{}`, `{"question": "q", "type": "essay"}`} {
		rec := do(t, r, http.MethodPost, "/api/v1/answer", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestAnswer_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", domain.ErrLLMUnavailable), http.StatusServiceUnavailable},
		{domain.ErrRetrievalUnavailable, http.StatusServiceUnavailable},
		{domain.ErrGenerationFailed, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			r := NewRouter(Deps{Answerer: &mockAnswerer{err: tt.err}})

			rec := do(t, r, http.MethodPost, "/api/v1/answer", `{"question": "q"}`)

			assert.Equal(t, tt.want, rec.Code)
			errBody, ok := decode(t, rec)["error"].(map[string]any)
			require.True(t, ok)
			assert.NotEmpty(t, errBody["code"])
		})
	}
}

func TestRetrieve(t *testing.T) {
	answerer := &mockAnswerer{retrieval: &domain.Retrieval{
		Keywords: []string{"aspirin"},
		Query:    "aspirin",
		Documents: []domain.ScoredDocument{
			{Document: domain.Document{ID: "1", Title: "Aspirin"}, Similarity: 0.9},
		},
	}}
	r := NewRouter(Deps{Answerer: answerer})

	rec := do(t, r, http.MethodPost, "/api/v1/retrieve", `{"question": "aspirin?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "aspirin", body["query"])
	docs, ok := body["documents"].([]any)
	require.True(t, ok)
	assert.Len(t, docs, 1)
	assert.Equal(t, "aspirin?", answerer.question.Body)
}

func TestRuns(t *testing.T) {
	runs := &mockRunService{
		runs: []domain.RunInfo{{ID: "run-1", Questions: 2}},
		run:  &domain.Run{ID: "run-1"},
	}
	r := NewRouter(Deps{Answerer: &mockAnswerer{}, Runs: runs})

	t.Run("list with default limit", func(t *testing.T) {
		rec := do(t, r, http.MethodGet, "/api/v1/runs", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, defaultRunLimit, runs.limit)
		assert.Contains(t, rec.Body.String(), "run-1")
	})

	t.Run("list with limit", func(t *testing.T) {
		rec := do(t, r, http.MethodGet, "/api/v1/runs?limit=3", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 3, runs.limit)
	})

	t.Run("bad limit", func(t *testing.T) {
		rec := do(t, r, http.MethodGet, "/api/v1/runs?limit=-1", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get", func(t *testing.T) {
		rec := do(t, r, http.MethodGet, "/api/v1/runs/run-1", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "run-1", decode(t, rec)["run_id"])
	})

	t.Run("delete", func(t *testing.T) {
		rec := do(t, r, http.MethodDelete, "/api/v1/runs/run-1", "")

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "run-1", runs.deleted)
	})
}

func TestRuns_NotFound(t *testing.T) {
	r := NewRouter(Deps{Answerer: &mockAnswerer{}, Runs: &mockRunService{err: domain.ErrNotFound}})

	rec := do(t, r, http.MethodGet, "/api/v1/runs/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRuns_NotRegisteredWithoutService(t *testing.T) {
	r := NewRouter(Deps{Answerer: &mockAnswerer{}})

	rec := do(t, r, http.MethodGet, "/api/v1/runs", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	r := NewRouter(Deps{Answerer: &mockAnswerer{}, RequestsPerSecond: 1})

	codes := make([]int, 0, 4)
	for range 4 {
		codes = append(codes, do(t, r, http.MethodGet, "/health", "").Code)
	}

	assert.Equal(t, http.StatusOK, codes[0])
	assert.Contains(t, codes, http.StatusTooManyRequests)
}

func TestRateLimit_EvictsLeastRecentClients(t *testing.T) {
	r := gin.New()
	r.Use(rateLimit(1, 2, time.Minute))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	from := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/x", http.NoBody)
		req.RemoteAddr = ip + ":4000"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	// Burst of rps+1 per client
	assert.Equal(t, http.StatusOK, from("10.0.0.1"))
	assert.Equal(t, http.StatusOK, from("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, from("10.0.0.1"))

	// Two other clients push 10.0.0.1 out of the cache
	assert.Equal(t, http.StatusOK, from("10.0.0.2"))
	assert.Equal(t, http.StatusOK, from("10.0.0.3"))

	assert.Equal(t, http.StatusOK, from("10.0.0.1"))
}

func TestRateLimit_KeepsActiveClient(t *testing.T) {
	r := gin.New()
	r.Use(rateLimit(1, 2, time.Minute))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	from := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/x", http.NoBody)
		req.RemoteAddr = ip + ":4000"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, from("10.0.0.1"))
	assert.Equal(t, http.StatusOK, from("10.0.0.2"))
	assert.Equal(t, http.StatusOK, from("10.0.0.1"))
	assert.Equal(t, http.StatusOK, from("10.0.0.3"))

	// 10.0.0.1 was used more recently than 10.0.0.2, so its empty bucket survives
	assert.Equal(t, http.StatusTooManyRequests, from("10.0.0.1"))
}
