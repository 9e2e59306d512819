package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driving"
)

// defaultRunLimit is how many runs List returns without a limit parameter.
const defaultRunLimit = 20

// QuestionHandler serves answer and retrieval requests.
type QuestionHandler struct {
	answerer driving.QuestionAnswerer
	opts     domain.AnswerOptions
}

// NewQuestionHandler creates a question handler.
func NewQuestionHandler(answerer driving.QuestionAnswerer, opts domain.AnswerOptions) *QuestionHandler {
	return &QuestionHandler{answerer: answerer, opts: opts}
}

type questionRequest struct {
	Question   string `json:"question"`
	Type       string `json:"type"`
	Exact      bool   `json:"exact"`
	MaxResults int    `json:"max_results"`
}

func (r questionRequest) options(base domain.AnswerOptions) domain.AnswerOptions {
	if r.Exact {
		base.ExactAnswers = true
	}
	if r.MaxResults > 0 {
		base.Search.MaxResults = r.MaxResults
	}
	return base
}

func bindQuestion(c *gin.Context) (questionRequest, bool) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Question == "" {
		writeError(c, http.StatusBadRequest, "invalid", "question is required")
		return req, false
	}
	if req.Type != "" && !domain.QuestionType(req.Type).IsValid() {
		writeError(c, http.StatusBadRequest, "invalid", fmt.Sprintf("unknown question type %q", req.Type))
		return req, false
	}
	return req, true
}

// Answer handles POST /api/v1/answer.
func (h *QuestionHandler) Answer(c *gin.Context) {
	req, ok := bindQuestion(c)
	if !ok {
		return
	}
	q := domain.Question{Body: req.Question, Type: domain.QuestionType(req.Type)}
	record, err := h.answerer.Answer(c.Request.Context(), q, req.options(h.opts))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Retrieve handles POST /api/v1/retrieve.
func (h *QuestionHandler) Retrieve(c *gin.Context) {
	req, ok := bindQuestion(c)
	if !ok {
		return
	}
	retrieval, err := h.answerer.Retrieve(c.Request.Context(), req.Question, req.options(h.opts))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"keywords":  retrieval.Keywords,
		"query":     retrieval.Query,
		"documents": retrieval.Documents,
		"snippets":  retrieval.Snippets,
	})
}

// RunHandler serves stored runs.
type RunHandler struct {
	runs driving.RunService
}

// NewRunHandler creates a run handler.
func NewRunHandler(runs driving.RunService) *RunHandler {
	return &RunHandler{runs: runs}
}

// List handles GET /api/v1/runs.
func (h *RunHandler) List(c *gin.Context) {
	limit := defaultRunLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(c, http.StatusBadRequest, "invalid", "limit must be a positive integer")
			return
		}
		limit = n
	}
	runs, err := h.runs.List(c.Request.Context(), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// Get handles GET /api/v1/runs/:id.
func (h *RunHandler) Get(c *gin.Context) {
	run, err := h.runs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// Delete handles DELETE /api/v1/runs/:id.
func (h *RunHandler) Delete(c *gin.Context) {
	if err := h.runs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
