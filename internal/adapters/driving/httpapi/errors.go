package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
	"github.com/custodia-labs/bioqa-cli/internal/logger"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeError(c *gin.Context, status int, code, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	c.JSON(status, body)
}

// handleError maps domain errors onto HTTP statuses.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logger.Warn("http: request_id=%s method=%s path=%s error=%v",
		c.GetString(requestIDKey), c.Request.Method, c.Request.URL.Path, err)

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(c, http.StatusBadRequest, "invalid", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(c, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(c, http.StatusGatewayTimeout, "timeout", "question timed out")
	case errors.Is(err, domain.ErrLLMUnavailable),
		errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrRetrievalUnavailable):
		writeError(c, http.StatusServiceUnavailable, "unavailable", err.Error())
	case errors.Is(err, domain.ErrGenerationFailed):
		writeError(c, http.StatusBadGateway, "generation_failed", err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal", "internal error")
	}
}
