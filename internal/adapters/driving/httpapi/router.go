// Package httpapi exposes the question pipeline over a JSON HTTP API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driving"
)

// Deps are the services the API is served from.
type Deps struct {
	// Answerer is required.
	Answerer driving.QuestionAnswerer

	// Runs serves stored runs. Optional.
	Runs driving.RunService

	// Options are the base pipeline options requests start from.
	Options domain.AnswerOptions

	// RequestsPerSecond throttles each client. Zero disables throttling.
	RequestsPerSecond float64
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLog())
	if deps.RequestsPerSecond > 0 {
		r.Use(RateLimit(deps.RequestsPerSecond))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	RegisterRoutes(r.Group("/api/v1"), deps)
	return r
}

// RegisterRoutes adds the API routes to a group.
func RegisterRoutes(api *gin.RouterGroup, deps Deps) {
	questions := NewQuestionHandler(deps.Answerer, deps.Options)
	api.POST("/answer", questions.Answer)
	api.POST("/retrieve", questions.Retrieve)

	if deps.Runs != nil {
		runs := NewRunHandler(deps.Runs)
		api.GET("/runs", runs.List)
		api.GET("/runs/:id", runs.Get)
		api.DELETE("/runs/:id", runs.Delete)
	}
}

// Serve runs handler on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
