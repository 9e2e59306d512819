package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bioqa-cli/internal/adapters/driving/httpapi"
)

var (
	servePort int
	serveRate float64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start a JSON HTTP API over the question pipeline.

Endpoints:
  GET    /health
  POST   /api/v1/answer     {"question": "...", "type": "yesno", "exact": true}
  POST   /api/v1/retrieve   {"question": "..."}
  GET    /api/v1/runs
  GET    /api/v1/runs/:id
  DELETE /api/v1/runs/:id`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "HTTP port")
	serveCmd.Flags().Float64Var(&serveRate, "rate", 2, "requests per second allowed per client (0 = unlimited)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if answerer == nil {
		return errors.New("question answerer not configured")
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Answerer:          answerer,
		Runs:              runService,
		Options:           answerOptions,
		RequestsPerSecond: serveRate,
	})

	addr := fmt.Sprintf(":%d", servePort)
	fmt.Fprintf(cmd.ErrOrStderr(), "HTTP API listening on http://localhost%s\n", addr)
	return httpapi.Serve(cmd.Context(), addr, router)
}
