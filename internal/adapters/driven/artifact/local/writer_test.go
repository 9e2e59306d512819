package local

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
)

func testRun() *domain.Run {
	return &domain.Run{
		ID:        "run-1",
		StartedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Records: []domain.RunRecord{
			{ID: "q1", Question: "Is aspirin an NSAID?", Type: domain.QuestionYesNo, GeneratedAnswer: "Yes."},
			{ID: "q2", Question: "What is BRCA1?", Type: domain.QuestionFactoid, Error: "generation failed"},
		},
	}
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runs")
	w := NewWriter(dir)

	path, err := w.Write(context.Background(), "run.json", testRun())

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "run.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got struct {
		RunID     string           `json:"run_id"`
		Questions []map[string]any `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "run-1", got.RunID)
	require.Len(t, got.Questions, 2)
	assert.Equal(t, "Yes.", got.Questions[0]["generated_answer"])
	assert.Equal(t, "generation failed", got.Questions[1]["error"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file should be renamed away")
}

func TestWrite_EmptyRunHasQuestionsArray(t *testing.T) {
	dir := t.TempDir()

	path, err := NewWriter(dir).Write(context.Background(), "empty.json", &domain.Run{ID: "r"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"questions": []`)
}

func TestWrite_Overwrites(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.json"), []byte("old"), 0o600))

	path, err := w.Write(context.Background(), "run.json", testRun())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, "old", string(data))
}

func TestWrite_InvalidName(t *testing.T) {
	w := NewWriter(t.TempDir())

	for _, name := range []string{"", "../escape.json", "sub/run.json"} {
		_, err := w.Write(context.Background(), name, testRun())
		assert.ErrorIs(t, err, domain.ErrInvalidInput, name)
	}
}

func TestWrite_NilRun(t *testing.T) {
	_, err := NewWriter(t.TempDir()).Write(context.Background(), "run.json", nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWrite_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWriter(t.TempDir()).Write(ctx, "run.json", testRun())

	assert.ErrorIs(t, err, context.Canceled)
}
