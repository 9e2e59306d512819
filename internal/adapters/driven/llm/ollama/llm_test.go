package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driven"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewLLMService(LLMConfig{BaseURL: server.URL, Model: "llama3.2"})
}

func TestLLMService_Chat(t *testing.T) {
	var got chatRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"No"},"done":true}`))
	})

	out, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "sys"},
		{Role: driven.RoleUser, Content: "Is C safe?"},
	}, driven.ChatOptions{MaxTokens: 50})

	require.NoError(t, err)
	assert.Equal(t, "No", out)
	assert.False(t, got.Stream)
	assert.Equal(t, 50, got.Options.NumPredict)
	assert.Len(t, got.Messages, 2)
}

func TestLLMService_Generate(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		_, _ = w.Write([]byte(`{"response":"BRCA1","done":true}`))
	})

	out, err := svc.Generate(context.Background(), "p", driven.GenerateOptions{})

	require.NoError(t, err)
	assert.Equal(t, "BRCA1", out)
}

func TestLLMService_Chat_ClassifiesStatus(t *testing.T) {
	missing := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `model "x" not found`, http.StatusNotFound)
	})
	_, err := missing.Chat(context.Background(), nil, driven.ChatOptions{})
	assert.True(t, domain.IsFatalGeneration(err))

	busy := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err = busy.Chat(context.Background(), nil, driven.ChatOptions{})
	assert.ErrorIs(t, err, domain.ErrTransientGeneration)
}

func TestLLMService_Chat_ConnectionRefusedIsTransient(t *testing.T) {
	svc := NewLLMService(LLMConfig{BaseURL: "http://127.0.0.1:1"})

	_, err := svc.Chat(context.Background(), nil, driven.ChatOptions{})

	assert.ErrorIs(t, err, domain.ErrTransientGeneration)
	assert.Equal(t, DefaultLLMModel, svc.ModelName())
}

func TestLLMService_Ping(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
	})
	assert.NoError(t, svc.Ping(context.Background()))
}
