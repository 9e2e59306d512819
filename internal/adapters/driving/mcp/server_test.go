package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bioqa-cli/internal/core/services"
)

func TestNewServer(t *testing.T) {
	t.Run("nil answerer returns error", func(t *testing.T) {
		ports := &Ports{}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingAnswerer)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		ports := &Ports{
			Answerer: &mockAnswerer{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})

	t.Run("all ports creates server", func(t *testing.T) {
		ports := &Ports{
			Answerer: &mockAnswerer{},
			Ranker:   &mockRanker{},
			Locator:  services.SnippetLocator{},
			Runs:     &mockRunService{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil answerer returns error", func(t *testing.T) {
		ports := &Ports{}
		err := ports.Validate()
		assert.ErrorIs(t, err, ErrMissingAnswerer)
	})

	t.Run("answerer only is valid", func(t *testing.T) {
		ports := &Ports{
			Answerer: &mockAnswerer{},
		}
		err := ports.Validate()
		assert.NoError(t, err)
	})
}
