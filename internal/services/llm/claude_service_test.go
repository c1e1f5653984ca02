package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/aptus/internal/common"
)

func TestNewClaudeServiceRequiresAPIKey(t *testing.T) {
	_, err := NewClaudeService(&common.ClassifierConfig{}, 30*time.Second, common.GetLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
}

func TestNewClaudeServiceDefaults(t *testing.T) {
	cfg := &common.ClassifierConfig{APIKey: "test-key"}
	svc, err := NewClaudeService(cfg, 30*time.Second, common.GetLogger())
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Model)
	assert.Equal(t, 2048, svc.maxTokens)

	// Empty prompts are rejected before any API traffic.
	_, err = svc.Complete(context.Background(), "", "   ")
	require.Error(t, err)

	assert.NoError(t, svc.Close())
}
