package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractx "github.com/tanpawarit/Chative-Shopping-Assistant/agent/contract"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := Config{APIKey: "k", Model: "google/gemini-2.0-flash-001", MaxCompletionToken: 2048}
	require.NoError(t, valid.Validate())

	for name, cfg := range map[string]Config{
		"missing key":   {Model: "m", MaxCompletionToken: 1},
		"missing model": {APIKey: "k", MaxCompletionToken: 1},
		"zero tokens":   {APIKey: "k", Model: "m"},
	} {
		require.ErrorIs(t, cfg.Validate(), contractx.ErrValidation, name)
	}
}

func TestConfigOpenRouter(t *testing.T) {
	t.Parallel()

	cfg := Config{
		BaseURL:            " https://openrouter.ai/api/v1 ",
		APIKey:             " key ",
		Model:              "google/gemini-2.0-flash-001",
		MaxCompletionToken: 2048,
		Temperature:        0.1,
		Timeout:            30 * time.Second,
		SiteName:           "Chative",
	}

	out := cfg.OpenRouter()
	assert.Equal(t, "https://openrouter.ai/api/v1", out.BaseURL)
	assert.Equal(t, "key", out.APIKey)
	assert.Equal(t, "google/gemini-2.0-flash-001", out.Model)
	require.NotNil(t, out.MaxCompletionToken)
	assert.Equal(t, 2048, *out.MaxCompletionToken)
	assert.InDelta(t, 0.1, out.Temperature, 1e-6)
	assert.Equal(t, 30*time.Second, out.Timeout)
	assert.Equal(t, "Chative", out.SiteName)
}
