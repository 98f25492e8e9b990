package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/RoriPersona/internal/config"
)

func loadTestConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)
	return cfg
}

func TestProfileArgUsesNamedProfile(t *testing.T) {
	cfg := loadTestConfig(t, `{"profiles":{"work":{"api_key":"x"}},"active_profile":"work"}`)

	name, err := profileArg(cfg, []string{"work"}, "pick", "")
	require.NoError(t, err)
	assert.Equal(t, "work", name)

	_, err = profileArg(cfg, []string{"home"}, "pick", "")
	assert.ErrorContains(t, err, `"home"`)

	// the active profile is the only one, so there is nothing to switch to
	_, err = profileArg(cfg, nil, "pick", "work")
	assert.ErrorIs(t, err, errNoChoice)
}

func TestJudgeFallback(t *testing.T) {
	cfg := loadTestConfig(t, `{"profiles":{"work":{"api_key":"x","model":"gpt-4o"}}}`)
	assert.Equal(t, "gpt-4o (reply model)", judgeFallback(cfg, cfg.Profiles["work"]))
	assert.Equal(t, config.DefaultModel+" (reply model)", judgeFallback(cfg, config.Profile{}))

	cfg.Agent.EvaluatorModel = "o3-mini"
	assert.Equal(t, "o3-mini (agent.evaluator_model)", judgeFallback(cfg, cfg.Profiles["work"]))
}
