package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groundwork/internal/guided"
)

func TestLoadPromptsDefaults(t *testing.T) {
	prompts, err := LoadPrompts("")
	require.NoError(t, err)
	assert.Equal(t, guided.DefaultPrompts(), prompts)
}

func TestLoadPromptsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("target_population: \"Who exactly do you serve?\"\n"), 0o644))

	prompts, err := LoadPrompts(path)
	require.NoError(t, err)
	assert.Equal(t, "Who exactly do you serve?", prompts[guided.StepTargetPopulation])
	// Unlisted steps keep their defaults.
	assert.Equal(t, guided.DefaultPrompts()[guided.StepActivities], prompts[guided.StepActivities])
}

func TestLoadPromptsUnknownStep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("target_popluation: oops\n"), 0o644))

	_, err := LoadPrompts(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown step")
}
