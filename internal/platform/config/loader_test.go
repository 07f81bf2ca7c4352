package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_DefaultsWhenFileMissing(t *testing.T) {
	loader := NewLoader().
		WithPath(filepath.Join(t.TempDir(), "absent.yaml")).
		WithDotEnv(false)

	result, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "defaults", result.Path)
	assert.Equal(t, 16000, result.Config.Audio.SampleRate)
	assert.Equal(t, 30*time.Second, result.Config.Session.Timeout)
	assert.Equal(t, 15, result.Config.Filter.MaxHumanWords)
	assert.NotEmpty(t, result.Config.Session.Triggers["piper"])
	assert.Contains(t, result.Config.Interrupt.Phrases, "stop")
}

func TestLoader_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
audio:
  sample_rate: 44100
session:
  triggers:
    nova:
      - "hey nova"
stt:
  api_key: from-file
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	result, err := NewLoader().WithPath(path).WithDotEnv(false).Load()
	require.NoError(t, err)

	assert.Equal(t, path, result.Path)
	assert.Equal(t, 44100, result.Config.Audio.SampleRate)
	assert.Equal(t, []string{"hey nova"}, result.Config.Session.Triggers["nova"])
	assert.Equal(t, "from-file", result.Config.STT.APIKey)
	// Untouched sections keep their defaults.
	assert.Equal(t, 1, result.Config.Audio.Channels)
}

func TestLoader_EnvOverridesAPIKey(t *testing.T) {
	t.Setenv("VOICE_STT_API_KEY", "from-env")

	result, err := NewLoader().
		WithPath(filepath.Join(t.TempDir(), "absent.yaml")).
		WithDotEnv(false).
		Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", result.Config.STT.APIKey)
}

func TestLoader_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("audio: ["), 0o644))

	_, err := NewLoader().WithPath(path).WithDotEnv(false).Load()
	assert.Error(t, err)
}
