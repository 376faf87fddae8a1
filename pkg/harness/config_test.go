package harness_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/calebmor/genbench/pkg/harness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
decoder:
  kind: anthropic
  model: claude-test
  api_key: ${TEST_GENBENCH_KEY}
  batch_size: 4
  temperature: 0.8
  rate_limit:
    rpm: 60
run:
  tasks: tasks.jsonl
  output: samples.jsonl
  num_samples: 10
  do_sample: true
  resume: true
log:
  level: debug
  format: json
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("TEST_GENBENCH_KEY", "sk-secret")

	cfg, err := harness.LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Decoder.Kind)
	assert.Equal(t, "claude-test", cfg.Decoder.Model)
	assert.Equal(t, "sk-secret", cfg.Decoder.APIKey, "env references must expand")
	assert.Equal(t, 4, cfg.Decoder.BatchSize)
	assert.InDelta(t, 0.8, cfg.Decoder.Temperature, 1e-9)
	assert.Equal(t, 60, cfg.Decoder.RateLimit.RPM)

	assert.Equal(t, "tasks.jsonl", cfg.Run.Tasks)
	assert.Equal(t, "samples.jsonl", cfg.Run.Output)
	assert.Equal(t, 10, cfg.Run.NumSamples)
	assert.True(t, cfg.Run.DoSample)
	assert.True(t, cfg.Run.Resume)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := harness.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_BadYAML(t *testing.T) {
	_, err := harness.LoadConfig(writeConfig(t, "decoder: [not a map"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestValidate(t *testing.T) {
	cfg := harness.Config{}
	cfg.Run.Tasks = "tasks.jsonl"
	cfg.Run.Output = "out.jsonl"
	require.NoError(t, cfg.Validate())

	missing := cfg
	missing.Run.Tasks = ""
	require.Error(t, missing.Validate())

	missing = cfg
	missing.Run.Output = ""
	require.Error(t, missing.Validate())

	negative := cfg
	negative.Run.NumSamples = -1
	require.Error(t, negative.Validate())
}

func TestSamplesPerTask(t *testing.T) {
	cfg := harness.Config{}
	assert.Equal(t, 1, cfg.SamplesPerTask())

	cfg.Run.NumSamples = 25
	assert.Equal(t, 25, cfg.SamplesPerTask())
}
