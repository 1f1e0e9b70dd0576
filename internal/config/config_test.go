// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "server: {}\nloader: {}\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultServerReadTimeout, cfg.Server.ReadTimeout)
	assert.Equal(t, DefaultMaxThreads, cfg.Loader.MaxThreads)
	assert.False(t, cfg.Loader.LogFailures)
	assert.Equal(t, DefaultShutdownTimeout, cfg.Loader.ShutdownTimeout)
	assert.Empty(t, cfg.LoadPlans)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
loader:
  maxThreads: 4
  logFailures: true
load_plans:
  - id: plan-1
    name: demo
    jobs:
      - id: a
        functionName: fnA
      - id: b
        functionName: fnB
        priority: 2
        dependsOn: [a]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 4, cfg.Loader.MaxThreads)
	assert.True(t, cfg.Loader.LogFailures)
	require.Len(t, cfg.LoadPlans, 1)
	require.Len(t, cfg.LoadPlans[0].Jobs, 2)
	assert.Equal(t, []string{"a"}, cfg.LoadPlans[0].Jobs[1].DependsOn)
	assert.Equal(t, int64(2), cfg.LoadPlans[0].Jobs[1].Priority)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "loader:\n  maxThreads: 4\n")

	t.Setenv("DELOS_SERVER_PORT", "7070")
	t.Setenv("DELOS_LOADER_MAX_THREADS", "2")
	t.Setenv("DELOS_LOADER_LOG_FAILURES", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, 2, cfg.Loader.MaxThreads)
	assert.True(t, cfg.Loader.LogFailures)
}

func TestLoadInvalidPlan(t *testing.T) {
	path := writeConfig(t, `
load_plans:
  - id: broken
    jobs:
      - id: a
        functionName: fnA
        dependsOn: [missing]
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown job")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
