package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilsley/repomark/apps/server/internal/platform/config"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repomark.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := config.LoadFrom(envMap(nil))

	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), cfg)
	assert.Equal(t, "https://api.github.com", cfg.GitHubAPIURL)
}

func TestLoadFrom_YAMLFile(t *testing.T) {
	path := writeFile(t, `
port: "9090"
githubApiUrl: http://mock-github:8081
redisAddr: redis:6379
conversionTimeout: 45s
fetchConcurrency: 8
oauth:
  clientId: abc
  stateTtl: 5m
defaultExcludes:
  types: .png,.lock
  dirs: node_modules
`)

	cfg, err := config.LoadFrom(envMap(map[string]string{"REPOMARK_CONFIG": path}))

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "http://mock-github:8081", cfg.GitHubAPIURL)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 45*time.Second, cfg.ConversionTimeout)
	assert.Equal(t, 8, cfg.FetchConcurrency)
	assert.Equal(t, "abc", cfg.OAuth.ClientID)
	assert.Equal(t, 5*time.Minute, cfg.OAuth.StateTTL)
	assert.Equal(t, config.Excludes{Types: ".png,.lock", Dirs: "node_modules"}, cfg.DefaultExcludes)
}

func TestLoadFrom_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "port: \"9090\"\nfetchConcurrency: 8\n")

	cfg, err := config.LoadFrom(envMap(map[string]string{
		"REPOMARK_CONFIG":      path,
		"PORT":                 "7000",
		"FETCH_CONCURRENCY":    "2",
		"OTEL_ENABLED":         "true",
		"CONVERSION_TIMEOUT":   "10s",
		"GITHUB_CLIENT_SECRET": "shh",
		"DEFAULT_EXCLUDE_DIRS": "vendor",
	}))

	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, 2, cfg.FetchConcurrency)
	assert.True(t, cfg.OTelEnabled)
	assert.Equal(t, 10*time.Second, cfg.ConversionTimeout)
	assert.Equal(t, "shh", cfg.OAuth.ClientSecret)
	assert.Equal(t, "vendor", cfg.DefaultExcludes.Dirs)
}

func TestLoadFrom_BadEnvValue(t *testing.T) {
	_, err := config.LoadFrom(envMap(map[string]string{"CONVERSION_TIMEOUT": "soon"}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONVERSION_TIMEOUT")
}

func TestLoadFrom_MissingFile(t *testing.T) {
	_, err := config.LoadFrom(envMap(map[string]string{"REPOMARK_CONFIG": "/does/not/exist.yaml"}))

	assert.Error(t, err)
}

func TestLoadFrom_InvalidConcurrency(t *testing.T) {
	_, err := config.LoadFrom(envMap(map[string]string{"FETCH_CONCURRENCY": "0"}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetchConcurrency")
}

func TestLoadFrom_InvalidGitHubAPIURL(t *testing.T) {
	for _, raw := range []string{"api.github.com", "ftp://mirror.example.test", "http://%zz"} {
		_, err := config.LoadFrom(envMap(map[string]string{"GITHUB_API_URL": raw}))

		require.Error(t, err, raw)
		assert.Contains(t, err.Error(), "githubApiUrl", raw)
	}
}
