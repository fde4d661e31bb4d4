package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for key := range defaults {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "profiling-bundler", cfg.AppName)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "benchmark_app", cfg.BenchmarkApp)
	assert.Empty(t, cfg.BundleBucket)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("WORKERS", "4")
	t.Setenv("BUNDLES_ROOT", "/tmp/bundles")
	t.Setenv("BUNDLE_BUCKET", "perf-bundles")

	cfg := Load()
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "/tmp/bundles", cfg.BundlesRoot)
	assert.Equal(t, "perf-bundles", cfg.BundleBucket)
}

func TestLoad_NonPositiveWorkers(t *testing.T) {
	t.Setenv("WORKERS", "0")
	assert.Equal(t, 1, Load().Workers)
}
