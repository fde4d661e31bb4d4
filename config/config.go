package config

import (
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	AppName     string
	AppLogLevel string

	// Database
	DatabaseURL string

	// Server
	ServerPort string
	Workers    int

	// Bundles
	BundlesRoot  string
	BenchmarkApp string

	// AWS; publishing is disabled while BundleBucket is empty
	AWSRegion    string
	BundleBucket string
	BundlePrefix string
}

var defaults = map[string]interface{}{
	"APP_NAME":      "profiling-bundler",
	"APP_LOG_LEVEL": "INFO",
	"DATABASE_URL":  "postgres://localhost/profiling_bundler?sslmode=disable",
	"SERVER_PORT":   "8080",
	"WORKERS":       2,
	"BUNDLES_ROOT":  "/var/lib/profiling-bundler/bundles",
	"BENCHMARK_APP": "benchmark_app",
	"AWS_REGION":    "us-east-1",
	"BUNDLE_BUCKET": "",
	"BUNDLE_PREFIX": "profiling-bundles",
}

// Load loads configuration from environment variables
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	workers := v.GetInt("WORKERS")
	if workers <= 0 {
		workers = 1
	}
	return &Config{
		AppName:      v.GetString("APP_NAME"),
		AppLogLevel:  v.GetString("APP_LOG_LEVEL"),
		DatabaseURL:  v.GetString("DATABASE_URL"),
		ServerPort:   v.GetString("SERVER_PORT"),
		Workers:      workers,
		BundlesRoot:  v.GetString("BUNDLES_ROOT"),
		BenchmarkApp: v.GetString("BENCHMARK_APP"),
		AWSRegion:    v.GetString("AWS_REGION"),
		BundleBucket: v.GetString("BUNDLE_BUCKET"),
		BundlePrefix: v.GetString("BUNDLE_PREFIX"),
	}
}
