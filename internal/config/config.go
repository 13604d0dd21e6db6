// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over those defaults.
package config

import "time"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite file backing the store. Empty keeps records in memory only.
	DBPath string `koanf:"db_path"`
	// SeedDemo seeds demo records at startup when the store is empty.
	SeedDemo bool `koanf:"seed_demo"`

	// ChangeQueueSize bounds the in-memory queue of store changes awaiting publication.
	ChangeQueueSize int `koanf:"change_queue_size"`
	// PublisherWorkers sets how many workers drain the change queue.
	PublisherWorkers int `koanf:"publisher_workers"`
	// DedupeSize bounds how many submission keys are remembered for retries.
	DedupeSize int `koanf:"dedupe_size"`
	// KafkaBrokers is a comma separated broker list. Empty logs changes instead.
	KafkaBrokers string `koanf:"kafka_brokers"`
	// KafkaTopic receives store change events.
	KafkaTopic string `koanf:"kafka_topic"`

	// PredictURL is the prediction endpoint. Empty grades submissions locally.
	PredictURL string `koanf:"predict_url"`
	// PredictTimeoutMS bounds a single prediction call.
	PredictTimeoutMS int `koanf:"predict_timeout_ms"`

	// MaxListLimit caps ?limit on ranking endpoints.
	MaxListLimit int `koanf:"max_list_limit"`
	// MetricsIntervalMS sets how often runtime gauges are refreshed.
	MetricsIntervalMS int `koanf:"metrics_interval_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		DBPath:            "",
		SeedDemo:          true,
		ChangeQueueSize:   1024,
		PublisherWorkers:  2,
		DedupeSize:        10_000,
		KafkaTopic:        "assessment-changes",
		PredictURL:        "",
		PredictTimeoutMS:  3000,
		MaxListLimit:      50,
		MetricsIntervalMS: 10_000,
	}
}

// PredictTimeout returns PredictTimeoutMS as a duration.
func (c *Config) PredictTimeout() time.Duration {
	return time.Duration(c.PredictTimeoutMS) * time.Millisecond
}

// MetricsInterval returns MetricsIntervalMS as a duration.
func (c *Config) MetricsInterval() time.Duration {
	return time.Duration(c.MetricsIntervalMS) * time.Millisecond
}
