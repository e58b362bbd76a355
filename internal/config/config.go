// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory submission queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize sets the size of the deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// KMin, KMax and KDecay shape the per-player K-factor curve used by
	// the pairwise and expected-rank models.
	KMin   float64 `koanf:"k_min"`
	KMax   float64 `koanf:"k_max"`
	KDecay float64 `koanf:"k_decay"`

	// WHRSweeps sets the number of refinement sweeps per whole-history refit.
	WHRSweeps int `koanf:"whr_sweeps"`

	// WHRDriftVariance sets the per-day variance of the skill drift prior.
	WHRDriftVariance float64 `koanf:"whr_drift_variance"`

	// WHRMinGapDays floors the gap between consecutive appearances.
	WHRMinGapDays float64 `koanf:"whr_min_gap_days"`

	// WHRMinCurvature is the minimum curvature magnitude required to take
	// a refinement step.
	WHRMinCurvature float64 `koanf:"whr_min_curvature"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		QueueSize:           10_000,
		DedupeSize:          100_000,
		MaxLeaderboardLimit: 100,
		KMin:                16,
		KMax:                32,
		KDecay:              20,
		WHRSweeps:           100,
		WHRDriftVariance:    0.1,
		WHRMinGapDays:       0.5,
		WHRMinCurvature:     1e-6,
	}
}
