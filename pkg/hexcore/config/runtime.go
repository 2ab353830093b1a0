package config

import (
	"log/slog"
	"time"

	"github.com/mpereira/hexcore/pkg/hexcore/retry"
)

// Runtime holds the settings the application runtime understands,
// extracted from a raw Config.
type Runtime struct {
	// LogLevel is the minimum level for runtime logging.
	LogLevel slog.Level

	// Concurrency enables concurrent listener invocation within a
	// generation when > 0, bounded by the given limit.
	Concurrency int

	// MaxDepth bounds the dispatch cascade. 0 disables the guard.
	MaxDepth int

	// JournalPath is the SQLite journal file. Empty disables the
	// journal; ":memory:" keeps it in process memory.
	JournalPath string

	// DeduplicateTTL enables id-based deduplication on the emitter.
	DeduplicateTTL time.Duration

	// Retry applies to every listener handler invocation.
	Retry retry.Config
}

// DefaultRuntime is the zero-configuration runtime: sequential
// dispatch, unbounded cascade, no journal, no retries.
var DefaultRuntime = Runtime{
	LogLevel: slog.LevelInfo,
	Retry:    retry.None,
}

// RuntimeFromConfig extracts Runtime settings from cfg. Missing keys
// fall back to DefaultRuntime.
//
//	log_level: debug | info | warn | error
//	dispatch:
//	  concurrency: 4
//	  max_depth: 100
//	journal:
//	  path: events.db
//	emit:
//	  deduplicate_ttl: 1m
//	retry:
//	  max_attempts: 3
//	  initial_backoff: 100ms
//	  max_backoff: 5s
//	  backoff_factor: 2.0
func RuntimeFromConfig(cfg Config) Runtime {
	rt := DefaultRuntime

	rt.LogLevel = parseLevel(cfg.String("log_level", ""), rt.LogLevel)

	dispatch := cfg.Section("dispatch")
	rt.Concurrency = dispatch.Int("concurrency", rt.Concurrency)
	rt.MaxDepth = dispatch.Int("max_depth", rt.MaxDepth)

	rt.JournalPath = cfg.Section("journal").String("path", rt.JournalPath)
	rt.DeduplicateTTL = cfg.Section("emit").Duration("deduplicate_ttl", rt.DeduplicateTTL)

	if cfg.Has("retry") {
		rc := cfg.Section("retry")
		rt.Retry = retry.Config{
			MaxAttempts:    rc.Int("max_attempts", retry.Default.MaxAttempts),
			InitialBackoff: rc.Duration("initial_backoff", retry.Default.InitialBackoff),
			MaxBackoff:     rc.Duration("max_backoff", retry.Default.MaxBackoff),
			BackoffFactor:  rc.Float("backoff_factor", retry.Default.BackoffFactor),
			Jitter:         rc.Float("jitter", retry.Default.Jitter),
		}
	}

	return rt
}

func parseLevel(s string, fallback slog.Level) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}
