package config

import (
	"os"
	"path/filepath"
)

// Config holds all tunables for the server, sourced from
// defaults, then an optional .searchd.kdl file, then CLI flag overrides,
// in that precedence order.
type Config struct {
	Project Project
	Index   Index
	Pool    Pool
	Log     Log
	Metrics Metrics

	// Include/Exclude are doublestar glob patterns matched against paths
	// relative to Project.Root during directory enumeration.
	Include []string
	Exclude []string
}

// Project describes what is being indexed.
type Project struct {
	Root string
	Port int
}

// Index controls ingestion limits and the reindex cadence.
type Index struct {
	MaxFileSize     int64 // bytes; files larger than this are skipped
	IntervalMs      int   // reindex fan-out period, default 5000ms
	WatchForCreates bool  // fsnotify-driven early reindex nudge
}

// Pool controls the worker pool's size.
type Pool struct {
	Workers int // 0 = hardware_parallelism - 1, minimum 1
}

// Log controls the leveled logger.
type Log struct {
	Level string // trace|debug|info|warn|error|critical
	JSON  bool
}

// Metrics controls the optional Prometheus endpoint.
type Metrics struct {
	Enabled bool
	Addr    string // e.g. ":9090"
}

// Default returns the built-in defaults for root/port, before any
// .searchd.kdl overlay or CLI flag override is applied.
func Default(root string, port int) *Config {
	return &Config{
		Project: Project{Root: root, Port: port},
		Index: Index{
			MaxFileSize:     10 * 1024 * 1024,
			IntervalMs:      5000,
			WatchForCreates: true,
		},
		Pool: Pool{Workers: 0},
		Log:  Log{Level: "info", JSON: false},
		Metrics: Metrics{
			Enabled: false,
			Addr:    ":9090",
		},
		Include: []string{},
		Exclude: defaultExcludes(),
	}
}

// Load builds the effective config for root/port: defaults, overlaid by
// ~/.searchd.kdl (if present), overlaid by <root>/.searchd.kdl (if present).
func Load(root string, port int) (*Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}
	cfg := Default(absRoot, port)

	if home, err := os.UserHomeDir(); err == nil {
		if err := mergeKDLFile(cfg, filepath.Join(home, ".searchd.kdl")); err != nil {
			return nil, err
		}
	}
	if err := mergeKDLFile(cfg, filepath.Join(absRoot, ".searchd.kdl")); err != nil {
		return nil, err
	}

	// The overlay files may have rewritten Root/Port; the CLI arguments
	// remain authoritative.
	cfg.Project.Root = absRoot
	cfg.Project.Port = port

	return cfg, nil
}

func defaultExcludes() []string {
	return []string{
		"**/.git/**",
		"**/.*/**",
		"**/node_modules/**",
		"**/vendor/**",
		"**/dist/**",
		"**/build/**",
		"**/out/**",
		"**/target/**",
		"**/bin/**",
		"**/obj/**",
		"**/*.min.js",
		"**/*.min.css",
		"**/__pycache__/**",
		"**/*.pyc",
		"**/logs/**",
		"**/*.log",
	}
}
