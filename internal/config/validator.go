package config

import (
	"fmt"
	"runtime"

	lcierrors "github.com/standardbeagle/searchd/internal/errors"
)

// Validator validates configuration and fills in computed defaults
// (worker count, in particular, depends on runtime.NumCPU at validation
// time, not at struct-literal time).
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults checks cfg for startup-fatal configuration
// problems and resolves Pool.Workers to a concrete count.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if cfg.Project.Root == "" {
		return lcierrors.NewConfigError("project.root", "", fmt.Errorf("root directory is required"))
	}
	if cfg.Project.Port <= 0 || cfg.Project.Port > 65535 {
		return lcierrors.NewConfigError("project.port", fmt.Sprint(cfg.Project.Port), fmt.Errorf("port must be between 1 and 65535"))
	}
	if cfg.Index.MaxFileSize <= 0 {
		return lcierrors.NewConfigError("index.max_file_size", fmt.Sprint(cfg.Index.MaxFileSize), fmt.Errorf("must be positive"))
	}
	if cfg.Index.IntervalMs <= 0 {
		return lcierrors.NewConfigError("index.interval_ms", fmt.Sprint(cfg.Index.IntervalMs), fmt.Errorf("must be positive"))
	}
	if cfg.Pool.Workers < 0 {
		return lcierrors.NewConfigError("pool.workers", fmt.Sprint(cfg.Pool.Workers), fmt.Errorf("must not be negative"))
	}

	if cfg.Pool.Workers == 0 {
		n := runtime.NumCPU() - 1
		if n < 1 {
			n = 1
		}
		cfg.Pool.Workers = n
	}

	return nil
}
