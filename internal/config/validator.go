package config

import (
	"errors"
	"fmt"
	"math"

	greaperrors "github.com/standardbeagle/greaper/internal/errors"
	"github.com/standardbeagle/greaper/internal/matcher"
	"github.com/standardbeagle/greaper/internal/types"
)

// Validator validates configuration and sets smart defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates every section, reporting all problems
// together, and applies smart defaults when the configuration is valid
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	var errs []error

	if err := v.validateProjectConfig(&cfg.Project); err != nil {
		errs = append(errs, greaperrors.NewConfigError("project", "", err))
	}

	if err := v.validateSearchConfig(&cfg.Search); err != nil {
		errs = append(errs, greaperrors.NewConfigError("search", "", err))
	}

	if err := v.validateArchiveConfig(&cfg.Archive); err != nil {
		errs = append(errs, greaperrors.NewConfigError("archive", "", err))
	}

	if err := v.validatePerformanceConfig(&cfg.Performance); err != nil {
		errs = append(errs, greaperrors.NewConfigError("performance", "", err))
	}

	if cfg.Watch.DebounceMs < 0 {
		errs = append(errs, greaperrors.NewConfigError("watch", "",
			fmt.Errorf("DebounceMs cannot be negative, got %d", cfg.Watch.DebounceMs)))
	}

	if err := greaperrors.NewMultiError(errs).ErrorOrNil(); err != nil {
		return err
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateProjectConfig(project *Project) error {
	if project.Root == "" {
		return errors.New("project root cannot be empty")
	}
	return nil
}

func (v *Validator) validateSearchConfig(search *Search) error {
	if _, err := types.ParseSearchMode(search.Mode); err != nil {
		return err
	}
	if _, err := types.ParseSyntaxMode(search.SyntaxMode); err != nil {
		return err
	}
	if _, err := matcher.SelectDistance(search.FuzzyBackend); err != nil {
		return err
	}

	if math.IsNaN(search.FuzzyThreshold) || search.FuzzyThreshold < 0 || search.FuzzyThreshold > 1 {
		return fmt.Errorf("FuzzyThreshold must be between 0 and 1, got %v", search.FuzzyThreshold)
	}

	if search.ContextLines < 0 {
		return fmt.Errorf("ContextLines cannot be negative, got %d", search.ContextLines)
	}

	if search.MaxResults < 0 {
		return fmt.Errorf("MaxResults cannot be negative, got %d", search.MaxResults)
	}

	if search.MaxFileSize < 0 {
		return fmt.Errorf("MaxFileSize cannot be negative, got %d", search.MaxFileSize)
	}

	return nil
}

func (v *Validator) validateArchiveConfig(archive *Archive) error {
	if archive.MaxDepth < 0 {
		return fmt.Errorf("MaxDepth cannot be negative, got %d", archive.MaxDepth)
	}

	if archive.MaxMemberSize < 0 {
		return fmt.Errorf("MaxMemberSize cannot be negative, got %d", archive.MaxMemberSize)
	}

	return nil
}

func (v *Validator) validatePerformanceConfig(perf *Performance) error {
	// 0 means auto-detect (set by smart defaults)
	if perf.Workers < 0 {
		return fmt.Errorf("Workers cannot be negative, got %d", perf.Workers)
	}
	return nil
}

// setSmartDefaults fills zero values with system-derived defaults
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Performance.Workers == 0 {
		cfg.Performance.Workers = defaultWorkers()
	}

	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = types.DefaultMaxResults
	}

	if cfg.Archive.MaxMemberSize == 0 {
		cfg.Archive.MaxMemberSize = types.DefaultMaxMemberSize
	}

	if cfg.Search.Mode == "" {
		cfg.Search.Mode = string(types.ModeExact)
	}

	if cfg.Search.SyntaxMode == "" {
		cfg.Search.SyntaxMode = string(types.SyntaxAll)
	}

	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = DefaultWatchDebounceMs
	}
}

// ValidateConfig is a convenience function for quick validation
func ValidateConfig(cfg *Config) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}
