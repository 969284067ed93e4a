// Package session builds a preview service from configuration and keeps it
// in step with config reloads.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackzampolin/pagefit/internal/config"
	"github.com/jackzampolin/pagefit/internal/preview"
	"github.com/jackzampolin/pagefit/internal/rephrase"
	"github.com/jackzampolin/pagefit/internal/surface/typeset"
)

// NewPreview creates a preview service measuring with the typeset backend.
// When rephrase suggestions are enabled but no API key resolves, the service
// runs without an advisor.
func NewPreview(cfg *config.Config, logger *slog.Logger) (*preview.Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts, err := cfg.PaginationOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve pagination options: %w", err)
	}
	tc, err := cfg.TypesetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve typeset config: %w", err)
	}
	advisor, err := NewAdvisor(cfg, logger)
	if err != nil {
		return nil, err
	}

	pc := preview.Config{
		Surface:     typeset.Factory(tc),
		Pagination:  opts,
		Measurement: cfg.MeasureOptions(),
		CacheSize:   cfg.Measurement.CacheSize,
		Logger:      logger,
	}
	if advisor != nil {
		pc.Advisor = advisor
	}
	return preview.New(pc), nil
}

// NewAdvisor returns the rephrase advisor, or nil when it is disabled or
// has no API key.
func NewAdvisor(cfg *config.Config, logger *slog.Logger) (*rephrase.Advisor, error) {
	if !cfg.Rephrase.Enabled {
		return nil, nil
	}
	rc := cfg.RephraseConfig()
	rc.Logger = logger
	a, err := rephrase.New(rc)
	if errors.Is(err, rephrase.ErrNoAPIKey) {
		logger.Warn("rephrase suggestions enabled without an API key, skipping")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create rephrase advisor: %w", err)
	}
	return a, nil
}

// Reloader returns a config.Manager OnChange callback that pushes new
// pagination options into svc. Typeset changes rebuild the surface, which
// purges cached heights and re-measures.
func Reloader(svc *preview.Service, logger *slog.Logger) func(old, updated *config.Config) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(old, updated *config.Config) {
		opts, err := updated.PaginationOptions()
		if err != nil {
			logger.Warn("ignoring reloaded pagination settings", "error", err)
			return
		}
		svc.SetOptions(opts)

		if !config.LayoutChanged(old, updated) {
			logger.Info("pagination options reloaded from config")
			return
		}
		tc, err := updated.TypesetConfig()
		if err != nil {
			logger.Warn("ignoring reloaded typeset settings", "error", err)
			return
		}
		if err := svc.SetSurface(typeset.Factory(tc)); err != nil {
			logger.Error("failed to rebuild measurement surface", "error", err)
			return
		}
		logger.Info("layout changed, re-measuring", "page_width", tc.PageWidth, "font_size", tc.FontSize)
	}
}
