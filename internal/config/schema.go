package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackzampolin/pagefit/internal/measure"
	"github.com/jackzampolin/pagefit/internal/paginate"
	"github.com/jackzampolin/pagefit/internal/paper"
	"github.com/jackzampolin/pagefit/internal/rephrase"
	"github.com/jackzampolin/pagefit/internal/surface/typeset"
)

// Config holds pagefit configuration.
// Stored at: ~/.pagefit/config.yaml
type Config struct {
	Pagination  PaginationCfg  `mapstructure:"pagination" yaml:"pagination"`
	Measurement MeasurementCfg `mapstructure:"measurement" yaml:"measurement"`
	Typeset     TypesetCfg     `mapstructure:"typeset" yaml:"typeset"`
	Rephrase    RephraseCfg    `mapstructure:"rephrase" yaml:"rephrase"`
	Server      ServerCfg      `mapstructure:"server" yaml:"server"`
}

// PaginationCfg is the page budget.
type PaginationCfg struct {
	PaperSize        string  `mapstructure:"paper_size" yaml:"paper_size"` // Named size; overrides page_height/page_width
	PageHeight       float64 `mapstructure:"page_height" yaml:"page_height"`
	PageWidth        float64 `mapstructure:"page_width" yaml:"page_width"`
	MarginTop        float64 `mapstructure:"margin_top" yaml:"margin_top"`
	MarginBottom     float64 `mapstructure:"margin_bottom" yaml:"margin_bottom"`
	MinSectionHeight float64 `mapstructure:"min_section_height" yaml:"min_section_height"`
	AllowSplitting   bool    `mapstructure:"allow_splitting" yaml:"allow_splitting"` // Reserved
	WidowOrphanLines int     `mapstructure:"widow_orphan_lines" yaml:"widow_orphan_lines"`
	Optimize         bool    `mapstructure:"optimize" yaml:"optimize"`
}

// MeasurementCfg controls pass timing and the height cache.
type MeasurementCfg struct {
	DebounceMs       int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
	ThrottleMs       int `mapstructure:"throttle_ms" yaml:"throttle_ms"`
	DiscoveryRetryMs int `mapstructure:"discovery_retry_ms" yaml:"discovery_retry_ms"`
	DiscoveryRetries int `mapstructure:"discovery_retries" yaml:"discovery_retries"`
	CacheSize        int `mapstructure:"cache_size" yaml:"cache_size"` // <= 0 disables eviction
}

// TypesetCfg controls the headless text measurement backend.
type TypesetCfg struct {
	FontSize     float64 `mapstructure:"font_size" yaml:"font_size"`
	LineHeight   float64 `mapstructure:"line_height" yaml:"line_height"`
	BlockSpacing float64 `mapstructure:"block_spacing" yaml:"block_spacing"`
	PaddingX     float64 `mapstructure:"padding_x" yaml:"padding_x"`
}

// RephraseCfg configures LLM rephrase suggestions.
type RephraseCfg struct {
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
	Model          string `mapstructure:"model" yaml:"model"`
	APIKey         string `mapstructure:"api_key" yaml:"api_key"` // Supports ${ENV_VAR} syntax
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	MaxSuggestions int    `mapstructure:"max_suggestions" yaml:"max_suggestions"`
}

// ServerCfg is the HTTP listen address.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Pagination: PaginationCfg{
			PaperSize:        "A4",
			PageHeight:       1123,
			PageWidth:        794,
			MarginTop:        40,
			MarginBottom:     40,
			MinSectionHeight: 20,
			WidowOrphanLines: 2,
		},
		Measurement: MeasurementCfg{
			DebounceMs:       200,
			ThrottleMs:       500,
			DiscoveryRetryMs: 1000,
			DiscoveryRetries: 1,
			CacheSize:        2048,
		},
		Typeset: TypesetCfg{
			FontSize:     11,
			LineHeight:   1.35,
			BlockSpacing: 6,
			PaddingX:     40,
		},
		Rephrase: RephraseCfg{
			Model:          "gpt-4o-mini",
			APIKey:         "${OPENAI_API_KEY}",
			MaxSuggestions: 3,
		},
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: "8080",
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Pagination.PaperSize != "" {
		if _, err := paper.Lookup(c.Pagination.PaperSize); err != nil {
			errs = append(errs, err)
		}
	}
	p, err := c.PageSize()
	if err == nil {
		if p.Height-c.Pagination.MarginTop-c.Pagination.MarginBottom <= 0 {
			errs = append(errs, fmt.Errorf("pagination: margins leave no room on a %.0f unit page", p.Height))
		}
		if p.Width-2*c.Typeset.PaddingX <= 0 {
			errs = append(errs, fmt.Errorf("typeset: padding_x leaves no room on a %.0f unit page", p.Width))
		}
	}
	if c.Pagination.MarginTop < 0 || c.Pagination.MarginBottom < 0 {
		errs = append(errs, errors.New("pagination: margins must not be negative"))
	}
	if c.Pagination.WidowOrphanLines < 0 {
		errs = append(errs, errors.New("pagination: widow_orphan_lines must not be negative"))
	}
	if c.Measurement.DebounceMs < 0 || c.Measurement.ThrottleMs < 0 || c.Measurement.DiscoveryRetryMs < 0 {
		errs = append(errs, errors.New("measurement: durations must not be negative"))
	}
	if c.Measurement.DiscoveryRetries < 0 {
		errs = append(errs, errors.New("measurement: discovery_retries must not be negative"))
	}
	if c.Typeset.FontSize <= 0 || c.Typeset.LineHeight <= 0 {
		errs = append(errs, errors.New("typeset: font_size and line_height must be positive"))
	}
	return errors.Join(errs...)
}

// PageSize resolves the page dimensions. A named paper size wins over
// explicit height and width.
func (c *Config) PageSize() (paper.Size, error) {
	if c.Pagination.PaperSize != "" {
		return paper.Lookup(c.Pagination.PaperSize)
	}
	return paper.Size{Name: "custom", Width: c.Pagination.PageWidth, Height: c.Pagination.PageHeight}, nil
}

// PaginationOptions converts the pagination section to paginate.Options.
func (c *Config) PaginationOptions() (paginate.Options, error) {
	size, err := c.PageSize()
	if err != nil {
		return paginate.Options{}, err
	}
	return paginate.Options{
		PageHeight:       size.Height,
		MinSectionHeight: c.Pagination.MinSectionHeight,
		WidowOrphanLines: c.Pagination.WidowOrphanLines,
		MarginTop:        c.Pagination.MarginTop,
		MarginBottom:     c.Pagination.MarginBottom,
		AllowSplitting:   c.Pagination.AllowSplitting,
		Optimize:         c.Pagination.Optimize,
	}, nil
}

// MeasureOptions converts the measurement section to orchestrator timings.
func (c *Config) MeasureOptions() measure.Options {
	return measure.Options{
		Debounce:         time.Duration(c.Measurement.DebounceMs) * time.Millisecond,
		Throttle:         time.Duration(c.Measurement.ThrottleMs) * time.Millisecond,
		RetryDelay:       time.Duration(c.Measurement.DiscoveryRetryMs) * time.Millisecond,
		DiscoveryRetries: c.Measurement.DiscoveryRetries,
	}
}

// TypesetConfig converts the typeset section, taking the width from the
// resolved page size.
func (c *Config) TypesetConfig() (typeset.Config, error) {
	size, err := c.PageSize()
	if err != nil {
		return typeset.Config{}, err
	}
	return typeset.Config{
		PageWidth:    size.Width,
		PaddingX:     c.Typeset.PaddingX,
		FontSize:     c.Typeset.FontSize,
		LineHeight:   c.Typeset.LineHeight,
		BlockSpacing: c.Typeset.BlockSpacing,
	}, nil
}

// RephraseConfig converts the rephrase section, resolving ${ENV_VAR}
// references in the API key.
func (c *Config) RephraseConfig() rephrase.Config {
	return rephrase.Config{
		APIKey:         ResolveEnvVars(c.Rephrase.APIKey),
		Model:          c.Rephrase.Model,
		BaseURL:        c.Rephrase.BaseURL,
		MaxSuggestions: c.Rephrase.MaxSuggestions,
	}
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}
