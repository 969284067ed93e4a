package config

import (
	"errors"
	"fmt"
)

// ErrNoDefault is returned when no default value exists for a config key.
var ErrNoDefault = errors.New("no default exists")

// Entry is one configuration key with its default and a description.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// DefaultEntries returns the default configuration entries.
// These seed viper's defaults and document every key.
func DefaultEntries() []Entry {
	return []Entry{
		// ===================
		// Pagination
		// ===================
		{
			Key:         "pagination.paper_size",
			Value:       "A4",
			Description: "Named paper size; overrides page_height and page_width when set",
		},
		{
			Key:         "pagination.page_height",
			Value:       1123.0,
			Description: "Page height in layout units when paper_size is empty",
		},
		{
			Key:         "pagination.page_width",
			Value:       794.0,
			Description: "Page width in layout units when paper_size is empty",
		},
		{
			Key:         "pagination.margin_top",
			Value:       40.0,
			Description: "Top margin in layout units",
		},
		{
			Key:         "pagination.margin_bottom",
			Value:       40.0,
			Description: "Bottom margin in layout units",
		},
		{
			Key:         "pagination.min_section_height",
			Value:       20.0,
			Description: "Sections shorter than this are reported as orphans",
		},
		{
			Key:         "pagination.allow_splitting",
			Value:       false,
			Description: "Reserved; sections are never split across pages",
		},
		{
			Key:         "pagination.widow_orphan_lines",
			Value:       2,
			Description: "Lines below which a section stranded at a page bottom is a widow",
		},
		{
			Key:         "pagination.optimize",
			Value:       false,
			Description: "Also compute the first-fit-decreasing alternative layout",
		},

		// ===================
		// Measurement
		// ===================
		{
			Key:         "measurement.debounce_ms",
			Value:       200,
			Description: "Quiet period that coalesces bursts of document changes",
		},
		{
			Key:         "measurement.throttle_ms",
			Value:       500,
			Description: "Minimum interval between the starts of two measurement passes",
		},
		{
			Key:         "measurement.discovery_retry_ms",
			Value:       1000,
			Description: "Wait before retrying section discovery",
		},
		{
			Key:         "measurement.discovery_retries",
			Value:       1,
			Description: "Discovery retries before publishing an empty result",
		},
		{
			Key:         "measurement.cache_size",
			Value:       2048,
			Description: "Maximum cached section heights (0 disables eviction)",
		},

		// ===================
		// Typeset
		// ===================
		{
			Key:         "typeset.font_size",
			Value:       11.0,
			Description: "Body font size in layout units",
		},
		{
			Key:         "typeset.line_height",
			Value:       1.35,
			Description: "Line height multiplier",
		},
		{
			Key:         "typeset.block_spacing",
			Value:       6.0,
			Description: "Gap between consecutive blocks",
		},
		{
			Key:         "typeset.padding_x",
			Value:       40.0,
			Description: "Left and right page padding",
		},

		// ===================
		// Rephrase
		// ===================
		{
			Key:         "rephrase.enabled",
			Value:       false,
			Description: "Ask an LLM for shorter wordings of overflowing sections",
		},
		{
			Key:         "rephrase.model",
			Value:       "gpt-4o-mini",
			Description: "Chat model used for rephrase suggestions",
		},
		{
			Key:         "rephrase.api_key",
			Value:       "${OPENAI_API_KEY}",
			Description: "OpenAI API key (uses environment variable)",
		},
		{
			Key:         "rephrase.base_url",
			Value:       "",
			Description: "Override for OpenAI-compatible endpoints",
		},
		{
			Key:         "rephrase.max_suggestions",
			Value:       3,
			Description: "Maximum rephrase suggestions per pagination",
		},

		// ===================
		// Server
		// ===================
		{
			Key:         "server.host",
			Value:       "127.0.0.1",
			Description: "HTTP listen host",
		},
		{
			Key:         "server.port",
			Value:       "8080",
			Description: "HTTP listen port",
		},
	}
}

// GetDefault returns the default value for a config key.
// Returns nil if no default exists for the key.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

// Setting is a key with its effective and default values.
type Setting struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Default     any    `json:"default" yaml:"default"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Settings lists every known key with its effective value. API keys are
// reported unresolved so secrets never leave the process.
func (cm *Manager) Settings() []Setting {
	entries := DefaultEntries()
	out := make([]Setting, 0, len(entries))
	for _, e := range entries {
		out = append(out, Setting{
			Key:         e.Key,
			Value:       cm.v.Get(e.Key),
			Default:     e.Value,
			Description: e.Description,
		})
	}
	return out
}

// Setting returns one key, or ErrNoDefault for an unknown key.
func (cm *Manager) Setting(key string) (Setting, error) {
	def := GetDefault(key)
	if def == nil {
		return Setting{}, fmt.Errorf("%w for key %q", ErrNoDefault, key)
	}
	return Setting{Key: key, Value: cm.v.Get(key), Default: def.Value, Description: def.Description}, nil
}
