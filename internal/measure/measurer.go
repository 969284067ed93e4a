// Package measure turns document sections into heights.
//
// Measurer consults a fingerprint-keyed cache before touching the render
// surface. Orchestrator drives measurement passes over a live document with
// debouncing, throttling, single-flight execution and a bounded discovery
// retry.
package measure

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/pagefit/internal/cache"
	"github.com/jackzampolin/pagefit/internal/fingerprint"
	"github.com/jackzampolin/pagefit/internal/types"
)

// Sampler renders a section and reports its height. surface.Offscreen
// implements it.
type Sampler interface {
	Measure(ctx context.Context, sec types.Section) (float64, error)
}

// Measurer measures sections, reusing heights for content already seen.
type Measurer struct {
	sampler Sampler
	cache   *cache.LRU
	logger  *slog.Logger
}

// NewMeasurer creates a measurer. A nil cache gets a default-sized one.
func NewMeasurer(sampler Sampler, c *cache.LRU, logger *slog.Logger) *Measurer {
	if c == nil {
		c = cache.NewLRU(cache.DefaultCapacity)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Measurer{sampler: sampler, cache: c, logger: logger}
}

// Measure returns the section's height, sampling the surface only when the
// content fingerprint is not cached.
func (m *Measurer) Measure(ctx context.Context, sec types.Section) (float64, error) {
	fp := fingerprint.Hash(sec.Content)
	if h, ok := m.cache.Get(fp); ok {
		return h, nil
	}
	return m.sample(ctx, sec, fp)
}

// Remeasure samples the surface regardless of the cache and stores the
// result. Used when layout geometry changed but content did not.
func (m *Measurer) Remeasure(ctx context.Context, sec types.Section) (float64, error) {
	return m.sample(ctx, sec, fingerprint.Hash(sec.Content))
}

func (m *Measurer) sample(ctx context.Context, sec types.Section, fp fingerprint.ID) (float64, error) {
	h, err := m.sampler.Measure(ctx, sec)
	if err != nil {
		return 0, err
	}
	if h < 0 {
		h = 0
	}
	m.cache.Put(fp, h)
	m.logger.Debug("section measured", "section_id", sec.ID, "height", h, "fingerprint", fp.String())
	return h, nil
}

// MeasureAll measures sections in order. A section that cannot be sampled
// is recorded with zero height.
func (m *Measurer) MeasureAll(ctx context.Context, secs []types.Section) []types.Measurement {
	out := make([]types.Measurement, 0, len(secs))
	for _, sec := range secs {
		h, err := m.Measure(ctx, sec)
		if err != nil {
			m.logger.Warn("failed to measure section", "section_id", sec.ID, "error", err)
			h = 0
		}
		out = append(out, types.Measurement{
			SectionID: sec.ID,
			Height:    h,
			Content:   sec.Content,
			Type:      sec.Type,
		})
	}
	return out
}

// Cache returns the measurer's cache.
func (m *Measurer) Cache() *cache.LRU {
	return m.cache
}

// DocumentFingerprint fingerprints the ordered contents of a document.
func DocumentFingerprint(secs []types.Section) fingerprint.ID {
	contents := make([]string, len(secs))
	for i, s := range secs {
		contents[i] = s.Content
	}
	return fingerprint.Document(contents)
}
