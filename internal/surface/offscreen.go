package surface

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jackzampolin/pagefit/internal/types"
)

// Offscreen is the single shared measurement surface. Sections are measured
// one at a time so styles never leak between measurements.
type Offscreen struct {
	factory Factory
	logger  *slog.Logger

	mu      sync.Mutex
	backend RenderSurface
	closed  bool
	mounts  int64
}

// NewOffscreen returns a surface that builds its backend lazily.
func NewOffscreen(factory Factory, logger *slog.Logger) *Offscreen {
	if logger == nil {
		logger = slog.Default()
	}
	return &Offscreen{factory: factory, logger: logger}
}

// Measure mounts sec, samples its height and unmounts it again. A section
// that samples zero while carrying content is revealed and sampled once more.
func (o *Offscreen) Measure(ctx context.Context, sec types.Section) (float64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return 0, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if o.backend == nil {
		b, err := o.factory()
		if err != nil {
			return 0, fmt.Errorf("failed to create surface: %w", err)
		}
		o.backend = b
		o.logger.Debug("offscreen surface created")
	}

	h, err := o.backend.Mount(ctx, sec)
	if err != nil {
		return 0, fmt.Errorf("failed to mount section %s: %w", sec.ID, err)
	}
	o.mounts++
	defer func() {
		if err := o.backend.Unmount(h); err != nil {
			o.logger.Warn("failed to unmount section", "section_id", sec.ID, "error", err)
		}
	}()

	height, err := o.backend.SampleHeight(h)
	if err != nil {
		return 0, fmt.Errorf("failed to sample section %s: %w", sec.ID, err)
	}
	if height > 0 || strings.TrimSpace(sec.Content) == "" {
		return height, nil
	}

	rev, ok := o.backend.(Revealer)
	if !ok {
		return height, nil
	}
	restore, err := rev.Reveal(h)
	if err != nil {
		o.logger.Warn("failed to reveal hidden section", "section_id", sec.ID, "error", err)
		return height, nil
	}
	defer restore()

	height, err = o.backend.SampleHeight(h)
	if err != nil {
		return 0, fmt.Errorf("failed to resample section %s: %w", sec.ID, err)
	}
	return height, nil
}

// Rebuild swaps the backend factory. The current backend is torn down and
// the next measurement builds a fresh one.
func (o *Offscreen) Rebuild(factory Factory) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}
	o.factory = factory
	b := o.backend
	o.backend = nil
	if c, ok := b.(Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close surface: %w", err)
		}
	}
	o.logger.Debug("offscreen surface rebuilt")
	return nil
}

// Mounts returns how many sections have been mounted on this surface.
func (o *Offscreen) Mounts() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mounts
}

// Close tears the backend down. It is safe to call more than once.
func (o *Offscreen) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true
	b := o.backend
	o.backend = nil
	if c, ok := b.(Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close surface: %w", err)
		}
	}
	o.logger.Debug("offscreen surface closed")
	return nil
}
