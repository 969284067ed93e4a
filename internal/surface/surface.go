// Package surface abstracts the rendering backend used to measure sections.
//
// A RenderSurface lays out one section at a time on an invisible area that is
// as wide as the target page and unbounded in height. Offscreen wraps a
// backend with lazy creation, serialized access and guaranteed teardown.
package surface

import (
	"context"
	"errors"

	"github.com/jackzampolin/pagefit/internal/types"
)

// ErrClosed is returned when measuring on a surface that has been torn down.
var ErrClosed = errors.New("surface closed")

// Handle identifies a section mounted on a surface.
type Handle interface {
	SectionID() string
}

// RenderSurface is implemented by rendering backends.
type RenderSurface interface {
	// Mount lays out a copy of the section and returns a handle to it.
	Mount(ctx context.Context, sec types.Section) (Handle, error)
	// SampleHeight reads the laid-out height of a mounted section.
	SampleHeight(h Handle) (float64, error)
	// Unmount removes the section from the surface.
	Unmount(h Handle) error
}

// Revealer is implemented by backends that can temporarily force a hidden
// section to be laid out. restore puts the prior visibility back.
type Revealer interface {
	Reveal(h Handle) (restore func(), err error)
}

// Closer is implemented by backends holding resources that must be released.
type Closer interface {
	Close() error
}

// Factory builds a backend on first use.
type Factory func() (RenderSurface, error)
