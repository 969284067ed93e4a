package surface

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackzampolin/pagefit/internal/types"
)

// Mock is a RenderSurface for testing. Heights come from Heights keyed by
// section id, then from HeightFunc, then DefaultHeight. Hidden sections
// sample zero until revealed.
type Mock struct {
	// Configurable behavior
	Heights       map[string]float64
	HeightFunc    func(types.Section) float64
	DefaultHeight float64
	Latency       time.Duration
	FailMount     map[string]bool

	// Counters
	mounts   atomic.Int64
	samples  atomic.Int64
	unmounts atomic.Int64
	reveals  atomic.Int64
	closed   atomic.Bool

	mu      sync.Mutex
	mounted map[string]*mockHandle
}

type mockHandle struct {
	sec     types.Section
	visible bool
}

func (h *mockHandle) SectionID() string { return h.sec.ID }

// NewMock creates a mock surface returning defaultHeight for unknown sections.
func NewMock(defaultHeight float64) *Mock {
	return &Mock{
		Heights:       make(map[string]float64),
		DefaultHeight: defaultHeight,
	}
}

// Mount records the section.
func (m *Mock) Mount(ctx context.Context, sec types.Section) (Handle, error) {
	m.mounts.Add(1)
	if m.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Latency):
		}
	}
	if m.FailMount[sec.ID] {
		return nil, errors.New("mock mount failure")
	}
	h := &mockHandle{sec: sec, visible: !sec.Hidden}
	m.mu.Lock()
	if m.mounted == nil {
		m.mounted = make(map[string]*mockHandle)
	}
	m.mounted[sec.ID] = h
	m.mu.Unlock()
	return h, nil
}

// SampleHeight returns the configured height, or zero for a hidden section.
func (m *Mock) SampleHeight(h Handle) (float64, error) {
	m.samples.Add(1)
	mh, ok := h.(*mockHandle)
	if !ok {
		return 0, errors.New("foreign handle")
	}
	if !mh.visible {
		return 0, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.Heights[mh.sec.ID]; ok {
		return v, nil
	}
	if m.HeightFunc != nil {
		return m.HeightFunc(mh.sec), nil
	}
	return m.DefaultHeight, nil
}

// Unmount forgets the section.
func (m *Mock) Unmount(h Handle) error {
	m.unmounts.Add(1)
	m.mu.Lock()
	delete(m.mounted, h.SectionID())
	m.mu.Unlock()
	return nil
}

// Reveal makes a hidden section measurable until restore is called.
func (m *Mock) Reveal(h Handle) (func(), error) {
	m.reveals.Add(1)
	mh, ok := h.(*mockHandle)
	if !ok {
		return nil, errors.New("foreign handle")
	}
	prev := mh.visible
	mh.visible = true
	return func() { mh.visible = prev }, nil
}

// Close marks the mock closed.
func (m *Mock) Close() error {
	m.closed.Store(true)
	return nil
}

// SetHeight changes the height reported for a section id.
func (m *Mock) SetHeight(id string, h float64) {
	m.mu.Lock()
	m.Heights[id] = h
	m.mu.Unlock()
}

// Mounted returns the number of sections currently mounted.
func (m *Mock) Mounted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.mounted)
}

func (m *Mock) MountCount() int64   { return m.mounts.Load() }
func (m *Mock) SampleCount() int64  { return m.samples.Load() }
func (m *Mock) UnmountCount() int64 { return m.unmounts.Load() }
func (m *Mock) RevealCount() int64  { return m.reveals.Load() }
func (m *Mock) Closed() bool        { return m.closed.Load() }
