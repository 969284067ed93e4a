package measure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/pagefit/internal/cache"
	"github.com/jackzampolin/pagefit/internal/surface"
	"github.com/jackzampolin/pagefit/internal/types"
)

func newTestMeasurer(mock *surface.Mock) *Measurer {
	off := surface.NewOffscreen(func() (surface.RenderSurface, error) { return mock, nil }, nil)
	return NewMeasurer(off, cache.NewLRU(16), nil)
}

func TestMeasurer_CacheHit(t *testing.T) {
	mock := surface.NewMock(120)
	m := newTestMeasurer(mock)
	ctx := context.Background()
	sec := types.Section{ID: "exp", Type: types.SectionBody, Content: "Experience"}

	h1, err := m.Measure(ctx, sec)
	require.NoError(t, err)
	h2, err := m.Measure(ctx, sec)
	require.NoError(t, err)

	assert.Equal(t, 120.0, h1)
	assert.Equal(t, h1, h2)
	assert.Equal(t, int64(1), mock.MountCount(), "second measurement is served from cache")

	st := m.Cache().Stats()
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, int64(1), st.Misses)
}

func TestMeasurer_CacheKeyedByContent(t *testing.T) {
	mock := surface.NewMock(50)
	m := newTestMeasurer(mock)
	ctx := context.Background()

	_, err := m.Measure(ctx, types.Section{ID: "a", Content: "same text"})
	require.NoError(t, err)
	_, err = m.Measure(ctx, types.Section{ID: "b", Content: "same text"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), mock.MountCount(), "identical content shares one cache entry")

	_, err = m.Measure(ctx, types.Section{ID: "a", Content: "edited text"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), mock.MountCount(), "changed content is re-measured")
}

func TestMeasurer_Remeasure(t *testing.T) {
	mock := surface.NewMock(50)
	m := newTestMeasurer(mock)
	ctx := context.Background()
	sec := types.Section{ID: "skills", Content: "Go, Rust"}

	h, err := m.Measure(ctx, sec)
	require.NoError(t, err)
	assert.Equal(t, 50.0, h)

	mock.SetHeight("skills", 75)
	h, err = m.Remeasure(ctx, sec)
	require.NoError(t, err)
	assert.Equal(t, 75.0, h)

	h, err = m.Measure(ctx, sec)
	require.NoError(t, err)
	assert.Equal(t, 75.0, h, "remeasure writes through to the cache")
	assert.Equal(t, int64(2), mock.MountCount())
}

func TestMeasurer_MeasureAll(t *testing.T) {
	mock := surface.NewMock(40)
	mock.Heights["b"] = 90
	mock.FailMount = map[string]bool{"c": true}
	m := newTestMeasurer(mock)

	secs := []types.Section{
		{ID: "a", Type: types.SectionHeader, Content: "Jane Doe"},
		{ID: "b", Type: types.SectionBody, Content: "Experience"},
		{ID: "c", Type: types.SectionBody, Content: "Broken"},
	}
	ms := m.MeasureAll(context.Background(), secs)
	require.Len(t, ms, 3)

	assert.Equal(t, "a", ms[0].SectionID)
	assert.Equal(t, 40.0, ms[0].Height)
	assert.Equal(t, types.SectionHeader, ms[0].Type)
	assert.Equal(t, "Jane Doe", ms[0].Content)
	assert.Equal(t, 90.0, ms[1].Height)
	assert.Equal(t, 0.0, ms[2].Height, "failed section is recorded with zero height")
}

func TestDocumentFingerprint(t *testing.T) {
	a := []types.Section{{ID: "1", Content: "one"}, {ID: "2", Content: "two"}}
	b := []types.Section{{ID: "x", Content: "one"}, {ID: "y", Content: "two"}}
	c := []types.Section{{ID: "1", Content: "two"}, {ID: "2", Content: "one"}}

	assert.Equal(t, DocumentFingerprint(a), DocumentFingerprint(b), "ids do not affect the fingerprint")
	assert.NotEqual(t, DocumentFingerprint(a), DocumentFingerprint(c), "order does")
}
