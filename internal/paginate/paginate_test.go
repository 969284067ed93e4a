package paginate

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/pagefit/internal/types"
)

// budget gives an available height of 1000.
func budget() Options {
	opts := DefaultOptions()
	opts.PageHeight = 1080
	return opts
}

func sections(heights ...float64) []types.Measurement {
	out := make([]types.Measurement, len(heights))
	for i, h := range heights {
		out[i] = types.Measurement{
			SectionID: fmt.Sprintf("s%d", i+1),
			Height:    h,
			Type:      types.SectionBody,
		}
	}
	return out
}

func ids(pages []Page) []string {
	var out []string
	for _, p := range pages {
		for _, m := range p.Sections {
			out = append(out, m.SectionID)
		}
	}
	return out
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 1123.0, opts.PageHeight)
	assert.Equal(t, 20.0, opts.MinSectionHeight)
	assert.Equal(t, 2, opts.WidowOrphanLines)
	assert.False(t, opts.AllowSplitting)
	assert.Equal(t, 1043.0, opts.AvailableHeight())
	assert.Equal(t, 1000.0, budget().AvailableHeight())
}

func TestPaginate_Greedy(t *testing.T) {
	pages := Paginate(sections(400, 500, 600), budget())
	require.Len(t, pages, 2)

	assert.Equal(t, "page-1", pages[0].ID)
	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, []string{"s1", "s2"}, ids(pages[:1]))
	assert.Equal(t, 900.0, pages[0].Height)
	assert.Equal(t, 100.0, pages[0].RemainingSpace)
	assert.Equal(t, 100.0, pages[0].FitScore)
	assert.False(t, pages[0].HasOverflow)

	assert.Equal(t, "page-2", pages[1].ID)
	assert.Equal(t, 600.0, pages[1].Height)
	assert.Equal(t, 60.0, pages[1].FitScore)
}

func TestPaginate_ForcedOverflow(t *testing.T) {
	pages := Paginate(sections(1200), budget())
	require.Len(t, pages, 1)
	assert.True(t, pages[0].HasOverflow)
	assert.Equal(t, 0.0, pages[0].FitScore)
	assert.Equal(t, -200.0, pages[0].RemainingSpace)

	t.Run("tall section gets its own page", func(t *testing.T) {
		pages := Paginate(sections(300, 1200, 300), budget())
		require.Len(t, pages, 3)
		assert.Equal(t, []string{"s2"}, ids(pages[1:2]))
		assert.True(t, pages[1].HasOverflow)
		assert.False(t, pages[0].HasOverflow)
		assert.False(t, pages[2].HasOverflow)
	})
}

func TestPaginate_Empty(t *testing.T) {
	pages := Paginate(nil, budget())
	assert.NotNil(t, pages)
	assert.Empty(t, pages)
	assert.Empty(t, PaginateOptimized(nil, budget()))
}

func TestPaginate_ExactFit(t *testing.T) {
	pages := Paginate(sections(500, 500, 10), budget())
	require.Len(t, pages, 2)
	assert.Equal(t, 1000.0, pages[0].Height)
	assert.False(t, pages[0].HasOverflow, "a page filled exactly does not overflow")
	assert.Equal(t, 70.0, pages[0].FitScore)
}

func TestPaginate_BreakSection(t *testing.T) {
	ms := sections(100, 0, 100, 100)
	ms[1].Type = types.SectionBreak

	pages := Paginate(ms, budget())
	require.Len(t, pages, 2)
	assert.Equal(t, []string{"s1", "s2"}, ids(pages[:1]))
	assert.Equal(t, []string{"s3", "s4"}, ids(pages[1:]))

	t.Run("trailing break adds no empty page", func(t *testing.T) {
		ms := sections(100, 0)
		ms[1].Type = types.SectionBreak
		assert.Len(t, Paginate(ms, budget()), 1)
	})
}

func TestPaginate_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	opts := budget()
	for n := 0; n < 50; n++ {
		heights := make([]float64, rng.Intn(20))
		for i := range heights {
			heights[i] = float64(rng.Intn(1300))
		}
		ms := sections(heights...)

		pages := Paginate(ms, opts)

		var want []string
		for _, m := range ms {
			want = append(want, m.SectionID)
		}
		assert.Equal(t, want, ids(pages), "order is preserved and nothing is lost")

		for _, p := range pages {
			assert.Equal(t, p.Height > opts.AvailableHeight(), p.HasOverflow)
			assert.Equal(t, opts.AvailableHeight()-p.Height, p.RemainingSpace)
			if len(p.Sections) > 1 {
				assert.False(t, p.HasOverflow, "only a lone section may overflow")
			}
		}
	}
}

func TestPaginateOptimized(t *testing.T) {
	// Greedy needs three pages for this order; first-fit-decreasing needs two.
	ms := sections(600, 500, 400, 500)
	greedy := Paginate(ms, budget())
	require.Len(t, greedy, 3)

	opt := PaginateOptimized(ms, budget())
	require.Len(t, opt, 2)
	assert.Equal(t, []string{"s1", "s3", "s2", "s4"}, ids(opt))
	assert.Equal(t, 1000.0, opt[0].Height)
	assert.Equal(t, 1000.0, opt[1].Height)

	assert.Equal(t, "s2", ms[1].SectionID, "input is not reordered")

	t.Run("no loss", func(t *testing.T) {
		ms := sections(1200, 300, 700, 10, 990, 0)
		pages := PaginateOptimized(ms, budget())
		assert.ElementsMatch(t, []string{"s1", "s2", "s3", "s4", "s5", "s6"}, ids(pages))
		for _, p := range pages {
			assert.Equal(t, p.Height > 1000, p.HasOverflow)
		}
	})
}

func TestFitScore(t *testing.T) {
	tests := []struct {
		name   string
		height float64
		want   float64
	}{
		{"lower target edge", 800, 100},
		{"inside target", 900, 100},
		{"upper target edge", 950, 100},
		{"just over target", 960, 70},
		{"exactly full", 1000, 70},
		{"overflow", 1010, 0},
		{"good", 700, 80},
		{"just under target", 790, 80},
		{"half", 500, 60},
		{"sparse", 690, 60},
		{"mostly empty", 400, 20},
		{"empty", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, FitScore(tt.height, 1000), 1e-9)
		})
	}

	t.Run("no available height", func(t *testing.T) {
		assert.Equal(t, 0.0, FitScore(100, 0))
		assert.Equal(t, 0.0, FitScore(100, -50))
	})
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, Stats{}, Summarize(nil))

	pages := Paginate(sections(400, 500, 600, 1200), budget())
	st := Summarize(pages)
	assert.Equal(t, 3, st.TotalPages)
	assert.True(t, st.HasOverflow)
	assert.InDelta(t, (100.0+60.0+0.0)/3, st.AvgFitScore, 1e-9)
}
