// Package paginate packs measured sections into fixed-height pages.
package paginate

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/jackzampolin/pagefit/internal/types"
)

// Options represents the page budget used for pagination.
type Options struct {
	PageHeight       float64 `json:"page_height" yaml:"page_height"`
	MinSectionHeight float64 `json:"min_section_height" yaml:"min_section_height"`
	WidowOrphanLines int     `json:"widow_orphan_lines" yaml:"widow_orphan_lines"`
	MarginTop        float64 `json:"margin_top" yaml:"margin_top"`
	MarginBottom     float64 `json:"margin_bottom" yaml:"margin_bottom"`

	// AllowSplitting is reserved. Sections are never split across pages.
	AllowSplitting bool `json:"allow_splitting" yaml:"allow_splitting"`
	// Optimize asks for the first-fit-decreasing view alongside the
	// document-order pages.
	Optimize bool `json:"optimize" yaml:"optimize"`
}

// DefaultOptions returns A4 at 96 DPI with 40 unit top and bottom margins.
func DefaultOptions() Options {
	return Options{
		PageHeight:       1123,
		MinSectionHeight: 20,
		AllowSplitting:   false,
		WidowOrphanLines: 2,
		MarginTop:        40,
		MarginBottom:     40,
	}
}

// AvailableHeight is the content height left after margins.
func (o Options) AvailableHeight() float64 {
	return o.PageHeight - o.MarginTop - o.MarginBottom
}

// Page is a derived grouping of sections.
type Page struct {
	ID             string              `json:"id" yaml:"id"`
	Number         int                 `json:"number" yaml:"number"`
	Sections       []types.Measurement `json:"sections" yaml:"sections"`
	Height         float64             `json:"height" yaml:"height"`
	RemainingSpace float64             `json:"remaining_space" yaml:"remaining_space"`
	FitScore       float64             `json:"fit_score" yaml:"fit_score"`
	HasOverflow    bool                `json:"has_overflow" yaml:"has_overflow"`
}

// Paginate walks measurements in document order and closes a page whenever
// the next section would not fit. A section taller than the page sits alone
// on an overflowing page. A break section closes the page it lands on.
func Paginate(ms []types.Measurement, opts Options) []Page {
	if len(ms) == 0 {
		return []Page{}
	}
	available := opts.AvailableHeight()

	var groups [][]types.Measurement
	var current []types.Measurement
	var height float64
	flush := func() {
		if len(current) > 0 {
			groups = append(groups, current)
		}
		current = nil
		height = 0
	}

	for _, m := range ms {
		if len(current) > 0 && height+m.Height > available {
			flush()
		}
		current = append(current, m)
		height += m.Height
		if m.Type == types.SectionBreak {
			flush()
		}
	}
	flush()

	return build(groups, available)
}

// PaginateOptimized packs sections first-fit-decreasing. Document order is
// not preserved, so the result is only an alternative view.
func PaginateOptimized(ms []types.Measurement, opts Options) []Page {
	if len(ms) == 0 {
		return []Page{}
	}
	available := opts.AvailableHeight()

	sorted := slices.Clone(ms)
	slices.SortStableFunc(sorted, func(a, b types.Measurement) int {
		return cmp.Compare(b.Height, a.Height)
	})

	var groups [][]types.Measurement
	var heights []float64
	for _, m := range sorted {
		placed := false
		for i := range groups {
			if heights[i]+m.Height <= available {
				groups[i] = append(groups[i], m)
				heights[i] += m.Height
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []types.Measurement{m})
			heights = append(heights, m.Height)
		}
	}

	return build(groups, available)
}

func build(groups [][]types.Measurement, available float64) []Page {
	pages := make([]Page, 0, len(groups))
	for i, g := range groups {
		var h float64
		for _, m := range g {
			h += m.Height
		}
		pages = append(pages, Page{
			ID:             fmt.Sprintf("page-%d", i+1),
			Number:         i + 1,
			Sections:       g,
			Height:         h,
			RemainingSpace: available - h,
			FitScore:       FitScore(h, available),
			HasOverflow:    h > available,
		})
	}
	return pages
}

// FitScore grades how well height fills available, from 0 to 100.
//
//	utilization > 1          0
//	0.80 <= u <= 0.95      100
//	0.70 <= u <  0.80       80
//	0.95 <  u <= 1.00       70
//	0.50 <= u <  0.70       60
//	otherwise           u * 50
func FitScore(height, available float64) float64 {
	if available <= 0 {
		return 0
	}
	u := height / available
	switch {
	case u > 1:
		return 0
	case u >= 0.80 && u <= 0.95:
		return 100
	case u >= 0.70 && u < 0.80:
		return 80
	case u > 0.95:
		return 70
	case u >= 0.50 && u < 0.70:
		return 60
	default:
		return math.Max(0, u*50)
	}
}

// Stats summarises a page list.
type Stats struct {
	TotalPages  int     `json:"total_pages" yaml:"total_pages"`
	AvgFitScore float64 `json:"avg_fit_score" yaml:"avg_fit_score"`
	HasOverflow bool    `json:"has_overflow" yaml:"has_overflow"`
}

// Summarize computes aggregate statistics. An empty list scores zero.
func Summarize(pages []Page) Stats {
	st := Stats{TotalPages: len(pages)}
	if len(pages) == 0 {
		return st
	}
	var sum float64
	for _, p := range pages {
		sum += p.FitScore
		if p.HasOverflow {
			st.HasOverflow = true
		}
	}
	st.AvgFitScore = sum / float64(len(pages))
	return st
}
