// Package audit inspects paginated output for layout defects and proposes
// remediation.
package audit

import (
	"fmt"

	"github.com/jackzampolin/pagefit/internal/paginate"
	"github.com/jackzampolin/pagefit/internal/types"
)

// DefectType names a layout defect.
type DefectType string

const (
	DefectOverflow            DefectType = "overflow"
	DefectExcessiveWhitespace DefectType = "excessive-whitespace"
	DefectOrphan              DefectType = "orphan"
	DefectWidow               DefectType = "widow"
)

// SuggestionType names a remediation.
type SuggestionType string

const (
	SuggestReorder  SuggestionType = "reorder"
	SuggestRephrase SuggestionType = "rephrase"
	SuggestResize   SuggestionType = "resize"
	SuggestSplit    SuggestionType = "split"
	SuggestCombine  SuggestionType = "combine"
)

// Defect is a problem found on one page.
type Defect struct {
	Type       DefectType  `json:"type" yaml:"type"`
	PageID     string      `json:"page_id" yaml:"page_id"`
	SectionID  string      `json:"section_id,omitempty" yaml:"section_id,omitempty"`
	Severity   types.Level `json:"severity" yaml:"severity"`
	Message    string      `json:"message" yaml:"message"`
	Suggestion string      `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// Suggestion is a document-level improvement.
type Suggestion struct {
	Type        SuggestionType `json:"type" yaml:"type"`
	Priority    types.Level    `json:"priority" yaml:"priority"`
	Description string         `json:"description" yaml:"description"`
	SectionID   string         `json:"section_id,omitempty" yaml:"section_id,omitempty"`
}

// Report holds the audit output.
type Report struct {
	Defects     []Defect     `json:"defects" yaml:"defects"`
	Suggestions []Suggestion `json:"suggestions" yaml:"suggestions"`
}

const (
	// whitespaceRatio is the share of available height that may stay empty.
	whitespaceRatio = 0.3
	// lineUnit approximates one rendered text line in layout units.
	lineUnit = 18.0
	// lowFitScore is the mean fit score below which reordering is suggested.
	lowFitScore = 60.0
	// maxPages is the page count above which shortening is suggested.
	maxPages = 2
)

// Audit derives defects and suggestions from pages. Suggestions keep
// generation order: aggregate rules first, then one per qualifying defect.
func Audit(pages []paginate.Page, opts paginate.Options) Report {
	r := Report{Defects: []Defect{}, Suggestions: []Suggestion{}}
	if len(pages) == 0 {
		return r
	}
	available := opts.AvailableHeight()
	widowHeight := float64(opts.WidowOrphanLines) * lineUnit

	for i, p := range pages {
		if p.HasOverflow {
			r.Defects = append(r.Defects, Defect{
				Type:       DefectOverflow,
				PageID:     p.ID,
				Severity:   types.LevelHigh,
				Message:    fmt.Sprintf("Page %d overflows by %.0f units", p.Number, -p.RemainingSpace),
				Suggestion: "Shorten content or reduce font size",
			})
		}
		if p.RemainingSpace > whitespaceRatio*available {
			r.Defects = append(r.Defects, Defect{
				Type:       DefectExcessiveWhitespace,
				PageID:     p.ID,
				Severity:   types.LevelMedium,
				Message:    fmt.Sprintf("Page %d leaves %.0f%% of its space empty", p.Number, 100*p.RemainingSpace/available),
				Suggestion: "Move content from the following page or expand sections",
			})
		}
		for _, m := range p.Sections {
			if m.Type == types.SectionBody && m.Height < opts.MinSectionHeight {
				r.Defects = append(r.Defects, Defect{
					Type:       DefectOrphan,
					PageID:     p.ID,
					SectionID:  m.SectionID,
					Severity:   types.LevelLow,
					Message:    fmt.Sprintf("Section %s is too short to stand alone", m.SectionID),
					Suggestion: "Merge with an adjacent section",
				})
			}
		}
		if i+1 < len(pages) && len(p.Sections) > 0 {
			last := p.Sections[len(p.Sections)-1]
			if last.Type != types.SectionBreak && last.Height > 0 && last.Height < widowHeight {
				r.Defects = append(r.Defects, Defect{
					Type:       DefectWidow,
					PageID:     p.ID,
					SectionID:  last.SectionID,
					Severity:   types.LevelLow,
					Message:    fmt.Sprintf("Section %s is stranded at the bottom of page %d", last.SectionID, p.Number),
					Suggestion: "Keep it with the content on the next page",
				})
			}
		}
	}

	st := paginate.Summarize(pages)
	if st.AvgFitScore < lowFitScore {
		r.Suggestions = append(r.Suggestions, Suggestion{
			Type:        SuggestReorder,
			Priority:    types.LevelMedium,
			Description: fmt.Sprintf("Average page fit is %.0f; reorder sections to fill pages more evenly", st.AvgFitScore),
		})
	}
	if st.TotalPages > maxPages {
		r.Suggestions = append(r.Suggestions, Suggestion{
			Type:        SuggestRephrase,
			Priority:    types.LevelHigh,
			Description: fmt.Sprintf("Document runs %d pages; shorten content to fit within %d", st.TotalPages, maxPages),
		})
	}
	for _, d := range r.Defects {
		switch d.Type {
		case DefectOverflow:
			r.Suggestions = append(r.Suggestions, Suggestion{
				Type:        SuggestResize,
				Priority:    types.LevelHigh,
				Description: fmt.Sprintf("Shorten or shrink content on %s", d.PageID),
			})
		case DefectExcessiveWhitespace:
			r.Suggestions = append(r.Suggestions, Suggestion{
				Type:        SuggestReorder,
				Priority:    types.LevelMedium,
				Description: fmt.Sprintf("Reorder sections to fill the empty space on %s", d.PageID),
			})
		case DefectOrphan:
			r.Suggestions = append(r.Suggestions, Suggestion{
				Type:        SuggestCombine,
				Priority:    types.LevelLow,
				Description: fmt.Sprintf("Combine %s with a neighbouring section", d.SectionID),
				SectionID:   d.SectionID,
			})
		}
	}
	return r
}

// Count returns how many defects have the given severity.
func (r Report) Count(severity types.Level) int {
	n := 0
	for _, d := range r.Defects {
		if d.Severity == severity {
			n++
		}
	}
	return n
}
