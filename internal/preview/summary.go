package preview

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/jackzampolin/pagefit/internal/audit"
)

// WriteSummary renders r as a human-readable page table followed by
// defects, most severe first, and suggestions.
func WriteSummary(w io.Writer, r Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "PAGE\tSECTIONS\tHEIGHT\tREMAINING\tFIT\t\n")
	for _, p := range r.Pages {
		flag := ""
		if p.HasOverflow {
			flag = "overflow"
		}
		fmt.Fprintf(tw, "%d\t%d\t%.0f\t%.0f\t%.0f\t%s\n", p.Number, len(p.Sections), p.Height, p.RemainingSpace, p.FitScore, flag)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d page(s), average fit %.1f\n", r.TotalPages, r.AvgFitScore)
	if r.Alternative != nil {
		fmt.Fprintf(w, "reordered: %d page(s), average fit %.1f\n", r.Alternative.TotalPages, r.Alternative.AvgFitScore)
	}

	if len(r.Defects) > 0 {
		fmt.Fprintf(w, "\nDefects:\n")
		defects := slices.Clone(r.Defects)
		slices.SortStableFunc(defects, func(a, b audit.Defect) int {
			return cmp.Compare(a.Severity.Rank(), b.Severity.Rank())
		})
		for _, d := range defects {
			fmt.Fprintf(w, "  [%s] %s %s: %s\n", d.Severity, d.Type, d.PageID, d.Message)
		}
	}
	if len(r.Suggestions) > 0 {
		fmt.Fprintf(w, "\nSuggestions:\n")
		for _, s := range r.Suggestions {
			_, err := fmt.Fprintf(w, "  [%s] %s: %s\n", s.Priority, s.Type, s.Description)
			if err != nil {
				return err
			}
		}
	}
	return nil
}
