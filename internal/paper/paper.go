// Package paper resolves named paper sizes to layout units (CSS pixels at
// 96 DPI).
package paper

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ErrUnknownSize is returned for a paper name pdfcpu does not know.
var ErrUnknownSize = errors.New("unknown paper size")

// Size is a page size in layout units.
type Size struct {
	Name   string  `json:"name" yaml:"name"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// pointsToUnits converts PDF points (1/72 in) to 96 DPI layout units,
// rounding up so a page never comes out shorter than the paper.
func pointsToUnits(pt float64) float64 {
	return math.Ceil(pt * 96 / 72)
}

// Lookup resolves name case-insensitively. A trailing "L" (as in "A4L")
// selects landscape.
func Lookup(name string) (Size, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return Size{}, fmt.Errorf("%w: empty name", ErrUnknownSize)
	}
	if s, ok := find(n); ok {
		return s, nil
	}
	if base, ok := strings.CutSuffix(n, "L"); ok && base != "" {
		if s, ok := find(base); ok {
			return Size{Name: s.Name + "L", Width: s.Height, Height: s.Width}, nil
		}
	}
	return Size{}, fmt.Errorf("%w: %s", ErrUnknownSize, name)
}

func find(name string) (Size, bool) {
	for key, dim := range types.PaperSize {
		if strings.EqualFold(key, name) {
			return Size{
				Name:   key,
				Width:  pointsToUnits(dim.Width),
				Height: pointsToUnits(dim.Height),
			}, true
		}
	}
	return Size{}, false
}

// Names lists the known paper sizes, sorted.
func Names() []string {
	names := make([]string, 0, len(types.PaperSize))
	for k := range types.PaperSize {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}
