// Package types provides shared types used across multiple packages.
// This package has no dependencies on other pagefit packages to avoid import cycles.
package types

// SectionType classifies a section for layout purposes.
type SectionType string

const (
	// SectionHeader is the document header (name, contact line).
	SectionHeader SectionType = "header"
	// SectionBody is a regular content section (summary, experience entry, skills).
	SectionBody SectionType = "section"
	// SectionBreak is an explicit page-break marker.
	SectionBreak SectionType = "break"
)

// ContentFormat describes how a section's content is marked up.
type ContentFormat string

const (
	FormatMarkdown ContentFormat = "markdown"
	FormatHTML     ContentFormat = "html"
	FormatText     ContentFormat = "text"
)

// Section is the atomic layout unit. Order within a document is reading order.
type Section struct {
	ID      string        `json:"id" yaml:"id"`
	Type    SectionType   `json:"type" yaml:"type"`
	Format  ContentFormat `json:"format,omitempty" yaml:"format,omitempty"`
	Content string        `json:"content" yaml:"content"`
	// Hidden sections are present in the document but not laid out, so a
	// naive height sample reads zero.
	Hidden bool `json:"hidden,omitempty" yaml:"hidden,omitempty"`
}

// Measurement is the height of one section at one point in time.
type Measurement struct {
	SectionID string      `json:"section_id" yaml:"section_id"`
	Height    float64     `json:"height" yaml:"height"`
	Content   string      `json:"content" yaml:"content"`
	Type      SectionType `json:"type" yaml:"type"`
}

// TotalHeight sums the heights of the given measurements.
func TotalHeight(ms []Measurement) float64 {
	var h float64
	for _, m := range ms {
		h += m.Height
	}
	return h
}
