// Package typeset is a headless RenderSurface that lays sections out with
// real font metrics. Text is shaped with HarfBuzz (go-text/typesetting)
// against the embedded Go fonts and wrapped greedily at the content width.
package typeset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-text/typesetting/di"
	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"

	"github.com/jackzampolin/pagefit/internal/surface"
	"github.com/jackzampolin/pagefit/internal/types"
)

// Config controls the page geometry and typography used for measurement.
type Config struct {
	PageWidth    float64 // Layout units (CSS px at 96 DPI)
	PaddingX     float64 // Left and right padding inside the page
	FontSize     float64 // Body font size in layout units
	LineHeight   float64 // Multiplier, e.g. 1.35
	BlockSpacing float64 // Gap between consecutive blocks
}

// DefaultConfig returns A4 geometry with résumé-style typography.
func DefaultConfig() Config {
	return Config{
		PageWidth:    794,
		PaddingX:     40,
		FontSize:     11,
		LineHeight:   1.35,
		BlockSpacing: 6,
	}
}

// ContentWidth is the width available to text.
func (c Config) ContentWidth() float64 {
	return c.PageWidth - 2*c.PaddingX
}

type faceKind int

const (
	faceRegular faceKind = iota
	faceBold
	faceMono
)

type advanceKey struct {
	face faceKind
	size float64
	text string
}

// Surface implements surface.RenderSurface and surface.Revealer.
type Surface struct {
	cfg    Config
	shaper shaping.HarfbuzzShaper

	mu       sync.Mutex
	faces    map[faceKind]*gofont.Face
	advances map[advanceKey]float64
	closed   bool
}

type handle struct {
	id      string
	height  float64
	visible bool
}

func (h *handle) SectionID() string { return h.id }

var _ surface.RenderSurface = (*Surface)(nil)
var _ surface.Revealer = (*Surface)(nil)

// New parses the embedded fonts and returns a ready surface.
func New(cfg Config) (*Surface, error) {
	def := DefaultConfig()
	if cfg.PageWidth <= 0 {
		cfg.PageWidth = def.PageWidth
	}
	if cfg.FontSize <= 0 {
		cfg.FontSize = def.FontSize
	}
	if cfg.LineHeight <= 0 {
		cfg.LineHeight = def.LineHeight
	}
	if cfg.PaddingX < 0 || cfg.ContentWidth() <= 0 {
		return nil, fmt.Errorf("padding %.1f leaves no content width on a %.1f wide page", cfg.PaddingX, cfg.PageWidth)
	}

	faces := make(map[faceKind]*gofont.Face, 3)
	for kind, ttf := range map[faceKind][]byte{
		faceRegular: goregular.TTF,
		faceBold:    gobold.TTF,
		faceMono:    gomono.TTF,
	} {
		face, err := gofont.ParseTTF(bytes.NewReader(ttf))
		if err != nil {
			return nil, fmt.Errorf("failed to parse embedded font: %w", err)
		}
		faces[kind] = face
	}

	return &Surface{
		cfg:      cfg,
		faces:    faces,
		advances: make(map[advanceKey]float64),
	}, nil
}

// Factory adapts New to surface.Factory.
func Factory(cfg Config) surface.Factory {
	return func() (surface.RenderSurface, error) {
		return New(cfg)
	}
}

// Config returns the surface configuration.
func (s *Surface) Config() Config { return s.cfg }

// Mount lays the section out and keeps its height on the handle.
func (s *Surface) Mount(ctx context.Context, sec types.Section) (surface.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, surface.ErrClosed
	}

	var height float64
	if sec.Type != types.SectionBreak {
		height = s.layout(parseBlocks(sec))
	}
	return &handle{id: sec.ID, height: height, visible: !sec.Hidden}, nil
}

// SampleHeight returns the laid-out height; hidden sections read zero.
func (s *Surface) SampleHeight(h surface.Handle) (float64, error) {
	th, ok := h.(*handle)
	if !ok {
		return 0, errors.New("handle not created by this surface")
	}
	if !th.visible {
		return 0, nil
	}
	return th.height, nil
}

// Unmount releases the handle. Nothing is retained per section.
func (s *Surface) Unmount(h surface.Handle) error {
	if _, ok := h.(*handle); !ok {
		return errors.New("handle not created by this surface")
	}
	return nil
}

// Reveal forces a hidden section visible until restore is called.
func (s *Surface) Reveal(h surface.Handle) (func(), error) {
	th, ok := h.(*handle)
	if !ok {
		return nil, errors.New("handle not created by this surface")
	}
	prev := th.visible
	th.visible = true
	return func() { th.visible = prev }, nil
}

// Close drops the parsed faces and cached advances.
func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.faces = nil
	s.advances = nil
	return nil
}

// layout returns the stacked height of the blocks.
func (s *Surface) layout(blocks []block) float64 {
	var height float64
	for i, b := range blocks {
		size := s.cfg.FontSize * b.style.scale()
		kind := faceRegular
		switch b.style {
		case styleH1, styleH2, styleH3:
			kind = faceBold
		case styleCode:
			kind = faceMono
		}
		lines := s.countLines(b.text, kind, size, s.cfg.ContentWidth()-b.indent)
		if lines == 0 && b.style == styleCode {
			lines = 1 // blank line inside a code block
		}
		height += float64(lines) * size * s.cfg.LineHeight
		if i > 0 {
			height += s.cfg.BlockSpacing
		}
	}
	return height
}

// countLines greedily wraps text at maxWidth, breaking inside words that
// are wider than a whole line.
func (s *Surface) countLines(text string, kind faceKind, size, maxWidth float64) int {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	if maxWidth <= 0 {
		maxWidth = size
	}
	space := s.advance(" ", kind, size)

	lines := 1
	lineW := 0.0
	for _, w := range words {
		ww := s.advance(w, kind, size)
		if ww > maxWidth {
			if lineW > 0 {
				lines++
				lineW = 0
			}
			for _, r := range w {
				rw := s.advance(string(r), kind, size)
				if lineW > 0 && lineW+rw > maxWidth {
					lines++
					lineW = 0
				}
				lineW += rw
			}
			continue
		}
		switch {
		case lineW == 0:
			lineW = ww
		case lineW+space+ww > maxWidth:
			lines++
			lineW = ww
		default:
			lineW += space + ww
		}
	}
	return lines
}

// advance shapes text and returns its horizontal advance in layout units.
func (s *Surface) advance(text string, kind faceKind, size float64) float64 {
	key := advanceKey{face: kind, size: size, text: text}
	if w, ok := s.advances[key]; ok {
		return w
	}

	runes := []rune(text)
	out := s.shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      s.faces[kind],
		Size:      fixed.Int26_6(size * 64),
		Script:    language.Latin,
		Language:  language.DefaultLanguage(),
	})

	var w float64
	for _, g := range out.Glyphs {
		w += float64(g.XAdvance) / 64.0
	}
	s.advances[key] = w
	return w
}
