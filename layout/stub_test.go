package layout

import (
	"image"
	"image/color"
)

type stubFont string

func (f stubFont) String() string { return string(f) }

type drawCall struct {
	start, n, x, y int
}

// stubProvider gives every rune a fixed advance and records draw calls.
type stubProvider struct {
	advance int
	height  int
	widths  map[rune]int
	heights map[FontHandle]int
	cur     FontHandle

	subs   []drawCall
	chars  []drawCall
	panics map[int]bool // DrawSubstring calls (0-based) that panic
	calls  int
}

func newStub(advance, height int) *stubProvider {
	return &stubProvider{advance: advance, height: height}
}

func (p *stubProvider) SetFont(h FontHandle) error {
	p.cur = h
	return nil
}

func (p *stubProvider) Height() int {
	if h, ok := p.heights[p.cur]; ok {
		return h
	}
	return p.height
}

func (p *stubProvider) Advance(r rune) int {
	if w, ok := p.widths[r]; ok {
		return w
	}
	return p.advance
}

func (p *stubProvider) DrawChar(_ Surface, r rune, x, y int, _ Anchor) {
	p.chars = append(p.chars, drawCall{start: int(r), n: 1, x: x, y: y})
}

func (p *stubProvider) DrawSubstring(_ Surface, text []rune, start, n, x, y int, _ Anchor) int {
	call := p.calls
	p.calls++
	if p.panics[call] {
		panic("glyph cache corrupted")
	}
	p.subs = append(p.subs, drawCall{start: start, n: n, x: x, y: y})
	for _, r := range text[start : start+n] {
		x += p.Advance(r)
	}
	return x
}

type recSurface struct {
	clip   image.Rectangle
	colors []color.Color
	images []image.Point
}

func newSurface() *recSurface {
	return &recSurface{clip: image.Rect(-10000, -10000, 10000, 10000)}
}

func (s *recSurface) SetColor(c color.Color)                             { s.colors = append(s.colors, c) }
func (s *recSurface) FillRect(image.Rectangle)                           {}
func (s *recSurface) DrawMask(image.Rectangle, image.Image, image.Point) {}
func (s *recSurface) Clip() image.Rectangle                              { return s.clip }
func (s *recSurface) DrawImage(_ image.Image, x, y int, _ Anchor) {
	s.images = append(s.images, image.Pt(x, y))
}

// bare returns parameters without margins, indent or image spacing.
func bare(wrap WrapMode) Params {
	p := DefaultParams()
	p.Margin = Margin{}
	p.ParagraphIndent = 0
	p.Wrap = wrap
	return p
}

func layoutText(fp FontProvider, text string, width int, p Params) (*Result, error) {
	return Layout(Input{Text: text, Font: stubFont("body"), Provider: fp, Width: width, Params: p})
}
