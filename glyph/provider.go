package glyph

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/multitext/layout"
)

// Provider implements layout.FontProvider on top of x/image faces. Faces are
// created on first use and cached per handle. A nil handle selects the
// default font.
type Provider struct {
	mu      sync.Mutex
	def     layout.FontHandle
	faces   map[layout.FontHandle]font.Face
	cur     font.Face
	metrics font.Metrics
}

func NewProvider(def layout.FontHandle) *Provider {
	return &Provider{
		def:   def,
		faces: map[layout.FontHandle]font.Face{},
	}
}

func (p *Provider) SetFont(h layout.FontHandle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if h == nil {
		h = p.def
	}
	if h == nil {
		return fmt.Errorf("glyph: no font selected and no default font")
	}
	face, ok := p.faces[h]
	if !ok {
		var err error
		if face, err = newFace(h); err != nil {
			return err
		}
		p.faces[h] = face
	}
	p.cur = face
	p.metrics = face.Metrics()
	return nil
}

func newFace(h layout.FontHandle) (font.Face, error) {
	switch f := h.(type) {
	case *Outline:
		face, err := f.newFace()
		if err != nil {
			return nil, fmt.Errorf("glyph: face %s: %w", f, err)
		}
		return face, nil
	case *Atlas:
		if f.Face == nil {
			return nil, fmt.Errorf("glyph: atlas %s has no face", f.Name)
		}
		return f.Face, nil
	default:
		return nil, fmt.Errorf("glyph: unsupported font handle %T", h)
	}
}

// face returns the current face, selecting the default one when SetFont was
// never called. Callers hold p.mu.
func (p *Provider) face() font.Face {
	if p.cur == nil && p.def != nil {
		if face, err := newFace(p.def); err == nil {
			p.faces[p.def] = face
			p.cur, p.metrics = face, face.Metrics()
		}
	}
	return p.cur
}

func (p *Provider) Height() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.face() == nil {
		return 0
	}
	return p.metrics.Height.Ceil()
}

func (p *Provider) Advance(r rune) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.advance(r)
}

func (p *Provider) advance(r rune) int {
	face := p.face()
	if face == nil {
		return 0
	}
	a, ok := face.GlyphAdvance(r)
	if !ok {
		a, _ = face.GlyphAdvance('\ufffd')
	}
	return a.Round()
}

// origin moves (x, y) from the anchor point to the left end of the baseline.
func (p *Provider) origin(w, x, y int, anchor layout.Anchor) (int, int) {
	asc, desc := p.metrics.Ascent.Ceil(), p.metrics.Descent.Ceil()
	switch {
	case anchor&layout.AnchorHCenter != 0:
		x -= w / 2
	case anchor&layout.AnchorRight != 0:
		x -= w
	}
	switch {
	case anchor&layout.AnchorBaseline != 0:
	case anchor&layout.AnchorBottom != 0:
		y -= desc
	case anchor&layout.AnchorVCenter != 0:
		y += asc - (asc+desc)/2
	default:
		y += asc
	}
	return x, y
}

func (p *Provider) DrawChar(s layout.Surface, r rune, x, y int, anchor layout.Anchor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	x, y = p.origin(p.advance(r), x, y, anchor)
	p.glyph(s, r, x, y)
}

// DrawSubstring draws text[start:start+n] and returns the x right after the
// last drawn rune.
func (p *Provider) DrawSubstring(s layout.Surface, text []rune, start, n, x, y int, anchor layout.Anchor) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if start < 0 || n <= 0 || start >= len(text) {
		return x
	}
	run := text[start:min(start+n, len(text))]
	w := 0
	if anchor&(layout.AnchorHCenter|layout.AnchorRight) != 0 {
		for _, r := range run {
			w += p.advance(r)
		}
	}
	x, y = p.origin(w, x, y, anchor)
	for _, r := range run {
		p.glyph(s, r, x, y)
		x += p.advance(r)
	}
	return x
}

// glyph draws r with its baseline origin at (x, y). The mask returned by
// the face is only valid until the next call, so the surface must consume it
// right away.
func (p *Provider) glyph(s layout.Surface, r rune, x, y int) {
	face := p.face()
	if face == nil {
		return
	}
	dr, mask, mp, _, ok := face.Glyph(fixed.P(x, y), r)
	if !ok {
		dr, mask, mp, _, ok = face.Glyph(fixed.P(x, y), '\ufffd')
	}
	if !ok || mask == nil || dr.Empty() {
		return
	}
	s.DrawMask(dr, mask, mp)
}

// Close releases every cached face.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var first error
	for h, f := range p.faces {
		if _, atlas := h.(*Atlas); atlas {
			continue
		}
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	clear(p.faces)
	p.cur = nil
	return first
}

var _ layout.FontProvider = (*Provider)(nil)
