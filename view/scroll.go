// Package view holds the interactive parts around a laid-out block: a
// vertical scroller over a fixed viewport and a timer that cycles the text
// color through the rainbow.
package view

import "github.com/ByLCY/multitext/layout"

// Scroller keeps a viewport offset within [0, content-viewport].
type Scroller struct {
	pos      int
	viewport int
	content  int
}

func NewScroller(viewport, content int) *Scroller {
	s := &Scroller{viewport: viewport, content: content}
	s.Scroll(0)
	return s
}

// Pos returns the offset of the viewport top in content coordinates.
func (s *Scroller) Pos() int { return s.pos }

// Step is the page scroll distance, a third of the viewport.
func (s *Scroller) Step() int { return max(s.viewport/3, 1) }

func (s *Scroller) maxPos() int { return max(s.content-s.viewport, 0) }

// CanScrollUp reports whether content is hidden above the viewport.
func (s *Scroller) CanScrollUp() bool { return s.pos > 0 }

// CanScrollDown reports whether content is hidden below the viewport.
func (s *Scroller) CanScrollDown() bool { return s.pos < s.maxPos() }

// SetContent updates the content height, e.g. after a re-layout, and clamps
// the offset again.
func (s *Scroller) SetContent(h int) {
	s.content = h
	s.Scroll(0)
}

// Scroll moves the viewport by delta pixels, down when positive. It reports
// whether the offset changed, i.e. whether a redraw is needed.
func (s *Scroller) Scroll(delta int) bool {
	pos := min(max(s.pos+delta, 0), s.maxPos())
	if pos == s.pos {
		return false
	}
	s.pos = pos
	return true
}

// Window returns the visible range [top, bottom) in content coordinates.
func (s *Scroller) Window() (top, bottom int) {
	return s.pos, s.pos + s.viewport
}

// DrawWindow draws the lines of b visible through the scroller with the
// viewport top at (x, y).
func DrawWindow(s layout.Surface, b *layout.Block, sc *Scroller, x, y int) layout.DrawReport {
	top, bottom := sc.Window()
	return b.DrawVisible(s, x, y-top, top, bottom)
}
