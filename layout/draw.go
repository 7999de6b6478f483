package layout

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sort"
)

// DrawStatus is the outcome of drawing a single part or the image.
type DrawStatus int

const (
	StatusDrawn DrawStatus = iota
	StatusSkipped
	StatusFailed
)

func (s DrawStatus) String() string {
	switch s {
	case StatusDrawn:
		return "drawn"
	case StatusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// DrawError reports a part that could not be drawn. Part is -1 for the image.
type DrawError struct {
	Part int
	Err  error
}

func (e *DrawError) Error() string {
	if e.Part < 0 {
		return fmt.Sprintf("draw image: %v", e.Err)
	}
	return fmt.Sprintf("draw part %d: %v", e.Part, e.Err)
}

func (e *DrawError) Unwrap() error { return e.Err }

// PartOutcome records what happened to one part during a draw pass.
type PartOutcome struct {
	Index  int
	Status DrawStatus
	Err    error
}

// DrawReport aggregates the outcome of a draw pass. A failed part never stops
// the pass; its error is kept here instead.
type DrawReport struct {
	Image    DrawStatus
	ImageErr error
	Parts    []PartOutcome
}

// Drawn counts the parts that reached the surface.
func (r DrawReport) Drawn() int {
	n := 0
	for _, p := range r.Parts {
		if p.Status == StatusDrawn {
			n++
		}
	}
	return n
}

// Err joins every failure of the pass, nil when all parts were drawn or skipped.
func (r DrawReport) Err() error {
	var errs []error
	if r.ImageErr != nil {
		errs = append(errs, r.ImageErr)
	}
	for _, p := range r.Parts {
		if p.Err != nil {
			errs = append(errs, p.Err)
		}
	}
	return errors.Join(errs...)
}

// visible reports whether the rectangle meets the clip; touching an edge counts.
func visible(x, y, w, h int, clip image.Rectangle) bool {
	return x+w >= clip.Min.X && x < clip.Max.X && y+h >= clip.Min.Y && y < clip.Max.Y
}

// DrawAll draws the image and every part with the layout origin at (x, y).
func (r *Result) DrawAll(s Surface, fp FontProvider, x, y int, global color.Color) DrawReport {
	return r.Draw(s, fp, x, y, 0, len(r.Parts), global)
}

// Draw draws the image and parts [from, to) with the layout origin at (x, y).
// Anything outside the surface clip is skipped. Parts carrying the default
// text color are drawn in global instead, so callers can recolor text
// without a new layout; a nil global keeps the part color.
func (r *Result) Draw(s Surface, fp FontProvider, x, y, from, to int, global color.Color) DrawReport {
	var rep DrawReport
	clip := s.Clip()

	rep.Image = StatusSkipped
	if r.Image != nil {
		b := r.Image.Bounds()
		ix, iy := x+r.ImageX, y+r.ImageY
		if visible(ix, iy, b.Dx(), b.Dy(), clip) {
			if err := guard(func() error {
				s.DrawImage(r.Image, ix, iy, AnchorTopLeft)
				return nil
			}); err != nil {
				rep.Image, rep.ImageErr = StatusFailed, &DrawError{Part: -1, Err: err}
			} else {
				rep.Image = StatusDrawn
			}
		}
	}

	n := len(r.Parts)
	if from < 0 || from >= n || to <= from {
		return rep
	}
	to = min(to, n)
	rep.Parts = make([]PartOutcome, 0, to-from)
	for i := from; i < to; i++ {
		part := r.Parts[i]
		px, py := x+part.X, y+part.Y
		out := PartOutcome{Index: i, Status: StatusSkipped}
		if visible(px, py, part.Width, part.Height, clip) {
			if err := guard(func() error { return r.drawPart(s, fp, i, px, py, global) }); err != nil {
				out.Status, out.Err = StatusFailed, &DrawError{Part: i, Err: err}
			} else {
				out.Status = StatusDrawn
			}
		}
		rep.Parts = append(rep.Parts, out)
	}
	return rep
}

func (r *Result) drawPart(s Surface, fp FontProvider, i, x, y int, global color.Color) error {
	part := r.Parts[i]
	if part.Start < 0 || part.End > len(r.Text) || part.Start > part.End {
		return fmt.Errorf("range [%d,%d) outside text of %d runes", part.Start, part.End, len(r.Text))
	}
	if err := fp.SetFont(part.Font); err != nil {
		return err
	}
	var c color.Color = part.Color
	if part.Color == r.TextColor && global != nil {
		c = global
	}
	s.SetColor(c)

	var hyphenX int
	if r.EditMode && r.CursorWidth > 0 && i == r.Metrics.CursorPart &&
		r.CursorPos >= part.Start && r.CursorPos <= part.End {
		xx := fp.DrawSubstring(s, r.Text, part.Start, r.CursorPos-part.Start, x, y, AnchorTopLeft) + r.CursorWidth
		hyphenX = fp.DrawSubstring(s, r.Text, r.CursorPos, part.End-r.CursorPos, xx, y, AnchorTopLeft)
	} else {
		hyphenX = fp.DrawSubstring(s, r.Text, part.Start, part.End-part.Start, x, y, AnchorTopLeft)
	}
	if part.HasHyphen {
		fp.DrawChar(s, '-', hyphenX, y, AnchorTopLeft)
	}
	return nil
}

// guard turns a panic raised by a provider or surface into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("panic: %v", v)
		}
	}()
	return fn()
}

// PartsBetween returns the range [from, to) of parts intersecting the
// vertical window [top, bottom) in layout coordinates. Parts are ordered by
// line, so scrolled redraw can restrict Draw to visible lines.
func (r *Result) PartsBetween(top, bottom int) (from, to int) {
	n := len(r.Parts)
	// heights differ when fonts are mixed on one line, so only Y is monotonic
	for from < n && r.Parts[from].Y+r.Parts[from].Height <= top {
		from++
	}
	to = sort.Search(n, func(i int) bool { return r.Parts[i].Y >= bottom })
	if to < from {
		to = from
	}
	return from, to
}
