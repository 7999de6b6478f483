package layout

import (
	"cmp"
	"errors"
	"fmt"
	"image/color"
	"slices"
)

var (
	ErrInvalidWidth = errors.New("layout: width must be positive")
	ErrNoFont       = errors.New("layout: font provider is required")
)

type runKind int

const (
	runNone runKind = iota
	runWord
	runSpace
)

// openPart is the part currently being scanned together with its split
// candidates: where the latest run of spaces and the latest word began.
type openPart struct {
	Part

	run        runKind
	spaceStart int
	spaceX     int
	wordStart  int
	wordX      int
	// cursorOff is the cursor offset from X, -1 while the cursor was not
	// scanned inside this part.
	cursorOff int
}

func (o *openPart) observe(space bool, p, x int) {
	switch {
	case space && o.run != runSpace:
		o.run, o.spaceStart, o.spaceX = runSpace, p, x
	case !space && o.run != runWord:
		o.run, o.wordStart, o.wordX = runWord, p, x
	}
}

type engine struct {
	params Params
	fp     FontProvider
	font   FontHandle
	text   []rune
	width  int
	res    *Result

	fontHeight int
	hasImage   bool
	imageH     int

	x, y        int
	minX, maxX  int
	imageBottom int
	lineHeight  int
	first, last int
	align       Align
	paragraph   int

	styles    []StyleChange
	nextStyle int
	color     color.RGBA

	open *openPart

	cursorFound bool
	cursorPart  int
	cursorOff   int
}

// Layout flows in.Text into parts for the given width in one forward scan.
// Lines are broken according to in.Params.Wrap; a word that does not fit an
// empty line is split where it overflows.
func Layout(in Input) (*Result, error) {
	if in.Width <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWidth, in.Width)
	}
	if in.Provider == nil {
		return nil, ErrNoFont
	}
	p := in.Params
	res := &Result{
		Text:        []rune(in.Text),
		Image:       in.Image,
		Width:       in.Width,
		TextColor:   p.TextColor,
		EditMode:    p.EditMode,
		CursorPos:   p.CursorPos,
		CursorWidth: p.CursorWidth,
	}
	if len(res.Text) == 0 && in.Image == nil {
		return res, nil
	}
	if err := in.Provider.SetFont(in.Font); err != nil {
		return nil, fmt.Errorf("layout: set font %v: %w", in.Font, err)
	}

	e := &engine{
		params:     p,
		fp:         in.Provider,
		font:       in.Font,
		text:       res.Text,
		width:      in.Width,
		res:        res,
		fontHeight: in.Provider.Height(),
		first:      -1,
		last:       -1,
		align:      p.alignFor(0),
		color:      p.TextColor,
		styles:     slices.Clone(in.Styles),
	}
	slices.SortStableFunc(e.styles, func(a, b StyleChange) int { return cmp.Compare(a.At, b.At) })
	e.placeImage()
	e.x = e.minX
	if err := e.scan(); err != nil {
		return nil, err
	}
	e.finish()
	return res, nil
}

func (e *engine) resetBand() {
	e.minX = e.params.Margin.Left
	e.maxX = max(e.width-e.params.Margin.Right, e.minX)
}

func (e *engine) placeImage() {
	m := e.params.Margin
	e.y = m.Top
	e.resetBand()
	if img := e.res.Image; img != nil {
		b := img.Bounds()
		e.hasImage, e.imageH = true, b.Dy()
		e.res.ImageX, e.res.ImageY = m.Left, m.Top
		switch e.params.ImageAlign {
		case AlignLeft:
			e.minX += b.Dx() + e.params.ImageHMargin
		case AlignCenter:
			e.res.ImageX += (e.maxX - e.minX - b.Dx()) / 2
			e.y += b.Dy()
		case AlignRight:
			e.maxX -= b.Dx() + e.params.ImageHMargin
			e.res.ImageX = e.width - m.Right - b.Dx()
		}
		e.imageBottom = e.res.ImageY + b.Dy() + e.params.ImageVMargin
	}
	if e.maxX < e.minX {
		e.maxX = e.minX
	}
}

func (e *engine) scan() error {
	for i := 0; i < len(e.text); i++ {
		if err := e.applyStyles(i); err != nil {
			return err
		}
		c := e.text[i]
		var partEnds, newLine, paragraph bool
		if c == '\n' || c == '\r' {
			if e.open != nil {
				e.open.End = i
				e.open.Width = e.x - e.open.X
				partEnds = true
			}
			// the \n of a \r\n pair breaks the line without starting
			// another paragraph
			newLine = true
			paragraph = c == '\r' || i == 0 || e.text[i-1] != '\r'
			e.y += e.params.ParagraphIndent
		} else {
			i, partEnds, newLine = e.step(i, c)
		}
		if partEnds && e.open != nil {
			e.closePart()
		}
		if newLine {
			e.closeLine(paragraph)
		}
	}
	return nil
}

// applyStyles switches font and color at rune i. A part never spans a style
// change, so the open part is closed first and the line goes on.
func (e *engine) applyStyles(i int) error {
	for e.nextStyle < len(e.styles) && e.styles[e.nextStyle].At <= i {
		st := e.styles[e.nextStyle]
		e.nextStyle++
		if e.open != nil {
			e.open.End = i
			e.open.Width = e.x - e.open.X
			e.closePart()
		}
		if st.Font != nil {
			if err := e.fp.SetFont(st.Font); err != nil {
				return fmt.Errorf("layout: set font %v at %d: %w", st.Font, i, err)
			}
			e.font = st.Font
			e.fontHeight = e.fp.Height()
		}
		if st.Color != nil {
			e.color = *st.Color
		}
	}
	return nil
}

// step feeds rune c at index i into the open part. It returns the index the
// scan continues from (minus one), and whether the part and the line ended.
func (e *engine) step(i int, c rune) (int, bool, bool) {
	space := c == ' '
	if e.open == nil && (e.params.EditMode || !space || e.first != -1) {
		e.openAt(i)
	}
	o := e.open
	if o == nil {
		return i, false, false
	}
	o.observe(space, i, e.x)

	cw := e.advanceAt(i, c)
	if !e.cursorFound && i == e.params.CursorPos {
		o.cursorOff = e.x - o.X
	}

	if e.x+cw > e.maxX {
		split, backup := e.breakLine(i, cw)
		if backup {
			// retry the whole part on the next line
			e.open = nil
			return o.Start - 1, false, true
		}
		o.End = split
		return split - 1, true, true
	}
	e.x += cw
	if i == len(e.text)-1 {
		o.End = len(e.text)
		o.Width = e.x - o.X
		return i, true, true
	}
	return i, false, false
}

// advanceAt is the pen advance of rune r at index p, including the caret gap
// reserved in edit mode.
func (e *engine) advanceAt(p int, r rune) int {
	w := e.fp.Advance(r)
	if e.params.EditMode && !e.cursorFound && p == e.params.CursorPos {
		w += e.params.CursorWidth
	}
	return w
}

func (e *engine) openAt(i int) {
	e.open = &openPart{
		Part: Part{
			Start:  i,
			X:      e.x,
			Y:      e.y,
			Font:   e.font,
			Height: e.fontHeight,
			Color:  e.color,
		},
		spaceStart: -1,
		wordStart:  -1,
		cursorOff:  -1,
	}
	e.lineHeight = max(e.lineHeight, e.fontHeight)
}

// breakLine picks the split index for the open part once rune i of width cw
// overflows the line. backup asks the caller to move the whole part to the
// next line.
func (e *engine) breakLine(i, cw int) (split int, backup bool) {
	o := e.open
	switch e.params.Wrap {
	case WrapWords:
		split, backup = e.breakWords(i)
	case WrapSyllables:
		split, backup = e.breakSyllables(i)
	default:
		split, o.Width = i, e.x-o.X
	}
	if backup || split > o.Start {
		return split, backup
	}
	// the split would emit an empty part
	if e.first != -1 {
		return 0, true
	}
	o.HasHyphen = false
	if i > o.Start {
		o.Width = e.x - o.X
		return i, false
	}
	o.Width = e.x + cw - o.X
	return i + 1, false
}

func (e *engine) breakWords(i int) (int, bool) {
	o := e.open
	if e.params.EditMode {
		// keep the word under the caret in one piece
		if o.spaceStart >= 0 && o.wordStart > o.spaceStart {
			o.Width = o.wordX - o.X
			return o.wordStart, false
		}
		o.Width = e.x - o.X
		return i, false
	}
	if o.spaceStart >= 0 {
		o.Width = o.spaceX - o.X
		return o.spaceStart, false
	}
	return e.fallback(i)
}

func (e *engine) breakSyllables(i int) (int, bool) {
	o := e.open
	if o.wordStart >= 0 {
		if o.run == runSpace {
			o.Width = o.spaceX - o.X
			return o.spaceStart, false
		}
		hyphen := e.fp.Advance('-')
		if at, atX, ok := splitBySyllables(e.text, o.wordStart, o.wordX, e.maxX, hyphen, e.advanceAt); ok && at <= i {
			o.HasHyphen = true
			o.Width = atX - o.X + hyphen
			return at, false
		}
	}
	if o.spaceStart >= 0 {
		o.Width = o.spaceX - o.X
		return o.spaceStart, false
	}
	return e.fallback(i)
}

// fallback handles a part without any break opportunity: it moves to the
// next line when something else already sits on this one, otherwise it is
// cut at the overflowing rune.
func (e *engine) fallback(i int) (int, bool) {
	if e.first != -1 {
		return 0, true
	}
	e.open.Width = e.x - e.open.X
	return i, false
}

func (e *engine) closePart() {
	o := e.open
	pos := e.params.CursorPos
	if !e.cursorFound && pos >= o.Start && pos <= o.End {
		off := o.cursorOff
		switch {
		case pos == o.Start:
			off = 0
		case pos == o.End || off < 0:
			off = o.Width
		}
		e.cursorFound = true
		e.cursorPart = len(e.res.Parts)
		e.cursorOff = off
	}
	e.res.Parts = append(e.res.Parts, o.Part)
	idx := len(e.res.Parts) - 1
	if e.first == -1 {
		e.first = idx
	}
	e.last = idx
	e.open = nil
}

func (e *engine) closeLine(paragraph bool) {
	parts := e.res.Parts
	if e.first >= 0 {
		first, last := parts[e.first], parts[e.last]
		lineWidth := last.X + last.Width - first.X
		e.res.Metrics.ActualWidth = max(e.res.Metrics.ActualWidth, lineWidth)
		shortage := (e.maxX - e.minX) - lineWidth
		if shortage > 0 && e.align != AlignLeft {
			dx := shortage
			if e.align == AlignCenter {
				dx = shortage / 2
			}
			for k := e.first; k <= e.last; k++ {
				parts[k].X += dx
			}
		}
	}
	e.first, e.last = -1, -1

	e.y += e.lineHeight
	e.res.Metrics.Lines++
	if e.y >= e.imageBottom {
		e.resetBand()
	}
	e.x = e.minX
	e.lineHeight = 0
	if paragraph {
		e.paragraph++
		e.align = e.params.alignFor(e.paragraph)
	}
}

func (e *engine) finish() {
	m := &e.res.Metrics
	if e.cursorFound {
		p := e.res.Parts[e.cursorPart]
		m.CursorX = p.X + e.cursorOff
		m.CursorY = p.Y
		m.CursorPart = e.cursorPart
	} else {
		m.CursorX, m.CursorY = e.x, e.y
		m.CursorPart = len(e.res.Parts)
	}
	m.TextHeight = e.y + e.params.Margin.Bottom
	m.Height = m.TextHeight
	if e.hasImage {
		m.Height = max(m.Height, e.imageH+e.params.Margin.Top+e.params.Margin.Bottom)
	}
}
