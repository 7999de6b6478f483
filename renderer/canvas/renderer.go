package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"golang.org/x/image/draw"

	"github.com/ByLCY/multitext/layout"
	"github.com/ByLCY/multitext/renderer"
)

const creator = "MultiText"

// Renderer draws layout pages via github.com/tdewolff/canvas and writes PDF.
// Layout pixels are mapped to millimetres at the page DPI.
type Renderer struct {
	provider layout.FontProvider
}

var _ renderer.Renderer = (*Renderer)(nil)

// NewRenderer creates a PDF renderer drawing glyphs with fp.
func NewRenderer(fp layout.FontProvider) *Renderer {
	return &Renderer{provider: fp}
}

// Render renders the page into a PDF byte slice. When some blocks could not
// be drawn completely the PDF is still returned, along with a
// *renderer.PartialError.
func (r *Renderer) Render(page *layout.Page) ([]byte, error) {
	if page == nil {
		return nil, fmt.Errorf("渲染页面为空")
	}
	if page.Width <= 0 || page.Height <= 0 {
		return nil, fmt.Errorf("页面尺寸无效：%dx%d", page.Width, page.Height)
	}
	dpi := page.DPI
	if dpi <= 0 {
		dpi = layout.DefaultDPI
	}
	mm := layout.MmPerInch / dpi
	width, height := float64(page.Width)*mm, float64(page.Height)*mm

	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

	s := NewSurface(ctx, page.Width, page.Height, mm)
	drawErr := renderer.DrawPage(s, r.provider, page)
	s.Flush()

	var buf bytes.Buffer
	writer := pdf.New(&buf, width, height, nil)
	writer.SetInfo(page.Title, "", "", "", creator)
	c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), drawErr
}

// Surface implements layout.Surface over a canvas context. Rectangles and
// images become PDF objects directly; glyph masks are collected on a pixel
// layer that is placed as one image before the next non-glyph operation, so
// paint order is kept.
type Surface struct {
	ctx  *canvas.Context
	mm   float64
	col  color.Color
	clip image.Rectangle

	layer *image.RGBA
	dirty image.Rectangle
}

var _ layout.Surface = (*Surface)(nil)

// NewSurface creates a surface of w×h layout pixels; mm is the size of one
// pixel in millimetres.
func NewSurface(ctx *canvas.Context, w, h int, mm float64) *Surface {
	bounds := image.Rect(0, 0, w, h)
	return &Surface{
		ctx:   ctx,
		mm:    mm,
		col:   color.Black,
		clip:  bounds,
		layer: image.NewRGBA(bounds),
	}
}

func (s *Surface) Clip() image.Rectangle { return s.clip }

// SetClip restricts drawing to r within the page.
func (s *Surface) SetClip(r image.Rectangle) {
	s.clip = r.Intersect(s.layer.Bounds())
}

func (s *Surface) SetColor(c color.Color) { s.col = c }

func (s *Surface) FillRect(r image.Rectangle) {
	r = r.Intersect(s.clip)
	if r.Empty() {
		return
	}
	s.Flush()
	s.ctx.SetFillColor(s.col)
	s.ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
	s.ctx.DrawPath(s.px(r.Min.X), s.px(r.Min.Y), canvas.Rectangle(s.px(r.Dx()), s.px(r.Dy())))
}

func (s *Surface) DrawImage(img image.Image, x, y int, anchor layout.Anchor) {
	b := img.Bounds()
	x, y = anchor.TopLeft(x, y, b.Dx(), b.Dy())
	if !image.Rect(x, y, x+b.Dx(), y+b.Dy()).Overlaps(s.clip) {
		return
	}
	s.Flush()
	if b.Min != (image.Point{}) {
		img = copyRect(img, b)
	}
	s.ctx.DrawImage(s.px(x), s.px(y), img, canvas.DPMM(1/s.mm))
}

func (s *Surface) DrawMask(dr image.Rectangle, mask image.Image, mp image.Point) {
	r := dr.Intersect(s.clip)
	if r.Empty() {
		return
	}
	draw.DrawMask(s.layer, r, image.NewUniform(s.col), image.Point{}, mask, mp.Add(r.Min.Sub(dr.Min)), draw.Over)
	s.dirty = s.dirty.Union(r)
}

// Flush places pending glyphs on the canvas.
func (s *Surface) Flush() {
	if s.dirty.Empty() {
		return
	}
	r := s.dirty
	s.ctx.DrawImage(s.px(r.Min.X), s.px(r.Min.Y), copyRect(s.layer, r), canvas.DPMM(1/s.mm))
	draw.Draw(s.layer, r, image.Transparent, image.Point{}, draw.Src)
	s.dirty = image.Rectangle{}
}

func (s *Surface) px(v int) float64 { return float64(v) * s.mm }

// copyRect returns r of img as a new image anchored at the origin.
func copyRect(img image.Image, r image.Rectangle) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), img, r.Min, draw.Src)
	return out
}
