// Package raster draws layout results into an in-memory RGBA image and
// encodes it as PNG.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/ByLCY/multitext/layout"
	"github.com/ByLCY/multitext/renderer"
)

// Surface implements layout.Surface over an *image.RGBA. Every operation is
// limited to the clip rectangle.
type Surface struct {
	img  *image.RGBA
	src  *image.Uniform
	clip image.Rectangle
}

var _ layout.Surface = (*Surface)(nil)

func NewSurface(img *image.RGBA) *Surface {
	return &Surface{
		img:  img,
		src:  image.NewUniform(color.Black),
		clip: img.Bounds(),
	}
}

// Image returns the backing image.
func (s *Surface) Image() *image.RGBA { return s.img }

// SetClip restricts drawing to r within the image bounds.
func (s *Surface) SetClip(r image.Rectangle) {
	s.clip = r.Intersect(s.img.Bounds())
}

func (s *Surface) Clip() image.Rectangle { return s.clip }

func (s *Surface) SetColor(c color.Color) {
	s.src = image.NewUniform(c)
}

func (s *Surface) FillRect(r image.Rectangle) {
	r = r.Intersect(s.clip)
	if r.Empty() {
		return
	}
	draw.Draw(s.img, r, s.src, image.Point{}, draw.Over)
}

func (s *Surface) DrawImage(img image.Image, x, y int, anchor layout.Anchor) {
	b := img.Bounds()
	x, y = anchor.TopLeft(x, y, b.Dx(), b.Dy())
	full := image.Rect(x, y, x+b.Dx(), y+b.Dy())
	dr := full.Intersect(s.clip)
	if dr.Empty() {
		return
	}
	sp := b.Min.Add(dr.Min.Sub(full.Min))
	draw.Draw(s.img, dr, img, sp, draw.Over)
}

func (s *Surface) DrawMask(dr image.Rectangle, mask image.Image, mp image.Point) {
	r := dr.Intersect(s.clip)
	if r.Empty() {
		return
	}
	draw.DrawMask(s.img, r, s.src, image.Point{}, mask, mp.Add(r.Min.Sub(dr.Min)), draw.Over)
}

// Renderer rasterises a page at one pixel per layout unit.
type Renderer struct {
	Provider layout.FontProvider
}

var _ renderer.Renderer = (*Renderer)(nil)

// RenderImage draws page into a new RGBA image. Draw failures do not abort
// rendering: the image is returned together with a *renderer.PartialError.
func (r *Renderer) RenderImage(page *layout.Page) (*image.RGBA, error) {
	if page == nil {
		return nil, fmt.Errorf("渲染页面为空")
	}
	if page.Width <= 0 || page.Height <= 0 {
		return nil, fmt.Errorf("页面尺寸无效：%dx%d", page.Width, page.Height)
	}
	img := image.NewRGBA(image.Rect(0, 0, page.Width, page.Height))
	err := renderer.DrawPage(NewSurface(img), r.Provider, page)
	return img, err
}

// Render encodes the page as PNG. A partial page is still encoded and
// returned with its *renderer.PartialError.
func (r *Renderer) Render(page *layout.Page) ([]byte, error) {
	img, drawErr := r.RenderImage(page)
	if img == nil {
		return nil, drawErr
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("写入 PNG 失败: %w", err)
	}
	return buf.Bytes(), drawErr
}
