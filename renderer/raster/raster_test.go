package raster

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"golang.org/x/image/font/basicfont"

	"github.com/ByLCY/multitext/glyph"
	"github.com/ByLCY/multitext/layout"
	"github.com/ByLCY/multitext/renderer"
)

var (
	white = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	red   = color.RGBA{R: 0xff, A: 0xff}
)

func TestFillRectHonorsClip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	s := NewSurface(img)
	s.SetClip(image.Rect(0, 0, 5, 5))
	s.SetColor(red)
	s.FillRect(image.Rect(0, 0, 10, 10))
	if got := img.RGBAAt(2, 2); got != red {
		t.Fatalf("裁剪区域内应被填充，实际 %v", got)
	}
	if got := img.RGBAAt(7, 7); got.A != 0 {
		t.Fatalf("裁剪区域外不应被填充，实际 %v", got)
	}
}

func TestDrawImageAnchors(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	s := NewSurface(img)
	s.DrawImage(src, 6, 6, layout.AnchorRight|layout.AnchorBottom)
	if got := img.RGBAAt(4, 4); got != white {
		t.Fatalf("右下锚点应把图片放在 (4,4)-(6,6)，(4,4) 为 %v", got)
	}
	if got := img.RGBAAt(6, 6); got.A != 0 {
		t.Fatalf("(6,6) 不应被覆盖，实际 %v", got)
	}
}

func TestRenderPNG(t *testing.T) {
	font := &glyph.Atlas{Name: "7x13", Face: basicfont.Face7x13}
	fp := glyph.NewProvider(font)
	block := layout.NewBlock(fp, font, "IIII", nil)
	p := layout.DefaultParams()
	p.Margin = layout.Margin{}
	if err := block.SetParams(p); err != nil {
		t.Fatalf("设置参数失败: %v", err)
	}
	block.SetGlobalColor(red)
	if err := block.SetWidth(40); err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	page := &layout.Page{
		Width:      40,
		Height:     block.Height(),
		Background: white,
		Blocks:     []layout.PlacedBlock{{Name: "b", Block: block}},
	}
	data, err := (&Renderer{Provider: fp}).Render(page)
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("输出不是合法 PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 40 || decoded.Bounds().Dy() != 13 {
		t.Fatalf("图片尺寸不符: %v", decoded.Bounds())
	}
	var reds int
	b := decoded.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, _, _ := decoded.At(x, y).RGBA()
			if r > 0x8000 && g < 0x8000 {
				reds++
			}
		}
	}
	if reds == 0 {
		t.Fatalf("全局颜色应作用于文字，未找到红色像素")
	}
}

type brokenProvider struct{}

func (brokenProvider) SetFont(layout.FontHandle) error { return nil }
func (brokenProvider) Height() int                     { return 10 }
func (brokenProvider) Advance(rune) int                { return 5 }
func (brokenProvider) DrawChar(layout.Surface, rune, int, int, layout.Anchor) {
	panic("glyph cache corrupted")
}
func (brokenProvider) DrawSubstring(layout.Surface, []rune, int, int, int, int, layout.Anchor) int {
	panic("glyph cache corrupted")
}

func TestRenderReturnsPartialPage(t *testing.T) {
	res := &layout.Result{
		Text:  []rune("ab"),
		Parts: []layout.Part{{Start: 0, End: 2, Width: 10, Height: 10}},
	}
	page := &layout.Page{
		Width:      20,
		Height:     10,
		Background: white,
		Blocks:     []layout.PlacedBlock{{Name: "broken", Result: res}},
	}
	data, err := (&Renderer{Provider: brokenProvider{}}).Render(page)
	var pe *renderer.PartialError
	if !errors.As(err, &pe) {
		t.Fatalf("部分绘制失败时应返回 *renderer.PartialError，实际 %v", err)
	}
	var de *layout.DrawError
	if !errors.As(err, &de) || de.Part != 0 {
		t.Fatalf("错误中应包含 part 0 的 *layout.DrawError，实际 %v", err)
	}
	decoded, decodeErr := png.Decode(bytes.NewReader(data))
	if decodeErr != nil {
		t.Fatalf("部分绘制的页面仍应输出合法 PNG: %v", decodeErr)
	}
	if got := color.RGBAModel.Convert(decoded.At(15, 5)); got != white {
		t.Fatalf("背景应已绘制，实际 %v", got)
	}
}
