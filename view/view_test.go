package view

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/ByLCY/multitext/layout"
)

type fixedFont struct{}

func (fixedFont) String() string { return "fixed" }

// stubProvider draws nothing and records where substrings were drawn.
type stubProvider struct {
	ys []int
}

func (p *stubProvider) SetFont(layout.FontHandle) error                        { return nil }
func (p *stubProvider) Height() int                                            { return 10 }
func (p *stubProvider) Advance(rune) int                                       { return 5 }
func (p *stubProvider) DrawChar(layout.Surface, rune, int, int, layout.Anchor) {}
func (p *stubProvider) DrawSubstring(_ layout.Surface, _ []rune, _, n, x, y int, _ layout.Anchor) int {
	p.ys = append(p.ys, y)
	return x + 5*n
}

type nopSurface struct{}

func (nopSurface) SetColor(color.Color)                               {}
func (nopSurface) FillRect(image.Rectangle)                           {}
func (nopSurface) DrawImage(image.Image, int, int, layout.Anchor)     {}
func (nopSurface) DrawMask(image.Rectangle, image.Image, image.Point) {}
func (nopSurface) Clip() image.Rectangle                              { return image.Rect(-1000, -1000, 1000, 1000) }

func TestRainbow(t *testing.T) {
	cases := []struct {
		hue  int
		want color.RGBA
	}{
		{0, color.RGBA{R: 255, A: 255}},
		{30, color.RGBA{R: 255, G: 127, A: 255}},
		{60, color.RGBA{R: 249, G: 255, A: 255}},
		{120, color.RGBA{G: 255, A: 255}},
		{360, color.RGBA{R: 255, A: 255}},
		{-360, color.RGBA{R: 255, A: 255}},
	}
	for _, c := range cases {
		if got := Rainbow(c.hue); got != c.want {
			t.Fatalf("Rainbow(%d) 期望 %v，实际 %v", c.hue, c.want, got)
		}
	}
}

func TestScrollerClamps(t *testing.T) {
	s := NewScroller(30, 100)
	if s.CanScrollUp() || !s.CanScrollDown() {
		t.Fatalf("初始位置应只能向下滚动")
	}
	if s.Step() != 10 {
		t.Fatalf("翻页步长应为视口的三分之一，实际 %d", s.Step())
	}
	if !s.Scroll(1000) || s.Pos() != 70 {
		t.Fatalf("向下滚动应停在 70，实际 %d", s.Pos())
	}
	if s.CanScrollDown() {
		t.Fatalf("到底后不应再能向下滚动")
	}
	if s.Scroll(5) {
		t.Fatalf("到底后继续滚动不应触发重绘")
	}
	s.SetContent(50)
	if s.Pos() != 20 {
		t.Fatalf("内容变短后位置应重新夹紧到 20，实际 %d", s.Pos())
	}
	s.SetContent(10)
	if s.Pos() != 0 || s.CanScrollUp() || s.CanScrollDown() {
		t.Fatalf("内容短于视口时不应能滚动")
	}
}

func TestDrawWindowDrawsVisibleLines(t *testing.T) {
	fp := &stubProvider{}
	b := layout.NewBlock(fp, fixedFont{}, strings.Repeat("aa ", 4)+"aa", nil)
	p := layout.DefaultParams()
	p.Margin = layout.Margin{}
	p.Wrap = layout.WrapWords
	if err := b.SetParams(p); err != nil {
		t.Fatalf("设置参数失败: %v", err)
	}
	if err := b.SetWidth(10); err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	if got := b.Snapshot().Metrics.Lines; got != 5 {
		t.Fatalf("应排成 5 行，实际 %d", got)
	}

	sc := NewScroller(20, b.Height())
	sc.Scroll(10)
	rep := DrawWindow(nopSurface{}, b, sc, 0, 0)
	if rep.Drawn() != 2 {
		t.Fatalf("窗口 [10,30) 内应绘制 2 行，实际 %d", rep.Drawn())
	}
	if len(fp.ys) != 2 || fp.ys[0] != 0 || fp.ys[1] != 10 {
		t.Fatalf("可见行应绘制在视口顶部起的 0 与 10，实际 %v", fp.ys)
	}
}

func TestHueCyclerRecolorsUntilCancelled(t *testing.T) {
	b := layout.NewBlock(&stubProvider{}, fixedFont{}, "text", nil)
	if err := b.SetWidth(100); err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	before := b.Snapshot()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var (
		n    int
		last color.RGBA
	)
	h := &HueCycler{
		Block:    b,
		Interval: time.Millisecond,
		Step:     5,
		Redraw: func(c color.RGBA) {
			n++
			last = c
			if n == 3 {
				cancel()
			}
		},
	}
	if err := h.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("取消后应返回 context.Canceled，实际 %v", err)
	}
	if n < 3 {
		t.Fatalf("应至少重绘 3 次，实际 %d", n)
	}
	if b.GlobalColor() != last {
		t.Fatalf("全局颜色应为最后一次的 %v，实际 %v", last, b.GlobalColor())
	}
	if b.Snapshot() != before {
		t.Fatalf("改变颜色不应触发重排")
	}
}

func TestHueCyclerRejectsBadConfig(t *testing.T) {
	if err := (&HueCycler{}).Run(context.Background()); err == nil {
		t.Fatalf("缺少 Block 时应报错")
	}
	b := layout.NewBlock(&stubProvider{}, fixedFont{}, "x", nil)
	if err := (&HueCycler{Block: b}).Run(context.Background()); err == nil {
		t.Fatalf("间隔为 0 时应报错")
	}
}
