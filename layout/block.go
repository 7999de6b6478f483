package layout

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
)

// Block 是调用方持有的可变文本块：修改文本、宽度、字体、插图或参数都会触发整体重排。
// 每次重排生成新的 Result 并原子地发布，绘制方只读取快照，不会看到排到一半的状态。
// 全局颜色单独原子存储，修改它不需要重排。
type Block struct {
	mu       sync.Mutex
	provider FontProvider
	font     FontHandle
	text     string
	img      image.Image
	width    int
	params   Params
	styles   []StyleChange

	snap   atomic.Pointer[Result]
	global atomic.Pointer[color.RGBA]
}

// NewBlock 创建文本块，此时宽度为 0，尚未排版；调用 SetWidth 后才会生成快照。
func NewBlock(fp FontProvider, font FontHandle, text string, img image.Image) *Block {
	b := &Block{
		provider: fp,
		font:     font,
		text:     text,
		img:      img,
		params:   DefaultParams(),
	}
	b.SetGlobalColor(b.params.TextColor)
	return b
}

// SetWidth 设置宽度并重排；宽度未变化时什么也不做。
func (b *Block) SetWidth(width int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if width == b.width {
		return nil
	}
	b.width = width
	return b.formatLocked()
}

func (b *Block) SetText(text string) error {
	return b.update(func() { b.text = text })
}

func (b *Block) SetFont(font FontHandle) error {
	return b.update(func() { b.font = font })
}

func (b *Block) SetImage(img image.Image) error {
	return b.update(func() { b.img = img })
}

func (b *Block) SetParams(p Params) error {
	return b.update(func() { b.params = p })
}

func (b *Block) SetStyles(styles []StyleChange) error {
	return b.update(func() { b.styles = append([]StyleChange(nil), styles...) })
}

// UpdateParams 在锁内修改参数后重排，例如只移动光标。
func (b *Block) UpdateParams(fn func(p *Params)) error {
	return b.update(func() { fn(&b.params) })
}

// Params 返回当前参数的副本。
func (b *Block) Params() Params {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.params
}

// update 修改字段；宽度尚未设置时只记录修改，等 SetWidth 时再排版。
func (b *Block) update(fn func()) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn()
	if b.width <= 0 {
		return nil
	}
	return b.formatLocked()
}

// Format 强制按当前状态重排。
func (b *Block) Format() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.formatLocked()
}

func (b *Block) formatLocked() error {
	res, err := Layout(Input{
		Text:     b.text,
		Image:    b.img,
		Font:     b.font,
		Provider: b.provider,
		Width:    b.width,
		Params:   b.params,
		Styles:   b.styles,
	})
	if err != nil {
		return fmt.Errorf("排版文本块失败: %w", err)
	}
	b.snap.Store(res)
	return nil
}

// Snapshot 返回最近一次排版结果，尚未排版时为 nil。
func (b *Block) Snapshot() *Result {
	return b.snap.Load()
}

// Height 返回排版后的总高度（文本与插图取大者）。
func (b *Block) Height() int {
	if res := b.snap.Load(); res != nil {
		return res.Metrics.Height
	}
	return 0
}

// SetGlobalColor 修改默认颜色文字的绘制颜色，不触发重排。
func (b *Block) SetGlobalColor(c color.RGBA) {
	b.global.Store(&c)
}

func (b *Block) GlobalColor() color.RGBA {
	if c := b.global.Load(); c != nil {
		return *c
	}
	return color.RGBA{}
}

// Draw 以 (x, y) 为原点绘制全部 part。绘制与排版共用字体提供者，因此同样持锁。
func (b *Block) Draw(s Surface, x, y int) DrawReport {
	b.mu.Lock()
	defer b.mu.Unlock()
	res := b.snap.Load()
	if res == nil {
		return DrawReport{Image: StatusSkipped}
	}
	return res.DrawAll(s, b.provider, x, y, b.GlobalColor())
}

// DrawVisible 只绘制与纵向窗口 [top, bottom)（排版坐标）相交的行。
func (b *Block) DrawVisible(s Surface, x, y, top, bottom int) DrawReport {
	b.mu.Lock()
	defer b.mu.Unlock()
	res := b.snap.Load()
	if res == nil {
		return DrawReport{Image: StatusSkipped}
	}
	from, to := res.PartsBetween(top, bottom)
	return res.Draw(s, b.provider, x, y, from, to, b.GlobalColor())
}
