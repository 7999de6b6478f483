package view

import (
	"context"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/ByLCY/multitext/layout"
)

// Rainbow returns a fully saturated color for hue in degrees, using integer
// HSV arithmetic so equal hues always give equal colors.
func Rainbow(hue int) color.RGBA {
	hue %= 360
	if hue < 0 {
		hue += 360
	}
	const v, s = 255, 255
	hi, f := hue/60, hue%60
	p := v * (255 - s) / 255
	q := v * (255*59 - f*s) / (256 * 60)
	t := v * (255*59 - (59-f)*s) / (256 * 60)

	var r, g, b int
	switch hi {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 0xff}
}

// HueCycler recolors a block's default-colored text on every tick. Only the
// global color changes; the layout is never touched.
type HueCycler struct {
	Block    *layout.Block
	Interval time.Duration
	// Step is the hue increment per tick in degrees.
	Step int
	// Redraw is called after each color change, from the cycler goroutine.
	Redraw func(c color.RGBA)

	mu  sync.Mutex
	hue int
}

// Tick advances the hue once and applies it.
func (h *HueCycler) Tick() color.RGBA {
	h.mu.Lock()
	c := Rainbow(h.hue)
	h.hue = (h.hue + h.Step) % 360
	h.mu.Unlock()

	h.Block.SetGlobalColor(c)
	if h.Redraw != nil {
		h.Redraw(c)
	}
	return c
}

// Run ticks until ctx is cancelled and returns ctx.Err().
func (h *HueCycler) Run(ctx context.Context) error {
	if h.Block == nil {
		return fmt.Errorf("view: hue cycler has no block")
	}
	if h.Interval <= 0 {
		return fmt.Errorf("view: invalid tick interval %v", h.Interval)
	}
	t := time.NewTicker(h.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			h.Tick()
		}
	}
}
