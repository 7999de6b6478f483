package layout

import (
	"image"
	"image/color"
)

// 该文件定义排版结果、参数与对外依赖的接口，供排版、绘制、渲染器与调试 JSON 共用。

// Align 表示水平对齐方式，同时用于文本与插图。
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

func (a Align) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "left"
	}
}

// WrapMode 决定行在哪里可以断开。
type WrapMode int

const (
	WrapNone WrapMode = iota
	WrapWords
	WrapSyllables
)

func (m WrapMode) String() string {
	switch m {
	case WrapWords:
		return "words"
	case WrapSyllables:
		return "syllables"
	default:
		return "none"
	}
}

// Anchor 是绘制文字或图片时的定位参考点，水平与垂直分量可按位组合。
type Anchor int

const (
	AnchorLeft Anchor = 1 << iota
	AnchorHCenter
	AnchorRight
	AnchorTop
	AnchorVCenter
	AnchorBottom
	AnchorBaseline

	AnchorTopLeft = AnchorTop | AnchorLeft
)

// TopLeft 把以 a 为参考点的坐标换算为 w×h 矩形的左上角。基线按底边处理。
func (a Anchor) TopLeft(x, y, w, h int) (int, int) {
	switch {
	case a&AnchorHCenter != 0:
		x -= w / 2
	case a&AnchorRight != 0:
		x -= w
	}
	switch {
	case a&AnchorVCenter != 0:
		y -= h / 2
	case a&(AnchorBottom|AnchorBaseline) != 0:
		y -= h
	}
	return x, y
}

// Margin 以像素为单位。
type Margin struct {
	Left   int `json:"left"`
	Right  int `json:"right"`
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
}

// Part 是一段连续、不可再断开的已排版文本，拥有固定的像素矩形。
// Start/End 是对源文本（按 rune 计）的半开区间。
type Part struct {
	Start     int        `json:"start"`
	End       int        `json:"end"`
	X         int        `json:"x"`
	Y         int        `json:"y"`
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	Font      FontHandle `json:"-"`
	Color     color.RGBA `json:"color"`
	HasHyphen bool       `json:"hasHyphen,omitempty"`
}

// Rect 返回 part 在排版坐标系中的矩形。
func (p Part) Rect() image.Rectangle {
	return image.Rect(p.X, p.Y, p.X+p.Width, p.Y+p.Height)
}

// Metrics 是每次排版整体重算的汇总信息。
type Metrics struct {
	TextHeight  int `json:"textHeight"`
	Height      int `json:"height"`
	ActualWidth int `json:"actualWidth"`
	Lines       int `json:"lines"`
	CursorX     int `json:"cursorX"`
	CursorY     int `json:"cursorY"`
	// CursorPart 为包含光标的 part 下标；光标在所有 part 之后时等于 len(Parts)。
	CursorPart int `json:"cursorPart"`
}

// Result 是一次排版的不可变快照。Layout 返回后不再修改。
type Result struct {
	Text    []rune      `json:"-"`
	Parts   []Part      `json:"parts"`
	Metrics Metrics     `json:"metrics"`
	Image   image.Image `json:"-"`
	ImageX  int         `json:"imageX"`
	ImageY  int         `json:"imageY"`
	Width   int         `json:"width"`

	TextColor   color.RGBA `json:"textColor"`
	EditMode    bool       `json:"editMode,omitempty"`
	CursorPos   int        `json:"cursorPos"`
	CursorWidth int        `json:"cursorWidth,omitempty"`
}

// Content 返回第 i 个 part 覆盖的文本。
func (r *Result) Content(i int) string {
	p := r.Parts[i]
	return string(r.Text[p.Start:p.End])
}

// Page 把若干个已排版的文本块放置在同一画布上，供渲染器输出。
type Page struct {
	Title      string        `json:"title,omitempty"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	DPI        float64       `json:"dpi"`
	Background color.RGBA    `json:"background"`
	Blocks     []PlacedBlock `json:"blocks"`
}

// PlacedBlock 记录文本块在页面上的位置与绘制时使用的全局颜色。
type PlacedBlock struct {
	Name   string     `json:"name"`
	X      int        `json:"x"`
	Y      int        `json:"y"`
	Global color.RGBA `json:"global"`
	Result *Result    `json:"result"`
	// Block 为 nil 时只能按 Result 静态绘制。
	Block *Block `json:"-"`
}

// FontHandle 是两种字体表示之一的不透明句柄，由 FontProvider 负责解析。
// 句柄必须可比较，以便提供者按句柄缓存字体。
type FontHandle interface {
	String() string
}

// FontProvider 报告字符宽度与行高，并负责把文字绘制到 Surface。
type FontProvider interface {
	SetFont(h FontHandle) error
	Height() int
	Advance(r rune) int
	DrawChar(s Surface, r rune, x, y int, anchor Anchor)
	// DrawSubstring 绘制 text[start:start+n]，返回紧随其后的 x 坐标。
	DrawSubstring(s Surface, text []rune, start, n, x, y int, anchor Anchor) int
}

// Surface 是绘制目标：填充矩形、贴图、按遮罩着色，以及查询当前裁剪区域。
type Surface interface {
	SetColor(c color.Color)
	FillRect(r image.Rectangle)
	DrawImage(img image.Image, x, y int, anchor Anchor)
	DrawMask(dr image.Rectangle, mask image.Image, mp image.Point)
	Clip() image.Rectangle
}
