package layout

import (
	"image"
	"image/color"
)

// Params 是调用方持有的排版参数，排版时只读。
type Params struct {
	Margin          Margin
	ImageAlign      Align
	ImageHMargin    int
	ImageVMargin    int
	ParagraphIndent int
	TextAlign       Align
	// ParagraphAligns 为第 i 个段落单独指定对齐方式，超出部分沿用 TextAlign。
	ParagraphAligns []Align
	Wrap            WrapMode
	TextColor       color.RGBA
	EditMode        bool
	CursorPos       int
	CursorWidth     int
}

// DefaultParams 返回默认参数：左右边距 8、上下边距 5、按音节折行。
func DefaultParams() Params {
	return Params{
		Margin:          Margin{Left: 8, Right: 8, Top: 5, Bottom: 5},
		ImageAlign:      AlignLeft,
		ImageHMargin:    10,
		ImageVMargin:    5,
		ParagraphIndent: 5,
		TextAlign:       AlignLeft,
		Wrap:            WrapSyllables,
		TextColor:       color.RGBA{A: 0xff},
	}
}

func (p Params) alignFor(paragraph int) Align {
	if paragraph < len(p.ParagraphAligns) {
		return p.ParagraphAligns[paragraph]
	}
	return p.TextAlign
}

// StyleChange 从 rune 下标 At 起切换字体和/或颜色；nil 表示沿用当前值。
type StyleChange struct {
	At    int
	Font  FontHandle
	Color *color.RGBA
}

// Input 汇总一次排版所需的全部输入。
type Input struct {
	Text     string
	Image    image.Image
	Font     FontHandle
	Provider FontProvider
	Width    int
	Params   Params
	Styles   []StyleChange
}
