package layout

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/ByLCY/multitext/binding"
	"github.com/ByLCY/multitext/dsl"
)

const (
	defaultPageWidth = 240
	defaultBlockGap  = 4
	defaultFontSize  = 13.0
)

// FontResource 描述资源段中声明的一种字体。Size 以 pt 计，DPI 取自页面。
type FontResource struct {
	Name string
	Src  string
	Size float64
	DPI  float64
}

// ImageResource 描述资源段中声明的插图；Width/Height 非零时按像素缩放。
type ImageResource struct {
	Name   string
	Src    string
	Width  int
	Height int
}

// ResourceSet 汇总文档中声明的字体、插图与具名颜色。
type ResourceSet struct {
	Fonts  map[string]FontResource
	Images map[string]ImageResource
	Colors map[string]color.RGBA
	// DefaultFont 用于未写 font: 的 block：优先 Body，否则为第一个声明的字体。
	DefaultFont string
}

// FontLoader 把字体资源解析为 FontProvider 能识别的句柄。
type FontLoader interface {
	LoadFont(res FontResource) (FontHandle, error)
}

// ImageLoader 读取并解码插图资源。
type ImageLoader interface {
	LoadImage(res ImageResource) (image.Image, error)
}

// BuildOptions 汇总 Build 依赖的外部组件。
type BuildOptions struct {
	Provider FontProvider
	Fonts    FontLoader
	Images   ImageLoader
}

// Build 根据 DSL AST 创建文本块、完成排版，并把它们自上而下放置到页面上。
func Build(doc *dsl.Document, data any, opts BuildOptions) (*Page, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("layout: 缺少字体提供者 FontProvider")
	}
	if opts.Fonts == nil {
		return nil, fmt.Errorf("layout: 缺少字体加载器 FontLoader")
	}
	section := doc.FirstPage()
	if section == nil {
		return nil, fmt.Errorf("文档中缺少 page 段落")
	}
	if section.Block == nil {
		return nil, fmt.Errorf("page 段落缺少内容")
	}

	pc, err := resolvePageConfig(section)
	if err != nil {
		return nil, err
	}
	res, err := collectResources(doc, pc.dpi)
	if err != nil {
		return nil, err
	}
	if err := applyPageAssignments(section.Block, &pc, res); err != nil {
		return nil, err
	}

	page := &Page{
		Title:      doc.Name,
		Width:      pc.width,
		Height:     pc.height,
		DPI:        pc.dpi,
		Background: pc.background,
	}
	b := &blockBuilder{res: res, data: data, opts: opts, dpi: pc.dpi, fonts: map[string]FontHandle{}}
	y := pc.padding.Top
	for _, stmt := range section.Block.Statements {
		if stmt.Command == nil || stmt.Command.Name != "block" {
			continue
		}
		placed, err := b.build(stmt.Command, pc, y)
		if err != nil {
			return nil, err
		}
		page.Blocks = append(page.Blocks, placed)
		y = placed.Y + placed.Block.Height() + pc.gap
	}
	if pc.autoHeight {
		if len(page.Blocks) > 0 {
			y -= pc.gap
		}
		page.Height = y + pc.padding.Bottom
	}
	return page, nil
}

type pageConfig struct {
	width, height int
	autoHeight    bool
	dpi           float64
	background    color.RGBA
	gap           int
	padding       Margin
}

// resolvePageConfig 读取 `page <width> <height|auto> dpi <n>` 形式的参数。
func resolvePageConfig(section *dsl.PageSection) (pageConfig, error) {
	pc := pageConfig{
		width:      defaultPageWidth,
		autoHeight: true,
		dpi:        DefaultDPI,
		background: color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		gap:        defaultBlockGap,
	}
	positional, named := parseArgs(section.Params)
	if v, ok := named["dpi"]; ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return pc, fmt.Errorf("page dpi 无效：%s", v)
		}
		pc.dpi = f
	}
	if len(positional) > 0 {
		w, err := lengthPx(positional[0], pc.dpi)
		if err != nil || w <= 0 {
			return pc, fmt.Errorf("page 宽度无效：%s", positional[0])
		}
		pc.width = w
	}
	if len(positional) > 1 && positional[1] != "auto" {
		h, err := lengthPx(positional[1], pc.dpi)
		if err != nil || h <= 0 {
			return pc, fmt.Errorf("page 高度无效：%s", positional[1])
		}
		pc.height, pc.autoHeight = h, false
	}
	return pc, nil
}

func applyPageAssignments(block *dsl.Block, pc *pageConfig, res ResourceSet) error {
	for _, stmt := range block.Statements {
		a := stmt.Assignment
		if a == nil {
			continue
		}
		switch a.Key {
		case "background":
			c, err := resolveColor(a.Value.Text(), res)
			if err != nil {
				return err
			}
			pc.background = c
		case "gap":
			v, err := lengthPx(a.Value.Text(), pc.dpi)
			if err != nil {
				return fmt.Errorf("gap: %w", err)
			}
			pc.gap = v
		case "padding":
			m, err := resolveMargin(a.Value.List(), pc.dpi)
			if err != nil {
				return fmt.Errorf("padding: %w", err)
			}
			pc.padding = m
		}
	}
	return nil
}

func collectResources(doc *dsl.Document, dpi float64) (ResourceSet, error) {
	res := ResourceSet{
		Fonts:  map[string]FontResource{},
		Images: map[string]ImageResource{},
		Colors: map[string]color.RGBA{},
	}
	for _, stmt := range doc.Resources() {
		if stmt.Command == nil {
			continue
		}
		switch stmt.Command.Name {
		case "font":
			font, err := parseFontResource(stmt.Command, dpi)
			if err != nil {
				return res, err
			}
			if font.Name != "" {
				res.Fonts[font.Name] = font
				if res.DefaultFont == "" || font.Name == "Body" {
					res.DefaultFont = font.Name
				}
			}
		case "image":
			img, err := parseImageResource(stmt.Command, dpi)
			if err != nil {
				return res, err
			}
			if img.Name != "" {
				res.Images[img.Name] = img
			}
		case "color":
			name, value := parseColorResource(stmt.Command)
			if name == "" || value == "" {
				continue
			}
			c, err := parseColor(value)
			if err != nil {
				return res, err
			}
			res.Colors[name] = c
		}
	}
	if len(res.Fonts) == 0 {
		res.Fonts["Body"] = FontResource{Name: "Body", Src: "embed:goregular", Size: defaultFontSize, DPI: dpi}
		res.DefaultFont = "Body"
	}
	return res, nil
}

func parseFontResource(cmd *dsl.Command, dpi float64) (FontResource, error) {
	if len(cmd.Args) == 0 {
		return FontResource{}, nil
	}
	font := FontResource{Name: cmd.Args[0].Value, Size: defaultFontSize, DPI: dpi}
	if cmd.Block == nil {
		return font, nil
	}
	for _, stmt := range cmd.Block.Statements {
		if stmt.Assignment == nil {
			continue
		}
		switch stmt.Assignment.Key {
		case "src":
			font.Src = stmt.Assignment.Value.Text()
		case "size":
			l, err := ParseLength(stmt.Assignment.Value.Text())
			if err != nil {
				return font, fmt.Errorf("字体 %s 字号无效: %w", font.Name, err)
			}
			// 字号按 pt 计，不带单位时同样视为 pt
			if l.Unit == UnitNone || l.Unit == UnitPT {
				font.Size = l.Value
			} else {
				font.Size = l.Inches(dpi) * PtPerInch
			}
		}
	}
	return font, nil
}

func parseImageResource(cmd *dsl.Command, dpi float64) (ImageResource, error) {
	if len(cmd.Args) == 0 {
		return ImageResource{}, nil
	}
	img := ImageResource{Name: cmd.Args[0].Value}
	if cmd.Block == nil {
		return img, nil
	}
	for _, stmt := range cmd.Block.Statements {
		if stmt.Assignment == nil {
			continue
		}
		var err error
		switch stmt.Assignment.Key {
		case "src":
			img.Src = stmt.Assignment.Value.Text()
		case "width":
			img.Width, err = lengthPx(stmt.Assignment.Value.Text(), dpi)
		case "height":
			img.Height, err = lengthPx(stmt.Assignment.Value.Text(), dpi)
		}
		if err != nil {
			return img, fmt.Errorf("插图 %s: %w", img.Name, err)
		}
	}
	return img, nil
}

func parseColorResource(cmd *dsl.Command) (string, string) {
	if len(cmd.Args) == 0 {
		return "", ""
	}
	name := cmd.Args[0].Value
	value := ""
	if len(cmd.Args) > 1 {
		value = cmd.Args[len(cmd.Args)-1].Value
	}
	return name, value
}

// blockBuilder 负责把一条 block 命令转换为排好版的 Block。
type blockBuilder struct {
	res   ResourceSet
	data  any
	opts  BuildOptions
	dpi   float64
	fonts map[string]FontHandle
}

func (bb *blockBuilder) build(cmd *dsl.Command, pc pageConfig, y int) (PlacedBlock, error) {
	name := "block"
	if len(cmd.Args) > 0 {
		name = cmd.Args[0].Value
	}
	fail := func(err error) (PlacedBlock, error) {
		return PlacedBlock{}, fmt.Errorf("block %s: %w", name, err)
	}
	if cmd.Block == nil {
		return fail(fmt.Errorf("缺少内容"))
	}

	params := DefaultParams()
	fontName := bb.res.DefaultFont
	var (
		imageName string
		width     int
		x         = pc.padding.Left
		global    *color.RGBA
		styles    []StyleChange
		text      strings.Builder
	)

	for _, stmt := range cmd.Block.Statements {
		switch {
		case stmt.Text != nil:
			text.WriteString(string(stmt.Text.Value))
		case stmt.Command != nil && stmt.Command.Name == "style":
			st, err := bb.parseStyle(stmt.Command)
			if err != nil {
				return fail(err)
			}
			styles = append(styles, st)
		case stmt.Assignment != nil:
			a := stmt.Assignment
			val := a.Value.Text()
			var err error
			switch a.Key {
			case "font":
				fontName = val
			case "color":
				params.TextColor, err = resolveColor(val, bb.res)
			case "global":
				var c color.RGBA
				c, err = resolveColor(val, bb.res)
				global = &c
			case "wrap":
				params.Wrap, err = parseWrap(val)
			case "align":
				params.TextAlign, err = parseAlign(val)
			case "paragraph-align":
				params.ParagraphAligns = params.ParagraphAligns[:0]
				for _, item := range a.Value.List() {
					var al Align
					if al, err = parseAlign(item); err != nil {
						break
					}
					params.ParagraphAligns = append(params.ParagraphAligns, al)
				}
			case "image":
				imageName = val
			case "image-align":
				params.ImageAlign, err = parseAlign(val)
			case "image-margin":
				var vals []int
				if vals, err = lengthList(a.Value.List(), bb.dpi); err == nil && len(vals) > 0 {
					params.ImageHMargin, params.ImageVMargin = vals[0], vals[0]
					if len(vals) > 1 {
						params.ImageVMargin = vals[1]
					}
				}
			case "margin":
				params.Margin, err = resolveMargin(a.Value.List(), bb.dpi)
			case "indent":
				params.ParagraphIndent, err = lengthPx(val, bb.dpi)
			case "edit":
				params.EditMode, err = strconv.ParseBool(val)
			case "cursor":
				params.CursorPos, err = strconv.Atoi(val)
			case "cursor-width":
				params.CursorWidth, err = lengthPx(val, bb.dpi)
			case "width":
				width, err = lengthPx(val, bb.dpi)
			case "x":
				x, err = lengthPx(val, bb.dpi)
			}
			if err != nil {
				return fail(fmt.Errorf("%s: %w", a.Key, err))
			}
		}
	}

	font, err := bb.font(fontName)
	if err != nil {
		return fail(err)
	}
	var img image.Image
	if imageName != "" {
		if img, err = bb.image(imageName); err != nil {
			return fail(err)
		}
	}
	if width <= 0 {
		width = pc.width - x - pc.padding.Right
	}

	content := binding.Interpolate(text.String(), bb.data)
	block := NewBlock(bb.opts.Provider, font, content, img)
	if err := block.SetParams(params); err != nil {
		return fail(err)
	}
	if err := block.SetStyles(styles); err != nil {
		return fail(err)
	}
	if global != nil {
		block.SetGlobalColor(*global)
	} else {
		block.SetGlobalColor(params.TextColor)
	}
	if err := block.SetWidth(width); err != nil {
		return fail(err)
	}
	return PlacedBlock{
		Name:   name,
		X:      x,
		Y:      y,
		Global: block.GlobalColor(),
		Result: block.Snapshot(),
		Block:  block,
	}, nil
}

// parseStyle 解析 `style <rune 下标> { font: X; color: Y }`。
func (bb *blockBuilder) parseStyle(cmd *dsl.Command) (StyleChange, error) {
	if len(cmd.Args) == 0 {
		return StyleChange{}, fmt.Errorf("style 缺少起始位置")
	}
	at, err := strconv.Atoi(cmd.Args[0].Value)
	if err != nil || at < 0 {
		return StyleChange{}, fmt.Errorf("style 起始位置无效：%s", cmd.Args[0].Value)
	}
	st := StyleChange{At: at}
	if cmd.Block == nil {
		return st, nil
	}
	for _, stmt := range cmd.Block.Statements {
		if stmt.Assignment == nil {
			continue
		}
		switch stmt.Assignment.Key {
		case "font":
			h, err := bb.font(stmt.Assignment.Value.Text())
			if err != nil {
				return st, err
			}
			st.Font = h
		case "color":
			c, err := resolveColor(stmt.Assignment.Value.Text(), bb.res)
			if err != nil {
				return st, err
			}
			st.Color = &c
		}
	}
	return st, nil
}

func (bb *blockBuilder) font(name string) (FontHandle, error) {
	if h, ok := bb.fonts[name]; ok {
		return h, nil
	}
	fr, ok := bb.res.Fonts[name]
	if !ok {
		return nil, fmt.Errorf("未找到字体资源：%s", name)
	}
	h, err := bb.opts.Fonts.LoadFont(fr)
	if err != nil {
		return nil, fmt.Errorf("加载字体 %s 失败: %w", name, err)
	}
	bb.fonts[name] = h
	return h, nil
}

func (bb *blockBuilder) image(name string) (image.Image, error) {
	ir, ok := bb.res.Images[name]
	if !ok {
		return nil, fmt.Errorf("未找到插图资源：%s", name)
	}
	if bb.opts.Images == nil {
		return nil, fmt.Errorf("layout: 缺少插图加载器 ImageLoader")
	}
	img, err := bb.opts.Images.LoadImage(ir)
	if err != nil {
		return nil, fmt.Errorf("加载插图 %s 失败: %w", name, err)
	}
	return img, nil
}

// parseArgs 把参数拆成位置参数与 key value 对；数字或 auto 作为位置参数。
func parseArgs(args []*dsl.Lexeme) ([]string, map[string]string) {
	var positional []string
	named := map[string]string{}
	for i := 0; i < len(args); i++ {
		tok := args[i]
		if tok.Type == "Ident" && tok.Value != "auto" && i+1 < len(args) {
			named[tok.Value] = args[i+1].Value
			i++
			continue
		}
		positional = append(positional, tok.Value)
	}
	return positional, named
}

func parseWrap(v string) (WrapMode, error) {
	switch strings.ToLower(v) {
	case "none", "nowrap":
		return WrapNone, nil
	case "word", "words":
		return WrapWords, nil
	case "syllable", "syllables":
		return WrapSyllables, nil
	default:
		return WrapNone, fmt.Errorf("未知的折行方式：%s", v)
	}
}

func parseAlign(v string) (Align, error) {
	switch strings.ToLower(v) {
	case "left":
		return AlignLeft, nil
	case "center":
		return AlignCenter, nil
	case "right":
		return AlignRight, nil
	default:
		return AlignLeft, fmt.Errorf("未知的对齐方式：%s", v)
	}
}

func lengthPx(v string, dpi float64) (int, error) {
	l, err := ParseLength(v)
	if err != nil {
		return 0, err
	}
	return l.ToPx(dpi), nil
}

func lengthList(values []string, dpi float64) ([]int, error) {
	out := make([]int, 0, len(values))
	for _, v := range values {
		px, err := lengthPx(v, dpi)
		if err != nil {
			return nil, err
		}
		out = append(out, px)
	}
	return out, nil
}

// resolveMargin 按 CSS 的顺序解析 1~4 个值：上、右、下、左。
func resolveMargin(values []string, dpi float64) (Margin, error) {
	vals, err := lengthList(values, dpi)
	if err != nil {
		return Margin{}, err
	}
	switch len(vals) {
	case 0:
		return Margin{}, fmt.Errorf("缺少边距值")
	case 1:
		v := vals[0]
		return Margin{Top: v, Right: v, Bottom: v, Left: v}, nil
	case 2:
		return Margin{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}, nil
	case 3:
		return Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[1]}, nil
	default:
		return Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}, nil
	}
}

func resolveColor(value string, res ResourceSet) (color.RGBA, error) {
	if c, ok := res.Colors[value]; ok {
		return c, nil
	}
	return parseColor(value)
}

// parseColor 支持 #rgb、#rrggbb 与 #rrggbbaa。
func parseColor(value string) (color.RGBA, error) {
	hex := strings.TrimPrefix(value, "#")
	if hex == value {
		return color.RGBA{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
	}
	nc := color.NRGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}
	return color.RGBAModel.Convert(nc).(color.RGBA), nil
}
