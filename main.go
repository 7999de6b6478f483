package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ByLCY/multitext/dsl"
	"github.com/ByLCY/multitext/glyph"
	"github.com/ByLCY/multitext/layout"
	"github.com/ByLCY/multitext/logger"
	"github.com/ByLCY/multitext/renderer"
	canvasrenderer "github.com/ByLCY/multitext/renderer/canvas"
	"github.com/ByLCY/multitext/renderer/raster"
	"github.com/ByLCY/multitext/view"
)

type options struct {
	input, output, debug string
	data                 any
	block                string
	viewport, scroll     int
	frames               int
	interval             time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.input, "in", "examples/moscow.mtx", "DSL 文件路径")
	flag.StringVar(&opts.output, "out", "output/moscow.pdf", "输出路径，扩展名 .pdf 或 .png")
	flag.StringVar(&opts.debug, "debug", "", "排版调试 JSON 输出路径")
	dataJSON := flag.String("data", "", "绑定到 DSL 的 JSON 数据")
	flag.StringVar(&opts.block, "block", "", "视口与变色模式使用的文本块，默认第一个")
	flag.IntVar(&opts.viewport, "viewport", 0, "只输出高度为该值的滚动视口（PNG）")
	flag.IntVar(&opts.scroll, "scroll", 0, "视口向下滚动的像素数")
	flag.IntVar(&opts.frames, "hue", 0, "输出若干帧彩虹变色的 PNG")
	flag.DurationVar(&opts.interval, "interval", 50*time.Millisecond, "变色帧间隔")
	flag.Parse()

	if *dataJSON != "" {
		if err := json.Unmarshal([]byte(*dataJSON), &opts.data); err != nil {
			log.Fatalf("解析 data JSON 失败: %v", err)
		}
	}
	if err := run(opts); err != nil {
		log.Fatalf("生成失败: %v", err)
	}
	fmt.Printf("已生成：%s\n", opts.output)
}

// run 串联解析、排版与渲染。
func run(opts options) error {
	file, err := os.Open(opts.input)
	if err != nil {
		return fmt.Errorf("无法打开 DSL 文件 %s: %w", opts.input, err)
	}
	defer file.Close()

	doc, err := dsl.Parse(file)
	if err != nil {
		return fmt.Errorf("解析 DSL 失败: %w", err)
	}
	logger.Progress.Printf("已解析文档 %s %s", doc.Name, doc.Version)

	baseDir := filepath.Dir(opts.input)
	fp := glyph.NewProvider(nil)
	defer fp.Close()
	page, err := layout.Build(doc, opts.data, layout.BuildOptions{
		Provider: fp,
		Fonts:    glyph.NewLoader(baseDir),
		Images:   renderer.Assets{BaseDir: baseDir},
	})
	if err != nil {
		return fmt.Errorf("排版失败: %w", err)
	}
	logger.Progress.Printf("已排版 %d 个文本块，页面 %dx%d", len(page.Blocks), page.Width, page.Height)

	if opts.debug != "" {
		if err := writeDebug(page, opts.debug); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(opts.output), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	switch {
	case opts.viewport > 0:
		return renderViewport(page, opts)
	case opts.frames > 0:
		return renderHueFrames(page, fp, opts)
	}

	var r renderer.Renderer = canvasrenderer.NewRenderer(fp)
	if strings.EqualFold(filepath.Ext(opts.output), ".png") {
		r = &raster.Renderer{Provider: fp}
	}
	data, err := r.Render(page)
	var partial *renderer.PartialError
	switch {
	case errors.As(err, &partial):
		logger.Warning.Printf("输出文件 %s 缺少部分内容", opts.output)
	case err != nil:
		return fmt.Errorf("渲染失败: %w", err)
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	return nil
}

func pickBlock(page *layout.Page, name string) (layout.PlacedBlock, error) {
	for _, pb := range page.Blocks {
		if name == "" || pb.Name == name {
			return pb, nil
		}
	}
	if name == "" {
		return layout.PlacedBlock{}, fmt.Errorf("页面中没有文本块")
	}
	return layout.PlacedBlock{}, fmt.Errorf("未找到文本块 %s", name)
}

// renderViewport 只绘制滚动视口内可见的行。
func renderViewport(page *layout.Page, opts options) error {
	pb, err := pickBlock(page, opts.block)
	if err != nil {
		return err
	}
	sc := view.NewScroller(opts.viewport, pb.Block.Height())
	sc.Scroll(opts.scroll)
	logger.Progress.Printf("视口 %d 像素，滚动到 %d（可上滚 %v，可下滚 %v）",
		opts.viewport, sc.Pos(), sc.CanScrollUp(), sc.CanScrollDown())

	width := pb.Block.Snapshot().Width
	img := image.NewRGBA(image.Rect(0, 0, width, opts.viewport))
	s := raster.NewSurface(img)
	s.SetColor(page.Background)
	s.FillRect(img.Bounds())
	rep := view.DrawWindow(s, pb.Block, sc, 0, 0)
	if err := rep.Err(); err != nil {
		logger.Warning.Printf("文本块 %s 绘制不完整: %v", pb.Name, err)
	}
	return writePNG(opts.output, img)
}

// renderHueFrames 运行变色计时器，每次变色输出一帧。
func renderHueFrames(page *layout.Page, fp *glyph.Provider, opts options) error {
	pb, err := pickBlock(page, opts.block)
	if err != nil {
		return err
	}
	r := &raster.Renderer{Provider: fp}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	base := strings.TrimSuffix(opts.output, filepath.Ext(opts.output))
	var (
		frame   int
		lastErr error
	)
	cycler := &view.HueCycler{
		Block:    pb.Block,
		Interval: opts.interval,
		Step:     5,
		Redraw: func(c color.RGBA) {
			img, err := r.RenderImage(page)
			var partial *renderer.PartialError
			if errors.As(err, &partial) {
				err = nil
			}
			if err == nil {
				err = writePNG(fmt.Sprintf("%s_%03d.png", base, frame), img)
			}
			if err != nil {
				lastErr = err
				cancel()
				return
			}
			frame++
			if frame >= opts.frames {
				cancel()
			}
		},
	}
	if err := cycler.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	if lastErr != nil {
		return lastErr
	}
	logger.Progress.Printf("已输出 %d 帧", frame)
	return nil
}

func writePNG(path string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("编码 PNG 失败: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return nil
}

func writeDebug(page *layout.Page, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(page, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
