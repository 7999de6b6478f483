package renderer

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/ByLCY/multitext/layout"
	"github.com/ByLCY/multitext/logger"
)

// Renderer 将排好版的页面输出为最终文件，例如 PDF 或 PNG。
// Render 返回生成的二进制数据以及可能的错误；错误为 *PartialError 时数据仍然可用，
// 只是缺少绘制失败的部分。
type Renderer interface {
	Render(page *layout.Page) ([]byte, error)
}

// PartialError 表示页面已输出，但有文本块未能完整绘制。Err 汇总了各文本块的
// *layout.DrawError。
type PartialError struct {
	Err error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("页面绘制不完整: %v", e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }

// DrawPage 先铺满背景，再依次绘制页面上的文本块。单个 part 绘制失败不会中断绘制，
// 失败会记录为警告并汇总为 *PartialError 返回。
func DrawPage(s layout.Surface, fp layout.FontProvider, page *layout.Page) error {
	if page == nil {
		return fmt.Errorf("页面为空")
	}
	s.SetColor(page.Background)
	s.FillRect(image.Rect(0, 0, page.Width, page.Height))

	var errs []error
	for _, pb := range page.Blocks {
		var rep layout.DrawReport
		switch {
		case pb.Block != nil:
			rep = pb.Block.Draw(s, pb.X, pb.Y)
		case pb.Result != nil:
			rep = pb.Result.DrawAll(s, fp, pb.X, pb.Y, pb.Global)
		default:
			continue
		}
		if err := rep.Err(); err != nil {
			logger.Warning.Printf("文本块 %s 绘制不完整: %v", pb.Name, err)
			errs = append(errs, fmt.Errorf("block %s: %w", pb.Name, err))
		}
	}
	if len(errs) > 0 {
		return &PartialError{Err: errors.Join(errs...)}
	}
	return nil
}

// Assets 从磁盘读取插图，实现 layout.ImageLoader。相对路径以 BaseDir 为根。
type Assets struct {
	BaseDir string
}

var _ layout.ImageLoader = Assets{}

func (a Assets) LoadImage(res layout.ImageResource) (image.Image, error) {
	if res.Src == "" {
		return nil, fmt.Errorf("插图 %s 缺少 src", res.Name)
	}
	path := res.Src
	if !filepath.IsAbs(path) {
		if a.BaseDir == "" {
			return nil, fmt.Errorf("未指定资源目录时不允许直接使用相对路径：%s", res.Src)
		}
		path = filepath.Join(a.BaseDir, path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("读取图片 %s 失败: %w", res.Src, err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("解码图片 %s 失败: %w", res.Src, err)
	}
	return Scale(img, res.Width, res.Height), nil
}

// Scale 把 img 缩放到 w×h 像素。只给出一边时按比例计算另一边；两边都为 0 时原样返回。
func Scale(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || (w <= 0 && h <= 0) {
		return img
	}
	switch {
	case w <= 0:
		w = b.Dx() * h / b.Dy()
	case h <= 0:
		h = b.Dy() * w / b.Dx()
	}
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
