package layout

import (
	"encoding/json"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ByLCY/multitext/dsl"
)

type stubLoader struct {
	loaded []FontResource
}

func (l *stubLoader) LoadFont(res FontResource) (FontHandle, error) {
	l.loaded = append(l.loaded, res)
	return stubFont(res.Name), nil
}

const builderDSL = `doc Sample v1 {
  resources {
    font Body { src: "embed:goregular" }
    font Big { src: "embed:gobold"; size: 20 }
  }
  page 100px auto {
    padding: [2 4]
    gap: 3px
    block a {
      margin: 0
      wrap: words
      color: #102030
      "Hi ${name}"
    }
    block b {
      margin: [0]
      x: 10
      width: 50
      align: right
      wrap: words
      style 1 { font: Big }
      "abc"
    }
  }
}`

func buildPage(t *testing.T, src string, data any) (*Page, *stubLoader) {
	t.Helper()
	doc, err := dsl.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	fp := newStub(10, 10)
	fp.heights = map[FontHandle]int{stubFont("Big"): 20}
	loader := &stubLoader{}
	page, err := Build(doc, data, BuildOptions{Provider: fp, Fonts: loader})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	return page, loader
}

func TestBuildStacksBlocks(t *testing.T) {
	page, loader := buildPage(t, builderDSL, map[string]any{"name": "Ann"})
	if page.Title != "Sample" || page.Width != 100 || page.DPI != DefaultDPI {
		t.Fatalf("页面参数不符: %+v", page)
	}
	if len(page.Blocks) != 2 {
		t.Fatalf("期望 2 个文本块，实际 %d", len(page.Blocks))
	}

	a := page.Blocks[0]
	if a.Name != "a" || a.X != 4 || a.Y != 2 || a.Result.Width != 92 {
		t.Fatalf("块 a 位置不符: x=%d y=%d w=%d", a.X, a.Y, a.Result.Width)
	}
	if len(a.Result.Parts) != 1 || a.Result.Content(0) != "Hi Ann" {
		t.Fatalf("块 a 文本应完成插值: %+v", a.Result.Parts)
	}
	ink := color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}
	if a.Result.TextColor != ink || a.Global != ink {
		t.Fatalf("块 a 颜色不符: %v %v", a.Result.TextColor, a.Global)
	}

	b := page.Blocks[1]
	if b.X != 10 || b.Y != 15 || b.Result.Width != 50 {
		t.Fatalf("块 b 应放在块 a 之下并留出间距: x=%d y=%d w=%d", b.X, b.Y, b.Result.Width)
	}
	parts := b.Result.Parts
	if len(parts) != 2 || parts[0].X != 20 || parts[1].X != 30 || parts[1].Font != stubFont("Big") {
		t.Fatalf("块 b 应右对齐并在下标 1 处切换字体: %+v", parts)
	}
	if b.Result.Metrics.Height != 20 {
		t.Fatalf("块 b 高度应为 20，实际 %d", b.Result.Metrics.Height)
	}
	if page.Height != 37 {
		t.Fatalf("自动页面高度期望 37，实际 %d", page.Height)
	}

	// 同名字体只加载一次
	if len(loader.loaded) != 2 || loader.loaded[1].Size != 20 {
		t.Fatalf("字体加载记录不符: %+v", loader.loaded)
	}
}

func TestBuildInterpolationFallback(t *testing.T) {
	src := strings.Replace(builderDSL, "${name}", "${user.name ?? guest}", 1)
	page, _ := buildPage(t, src, nil)
	if got := page.Blocks[0].Result.Content(0); got != "Hi guest" {
		t.Fatalf("缺失字段应使用默认值，实际 %q", got)
	}
}

func TestBuildReportsUnknownFont(t *testing.T) {
	src := strings.Replace(builderDSL, "font: Big", "font: Missing", 1)
	doc, err := dsl.ParseString(src)
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	_, err = Build(doc, nil, BuildOptions{Provider: newStub(10, 10), Fonts: &stubLoader{}})
	if err == nil || !strings.Contains(err.Error(), "Missing") || !strings.Contains(err.Error(), "block b") {
		t.Fatalf("未知字体应报错并指明文本块，实际 %v", err)
	}
}

func TestBuildDefaultFont(t *testing.T) {
	cases := []struct {
		fonts string
		want  FontHandle
	}{
		{`font Mono { src: "atlas:7x13" }`, stubFont("Mono")},
		{`font Mono { src: "atlas:7x13" }; font Body { src: "embed:goregular" }`, stubFont("Body")},
		{``, stubFont("Body")},
	}
	for _, c := range cases {
		src := `doc T v1 {
  resources { ` + c.fonts + ` }
  page { block a { "x" } }
}`
		page, _ := buildPage(t, src, nil)
		if got := page.Blocks[0].Result.Parts[0].Font; got != c.want {
			t.Fatalf("%q: 未指定 font 的块应使用 %v，实际 %v", c.fonts, c.want, got)
		}
	}
}

func TestBuildRequiresImageLoader(t *testing.T) {
	src := `doc T v1 {
  resources { image city { src: "city.png" } }
  page { block a { image: city; "x" } }
}`
	doc, err := dsl.ParseString(src)
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	if _, err := Build(doc, nil, BuildOptions{Provider: newStub(10, 10), Fonts: &stubLoader{}}); err == nil {
		t.Fatalf("缺少插图加载器时应报错")
	}
}

func TestParseColor(t *testing.T) {
	cases := map[string]color.RGBA{
		"#fff":      {0xff, 0xff, 0xff, 0xff},
		"#102030":   {0x10, 0x20, 0x30, 0xff},
		"#ff000080": {0x80, 0, 0, 0x80},
	}
	for in, want := range cases {
		got, err := parseColor(in)
		if err != nil || got != want {
			t.Fatalf("%s 期望 %v，实际 %v (%v)", in, want, got, err)
		}
	}
	for _, bad := range []string{"red", "#12", "#zzzzzz"} {
		if _, err := parseColor(bad); err == nil {
			t.Fatalf("%s 应解析失败", bad)
		}
	}
}

func TestResolveMargin(t *testing.T) {
	cases := []struct {
		in   []string
		want Margin
	}{
		{[]string{"4"}, Margin{Left: 4, Right: 4, Top: 4, Bottom: 4}},
		{[]string{"1", "2"}, Margin{Top: 1, Right: 2, Bottom: 1, Left: 2}},
		{[]string{"1", "2", "3"}, Margin{Top: 1, Right: 2, Bottom: 3, Left: 2}},
		{[]string{"1", "2", "3", "4"}, Margin{Top: 1, Right: 2, Bottom: 3, Left: 4}},
		{[]string{"72pt"}, Margin{Left: 96, Right: 96, Top: 96, Bottom: 96}},
	}
	for _, c := range cases {
		got, err := resolveMargin(c.in, DefaultDPI)
		if err != nil || got != c.want {
			t.Fatalf("%v 期望 %+v，实际 %+v (%v)", c.in, c.want, got, err)
		}
	}
	if _, err := resolveMargin(nil, DefaultDPI); err == nil {
		t.Fatalf("空边距应报错")
	}
}

func TestWriteDebugJSON(t *testing.T) {
	page, _ := buildPage(t, builderDSL, map[string]any{"name": "Ann"})
	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteDebugJSON(page, path); err != nil {
		t.Fatalf("写出调试 JSON 失败: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取调试 JSON 失败: %v", err)
	}
	var out struct {
		Height int `json:"height"`
		Blocks []struct {
			Name  string `json:"name"`
			Parts []struct {
				Content string `json:"content"`
				Font    string `json:"font"`
			} `json:"parts"`
		} `json:"blocks"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("调试 JSON 无法解析: %v", err)
	}
	if out.Height != 37 || len(out.Blocks) != 2 || out.Blocks[1].Parts[1].Content != "bc" || out.Blocks[1].Parts[1].Font != "Big" {
		t.Fatalf("调试 JSON 内容不符: %s", data)
	}
}
