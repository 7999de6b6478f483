package layout

import (
	"encoding/json"
	"os"
)

// debugPart 在 Part 的基础上附带其覆盖的文本，便于人工核对断行。
type debugPart struct {
	Part
	Content string `json:"content"`
	Font    string `json:"font,omitempty"`
}

type debugBlock struct {
	Name    string      `json:"name"`
	X       int         `json:"x"`
	Y       int         `json:"y"`
	Metrics Metrics     `json:"metrics"`
	ImageX  int         `json:"imageX"`
	ImageY  int         `json:"imageY"`
	Parts   []debugPart `json:"parts"`
}

// debugParts 返回带文本内容的 part 列表。
func (r *Result) debugParts() []debugPart {
	out := make([]debugPart, 0, len(r.Parts))
	for i, p := range r.Parts {
		dp := debugPart{Part: p, Content: r.Content(i)}
		if p.Font != nil {
			dp.Font = p.Font.String()
		}
		out = append(out, dp)
	}
	return out
}

// WriteDebugJSON 将页面上各文本块的排版结果输出为 JSON，便于调试或可视化。
func WriteDebugJSON(page *Page, path string) error {
	if page == nil {
		return nil
	}
	blocks := make([]debugBlock, 0, len(page.Blocks))
	for _, b := range page.Blocks {
		if b.Result == nil {
			continue
		}
		blocks = append(blocks, debugBlock{
			Name:    b.Name,
			X:       b.X,
			Y:       b.Y,
			Metrics: b.Result.Metrics,
			ImageX:  b.Result.ImageX,
			ImageY:  b.Result.ImageY,
			Parts:   b.Result.debugParts(),
		})
	}
	data, err := json.MarshalIndent(struct {
		Width  int          `json:"width"`
		Height int          `json:"height"`
		Blocks []debugBlock `json:"blocks"`
	}{page.Width, page.Height, blocks}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
