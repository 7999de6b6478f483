package layout

import (
	"math"
	"testing"
)

// TestLengthToPx 覆盖常见单位在 96dpi 与 72dpi 下换算为像素的结果。
func TestLengthToPx(t *testing.T) {
	cases := []struct {
		in   Length
		dpi  float64
		want int
	}{
		{Length{Value: 12, Unit: UnitNone}, 96, 12},
		{Length{Value: 12.6, Unit: UnitPX}, 96, 13},
		{Length{Value: 72, Unit: UnitPT}, 96, 96},
		{Length{Value: 72, Unit: UnitPT}, 72, 72},
		{Length{Value: 25.4, Unit: UnitMM}, 96, 96},
		{Length{Value: 2.54, Unit: UnitCM}, 96, 96},
		{Length{Value: 1, Unit: UnitIN}, 0, 96},
	}
	for _, c := range cases {
		if got := c.in.ToPx(c.dpi); got != c.want {
			t.Fatalf("%g%s@%gdpi 期望 %dpx，实际 %d", c.in.Value, UnitToString(c.in.Unit), c.dpi, c.want, got)
		}
	}
}

// TestParseLength 验证带单位与不带单位的长度解析，以及非法输入报错。
func TestParseLength(t *testing.T) {
	l, err := ParseLength(" 10.5pt ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Unit != UnitPT || math.Abs(l.Value-10.5) > 1e-9 {
		t.Fatalf("10.5pt 解析错误: %#v", l)
	}
	l, err = ParseLength("8")
	if err != nil || l.Unit != UnitNone || l.Value != 8 {
		t.Fatalf("8 解析错误: %#v err=%v", l, err)
	}
	if _, err := ParseLength("wide"); err == nil {
		t.Fatalf("非法长度应当报错")
	}
	if _, err := ParseLength(""); err == nil {
		t.Fatalf("空长度应当报错")
	}
}
