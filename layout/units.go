package layout

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// This file defines lengths as written in block descriptions and their
// conversion to device pixels.

// Unit is the unit a length was written in.
type Unit int

const (
	UnitNone Unit = iota // bare numbers, read as pixels
	UnitPX
	UnitPT
	UnitMM
	UnitCM
	UnitIN
)

// DefaultDPI is used when a document does not declare its own resolution.
const DefaultDPI = 96.0

// Conversion constants between pt, mm and inches.
const (
	PtPerInch = 72.0
	MmPerInch = 25.4
	PxToMm    = MmPerInch / DefaultDPI
)

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitPX:
		return "px"
	case UnitPT:
		return "pt"
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// Inches converts l to inches at the given resolution.
func (l Length) Inches(dpi float64) float64 {
	switch l.Unit {
	case UnitPT:
		return l.Value / PtPerInch
	case UnitMM:
		return l.Value / MmPerInch
	case UnitCM:
		return l.Value * 10 / MmPerInch
	case UnitIN:
		return l.Value
	default:
		return l.Value / dpi
	}
}

// ToPx converts l to whole device pixels, rounding to nearest.
func (l Length) ToPx(dpi float64) int {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	if l.Unit == UnitPX || l.Unit == UnitNone {
		return int(math.Round(l.Value))
	}
	return int(math.Round(l.Inches(dpi) * dpi))
}

// ParseLength parses strings like "12", "8px", "10.5pt" or "3mm".
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, fmt.Errorf("empty length")
	}
	unit := UnitNone
	num := v
	for _, suf := range []struct {
		s string
		u Unit
	}{{"px", UnitPX}, {"pt", UnitPT}, {"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, fmt.Errorf("invalid length %q: %w", value, err)
	}
	return Length{Value: f, Unit: unit}, nil
}
