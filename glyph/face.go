// Package glyph resolves font handles to x/image faces and draws their
// glyphs onto layout surfaces.
//
// Two kinds of fonts are supported: scalable outlines parsed from TrueType or
// OpenType data, and fixed-cell bitmap atlases.
package glyph

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// Outline is a scalable font at a fixed size. Handles are compared by
// pointer, so one *Outline stands for one face.
type Outline struct {
	Name string
	Size float64
	DPI  float64

	font *opentype.Font
}

// NewOutline parses TrueType/OpenType data.
func NewOutline(name string, data []byte, size, dpi float64) (*Outline, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("glyph: parse %s: %w", name, err)
	}
	return &Outline{Name: name, Size: size, DPI: dpi, font: f}, nil
}

func (o *Outline) String() string {
	return fmt.Sprintf("%s@%gpt", o.Name, o.Size)
}

func (o *Outline) newFace() (font.Face, error) {
	return opentype.NewFace(o.font, &opentype.FaceOptions{
		Size:    o.Size,
		DPI:     o.DPI,
		Hinting: font.HintingFull,
	})
}

// Atlas is a bitmap font whose glyphs are cut from a single mask image.
type Atlas struct {
	Name string
	Face *basicfont.Face
}

func (a *Atlas) String() string {
	return a.Name
}
