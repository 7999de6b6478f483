package glyph

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/inconsolata"

	"github.com/ByLCY/multitext/fonts"
	"github.com/ByLCY/multitext/layout"
)

var atlases = map[string]*basicfont.Face{
	"7x13":             basicfont.Face7x13,
	"inconsolata":      inconsolata.Regular8x16,
	"inconsolata-bold": inconsolata.Bold8x16,
}

// Loader implements layout.FontLoader. Sources are read as:
//
//	atlas:7x13            built-in bitmap font
//	embed:goregular       built-in outline font
//	path/to/font.ttf      file relative to BaseDir
//
// Equal resources yield the same handle, so providers can cache faces.
type Loader struct {
	BaseDir string

	mu      sync.Mutex
	data    map[string][]byte
	handles map[layout.FontResource]layout.FontHandle
}

func NewLoader(baseDir string) *Loader {
	return &Loader{
		BaseDir: baseDir,
		data:    map[string][]byte{},
		handles: map[layout.FontResource]layout.FontHandle{},
	}
}

func (l *Loader) LoadFont(res layout.FontResource) (layout.FontHandle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if h, ok := l.handles[res]; ok {
		return h, nil
	}
	src := res.Src
	if src == "" {
		src = "embed:goregular"
	}

	var h layout.FontHandle
	if name, ok := strings.CutPrefix(src, "atlas:"); ok {
		face, ok := atlases[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("glyph: unknown atlas %q", name)
		}
		h = &Atlas{Name: res.Name, Face: face}
	} else {
		data, err := l.read(src)
		if err != nil {
			return nil, err
		}
		dpi := res.DPI
		if dpi <= 0 {
			dpi = layout.DefaultDPI
		}
		o, err := NewOutline(res.Name, data, res.Size, dpi)
		if err != nil {
			return nil, err
		}
		h = o
	}
	l.handles[res] = h
	return h, nil
}

func (l *Loader) read(src string) ([]byte, error) {
	if data, ok := l.data[src]; ok {
		return data, nil
	}
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(src, "embed:") {
		data, err = fonts.Load(src)
	} else {
		path := src
		if !filepath.IsAbs(path) && l.BaseDir != "" {
			path = filepath.Join(l.BaseDir, path)
		}
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("glyph: read font %s: %w", src, err)
	}
	l.data[src] = data
	return data, nil
}

var _ layout.FontLoader = (*Loader)(nil)
