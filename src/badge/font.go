package badge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/whitesource/wss-agent/src/fonts"
)

// FontMetrics holds measured glyph widths and the font bytes embedded in the SVG.
type FontMetrics struct {
	name     string
	size     float64
	data     []byte
	advances map[rune]float64 // printable ASCII only
	fallback float64
}

// TextWidth returns the pixel width of s.
func (m *FontMetrics) TextWidth(s string) float64 {
	var w float64
	for _, r := range s {
		adv, ok := m.advances[r]
		if !ok {
			adv = m.fallback
		}
		w += adv
	}
	return w
}

func (m *FontMetrics) FontData() []byte  { return m.data }
func (m *FontMetrics) FontName() string  { return m.name }
func (m *FontMetrics) FontSize() float64 { return m.size }

// LoadFont parses TTF/OTF data and measures glyph advances at size points.
func LoadFont(name string, data []byte, size float64) (*FontMetrics, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font %s: %w", name, err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72})
	if err != nil {
		return nil, fmt.Errorf("creating face for %s: %w", name, err)
	}
	defer face.Close()

	m := &FontMetrics{
		name:     name,
		size:     size,
		data:     data,
		advances: make(map[rune]float64, 95),
	}

	var total float64
	for r := rune(' '); r <= '~'; r++ {
		adv, ok := face.GlyphAdvance(r)
		if !ok {
			continue
		}
		px := fixedToFloat(adv)
		m.advances[r] = px
		total += px
	}
	if n := len(m.advances); n > 0 {
		m.fallback = total / float64(n)
	} else {
		m.fallback = size * 0.6
	}

	if family, err := f.Name(&sfnt.Buffer{}, sfnt.NameIDFamily); err == nil && family != "" {
		m.name = family
	}
	return m, nil
}

// LoadBuiltinFont loads one of the fonts package's fonts by config name.
func LoadBuiltinFont(name string, size float64) (*FontMetrics, error) {
	data, ok := fonts.Builtin[name]
	if !ok {
		return nil, fmt.Errorf("unknown built-in font %q (available: %v)", name, fonts.Names())
	}
	return LoadFont(name, data, size)
}

// LoadFontFile loads a TTF/OTF from disk.
func LoadFontFile(path string, size float64) (*FontMetrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading font file %s: %w", path, err)
	}
	return LoadFont(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), data, size)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
