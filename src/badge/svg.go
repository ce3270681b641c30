package badge

import (
	"encoding/base64"
	"fmt"
	"html"
	"math"
	"strings"
)

const (
	badgeHeight = 20
	textPadding = 10
	labelColor  = "#555"
)

func (e *Engine) renderSVG(b Badge) string {
	lw := e.boxWidth(b.Label)
	vw := e.boxWidth(b.Value)
	width := lw + vw

	name := e.metrics.FontName()
	label := html.EscapeString(b.Label)
	value := html.EscapeString(b.Value)

	var s strings.Builder
	w := func(format string, args ...any) { fmt.Fprintf(&s, format, args...) }

	w(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" role="img" aria-label="%s: %s">`,
		width, badgeHeight, label, value)
	w(`<title>%s: %s</title>`, label, value)
	w(`<defs><style type="text/css">%s</style>`, fontFaceCSS(name, e.metrics.FontData()))
	w(`<linearGradient id="s" x2="0" y2="100%%"><stop offset="0" stop-color="#bbb" stop-opacity=".1"/><stop offset="1" stop-opacity=".1"/></linearGradient></defs>`)
	w(`<clipPath id="r"><rect width="%d" height="%d" rx="3" fill="#fff"/></clipPath>`, width, badgeHeight)
	w(`<g clip-path="url(#r)">`)
	w(`<rect width="%d" height="%d" fill="%s"/>`, lw, badgeHeight, labelColor)
	w(`<rect x="%d" width="%d" height="%d" fill="%s"/>`, lw, vw, badgeHeight, html.EscapeString(b.Color))
	w(`<rect width="%d" height="%d" fill="url(#s)"/>`, width, badgeHeight)
	w(`</g>`)
	w(`<g fill="#fff" text-anchor="middle" font-family="%s" font-size="%g">`,
		html.EscapeString(fmt.Sprintf("'%s',Verdana,Geneva,sans-serif", name)), e.metrics.FontSize())
	for _, t := range []struct {
		x    int
		text string
	}{{lw / 2, label}, {lw + vw/2, value}} {
		w(`<text x="%d" y="15" fill="#010101" fill-opacity=".3">%s</text>`, t.x, t.text)
		w(`<text x="%d" y="14">%s</text>`, t.x, t.text)
	}
	w(`</g></svg>`)
	return s.String()
}

func (e *Engine) boxWidth(text string) int {
	return int(math.Round(e.metrics.TextWidth(text))) + textPadding
}

// fontFaceCSS embeds the font as a base64 data URL.
func fontFaceCSS(name string, data []byte) string {
	mime, format := "ttf", "truetype"
	if len(data) >= 4 && string(data[:4]) == "OTTO" {
		mime, format = "otf", "opentype"
	}
	return fmt.Sprintf(`@font-face{font-family:'%s';src:url(data:font/%s;base64,%s) format('%s')}`,
		name, mime, base64.StdEncoding.EncodeToString(data), format)
}
