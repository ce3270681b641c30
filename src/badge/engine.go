// Package badge renders flat SVG status badges with measured text widths.
package badge

// DefaultFontSize is the point size badges are measured at.
const DefaultFontSize = 11

// Engine renders badges with one font.
type Engine struct {
	metrics *FontMetrics
}

// New creates an Engine using metrics.
func New(metrics *FontMetrics) *Engine {
	return &Engine{metrics: metrics}
}

// NewDefault creates an Engine with the default built-in font.
func NewDefault() (*Engine, error) {
	m, err := LoadBuiltinFont("go-regular", DefaultFontSize)
	if err != nil {
		return nil, err
	}
	return New(m), nil
}

// Badge is the content of one badge.
type Badge struct {
	Label string
	Value string
	Color string // right side, e.g. "#4c1"
}

// Generate returns the SVG document for b.
func (e *Engine) Generate(b Badge) string {
	return e.renderSVG(b)
}

// Policy statuses understood by StatusColor.
const (
	StatusPassing  = "passing"
	StatusRejected = "rejected"
	StatusUnknown  = "unknown"
)

// StatusColor maps a policy status to a badge color.
func StatusColor(status string) string {
	switch status {
	case StatusPassing:
		return "#4c1"
	case StatusRejected:
		return "#e05d44"
	default:
		return "#9f9f9f"
	}
}
