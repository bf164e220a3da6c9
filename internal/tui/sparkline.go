package tui

import (
	"math"
	"strings"
)

// levels covers eighth-block heights from lowest to full.
var levels = []rune("▁▂▃▄▅▆▇█")

// renderSparkline draws values as a fixed-width sparkline scaled against
// limit. Missing leading samples render as '─' so the line always fills the
// width and scrolls left as history accumulates.
func renderSparkline(values []float64, width int, limit float64) string {
	if width <= 0 {
		return ""
	}
	if len(values) == 0 || limit <= 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	var b strings.Builder
	for i := len(values); i < width; i++ {
		b.WriteRune('─')
	}
	for _, v := range values {
		idx := int(math.Round(v / limit * float64(len(levels)-1)))
		if idx < 0 {
			idx = 0
		} else if idx >= len(levels) {
			idx = len(levels) - 1
		}
		b.WriteRune(levels[idx])
	}
	return b.String()
}
