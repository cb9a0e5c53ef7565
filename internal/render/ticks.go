package render

import (
	"fmt"
	"math"
)

// tickSteps are the ruler spacings, in seconds, the renderer may pick.
var tickSteps = []float64{
	0.01, 0.02, 0.05, 0.1, 0.2, 0.5,
	1, 2, 5, 10, 15, 30,
	60, 120, 300, 600, 900, 1800, 3600,
}

// ChooseTicks picks the smallest step whose on-screen spacing reaches
// targetPx, and the next smaller step for minor ticks (0 when none).
func ChooseTicks(pxPerSec, targetPx float64) (major, minor float64) {
	if pxPerSec <= 0 {
		return tickSteps[len(tickSteps)-1], 0
	}
	idx := len(tickSteps) - 1
	for i, s := range tickSteps {
		if s*pxPerSec >= targetPx {
			idx = i
			break
		}
	}
	major = tickSteps[idx]
	if idx > 0 {
		minor = tickSteps[idx-1]
		if minor*pxPerSec < 2 {
			minor = 0
		}
	}
	return major, minor
}

// FormatTime renders a ruler label with precision matching step.
func FormatTime(sec, step float64) string {
	if sec < 0 {
		sec = 0
	}
	m := int(sec) / 60
	s := sec - float64(m*60)
	switch {
	case step < 0.1:
		return fmt.Sprintf("%d:%05.2f", m, s)
	case step < 1:
		return fmt.Sprintf("%d:%04.1f", m, s)
	}
	return fmt.Sprintf("%d:%02d", m, int(math.Floor(s+1e-6)))
}
