package domain

import (
	"fmt"
	"time"
)

type Precision int

const (
	// PrecisionSeconds renders MM:SS.
	PrecisionSeconds Precision = iota
	// PrecisionCentiseconds renders MM:SS.ff.
	PrecisionCentiseconds
)

func (p Precision) String() string {
	switch p {
	case PrecisionCentiseconds:
		return "centiseconds"
	default:
		return "seconds"
	}
}

func ParsePrecision(s string) (Precision, error) {
	switch s {
	case "", "seconds":
		return PrecisionSeconds, nil
	case "centiseconds":
		return PrecisionCentiseconds, nil
	}
	return PrecisionSeconds, fmt.Errorf("unknown precision %q", s)
}

// FormatDuration renders d as MM:SS or MM:SS.ff. Hours are folded into the
// minutes field, which grows past two digits instead of wrapping, so an hour
// and a quarter reads "75:00". Negative durations render as zero.
func FormatDuration(d time.Duration, p Precision) string {
	if d < 0 {
		d = 0
	}

	minutes := int64(d / time.Minute)
	seconds := int64(d%time.Minute) / int64(time.Second)

	if p == PrecisionCentiseconds {
		centis := int64(d%time.Second) / int64(10*time.Millisecond)
		return fmt.Sprintf("%02d:%02d.%02d", minutes, seconds, centis)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
