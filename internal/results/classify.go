// Package results renders a prediction as an animated results panel: eased
// counters for each score, delayed bar fills and a colour-coded impact label.
package results

import (
	"math"

	"github.com/charmbracelet/lipgloss"
)

// Level is the direction and strength of the AI impact.
type Level int

const (
	LevelStrongPositive Level = iota
	LevelMildPositive
	LevelMildNegative
	LevelStrongNegative
)

// Impact colours.
var (
	ColorPositiveStrong = lipgloss.Color("#22c55e")
	ColorPositiveMild   = lipgloss.Color("#6366f1")
	ColorNegativeMild   = lipgloss.Color("#f59e0b")
	ColorNegativeStrong = lipgloss.Color("#ef4444")
)

// Impact is the classification of a signed impact value.
type Impact struct {
	Level   Level
	Label   string // short label, e.g. "slightly helps"
	Icon    string
	Message string // sentence shown under the impact counter
	Color   lipgloss.Color
}

// Text is the icon followed by the message.
func (i Impact) Text() string {
	return i.Icon + " " + i.Message
}

// Positive reports whether the impact helps the score.
func (i Impact) Positive() bool {
	return i.Level == LevelStrongPositive || i.Level == LevelMildPositive
}

var impactLevels = [...]Impact{
	LevelStrongPositive: {
		Level:   LevelStrongPositive,
		Label:   "significantly boosts",
		Icon:    "🚀",
		Message: "AI significantly boosts score",
		Color:   ColorPositiveStrong,
	},
	LevelMildPositive: {
		Level:   LevelMildPositive,
		Label:   "slightly helps",
		Icon:    "📈",
		Message: "AI slightly helps",
		Color:   ColorPositiveMild,
	},
	LevelMildNegative: {
		Level:   LevelMildNegative,
		Label:   "slightly hurts",
		Icon:    "⚠️",
		Message: "AI slightly hurts score",
		Color:   ColorNegativeMild,
	},
	LevelStrongNegative: {
		Level:   LevelStrongNegative,
		Label:   "significantly hurts",
		Icon:    "📉",
		Message: "AI significantly hurts score",
		Color:   ColorNegativeStrong,
	},
}

// ClassifyImpact buckets impact with strict comparisons, first match wins:
// above 5, above 0, above -5, everything else. A boundary value belongs to
// the bucket below it, and NaN fails every comparison.
func ClassifyImpact(impact float64) Impact {
	switch {
	case impact > 5:
		return impactLevels[LevelStrongPositive]
	case impact > 0:
		return impactLevels[LevelMildPositive]
	case impact > -5:
		return impactLevels[LevelMildNegative]
	default:
		return impactLevels[LevelStrongNegative]
	}
}

// DefaultMaxScore is the full width of a score bar.
const DefaultMaxScore = 100.0

// DefaultImpactCap is the impact magnitude that fills the impact bar.
const DefaultImpactCap = 30.0

// ProgressWidth returns the bar width in percent for value on a 0..max scale.
// value is clamped into [0, max] first; a value that is not a number yields 0.
func ProgressWidth(value, max float64) float64 {
	if max <= 0 || math.IsNaN(max) || math.IsNaN(value) {
		return 0
	}
	value = math.Min(math.Max(value, 0), max)
	return value / max * 100
}

// ImpactBar returns the fill percentage and direction of the impact bar.
// The magnitude saturates at limit; zero counts as positive.
func ImpactBar(impact, limit float64) (percent float64, positive bool) {
	if limit <= 0 || math.IsNaN(limit) {
		limit = DefaultImpactCap
	}
	if math.IsNaN(impact) {
		return 0, true
	}
	magnitude := math.Min(math.Abs(impact), limit)
	return magnitude / limit * 100, impact >= 0
}

// ImpactPrefix is "+" for non-negative impacts so the sign is always shown.
func ImpactPrefix(impact float64) string {
	if impact >= 0 {
		return "+"
	}
	return ""
}
