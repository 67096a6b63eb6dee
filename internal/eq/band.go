// Package eq owns the equalizer band model and the debounced path that
// pushes gain changes to the DSP backend.
package eq

import "fmt"

// Gain bounds enforced on every slider update.
const (
	MinGain = 0.0
	MaxGain = 2.0
)

// Band is a frequency interval with a gain multiplier.
type Band struct {
	Low  float64 `json:"low"`  // Hz, inclusive
	High float64 `json:"high"` // Hz, exclusive
	Gain float64 `json:"gain"` // multiplier in [MinGain, MaxGain]
}

// Validate checks the band interval invariant.
func (b Band) Validate() error {
	if b.Low < 0 || b.Low >= b.High {
		return fmt.Errorf("invalid band range [%g, %g): need 0 <= low < high", b.Low, b.High)
	}
	if b.Gain < 0 {
		return fmt.Errorf("invalid gain %g: must be >= 0", b.Gain)
	}
	return nil
}

// ClampGain folds a slider value into the allowed gain range.
func ClampGain(g float64) float64 {
	if g < MinGain {
		return MinGain
	}
	if g > MaxGain {
		return MaxGain
	}
	return g
}

// Mode selects the band layout. Generic mode carries a user-defined,
// persisted band list; the other modes use fixed frequency tables and only
// their gains are adjustable.
type Mode string

const (
	ModeGeneric Mode = "generic"
	ModeMusic   Mode = "music"
	ModeAnimal  Mode = "animal"
	ModeHuman   Mode = "human"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeGeneric, ModeMusic, ModeAnimal, ModeHuman:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown equalizer mode %q", s)
}

// DefaultBands returns the generic-mode factory layout: four equal-width
// bands spanning 0-24 kHz at unity gain.
func DefaultBands() []Band {
	return []Band{
		{Low: 0, High: 5000, Gain: 1},
		{Low: 5000, High: 10000, Gain: 1},
		{Low: 10000, High: 15000, Gain: 1},
		{Low: 15000, High: 24000, Gain: 1},
	}
}

// PresetBands returns the fixed table for a non-generic mode at unity gain.
// Generic mode has no fixed table; callers use the persisted list instead.
func PresetBands(m Mode) []Band {
	switch m {
	case ModeMusic:
		// Sub bass through brilliance, octave-ish splits.
		return []Band{
			{Low: 0, High: 64, Gain: 1},
			{Low: 64, High: 250, Gain: 1},
			{Low: 250, High: 1000, Gain: 1},
			{Low: 1000, High: 4000, Gain: 1},
			{Low: 4000, High: 16000, Gain: 1},
			{Low: 16000, High: 24000, Gain: 1},
		}
	case ModeAnimal:
		// Coarse splits around common animal vocalization ranges.
		return []Band{
			{Low: 0, High: 500, Gain: 1},
			{Low: 500, High: 2000, Gain: 1},
			{Low: 2000, High: 8000, Gain: 1},
			{Low: 8000, High: 24000, Gain: 1},
		}
	case ModeHuman:
		// Voice fundamentals, the telephone band, sibilance, air.
		return []Band{
			{Low: 0, High: 300, Gain: 1},
			{Low: 300, High: 3400, Gain: 1},
			{Low: 3400, High: 8000, Gain: 1},
			{Low: 8000, High: 24000, Gain: 1},
		}
	default:
		return DefaultBands()
	}
}
