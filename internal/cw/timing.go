package cw

// Timing constants
const (
	// DefaultWPM is the speed used until SetSpeed is called
	DefaultWPM = 13
	// MinWPM is the lowest accepted speed; lower values are clamped
	MinWPM = 1
	// DotMsPerWPM is the dot length in ms at 1 WPM ("PARIS" = 50 dot units per word)
	DotMsPerWPM = 1200
	// DahDitRatio is the ratio of dash duration to dot duration (ITU: 3:1)
	DahDitRatio = 3
	// WordSpaceRatio is the ratio of word space to dot duration (ITU: 7:1)
	WordSpaceRatio = 7
)

// Timing holds the element durations derived from a speed in words per minute.
// All durations are in milliseconds.
type Timing struct {
	WPM    int
	DotMs  int64
	DashMs int64
	WordMs int64
}

// NewTiming returns the timing for wpm (clamped to MinWPM).
func NewTiming(wpm int) Timing {
	var t Timing
	t.SetSpeed(wpm)
	return t
}

// SetSpeed recomputes all durations for wpm. Values below MinWPM are clamped.
func (t *Timing) SetSpeed(wpm int) {
	if wpm < MinWPM {
		wpm = MinWPM
	}
	t.WPM = wpm
	t.DotMs = DotMsPerWPM / int64(wpm)
	t.DashMs = DahDitRatio * t.DotMs
	t.WordMs = WordSpaceRatio * t.DotMs
}
