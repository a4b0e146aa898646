// internal/audio/wavwrite.go
package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"github.com/ColonelBlimp/cwendec/internal/dsp"
)

// ErrEmptyTrack indicates there is nothing to render
var ErrEmptyTrack = errors.New("key track is empty")

// wavPrecision is the bytes per sample of rendered files (16-bit PCM)
const wavPrecision = 2

// trackStreamer renders a KeyTrack through a tone generator as a beep.Streamer
type trackStreamer struct {
	track   *KeyTrack
	gen     *dsp.ToneGenerator
	rate    int64
	startMs int64
	pos     int64
	total   int64
}

func (s *trackStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= s.total {
		return 0, false
	}
	n := 0
	for n < len(samples) && s.pos < s.total {
		ms := s.startMs + s.pos*1000/s.rate
		v := s.gen.Next(s.track.DownAt(ms))
		samples[n][0], samples[n][1] = v, v
		n++
		s.pos++
	}
	return n, true
}

func (s *trackStreamer) Err() error { return nil }

// WriteWAV renders track as a mono 16-bit WAV keyed through gen, with padMs
// of silence before the first and after the last transition.
func WriteWAV(w io.WriteSeeker, track *KeyTrack, gen *dsp.ToneGenerator, padMs int64) error {
	if len(track.Transitions()) == 0 {
		return ErrEmptyTrack
	}

	rate := int64(gen.Config().SampleRate)
	startMs := track.StartMs() - padMs
	lengthMs := track.EndMs() + padMs - startMs

	s := &trackStreamer{
		track:   track,
		gen:     gen,
		rate:    rate,
		startMs: startMs,
		total:   lengthMs * rate / 1000,
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(rate),
		NumChannels: 1,
		Precision:   wavPrecision,
	}
	if err := wav.Encode(w, s, format); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return nil
}
