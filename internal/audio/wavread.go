// internal/audio/wavread.go
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mjibson/go-dsp/wav"
)

var (
	// ErrNoChannels indicates a WAV header without audio channels
	ErrNoChannels = errors.New("wav file has no channels")
	// ErrSampleFormat indicates samples the reader cannot convert
	ErrSampleFormat = errors.New("unsupported wav sample format")
)

// wavChunkFrames is how many frames are pulled from the file at a time
const wavChunkFrames = 1024

// WAVReader hands out the mono samples of a WAV file in clock order, so a
// recording can be replayed against a manual clock.
type WAVReader struct {
	w        *wav.Wav
	closer   io.Closer
	rate     int64
	channels int

	remaining int       // samples (all channels) left in the data chunk
	pending   []float32 // mono samples read but not handed out
	consumed  int64     // mono samples handed out
	eof       bool
}

// OpenWAV opens a WAV file for replay
func OpenWAV(path string) (*WAVReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	r, err := NewWAVReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewWAVReader reads WAV data from r
func NewWAVReader(r io.Reader) (*WAVReader, error) {
	w, err := wav.New(r)
	if err != nil {
		return nil, fmt.Errorf("read wav header: %w", err)
	}
	if w.Header.NumChannels == 0 {
		return nil, ErrNoChannels
	}
	return &WAVReader{
		w:         w,
		rate:      int64(w.Header.SampleRate),
		channels:  int(w.Header.NumChannels),
		remaining: w.Samples,
	}, nil
}

// SampleRate returns the file's sample rate in Hz
func (r *WAVReader) SampleRate() int {
	return int(r.rate)
}

// Advance returns the samples between the previous call and clock time
// toMs (measured from the start of the file). It returns io.EOF once the
// file is exhausted and every sample has been handed out.
func (r *WAVReader) Advance(toMs int64) ([]float32, error) {
	need := toMs*r.rate/1000 - r.consumed
	if need <= 0 {
		return nil, nil
	}

	for int64(len(r.pending)) < need && !r.eof {
		if err := r.fill(); err != nil {
			return nil, err
		}
	}

	if len(r.pending) == 0 {
		return nil, io.EOF
	}
	if need > int64(len(r.pending)) {
		need = int64(len(r.pending))
	}
	out := r.pending[:need:need]
	r.pending = r.pending[need:]
	r.consumed += need
	return out, nil
}

// fill reads one chunk and downmixes it onto pending
func (r *WAVReader) fill() error {
	n := min(wavChunkFrames*r.channels, r.remaining)
	if n <= 0 {
		r.eof = true
		return nil
	}
	data, err := r.w.ReadSamples(n)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		// Truncated data chunk
		r.eof = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("read wav samples: %w", err)
	}
	r.remaining -= n

	raw, err := normalize(data)
	if err != nil {
		return err
	}
	for i := 0; i+r.channels <= len(raw); i += r.channels {
		var sum float32
		for _, v := range raw[i : i+r.channels] {
			sum += v
		}
		r.pending = append(r.pending, sum/float32(r.channels))
	}
	return nil
}

// normalize converts raw samples to -1.0 to 1.0
func normalize(data any) ([]float32, error) {
	switch d := data.(type) {
	case []float32:
		return d, nil
	case []int16:
		out := make([]float32, len(d))
		for i, v := range d {
			out[i] = float32(v) / 32768
		}
		return out, nil
	case []uint8:
		// 8-bit PCM is unsigned, centered on 128
		out := make([]float32, len(d))
		for i, v := range d {
			out[i] = (float32(v) - 128) / 128
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrSampleFormat, data)
}

// Close closes the underlying file, if any
func (r *WAVReader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
