package fxtrack

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cbegin/fxtrack-go/internal/beatmap"
)

// DefaultBlockFrames is the render block size between simulation ticks.
const DefaultBlockFrames = 256

// Render ticks the session and renders seconds of audio in blocks of
// blockFrames, the way the audio device would pull it. The session clock
// must follow the rendered frames, which is the default.
func (s *Session) Render(seconds float64, blockFrames int) ([]float32, error) {
	if blockFrames <= 0 {
		blockFrames = DefaultBlockFrames
	}
	frames := int(float64(s.sampleRate) * seconds)
	out := make([]float32, frames*2)
	for start := 0; start < frames; start += blockFrames {
		if err := s.Tick(); err != nil {
			return nil, err
		}
		end := min(start+blockFrames, frames)
		s.Process(out[start*2 : end*2])
	}
	if err := s.Tick(); err != nil {
		return nil, err
	}
	return out, nil
}

// RenderSamples renders a beatmap offline from its start.
func RenderSamples(bm *beatmap.Beatmap, sampleRate int, seconds float64, opts ...SessionOption) ([]float32, error) {
	s, err := NewSession(bm, sampleRate, opts...)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Render(seconds, DefaultBlockFrames)
}

// WriteWAV encodes interleaved stereo samples as 16-bit PCM.
func WriteWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	const channels = 2
	enc := wav.NewEncoder(w, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, v := range samples {
		buf.Data[i] = int(math.Round(float64(clampUnit(v)) * 32767))
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("fxtrack: write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("fxtrack: finish wav: %w", err)
	}
	return nil
}

func clampUnit(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
