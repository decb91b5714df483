package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
)

// ErrUnsupportedFormat is returned by Decode for unknown file extensions.
var ErrUnsupportedFormat = errors.New("audio: unsupported format")

const resampleQuality = 4

// Decode opens path and decodes it by extension (.mp3, .ogg, .wav, .flac).
// The returned streamer owns the file; closing it releases both.
func Decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("audio: open %s: %w", path, err)
	}
	var (
		s      beep.StreamSeekCloser
		format beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		s, format, err = mp3.Decode(f)
	case ".ogg":
		s, format, err = vorbis.Decode(f)
	case ".wav":
		s, format, err = wav.Decode(f)
	case ".flac":
		s, format, err = flac.Decode(f)
	default:
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("audio: decode %s: %w", path, err)
	}
	return &fileStreamer{StreamSeekCloser: s, file: f}, format, nil
}

type fileStreamer struct {
	beep.StreamSeekCloser
	file *os.File
}

func (s *fileStreamer) Close() error {
	err := s.StreamSeekCloser.Close()
	if ferr := s.file.Close(); ferr != nil && !errors.Is(ferr, os.ErrClosed) && err == nil {
		err = ferr
	}
	return err
}

// StreamSource adapts a beep.Streamer to a FinishingSource at a fixed rate.
type StreamSource struct {
	streamer beep.Streamer
	closer   beep.StreamCloser
	buf      [][2]float64
	finished atomic.Bool
}

// NewStreamSource wraps s, resampling from format's rate to sampleRate when
// they differ. Mono sources are handled by beep, which duplicates channels.
func NewStreamSource(s beep.Streamer, format beep.Format, sampleRate int) *StreamSource {
	src := &StreamSource{streamer: s}
	if sc, ok := s.(beep.StreamCloser); ok {
		src.closer = sc
	}
	if format.SampleRate != 0 && int(format.SampleRate) != sampleRate {
		src.streamer = beep.Resample(resampleQuality, format.SampleRate, beep.SampleRate(sampleRate), s)
	}
	return src
}

// Open decodes path into a StreamSource at sampleRate.
func Open(path string, sampleRate int) (*StreamSource, error) {
	s, format, err := Decode(path)
	if err != nil {
		return nil, err
	}
	return NewStreamSource(s, format, sampleRate), nil
}

func (s *StreamSource) Process(dst []float32) {
	n := len(dst) / 2
	if s.finished.Load() {
		clear(dst)
		return
	}
	if cap(s.buf) < n {
		s.buf = make([][2]float64, n)
	}
	buf := s.buf[:n]
	filled := 0
	for filled < n {
		got, ok := s.streamer.Stream(buf[filled:])
		filled += got
		if !ok {
			s.finished.Store(true)
			break
		}
	}
	for i := 0; i < filled; i++ {
		dst[i*2] = float32(buf[i][0])
		dst[i*2+1] = float32(buf[i][1])
	}
	clear(dst[filled*2:])
}

func (s *StreamSource) Finished() bool { return s.finished.Load() }

// Err returns the error that ended the stream, if any.
func (s *StreamSource) Err() error { return s.streamer.Err() }

func (s *StreamSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// LoadSample decodes path completely into interleaved stereo at sampleRate.
func LoadSample(path string, sampleRate int) ([]float32, error) {
	s, format, err := Decode(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	src := NewStreamSource(s, format, sampleRate)
	var out []float32
	block := make([]float32, 1024)
	for !src.Finished() {
		src.Process(block)
		out = append(out, block...)
	}
	if err := src.Err(); err != nil {
		return nil, fmt.Errorf("audio: read %s: %w", path, err)
	}
	return trimTail(out), nil
}

// trimTail drops the silent padding the final block leaves behind.
func trimTail(buf []float32) []float32 {
	end := len(buf)
	for end >= 2 && buf[end-1] == 0 && buf[end-2] == 0 {
		end -= 2
	}
	return buf[:end]
}

// ToneSource is a synthetic backing track: a detuned saw pad with a click on
// every beat, so effects can be auditioned without a song file.
type ToneSource struct {
	sampleRate float64
	beat       float64 // seconds
	freq       float64
	gain       float32
	frame      int64
	length     int64 // frames, 0 is endless
	finished   atomic.Bool
}

func NewToneSource(sampleRate int, bpm, freq float64, seconds float64) *ToneSource {
	if bpm <= 0 {
		bpm = 120
	}
	return &ToneSource{
		sampleRate: float64(sampleRate),
		beat:       60 / bpm,
		freq:       freq,
		gain:       0.25,
		length:     int64(seconds * float64(sampleRate)),
	}
}

func (t *ToneSource) Process(dst []float32) {
	for i := 0; i < len(dst)/2; i++ {
		if t.length > 0 && t.frame >= t.length {
			t.finished.Store(true)
			clear(dst[i*2:])
			return
		}
		sec := float64(t.frame) / t.sampleRate
		l := saw(sec*t.freq) + 0.5*saw(sec*t.freq*1.5)
		r := saw(sec*t.freq*1.003) + 0.5*saw(sec*t.freq*1.497)
		intoBeat := math.Mod(sec, t.beat)
		click := 0.0
		if intoBeat < 0.01 {
			click = math.Sin(2*math.Pi*1000*intoBeat) * (1 - intoBeat/0.01)
		}
		dst[i*2] = t.gain * float32(l*0.5+click)
		dst[i*2+1] = t.gain * float32(r*0.5+click)
		t.frame++
	}
}

func (t *ToneSource) Finished() bool { return t.finished.Load() }

func saw(phase float64) float64 {
	return 2*(phase-math.Floor(phase)) - 1
}
