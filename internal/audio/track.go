package audio

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cbegin/fxtrack-go/internal/dsp"
)

// Track renders one source through its effect chain.
//
// The chain is published as an immutable snapshot: AddDsp and RemoveDsp
// build a new chain under a writer lock and swap it in, so Process never
// blocks on the simulation goroutine. Overlays are mixed after the effect
// chain and before the master stage, so one-shot samples are not affected
// by note effects.
type Track struct {
	sampleRate int
	source     SampleSource

	mu       sync.Mutex
	chain    atomic.Pointer[dsp.Chain]
	overlays atomic.Pointer[dsp.Chain]

	masterEQ *dsp.EQ5Band
	limiter  *dsp.Limiter
	frames   atomic.Int64
	tap      func([]float32)
}

type TrackOption func(*Track)

// WithSampleTap installs a callback invoked with each rendered stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) TrackOption {
	return func(t *Track) {
		t.tap = tap
	}
}

// WithLimiter replaces the default output limiter. A nil limiter disables it.
func WithLimiter(l *dsp.Limiter) TrackOption {
	return func(t *Track) {
		t.limiter = l
	}
}

// NewTrack returns a Track rendering source at sampleRate. A nil source
// renders silence.
func NewTrack(sampleRate int, source SampleSource, opts ...TrackOption) *Track {
	t := &Track{
		sampleRate: sampleRate,
		source:     source,
		masterEQ:   dsp.NewEQ5Band(sampleRate),
		limiter:    dsp.NewLimiter(sampleRate, -1, 20, 1, 80),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Track) SampleRate() int { return t.sampleRate }

// AddDsp appends d to the end of the effect chain.
func (t *Track) AddDsp(d dsp.Dsp) {
	if d == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.chain.Store(t.chain.Load().With(d))
}

// RemoveDsp removes d from the effect chain. Removing an effect that is not
// in the chain is a no-op.
func (t *Track) RemoveDsp(d dsp.Dsp) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.chain.Load().Without(d); ok {
		t.chain.Store(c)
	}
}

// Effects returns the current chain in processing order.
func (t *Track) Effects() []dsp.Dsp { return t.chain.Load().Effects() }

// AddOverlay mixes d into the output after the effect chain.
func (t *Track) AddOverlay(d dsp.Dsp) {
	if d == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.overlays.Store(t.overlays.Load().With(d))
}

func (t *Track) RemoveOverlay(d dsp.Dsp) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.overlays.Load().Without(d); ok {
		t.overlays.Store(c)
	}
}

// MasterEQ returns the master equalizer applied after every effect.
func (t *Track) MasterEQ() *dsp.EQ5Band { return t.masterEQ }

func (t *Track) Process(buf []float32) {
	if t.source != nil {
		t.source.Process(buf)
	} else {
		clear(buf)
	}
	t.chain.Load().Process(buf)
	t.overlays.Load().Process(buf)
	t.masterEQ.Process(buf)
	if t.limiter != nil {
		t.limiter.Process(buf)
	}
	t.frames.Add(int64(len(buf) / 2))
	if t.tap != nil {
		t.tap(buf)
	}
}

// Finished reports whether the source has run out.
func (t *Track) Finished() bool {
	if fs, ok := t.source.(FinishingSource); ok {
		return fs.Finished()
	}
	return false
}

// Frames returns the number of frames rendered so far.
func (t *Track) Frames() int64 { return t.frames.Load() }

// Position returns the render position derived from Frames.
func (t *Track) Position() time.Duration {
	return FramesToDuration(t.frames.Load(), t.sampleRate)
}

// Reset clears the state of every effect and the master stage.
func (t *Track) Reset() {
	t.chain.Load().Reset()
	t.overlays.Load().Reset()
	t.masterEQ.Reset()
	if t.limiter != nil {
		t.limiter.Reset()
	}
}
