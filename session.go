// Package fxtrack plays a beatmap's effects over an audio track: holds and
// lasers become DSP effects inserted into the track while they are active.
package fxtrack

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	intaudio "github.com/cbegin/fxtrack-go/internal/audio"
	"github.com/cbegin/fxtrack-go/internal/beatmap"
	"github.com/cbegin/fxtrack-go/internal/config"
	"github.com/cbegin/fxtrack-go/internal/controller"
	"github.com/cbegin/fxtrack-go/internal/dsp"
	"github.com/cbegin/fxtrack-go/internal/playback"
)

// ErrClosed is returned by operations on a closed Session.
var ErrClosed = errors.New("fxtrack: session closed")

type EventKind int

const (
	EventMeasureEntered EventKind = iota
	EventObjectActivated
	EventObjectDeactivated
	EventSlam
	EventPlaybackEnded
)

func (k EventKind) String() string {
	switch k {
	case EventMeasureEntered:
		return "measure-entered"
	case EventObjectActivated:
		return "object-activated"
	case EventObjectDeactivated:
		return "object-deactivated"
	case EventSlam:
		return "slam"
	case EventPlaybackEnded:
		return "playback-ended"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event carries playback events from Watch().
type Event struct {
	Kind     EventKind
	Object   beatmap.ObjectReference // zero for measure and end events
	Measure  beatmap.MeasureID
	Position float64 // playback position in seconds when emitted
}

type SessionOption func(*sessionConfig)

type sessionConfig struct {
	viewDuration float64
	logger       *slog.Logger
	laserEffect  beatmap.EffectType
	slamSample   []float32
	slamVolume   float64
	clock        intaudio.Clock
	source       intaudio.SampleSource
	offset       time.Duration
	sampleTap    func([]float32)
}

func defaultSessionConfig() sessionConfig {
	return sessionConfig{
		viewDuration: playback.DefaultViewDuration,
		logger:       slog.Default(),
		laserEffect:  beatmap.EffectPeakingFilter,
		slamVolume:   1,
	}
}

func WithViewDuration(seconds float64) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.viewDuration = seconds
	}
}

func WithLogger(logger *slog.Logger) SessionOption {
	return func(cfg *sessionConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithLaserEffect sets the laser effect used until the map selects one.
func WithLaserEffect(t beatmap.EffectType) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.laserEffect = t
	}
}

// WithSlamSample sets the interleaved stereo sample played on laser slams.
func WithSlamSample(sample []float32, volume float64) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.slamSample = sample
		cfg.slamVolume = volume
	}
}

// WithClock sets the transport clock. By default the session follows the
// number of frames its track has rendered.
func WithClock(c intaudio.Clock) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.clock = c
	}
}

// WithSource sets the audio the effects are applied to. Without one the
// track renders silence.
func WithSource(src intaudio.SampleSource) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.source = src
	}
}

// WithOffset shifts the chart against the clock. Positive values make
// objects happen later.
func WithOffset(d time.Duration) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.offset = d
	}
}

// WithSampleTap installs a callback invoked with each rendered stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.sampleTap = tap
	}
}

// Session binds a beatmap to a track. Tick drives the simulation from the
// clock and may run on any one goroutine; Process is called by the audio
// goroutine.
type Session struct {
	id         uuid.UUID
	sampleRate int
	logger     *slog.Logger

	mu          sync.Mutex
	beatmap     *beatmap.Beatmap
	track       *intaudio.Track
	playback    *playback.Playback
	controller  *controller.Controller
	clock       intaudio.Clock
	offset      time.Duration
	seek        time.Duration
	slam        *dsp.OneShot
	unsubscribe func()
	audio       *intaudio.Player
	ended       bool
	closed      bool

	eventCh     chan Event
	eventChMu   sync.Mutex
	watchClosed bool
}

// slamTrigger plays the slam sample and reports the slam to watchers.
type slamTrigger struct {
	s *Session
}

func (t slamTrigger) Trigger() {
	if t.s.slam != nil {
		t.s.slam.Trigger()
	}
	t.s.sendEvent(Event{Kind: EventSlam, Position: t.s.playback.Position()})
}

// NewSession binds bm, which must be built, to a new track at sampleRate.
func NewSession(bm *beatmap.Beatmap, sampleRate int, opts ...SessionOption) (*Session, error) {
	if sampleRate <= 0 {
		return nil, errors.New("fxtrack: sampleRate must be positive")
	}
	if bm == nil || !bm.Built() {
		return nil, errors.New("fxtrack: beatmap must be built")
	}
	cfg := defaultSessionConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.viewDuration <= 0 {
		return nil, fmt.Errorf("fxtrack: view duration must be positive, got %v", cfg.viewDuration)
	}

	s := &Session{
		id:         uuid.New(),
		sampleRate: sampleRate,
		beatmap:    bm,
		offset:     cfg.offset,
	}
	s.logger = cfg.logger.With("session", s.id.String())

	var trackOpts []intaudio.TrackOption
	if cfg.sampleTap != nil {
		trackOpts = append(trackOpts, intaudio.WithSampleTap(cfg.sampleTap))
	}
	s.track = intaudio.NewTrack(sampleRate, cfg.source, trackOpts...)
	if len(cfg.slamSample) > 0 {
		s.slam = dsp.NewOneShot(cfg.slamSample, cfg.slamVolume)
		s.track.AddOverlay(s.slam)
	}
	s.clock = cfg.clock
	if s.clock == nil {
		s.clock = s.track
	}

	s.playback = playback.New(
		playback.WithViewDuration(cfg.viewDuration),
		playback.WithLogger(s.logger),
	)
	s.unsubscribe = s.playback.Subscribe(playback.Handlers{
		ObjectActivated: func(r beatmap.ObjectReference) {
			s.sendEvent(Event{Kind: EventObjectActivated, Object: r, Measure: r.Measure, Position: s.playback.Position()})
		},
		ObjectDeactivated: func(r beatmap.ObjectReference) {
			s.sendEvent(Event{Kind: EventObjectDeactivated, Object: r, Measure: r.Measure, Position: s.playback.Position()})
		},
		MeasureEntered: func(m *beatmap.Measure) {
			s.sendEvent(Event{Kind: EventMeasureEntered, Measure: m.ID, Position: s.playback.Position()})
		},
	})
	s.playback.Bind(bm)
	s.controller = controller.New(
		controller.WithLogger(s.logger),
		controller.WithLaserEffect(cfg.laserEffect),
		controller.WithSlam(slamTrigger{s: s}),
	)
	s.controller.Init(s.playback, s.track)
	s.logger.Debug("session created", "title", bm.Metadata.Title, "objects", bm.ObjectCount())
	return s, nil
}

func (s *Session) ID() uuid.UUID { return s.id }

func (s *Session) SampleRate() int { return s.sampleRate }

func (s *Session) Beatmap() *beatmap.Beatmap { return s.beatmap }

// Track returns the track effects are inserted into.
func (s *Session) Track() *intaudio.Track { return s.track }

// Position returns the playback position in seconds as of the last Tick.
func (s *Session) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playback.Position()
}

// Tick reads the clock, moves playback there and updates every effect.
func (s *Session) Tick() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.tickLocked()
	return nil
}

func (s *Session) tickLocked() {
	pos := s.clock.Position() + s.seek - s.offset
	s.playback.SetPosition(pos.Seconds())
	s.controller.Update()
	if s.playback.HasEnded() && !s.ended {
		s.ended = true
		s.logger.Debug("playback ended", "position", s.playback.Position())
		s.sendEvent(Event{Kind: EventPlaybackEnded, Position: s.playback.Position()})
	}
}

// SetPosition moves the chart to t seconds. The audio source is not seeked;
// the clock keeps running from the new position.
func (s *Session) SetPosition(t float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	target := time.Duration(t * float64(time.Second))
	s.seek = target + s.offset - s.clock.Position()
	s.ended = false
	s.tickLocked()
	return nil
}

func (s *Session) SetViewDuration(seconds float64) error {
	if seconds <= 0 {
		return fmt.Errorf("fxtrack: view duration must be positive, got %v", seconds)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.playback.SetViewDuration(seconds)
	return nil
}

// ActiveEffects returns the number of effects currently in the track chain.
func (s *Session) ActiveEffects() int {
	return len(s.track.Effects())
}

// Process renders the next buffer of interleaved stereo audio.
func (s *Session) Process(dst []float32) {
	s.track.Process(dst)
}

// Finished reports whether the audio source has run out.
func (s *Session) Finished() bool {
	return s.track.Finished()
}

// ApplyConfig installs cfg's effect presets and master EQ. Presets only
// affect effects instantiated afterwards.
func (s *Session) ApplyConfig(cfg *config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := cfg.ApplyEffects(s.beatmap.Effects()); err != nil {
		return err
	}
	s.track.MasterEQ().SetGains(cfg.MasterEQ)
	if s.slam != nil {
		s.slam.SetGain(cfg.SlamVolume)
	}
	if cfg.ViewDuration > 0 {
		s.playback.SetViewDuration(cfg.ViewDuration)
	}
	return nil
}

// Play starts real-time output through the audio device, driving the
// session from the device clock unless WithClock was given.
func (s *Session) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.audio != nil {
		s.audio.Play()
		return nil
	}
	backend, err := intaudio.NewPlayer(s.sampleRate, s.track)
	if err != nil {
		return err
	}
	s.audio = backend
	if s.clock == intaudio.Clock(s.track) {
		s.clock = backend
	}
	s.audio.Play()
	return nil
}

func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audio != nil {
		s.audio.Pause()
	}
}

func (s *Session) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audio != nil && s.audio.IsPlaying()
}

// Close releases every effect and stops output. It is safe to call more
// than once; the Watch channel is closed on the first call.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.controller.Close()
	s.unsubscribe()
	var err error
	if s.audio != nil {
		err = s.audio.Stop()
		s.audio = nil
	}
	s.mu.Unlock()

	s.eventChMu.Lock()
	if s.eventCh != nil {
		close(s.eventCh)
		s.eventCh = nil
	}
	s.watchClosed = true
	s.eventChMu.Unlock()
	s.logger.Debug("session closed")
	return err
}

// Watch returns a channel that receives playback events. The channel is
// buffered (cap 64); events are dropped rather than blocking the simulation
// when it is full. Only the most recent Watch() channel receives events; a
// previous one is closed. After Close the returned channel is already closed.
func (s *Session) Watch() <-chan Event {
	ch := make(chan Event, 64)
	s.eventChMu.Lock()
	defer s.eventChMu.Unlock()
	if s.watchClosed {
		close(ch)
		return ch
	}
	if s.eventCh != nil {
		close(s.eventCh)
	}
	s.eventCh = ch
	return ch
}

func (s *Session) sendEvent(ev Event) {
	s.eventChMu.Lock()
	defer s.eventChMu.Unlock()
	if s.eventCh == nil {
		return
	}
	select {
	case s.eventCh <- ev:
	default:
		// Channel full; drop event
	}
}

// SetEQBand sets the gain for a master EQ band (0-4). 1.0 = unity.
// Band frequencies: 0=<200Hz, 1=200-800Hz, 2=800-2.5kHz, 3=2.5-8kHz, 4=>8kHz.
// This takes effect immediately on the audio thread (lock-free).
func (s *Session) SetEQBand(band int, gain float32) {
	s.track.MasterEQ().SetGain(band, gain)
}

// EQBand returns the current gain for a master EQ band (0-4).
func (s *Session) EQBand(band int) float32 {
	return s.track.MasterEQ().Gain(band)
}
