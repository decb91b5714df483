package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cbegin/fxtrack-go"
	intaudio "github.com/cbegin/fxtrack-go/internal/audio"
	"github.com/cbegin/fxtrack-go/internal/beatmap"
	"github.com/cbegin/fxtrack-go/internal/config"
	"github.com/cbegin/fxtrack-go/internal/demo"
)

var (
	configPath string
	logLevel   string
	bpm        float64
	effectList string
	audioPath  string
)

var rootCmd = &cobra.Command{
	Use:           "fxplay",
	Short:         "Audition beatmap effects",
	Long:          `fxplay builds an audition chart with one section per effect and plays, renders or inspects it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "path to a YAML config file")
	pf.StringVar(&logLevel, "log-level", "info", "log level: debug|info|warn|error")
	pf.Float64Var(&bpm, "bpm", 120, "tempo of the audition chart")
	pf.StringVar(&effectList, "effects", "", "comma separated effects to audition (default: all)")
	pf.StringVar(&audioPath, "audio", "", "song file (.mp3, .ogg, .wav, .flac); a synthetic pad is used when empty")
}

func Execute() {
	cobra.CheckErr(rootCmd.ExecuteContext(context.Background()))
}

func newLogger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, nil
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func chartOptions() (demo.Options, error) {
	opts := demo.Options{BPM: bpm}
	if strings.TrimSpace(effectList) == "" {
		return opts, nil
	}
	for _, name := range strings.Split(effectList, ",") {
		t, err := beatmap.ParseEffectType(strings.TrimSpace(name))
		if err != nil {
			return opts, fmt.Errorf("--effects: %w", err)
		}
		opts.Effects = append(opts.Effects, t)
	}
	return opts, nil
}

// buildChart generates the audition chart and applies the configured presets.
func buildChart(cfg *config.Config) (*beatmap.Beatmap, demo.Options, error) {
	opts, err := chartOptions()
	if err != nil {
		return nil, opts, err
	}
	bm, err := demo.Audition(opts)
	if err != nil {
		return nil, opts, err
	}
	if err := cfg.ApplyEffects(bm.Effects()); err != nil {
		return nil, opts, err
	}
	return bm, opts, nil
}

// run is a session together with the audio it owns.
type run struct {
	session *fxtrack.Session
	source  intaudio.SampleSource
	// length is how long the chart lasts, in seconds
	length float64
}

func (r *run) Close() error {
	err := r.session.Close()
	if c, ok := r.source.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// newRun wires a chart, its audio and the config into a session.
func newRun(cfg *config.Config, logger *slog.Logger, extra ...fxtrack.SessionOption) (*run, error) {
	bm, opts, err := buildChart(cfg)
	if err != nil {
		return nil, err
	}
	laser, err := cfg.LaserEffectType()
	if err != nil {
		return nil, err
	}
	r := &run{length: demo.Duration(opts) + 1}

	if audioPath != "" {
		src, err := intaudio.Open(audioPath, cfg.SampleRate)
		if err != nil {
			return nil, err
		}
		r.source = src
	} else {
		r.source = intaudio.NewToneSource(cfg.SampleRate, opts.BPM, 110, r.length)
	}

	sessionOpts := []fxtrack.SessionOption{
		fxtrack.WithLogger(logger),
		fxtrack.WithViewDuration(cfg.ViewDuration),
		fxtrack.WithLaserEffect(laser),
		fxtrack.WithSource(r.source),
		fxtrack.WithOffset(time.Duration(cfg.Offset) * time.Millisecond),
	}
	if cfg.SlamSample != "" {
		sample, err := intaudio.LoadSample(cfg.SlamSample, cfg.SampleRate)
		if err != nil {
			logger.Error("slam sample", "path", cfg.SlamSample, "err", err)
		} else {
			sessionOpts = append(sessionOpts, fxtrack.WithSlamSample(sample, cfg.SlamVolume))
		}
	}
	sessionOpts = append(sessionOpts, extra...)

	r.session, err = fxtrack.NewSession(bm, cfg.SampleRate, sessionOpts...)
	if err != nil {
		if c, ok := r.source.(io.Closer); ok {
			c.Close()
		}
		return nil, err
	}
	r.session.Track().MasterEQ().SetGains(cfg.MasterEQ)
	return r, nil
}
