package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/cbegin/fxtrack-go"
	"github.com/cbegin/fxtrack-go/internal/config"
)

var (
	tickInterval time.Duration
	watchConfig  bool
	quiet        bool
)

func init() {
	playCmd.Flags().DurationVar(&tickInterval, "tick", 5*time.Millisecond, "simulation tick interval")
	playCmd.Flags().BoolVar(&watchConfig, "watch", false, "reload --config when it changes")
	playCmd.Flags().BoolVar(&quiet, "quiet", false, "do not print playback events")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the audition chart through the audio device",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		r, err := newRun(cfg, logger)
		if err != nil {
			return err
		}
		defer r.Close()

		var reloads <-chan *config.Config
		var reloadErrs <-chan error
		if watchConfig && configPath != "" {
			w, err := config.NewWatcher(configPath, config.DefaultReloadDelay, logger)
			if err != nil {
				return err
			}
			defer w.Close()
			reloads, reloadErrs = w.Events, w.Errors
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		events := r.session.Watch()
		if err := r.session.Play(); err != nil {
			return err
		}
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				fmt.Println("interrupted")
				return nil
			case <-ticker.C:
				if err := r.session.Tick(); err != nil {
					return err
				}
				if r.session.Finished() {
					fmt.Println("audio finished")
					return nil
				}
			case ev := <-events:
				if !quiet {
					printEvent(r.session, ev)
				}
				if ev.Kind == fxtrack.EventPlaybackEnded {
					fmt.Println("playback completed")
					return nil
				}
			case next, ok := <-reloads:
				if !ok {
					reloads = nil
					continue
				}
				if err := r.session.ApplyConfig(next); err != nil {
					logger.Error("apply config", "err", err)
				}
			case err, ok := <-reloadErrs:
				if !ok {
					reloadErrs = nil
					continue
				}
				logger.Error("config reload", "err", err)
			}
		}
	},
}

func printEvent(s *fxtrack.Session, ev fxtrack.Event) {
	switch ev.Kind {
	case fxtrack.EventMeasureEntered:
		fmt.Printf("%8.3f  measure %d\n", ev.Position, ev.Measure)
	case fxtrack.EventObjectActivated, fxtrack.EventObjectDeactivated:
		o := s.Beatmap().Object(ev.Object)
		if o == nil {
			return
		}
		fmt.Printf("%8.3f  %-18s %v %v  effects=%d\n", ev.Position, ev.Kind, o.Kind(), ev.Object, s.ActiveEffects())
	default:
		fmt.Printf("%8.3f  %v\n", ev.Position, ev.Kind)
	}
}
