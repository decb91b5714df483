package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cbegin/fxtrack-go"
)

var (
	outPath       string
	renderSeconds float64
	blockFrames   int
)

func init() {
	renderCmd.Flags().StringVarP(&outPath, "out", "o", "audition.wav", "output WAV file")
	renderCmd.Flags().Float64Var(&renderSeconds, "seconds", 0, "length to render (default: the whole chart)")
	renderCmd.Flags().IntVar(&blockFrames, "block", fxtrack.DefaultBlockFrames, "frames rendered between simulation ticks")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the audition chart to a WAV file",
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

		seconds := renderSeconds
		if seconds <= 0 {
			seconds = r.length
		}
		samples, err := r.session.Render(seconds, blockFrames)
		if err != nil {
			return err
		}
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		if err := fxtrack.WriteWAV(f, samples, cfg.SampleRate); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		logger.Info("rendered", "path", outPath, "seconds", seconds, "session", r.session.ID())
		fmt.Printf("wrote %s (%.1fs at %d Hz)\n", outPath, seconds, cfg.SampleRate)
		return nil
	},
}
