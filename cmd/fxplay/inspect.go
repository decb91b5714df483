package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cbegin/fxtrack-go/internal/beatmap"
)

var filterList string

func init() {
	inspectCmd.Flags().StringVar(&filterList, "filter", "all", "objects to list: all or any of buttons,fx,lasers,events")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the audition chart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := newLogger(); err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		filter, err := parseFilter(filterList)
		if err != nil {
			return err
		}
		bm, _, err := buildChart(cfg)
		if err != nil {
			return err
		}
		inspect(bm, filter)
		return nil
	},
}

func parseFilter(s string) (beatmap.ObjectFilter, error) {
	var f beatmap.ObjectFilter
	for _, part := range strings.Split(s, ",") {
		switch strings.TrimSpace(part) {
		case "all":
			f |= beatmap.FilterAll
		case "buttons":
			f |= beatmap.FilterButtons
		case "fx":
			f |= beatmap.FilterFX
		case "lasers":
			f |= beatmap.FilterLasers
		case "events":
			f |= beatmap.FilterEvents
		default:
			return 0, fmt.Errorf("--filter: unknown group %q", part)
		}
	}
	return f, nil
}

func inspect(bm *beatmap.Beatmap, filter beatmap.ObjectFilter) {
	md := bm.Metadata
	fmt.Printf("%s - %s (effector %s, level %d)\n", md.Title, md.Artist, md.Effector, md.Level)
	for _, tp := range bm.TimingPoints() {
		fmt.Printf("%v: %d measures\n", tp, len(tp.Measures()))
	}
	fmt.Println("effects:")
	for _, t := range bm.Effects().Types() {
		s, _ := bm.Effects().Get(t)
		fmt.Printf("  %-10v %s\n", t, s.SettingsName())
	}
	for _, m := range bm.Measures() {
		fmt.Printf("measure %d @ %.3fs\n", m.ID, m.AbsolutePosition())
		for _, ref := range m.Objects() {
			if !filter.Match(bm, ref) {
				continue
			}
			start, end := bm.Lifetime(ref)
			fmt.Printf("  %-8v %-20v %.3f..%.3f%s\n", ref, bm.Object(ref).Kind(), start, end, describe(bm, ref))
		}
	}
}

func describe(bm *beatmap.Beatmap, ref beatmap.ObjectReference) string {
	switch o := bm.Object(ref).(type) {
	case *beatmap.Button:
		return fmt.Sprintf("  lane %d", o.Index)
	case *beatmap.Hold:
		return fmt.Sprintf("  lane %d %v(%d, %d)", o.Index, o.EffectType, o.EffectParameter0, o.EffectParameter1)
	case *beatmap.LaserRoot:
		return fmt.Sprintf("  chain %d x=%.2f extended=%t", o.Chain, o.HorizontalPosition, o.Extended)
	case *beatmap.Laser:
		if bm.IsInstant(ref) {
			return fmt.Sprintf("  x=%.2f slam", o.HorizontalPosition)
		}
		return fmt.Sprintf("  x=%.2f", o.HorizontalPosition)
	case *beatmap.ControlPoint:
		return fmt.Sprintf("  %v=%.2f", o.Type, o.Value)
	case *beatmap.LaserEffectTypeEvent:
		return fmt.Sprintf("  %v", o.EffectType)
	}
	return ""
}
