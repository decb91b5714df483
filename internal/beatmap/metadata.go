package beatmap

// Metadata describes the chart and its song.
type Metadata struct {
	Title        string
	Artist       string
	Effector     string
	Illustrator  string
	Difficulty   int
	Level        int
	AudioPath    string
	PreviewStart float64
	// Offset shifts audio relative to the chart, in seconds.
	Offset float64
}
