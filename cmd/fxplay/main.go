// Command fxplay auditions beatmap effects: live through the audio device,
// offline into a WAV file, or as a textual dump of the chart.
package main

func main() {
	Execute()
}
