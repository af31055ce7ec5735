package main

import (
	"fmt"

	"github.com/spf13/cobra"

	websynth "github.com/cbegin/websynth-go"
	"github.com/cbegin/websynth-go/internal/logger"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a demo phrase to a WAV file",
	Long: `Play a short phrase through the engine offline and write 16-bit stereo WAV.

By default the keys are held together and the arpeggiator steps through them.

Examples:
  websynth render -o arp.wav
  websynth render --arp=false -k KeyA,KeyS,KeyD,KeyF --hold 0.3
  websynth render -p presets/pad.json --pattern random --bpm 90`,
	RunE: runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
	e, err := newEngine()
	if err != nil {
		return err
	}
	if err := e.Init(); err != nil {
		return fmt.Errorf("init engine: %w", err)
	}
	defer e.Close()

	// A preset's own tempo and pattern win unless the flag is given.
	settings := []struct {
		flag  string
		path  string
		value any
	}{
		{"bpm", "tempo.bpm", renderBPM},
		{"pattern", "arpeggiator.pattern", renderPattern},
		{"arp", "arpeggiator.enabled", renderArp},
	}
	for _, s := range settings {
		if resolvedPreset() != "" && !cmd.Flags().Changed(s.flag) {
			continue
		}
		if err := e.Set(s.path, s.value); err != nil {
			return err
		}
	}

	samples, err := websynth.RenderPhrase(e, websynth.Phrase{
		Codes: renderKeys,
		Hold:  renderHold,
		Tail:  renderTail,
	})
	if err != nil {
		return err
	}
	if err := websynth.WriteWAV(outputPath, samples, e.SampleRate()); err != nil {
		return err
	}

	logger.Info("render complete", logger.Fields{
		"output":  outputPath,
		"seconds": float64(len(samples)/2) / float64(e.SampleRate()),
		"peak":    websynth.Peak(samples),
	})
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outputPath)
	return nil
}
