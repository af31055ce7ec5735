package main

import (
	"log"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cbegin/websynth-go/internal/config"
)

const sentryFlushTimeout = 2 * time.Second

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

var cfg *config.Config

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg = config.Load()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
			Release:     "websynth@" + releaseVersion,
			Debug:       !cfg.IsProduction(),
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			defer sentry.Flush(sentryFlushTimeout)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		sentry.CaptureException(err)
		sentry.Flush(sentryFlushTimeout)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "websynth",
	Short: "Polyphonic subtractive synth with arpeggiator",
	Long: `websynth is a four-voice subtractive synthesizer with a mono mode,
filter modulation, an effects rack, a shared transport and an arpeggiator.

It can run as an HTTP-controlled instrument, render offline to WAV and
migrate old preset files.`,
	Version:       releaseVersion,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(presetCmd)
	presetCmd.AddCommand(presetMigrateCmd)
	presetCmd.AddCommand(presetDefaultsCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (default $WEBSYNTH_ADDR or :8080)")
	serveCmd.Flags().StringVarP(&backendName, "backend", "b", "", "audio backend: ebiten, oto or none (default $WEBSYNTH_AUDIO_BACKEND)")
	serveCmd.Flags().IntVar(&sampleRate, "sample-rate", 0, "output sample rate (default $WEBSYNTH_SAMPLE_RATE or 48000)")
	serveCmd.Flags().StringVarP(&presetPath, "preset", "p", "", "preset file to load at startup")

	renderCmd.Flags().StringVarP(&outputPath, "output", "o", "websynth.wav", "output WAV file")
	renderCmd.Flags().IntVar(&sampleRate, "sample-rate", 0, "output sample rate (default $WEBSYNTH_SAMPLE_RATE or 48000)")
	renderCmd.Flags().StringVarP(&presetPath, "preset", "p", "", "preset file to render with")
	renderCmd.Flags().StringSliceVarP(&renderKeys, "keys", "k", []string{"KeyA", "KeyD", "KeyG", "KeyK"}, "key codes to play")
	renderCmd.Flags().BoolVar(&renderArp, "arp", true, "hold all keys and let the arpeggiator step through them")
	renderCmd.Flags().StringVar(&renderPattern, "pattern", "upDown", "arpeggio pattern: up, down, upDown, random")
	renderCmd.Flags().Float64Var(&renderBPM, "bpm", 120, "tempo")
	renderCmd.Flags().Float64Var(&renderHold, "hold", 0.5, "seconds per key")
	renderCmd.Flags().Float64Var(&renderTail, "tail", 1.5, "seconds of release tail")

	presetMigrateCmd.Flags().StringVarP(&migrateOutput, "output", "o", "", "write the migrated preset here instead of stdout")
}

var (
	serveAddr     string
	backendName   string
	sampleRate    int
	presetPath    string
	outputPath    string
	migrateOutput string
	renderKeys    []string
	renderArp     bool
	renderPattern string
	renderBPM     float64
	renderHold    float64
	renderTail    float64
)

func resolvedSampleRate() int {
	if sampleRate > 0 {
		return sampleRate
	}
	return cfg.SampleRate
}

func resolvedPreset() string {
	if presetPath != "" {
		return presetPath
	}
	return cfg.PresetPath
}
