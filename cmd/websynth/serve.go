package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	websynth "github.com/cbegin/websynth-go"
	"github.com/cbegin/websynth-go/internal/audio"
	"github.com/cbegin/websynth-go/internal/logger"
	"github.com/cbegin/websynth-go/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the synth and its HTTP control surface",
	Long: `Start the engine, open the audio backend and serve the HTTP API.

Examples:
  websynth serve
  websynth serve --backend oto --addr :9000
  websynth serve -b none -p presets/bass.json`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := newEngine()
	if err != nil {
		return err
	}
	if err := e.Init(); err != nil {
		return fmt.Errorf("init engine: %w", err)
	}
	defer e.Close()

	backend := backendName
	if backend == "" {
		backend = cfg.AudioBackend
	}
	buffer := time.Duration(cfg.BufferMillis) * time.Millisecond
	out, err := audio.Open(backend, e.SampleRate(), e, buffer)
	if err != nil {
		logger.Error("audio backend unavailable", err, logger.Fields{"backend": backend})
		return err
	}
	if err := e.AttachOutput(out); err != nil {
		return fmt.Errorf("attach output: %w", err)
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Addr
	}
	srv := server.New(server.Config{Addr: addr}, e)
	return srv.Run(ctx)
}

// newEngine builds an engine at the configured sample rate and applies the
// configured preset, if any.
func newEngine() (*websynth.Engine, error) {
	e, err := websynth.NewEngine(websynth.WithSampleRate(resolvedSampleRate()))
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	if path := resolvedPreset(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read preset: %w", err)
		}
		// Decode issues are logged by the engine; the preset still applies.
		_ = e.LoadPreset(data)
		logger.Info("preset loaded", logger.Fields{"path": path})
	}
	return e, nil
}
