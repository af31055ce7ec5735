// Package server exposes the synth engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cbegin/websynth-go/internal/analysis"
	"github.com/cbegin/websynth-go/internal/arp"
	"github.com/cbegin/websynth-go/internal/logger"
	"github.com/cbegin/websynth-go/internal/preset"
)

// Engine is the part of the synth facade the server drives.
type Engine interface {
	Session() string
	NoteOn(code string) error
	NoteOff(code string)
	StopAll()
	ActiveNotes() int

	Set(path string, value any) error
	Get(path string) (any, error)
	Params() preset.Params
	LoadParams(p preset.Params)

	SetPitchBend(v float64)
	PitchBend() float64
	SetOctave(n int)
	Octave() int

	StartTransport()
	StopTransport()
	ToggleTransport() bool
	TapTempo() float64
	SetBPM(bpm float64) float64
	BPM() float64
	IsPlaying() bool

	ArpClearNotes()
	ArpState() arp.State

	MeterLevel() float64
	WaveformData() [analysis.WaveformSize]float32
	FFTData() [analysis.SpectrumSize]float32
}

// Config holds server configuration
type Config struct {
	Addr string
}

// Server is the HTTP server
type Server struct {
	config Config
	router *chi.Mux
	engine Engine
}

// New creates a new server
func New(cfg Config, engine Engine) *Server {
	s := &Server{
		config: cfg,
		router: chi.NewRouter(),
		engine: engine,
	}
	s.setupRoutes()
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/notes", func(r chi.Router) {
		r.Post("/panic", s.handlePanic)
		r.Post("/{code}/on", s.handleNoteOn)
		r.Post("/{code}/off", s.handleNoteOff)
	})

	r.Route("/params", func(r chi.Router) {
		r.Get("/", s.handleGetParams)
		r.Put("/", s.handlePutParams)
		r.Get("/{path}", s.handleGetParam)
		r.Put("/{path}", s.handleSetParam)
	})

	r.Post("/bend", s.handleBend)
	r.Post("/octave", s.handleOctave)

	r.Route("/transport", func(r chi.Router) {
		r.Get("/", s.handleTransport)
		r.Post("/start", s.handleTransportStart)
		r.Post("/stop", s.handleTransportStop)
		r.Post("/toggle", s.handleTransportToggle)
		r.Post("/tap", s.handleTap)
		r.Put("/bpm", s.handleBPM)
	})

	r.Route("/arp", func(r chi.Router) {
		r.Get("/", s.handleArpState)
		r.Post("/clear", s.handleArpClear)
	})

	r.Route("/analysis", func(r chi.Router) {
		r.Get("/meter", s.handleMeter)
		r.Get("/waveform", s.handleWaveform)
		r.Get("/fft", s.handleFFT)
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		logger.Info("shutting down server", logger.Fields{"addr": s.config.Addr})
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", err, logger.Fields{"addr": s.config.Addr})
		}
	}()

	logger.Info("server starting", logger.Fields{
		"addr":    s.config.Addr,
		"session": s.engine.Session(),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen %s: %w", s.config.Addr, err)
	}
	<-done
	return nil
}
