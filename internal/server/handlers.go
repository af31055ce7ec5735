package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	interrors "github.com/cbegin/websynth-go/internal/errors"
	"github.com/cbegin/websynth-go/internal/logger"
	"github.com/cbegin/websynth-go/internal/preset"
)

const maxBodyBytes = 1 << 20

type valueBody struct {
	Value any `json:"value"`
}

type numberBody struct {
	Value *float64 `json:"value"`
}

type transportResponse struct {
	Playing bool    `json:"playing"`
	BPM     float64 `json:"bpm"`
}

type arpResponse struct {
	Enabled bool      `json:"enabled"`
	Pattern string    `json:"pattern"`
	Rate    string    `json:"rate"`
	Octaves int       `json:"octaves"`
	Held    []float64 `json:"held"`
	Running bool      `json:"running"`
}

type presetResponse struct {
	Params preset.Params `json:"params"`
	Issues []string      `json:"issues,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"session": s.engine.Session(),
	})
}

func (s *Server) handleNoteOn(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if err := s.engine.NoteOn(code); err != nil {
		s.renderError(w, err)
		return
	}
	s.writeNotes(w)
}

func (s *Server) handleNoteOff(w http.ResponseWriter, r *http.Request) {
	s.engine.NoteOff(chi.URLParam(r, "code"))
	s.writeNotes(w)
}

func (s *Server) handlePanic(w http.ResponseWriter, r *http.Request) {
	s.engine.StopAll()
	s.writeNotes(w)
}

func (s *Server) writeNotes(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]int{"active": s.engine.ActiveNotes()})
}

func (s *Server) handleGetParams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Params())
}

// handlePutParams accepts a preset document of any version. Mistyped or
// invalid fields fall back to defaults and are reported as issues; a body
// that is not JSON at all is rejected without touching the engine.
func (s *Server) handlePutParams(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := preset.Decode(data)
	var issues []string
	if err != nil {
		var derr *preset.DecodeError
		if !errors.As(err, &derr) || derr.Err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		issues = derr.Issues
		logger.Warn("preset loaded with substitutions", logger.Fields{
			"session": s.engine.Session(),
			"version": derr.Version,
			"issues":  len(derr.Issues),
		})
	}
	s.engine.LoadParams(p)
	writeJSON(w, http.StatusOK, presetResponse{Params: s.engine.Params(), Issues: issues})
}

func (s *Server) handleGetParam(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "path")
	v, err := s.engine.Get(path)
	if err != nil {
		s.renderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": path, "value": v})
}

func (s *Server) handleSetParam(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "path")
	var body valueBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.engine.Set(path, body.Value); err != nil {
		s.renderError(w, err)
		return
	}
	v, _ := s.engine.Get(path)
	writeJSON(w, http.StatusOK, map[string]any{"path": path, "value": v})
}

func (s *Server) handleBend(w http.ResponseWriter, r *http.Request) {
	v, ok := readNumber(w, r)
	if !ok {
		return
	}
	s.engine.SetPitchBend(v)
	writeJSON(w, http.StatusOK, map[string]float64{"value": s.engine.PitchBend()})
}

func (s *Server) handleOctave(w http.ResponseWriter, r *http.Request) {
	v, ok := readNumber(w, r)
	if !ok {
		return
	}
	s.engine.SetOctave(int(v))
	writeJSON(w, http.StatusOK, map[string]int{"value": s.engine.Octave()})
}

func (s *Server) handleTransport(w http.ResponseWriter, r *http.Request) {
	s.writeTransport(w)
}

func (s *Server) handleTransportStart(w http.ResponseWriter, r *http.Request) {
	s.engine.StartTransport()
	s.writeTransport(w)
}

func (s *Server) handleTransportStop(w http.ResponseWriter, r *http.Request) {
	s.engine.StopTransport()
	s.writeTransport(w)
}

func (s *Server) handleTransportToggle(w http.ResponseWriter, r *http.Request) {
	s.engine.ToggleTransport()
	s.writeTransport(w)
}

func (s *Server) handleTap(w http.ResponseWriter, r *http.Request) {
	s.engine.TapTempo()
	s.writeTransport(w)
}

func (s *Server) handleBPM(w http.ResponseWriter, r *http.Request) {
	v, ok := readNumber(w, r)
	if !ok {
		return
	}
	s.engine.SetBPM(v)
	s.writeTransport(w)
}

func (s *Server) writeTransport(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, transportResponse{
		Playing: s.engine.IsPlaying(),
		BPM:     s.engine.BPM(),
	})
}

func (s *Server) handleArpState(w http.ResponseWriter, r *http.Request) {
	s.writeArp(w)
}

func (s *Server) handleArpClear(w http.ResponseWriter, r *http.Request) {
	s.engine.ArpClearNotes()
	s.writeArp(w)
}

func (s *Server) writeArp(w http.ResponseWriter) {
	st := s.engine.ArpState()
	held := st.Held
	if held == nil {
		held = []float64{}
	}
	writeJSON(w, http.StatusOK, arpResponse{
		Enabled: st.Enabled,
		Pattern: string(st.Pattern),
		Rate:    string(st.Rate),
		Octaves: st.Octaves,
		Held:    held,
		Running: st.Running,
	})
}

func (s *Server) handleMeter(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]float64{"db": s.engine.MeterLevel()})
}

func (s *Server) handleWaveform(w http.ResponseWriter, r *http.Request) {
	data := s.engine.WaveformData()
	writeJSON(w, http.StatusOK, map[string][]float32{"samples": data[:]})
}

func (s *Server) handleFFT(w http.ResponseWriter, r *http.Request) {
	data := s.engine.FFTData()
	writeJSON(w, http.StatusOK, map[string][]float32{"bins": data[:]})
}

// renderError maps engine errors to status codes.
func (s *Server) renderError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, interrors.ErrUnknownParam), errors.Is(err, interrors.ErrUnknownKey):
		status = http.StatusNotFound
	case errors.Is(err, interrors.ErrInvalidValue):
		status = http.StatusBadRequest
	default:
		logger.Error("request failed", err, logger.Fields{"session": s.engine.Session()})
	}
	writeError(w, status, err.Error())
}

func readNumber(w http.ResponseWriter, r *http.Request) (float64, bool) {
	var body numberBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	if body.Value == nil {
		writeError(w, http.StatusBadRequest, "missing numeric value")
		return 0, false
	}
	return *body.Value, true
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
