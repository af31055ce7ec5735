package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	websynth "github.com/cbegin/websynth-go"
)

func newTestServer(t *testing.T) (*websynth.Engine, http.Handler) {
	t.Helper()
	e, err := websynth.NewEngine()
	require.NoError(t, err)
	require.NoError(t, e.Init())
	t.Cleanup(func() { _ = e.Close() })
	return e, New(Config{Addr: ":0"}, e).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	e, h := newTestServer(t)
	rec, body := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, e.Session(), body["session"])
}

func TestNotesOnOffAndPanic(t *testing.T) {
	e, h := newTestServer(t)

	rec, body := do(t, h, http.MethodPost, "/notes/KeyA/on", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["active"])

	_, body = do(t, h, http.MethodPost, "/notes/KeyD/on", "")
	assert.Equal(t, float64(2), body["active"])

	_, body = do(t, h, http.MethodPost, "/notes/KeyA/off", "")
	assert.Equal(t, float64(1), body["active"])

	_, body = do(t, h, http.MethodPost, "/notes/panic", "")
	assert.Equal(t, float64(0), body["active"])
	assert.Zero(t, e.HeldNotes())
}

func TestUnknownKeyIsNotFound(t *testing.T) {
	_, h := newTestServer(t)
	rec, body := do(t, h, http.MethodPost, "/notes/KeyZ/on", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body["error"], "unknown key")
}

func TestSetParamClampsAndReports(t *testing.T) {
	e, h := newTestServer(t)

	rec, body := do(t, h, http.MethodPut, "/params/effects.lowpass.frequency", `{"value": 50000}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(20000), body["value"])

	rec, body = do(t, h, http.MethodPut, "/params/lfo.waveform", `{"value": "square"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "square", body["value"])
	assert.Equal(t, "square", e.Params().LFO.Waveform)
}

func TestSetParamErrors(t *testing.T) {
	_, h := newTestServer(t)

	rec, body := do(t, h, http.MethodPut, "/params/master.nope", `{"value": 1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body["error"], "unknown parameter")

	rec, _ = do(t, h, http.MethodPut, "/params/lfo.waveform", `{"value": "zigzag"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, http.MethodPut, "/params/lfo.rate", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPutParamsMigratesOldDocument(t *testing.T) {
	e, h := newTestServer(t)

	doc := `{"master": {"volume": -6, "waveform": "square"}, "tempo": {"bpm": 100}}`
	rec, body := do(t, h, http.MethodPut, "/params", doc)
	require.Equal(t, http.StatusOK, rec.Code)

	p := e.Params()
	assert.Equal(t, -6.0, p.Master.Volume)
	assert.Equal(t, "square", p.Master.Waveform)
	assert.Equal(t, 100.0, p.Tempo.BPM)
	assert.Equal(t, 2.0, p.PitchBendRange)
	assert.NotNil(t, body["params"])
}

func TestPutParamsRejectsGarbage(t *testing.T) {
	e, h := newTestServer(t)
	require.NoError(t, e.Set("master.volume", -3))

	rec, _ := do(t, h, http.MethodPut, "/params", `{{{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, -3.0, e.Params().Master.Volume)
}

func TestGetParams(t *testing.T) {
	_, h := newTestServer(t)
	rec, body := do(t, h, http.MethodGet, "/params", "")
	require.Equal(t, http.StatusOK, rec.Code)
	master, ok := body["master"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(-12), master["volume"])
}

func TestBendAndOctave(t *testing.T) {
	_, h := newTestServer(t)

	_, body := do(t, h, http.MethodPost, "/bend", `{"value": 3}`)
	assert.Equal(t, float64(1), body["value"])

	_, body = do(t, h, http.MethodPost, "/octave", `{"value": 9}`)
	assert.Equal(t, float64(5), body["value"])

	rec, _ := do(t, h, http.MethodPost, "/octave", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransportRoutes(t *testing.T) {
	_, h := newTestServer(t)

	_, body := do(t, h, http.MethodPost, "/transport/start", "")
	assert.Equal(t, true, body["playing"])

	_, body = do(t, h, http.MethodPost, "/transport/toggle", "")
	assert.Equal(t, false, body["playing"])

	_, body = do(t, h, http.MethodPut, "/transport/bpm", `{"value": 300}`)
	assert.Equal(t, float64(240), body["bpm"])

	_, body = do(t, h, http.MethodPost, "/transport/stop", "")
	assert.Equal(t, false, body["playing"])
}

func TestArpRoutes(t *testing.T) {
	e, h := newTestServer(t)
	require.NoError(t, e.Set("arpeggiator.enabled", true))

	do(t, h, http.MethodPost, "/notes/KeyA/on", "")
	do(t, h, http.MethodPost, "/notes/KeyG/on", "")

	_, body := do(t, h, http.MethodGet, "/arp", "")
	assert.Equal(t, true, body["enabled"])
	assert.Equal(t, true, body["running"])
	assert.Len(t, body["held"], 2)

	_, body = do(t, h, http.MethodPost, "/arp/clear", "")
	assert.Equal(t, false, body["running"])
	assert.Empty(t, body["held"])
}

func TestAnalysisRoutes(t *testing.T) {
	_, h := newTestServer(t)

	_, body := do(t, h, http.MethodGet, "/analysis/meter", "")
	assert.Equal(t, float64(-60), body["db"])

	_, body = do(t, h, http.MethodGet, "/analysis/waveform", "")
	assert.Len(t, body["samples"], 256)

	_, body = do(t, h, http.MethodGet, "/analysis/fft", "")
	assert.Len(t, body["bins"], 256)
}
