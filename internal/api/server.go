// internal/api/server.go
package api

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/flowmeter-logger/internal/config"
	"github.com/tamzrod/flowmeter-logger/internal/poller"
	"github.com/tamzrod/flowmeter-logger/internal/store"
	"github.com/tamzrod/flowmeter-logger/internal/transport"
)

// Server is the control and export surface for dashboards. It never touches
// protocol bytes: everything goes through the controller and the store.
type Server struct {
	log    *logrus.Logger
	ctrl   *poller.Controller
	store  *store.Store
	client *transport.Client
}

func NewServer(log *logrus.Logger, ctrl *poller.Controller, st *store.Store, client *transport.Client) *Server {
	return &Server{log: log, ctrl: ctrl, store: st, client: client}
}

// Router builds the API routes.
func (s *Server) Router() *mux.Router {
	mx := mux.NewRouter()

	mx.HandleFunc("/api/start", s.handleStart).Methods(http.MethodPost)
	mx.HandleFunc("/api/stop", s.handleStop).Methods(http.MethodPost)
	mx.HandleFunc("/api/reset", s.handleReset).Methods(http.MethodPost)
	mx.HandleFunc("/api/config", s.handleConfig).Methods(http.MethodPost)

	mx.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	mx.HandleFunc("/api/latest", s.handleLatest).Methods(http.MethodGet)
	mx.HandleFunc("/api/series", s.handleSeries).Methods(http.MethodGet)
	mx.HandleFunc("/api/export", s.handleExport).Methods(http.MethodGet)

	mx.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)

	return mx
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Start()
	s.log.Info("polling started")
	writeJSON(w, http.StatusOK, map[string]string{"state": s.ctrl.State().String()})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Stop()
	s.log.Info("polling stopped")
	writeJSON(w, http.StatusOK, map[string]string{"state": s.ctrl.State().String()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Reset(); err != nil {
		s.log.WithError(err).Error("reset failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.log.WithField("log_file", s.store.LogPath()).Info("series reset")
	writeJSON(w, http.StatusOK, map[string]string{"log_file": s.store.LogPath()})
}

type configRequest struct {
	Address   string `json:"address"`
	Port      int    `json:"port"`
	IntervalS int    `json:"interval_s"`
}

// handleConfig repoints the device or retunes the interval between cycles.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	if req.Port != 0 && (req.Port < 1 || req.Port > 65535) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "port out of range 1-65535"})
		return
	}
	if req.IntervalS != 0 &&
		(req.IntervalS < config.MinIntervalS || req.IntervalS > config.MaxIntervalS) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "interval_s out of range 1-60"})
		return
	}

	if req.Address != "" {
		port := req.Port
		if port == 0 {
			port = config.DefaultPort
		}
		s.client.SetEndpoint(req.Address, port)
		s.log.WithField("endpoint", s.client.Endpoint()).Info("device endpoint changed")
	}
	if req.IntervalS != 0 {
		_ = s.ctrl.SetInterval(time.Duration(req.IntervalS) * time.Second)
		s.log.WithField("interval_s", req.IntervalS).Info("poll interval changed")
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"endpoint": s.client.Endpoint(),
		"interval": s.ctrl.Interval().String(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	type statusBody struct {
		State     string `json:"state"`
		Samples   int    `json:"samples"`
		LogFile   string `json:"log_file"`
		Endpoint  string `json:"endpoint"`
		LastError string `json:"last_error,omitempty"`
	}

	body := statusBody{
		State:    s.ctrl.State().String(),
		Samples:  s.store.Len(),
		LogFile:  s.store.LogPath(),
		Endpoint: s.client.Endpoint(),
	}
	if last, ok := s.ctrl.LastCycle(); ok && last.Err != nil {
		body.LastError = last.Err.Error()
	}

	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	sample, ok := s.store.Latest()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no samples yet"})
		return
	}
	writeJSON(w, http.StatusOK, sample)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

// handleExport streams the full in-memory series as CSV, named after the
// current session log.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(s.store.LogPath())

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)

	if err := s.store.Export(w); err != nil {
		s.log.WithError(err).Error("export failed")
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
