// Package server exposes the trigger engine over a small JSON HTTP API.
//
// A mobile client (or anything with a GPS feed) POSTs location fixes and
// polls for freshly narrated content:
//
//   - POST   /v1/location    — submit a fix; reports whether it triggered.
//   - GET    /v1/content     — consume the latest summaries, at most once.
//   - PUT    /v1/destination — set the narration target.
//   - DELETE /v1/destination — clear it.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/danif1973/tour-guide-mobile/pkg/types"
)

// Engine is the trigger-engine surface the API needs. Satisfied by
// trigger.Engine.
type Engine interface {
	OnLocation(fix types.Location) bool
	Content() ([]string, bool)
	SetDestination(loc types.Location)
	ClearDestination()
}

// Server holds the HTTP handlers.
type Server struct {
	engine Engine
}

// New creates a [Server] around the given engine.
func New(engine Engine) *Server {
	return &Server{engine: engine}
}

// Register adds the /v1 routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/location", s.handleLocation)
	mux.HandleFunc("GET /v1/content", s.handleContent)
	mux.HandleFunc("PUT /v1/destination", s.handleSetDestination)
	mux.HandleFunc("DELETE /v1/destination", s.handleClearDestination)
}

// locationRequest is the body of POST /v1/location and PUT /v1/destination.
type locationRequest struct {
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	SpeedKmh   float64 `json:"speed_kmh"`
	HeadingDeg float64 `json:"heading_deg"`
}

func (r locationRequest) validate() (string, bool) {
	if r.Lat < -90 || r.Lat > 90 {
		return "lat must be in [-90, 90]", false
	}
	if r.Lon < -180 || r.Lon > 180 {
		return "lon must be in [-180, 180]", false
	}
	if r.SpeedKmh < 0 {
		return "speed_kmh must be non-negative", false
	}
	return "", true
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg, ok := req.validate(); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	triggered := s.engine.OnLocation(types.Location{
		Lat:        req.Lat,
		Lon:        req.Lon,
		SpeedKmh:   req.SpeedKmh,
		HeadingDeg: req.HeadingDeg,
		Time:       time.Now(),
	})

	slog.Debug("location accepted",
		"lat", req.Lat, "lon", req.Lon,
		"speed_kmh", req.SpeedKmh, "triggered", triggered)
	writeJSON(w, http.StatusAccepted, map[string]bool{"triggered": triggered})
}

// contentResponse is the body of GET /v1/content.
type contentResponse struct {
	Status    string   `json:"status"`
	Summaries []string `json:"summaries,omitempty"`
}

func (s *Server) handleContent(w http.ResponseWriter, _ *http.Request) {
	summaries, ok := s.engine.Content()
	if !ok {
		writeJSON(w, http.StatusOK, contentResponse{Status: "none"})
		return
	}
	writeJSON(w, http.StatusOK, contentResponse{Status: "ready", Summaries: summaries})
}

func (s *Server) handleSetDestination(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg, ok := req.validate(); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	s.engine.SetDestination(types.Location{Lat: req.Lat, Lon: req.Lon})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearDestination(w http.ResponseWriter, _ *http.Request) {
	s.engine.ClearDestination()
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
