// Package api provides the HTTP API for observing and steering the simulation.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/tilecity/internal/agents"
	"github.com/talgya/tilecity/internal/engine"
	"github.com/talgya/tilecity/internal/persistence"
	"github.com/talgya/tilecity/internal/world"
)

const maxSSEConns = 4

// Server serves the simulation over HTTP.
type Server struct {
	Sim            *engine.Simulation
	Eng            *engine.Engine
	DB             *persistence.DB
	Port           int
	AdminKey       string        // Bearer token for POST endpoints. Empty = POST disabled.
	StreamInterval time.Duration // Websocket snapshot cadence

	started  time.Time
	sseConns int32
	hub      *Hub
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	if s.hub == nil {
		s.hub = NewHub()
	}
	if s.started.IsZero() {
		s.started = time.Now()
	}
	generateLimiter := NewRateLimiter(6, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/residents", s.handleResidents)
	mux.HandleFunc("/api/v1/resident/", s.handleResidentDetail)
	mux.HandleFunc("/api/v1/grid", s.handleGrid)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/stream", s.handleStream)
	mux.HandleFunc("/api/v1/ws", s.handleWS)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(postOnly(s.handleSnapshot)))
	mux.HandleFunc("/api/v1/generate", s.adminOnly(postOnly(RateLimitMiddleware(generateLimiter, s.handleGenerate))))
	mux.HandleFunc("/api/v1/paint", s.adminOnly(postOnly(s.handlePaint)))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API and the position stream in goroutines.
func (s *Server) Start() {
	handler := s.Handler()
	go s.hub.Run()
	go s.broadcastLoop()

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no admin key set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	view := s.Sim.Snapshot()
	clock := engine.Clock{Second: view.Second, Hour: view.Hour, Day: view.Day}
	status := map[string]any{
		"name":      "tilecity",
		"session":   view.Session,
		"tick":      view.Tick,
		"week_tick": clock.Elapsed(),
		"day":       view.DayName,
		"hour":      view.Hour,
		"second":    view.Second,
		"stats":     s.Sim.Stats(),
		"uptime":    humanize.Time(s.started),
	}
	if s.Eng != nil {
		status["speed"] = s.Eng.Speed()
		status["running"] = s.Eng.Running()
	}
	writeJSON(w, status)
}

func (s *Server) handleResidents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Snapshot())
}

func (s *Server) handleResidentDetail(w http.ResponseWriter, r *http.Request) {
	idStr := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/resident/"), "/")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid resident id", http.StatusBadRequest)
		return
	}
	res, ok := s.Sim.Resident(agents.ResidentID(id))
	if !ok {
		http.Error(w, "resident not found", http.StatusNotFound)
		return
	}
	view := s.Sim.Snapshot()
	_, regions := s.Sim.GridCopy()

	body := map[string]any{
		"resident":      res,
		"state":         res.State.String(),
		"destination":   res.NextDestination(view.Day),
		"home_capacity": regions.Size(regions.ID(res.Home)),
	}
	if stop, ok := res.CurrentStop(view.Day); ok {
		body["current_stop"] = stop
	}
	writeJSON(w, body)
}

// handleGrid returns the tile names row by row, the display palette, and the
// capacity of every region.
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	g, regions := s.Sim.GridCopy()

	rows := make([][]string, g.Rows)
	for y := 0; y < g.Rows; y++ {
		row := g.Row(y)
		names := make([]string, len(row))
		for x, t := range row {
			names[x] = t.String()
		}
		rows[y] = names
	}

	counts := make(map[string]int)
	for t, n := range g.Counts() {
		counts[t.String()] = n
	}

	palette := make(map[string]string)
	for t := world.Tile(0); int(t) < world.NumTiles; t++ {
		if c, ok := t.Color(); ok {
			palette[t.String()] = fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
		}
	}

	sizes := make([]int, regions.Count())
	for id := range sizes {
		sizes[id] = regions.Size(id)
	}

	writeJSON(w, map[string]any{
		"cols":         g.Cols,
		"rows":         g.Rows,
		"tiles":        rows,
		"counts":       counts,
		"palette":      palette,
		"regions":      regions.Count(),
		"region_sizes": sizes,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, 1000)
	}

	// archived=true reads the saved event log, which outlives the in-memory one.
	if r.URL.Query().Get("archived") == "true" {
		if s.DB == nil {
			http.Error(w, "persistence disabled", http.StatusServiceUnavailable)
			return
		}
		events, err := s.DB.RecentEvents(limit)
		if err != nil {
			slog.Error("event archive read failed", "error", err)
			http.Error(w, "event archive unavailable", http.StatusInternalServerError)
			return
		}
		slices.Reverse(events)
		writeJSON(w, events)
		return
	}
	writeJSON(w, s.Sim.RecentEvents(limit))
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "engine not running", http.StatusServiceUnavailable)
		return
	}
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "persistence disabled", http.StatusServiceUnavailable)
		return
	}
	if err := s.DB.SaveWorldState(s.Sim); err != nil {
		slog.Error("manual snapshot failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	view := s.Sim.Snapshot()
	writeJSON(w, map[string]any{
		"saved":     true,
		"tick":      view.Tick,
		"residents": len(view.Residents),
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	n := s.Sim.GeneratePopulation()
	view := s.Sim.Snapshot()
	writeJSON(w, map[string]any{
		"session":   view.Session,
		"residents": n,
	})
}

func (s *Server) handlePaint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X1   int    `json:"x1"`
		Y1   int    `json:"y1"`
		X2   int    `json:"x2"`
		Y2   int    `json:"y2"`
		Tile string `json:"tile"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	tile, err := world.ParseTile(req.Tile)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.Sim.Paint(req.X1, req.Y1, req.X2, req.Y2, tile)
	writeJSON(w, map[string]any{"painted": tile.String()})
}

// handleStream provides an SSE endpoint for real-time event streaming.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	current := atomic.AddInt32(&s.sseConns, 1)
	if current > maxSSEConns {
		atomic.AddInt32(&s.sseConns, -1)
		http.Error(w, "too many SSE connections", http.StatusServiceUnavailable)
		return
	}
	defer atomic.AddInt32(&s.sseConns, -1)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	subID, ch := s.Sim.Subscribe()
	defer s.Sim.Unsubscribe(subID)

	// Catch-up: last 50 events.
	for _, e := range s.Sim.RecentEvents(50) {
		writeSSEEvent(w, e)
	}
	flusher.Flush()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			writeSSEEvent(w, e)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, e engine.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Category, data)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
