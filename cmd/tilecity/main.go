// Command tilecity runs the tile-city commuter simulation.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/tilecity/internal/agents"
	"github.com/talgya/tilecity/internal/api"
	"github.com/talgya/tilecity/internal/config"
	"github.com/talgya/tilecity/internal/engine"
	"github.com/talgya/tilecity/internal/entropy"
	"github.com/talgya/tilecity/internal/persistence"
	"github.com/talgya/tilecity/internal/world"
)

func main() {
	cfgPath := os.Getenv("TILECITY_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/tilecity.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.Logging.NewLogger())
	slog.Info("tilecity starting", "config", cfgPath)

	// ── Zone rules ───────────────────────────────────────────────────
	rules := agents.DefaultZoneRules()
	if cfg.Zones.RulesFile != "" {
		rules, err = agents.LoadZoneRules(cfg.Zones.RulesFile)
		if err != nil {
			slog.Error("failed to load zone rules", "path", cfg.Zones.RulesFile, "error", err)
			os.Exit(1)
		}
	}

	// ── Database ─────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		slog.Error("failed to create data dir", "error", err)
		os.Exit(1)
	}
	db, err := persistence.Open(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.Database.Path)

	// ── Grid + saved state ───────────────────────────────────────────
	state, err := db.LoadWorldState()
	if err != nil && !errors.Is(err, persistence.ErrNoState) {
		slog.Error("failed to load saved state", "error", err)
		os.Exit(1)
	}

	var grid *world.Grid
	if state != nil {
		grid = state.Grid
	} else {
		grid = loadOrGenerateGrid(cfg)
	}

	counts := grid.Counts()
	for t := world.Tile(0); t < world.NumTiles; t++ {
		slog.Debug("tiles", "type", t, "count", counts[t])
	}

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = entropy.CryptoSeed()
	}
	spawner := agents.NewSpawner(entropy.NewSeeded(seed), rules)

	sim := engine.NewSimulation(grid, spawner, engine.MovePolicy{
		CollisionAvoidance: cfg.Simulation.CollisionAvoidance,
		RepathAfter:        cfg.Simulation.RepathAfter,
	})

	switch {
	case state != nil:
		sim.Restore(state.Session, state.Residents, state.Clock, state.LastTick)
		sim.ResumeEvents(state.EventSeq)
		slog.Info("simulation restored",
			"session", state.Session,
			"residents", humanize.Comma(int64(len(state.Residents))),
			"time", state.Clock,
		)
	case cfg.Simulation.AutoStart:
		sim.GeneratePopulation()
		if err := db.SaveWorldState(sim); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	default:
		slog.Info("auto_start disabled; POST /api/v1/generate to populate the city")
	}

	// ── Engine ───────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.Tick = sim.Snapshot().Tick
	eng.Interval = cfg.Simulation.TickInterval.Duration
	eng.SetSpeed(cfg.Simulation.Speed)

	eng.OnTick = sim.TickMinute
	eng.OnDay = func(tick uint64) {
		sim.TickDay(tick)
		if err := db.SaveWorldState(sim); err != nil {
			slog.Error("daily save failed", "error", err)
		}
	}
	eng.OnWeek = sim.TickWeek

	stopAutosave := startAutosave(sim, cfg.Grid.SaveDir, cfg.Grid.AutosaveInterval.Duration)

	// ── HTTP API ─────────────────────────────────────────────────────
	if cfg.API.AdminKey == "" {
		slog.Warn("TILECITY_ADMIN_KEY not set; admin POST endpoints will be disabled")
	}
	apiServer := &api.Server{
		Sim:            sim,
		Eng:            eng,
		DB:             db,
		Port:           cfg.API.Port,
		AdminKey:       cfg.API.AdminKey,
		StreamInterval: cfg.API.StreamInterval.Duration,
	}
	apiServer.Start()

	// ── Start ────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	st := sim.Stats()
	fmt.Printf("\ntilecity: %d residents on a %dx%d grid (%d regions).\n",
		st.Residents, grid.Cols, grid.Rows, st.Regions)
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.API.Port)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run()

	close(stopAutosave)
	slog.Info("final save...")
	if err := db.SaveWorldState(sim); err != nil {
		slog.Error("final save failed", "error", err)
	}
	if g, _ := sim.GridCopy(); cfg.Grid.SaveDir != "" {
		if _, err := world.SaveFile(cfg.Grid.SaveDir, g, time.Now()); err != nil {
			slog.Error("final grid save failed", "error", err)
		}
	}
	fmt.Println("Simulation stopped. City saved.")
}

// loadOrGenerateGrid picks the newest saved grid, else a generated city,
// else an empty canvas.
func loadOrGenerateGrid(cfg *config.Config) *world.Grid {
	if cfg.Grid.SaveDir != "" {
		g, path, err := world.LoadLatest(cfg.Grid.SaveDir)
		switch {
		case err == nil:
			slog.Info("grid loaded", "path", path, "cols", g.Cols, "rows", g.Rows)
			return g
		case errors.Is(err, fs.ErrNotExist):
		default:
			slog.Warn("could not load saved grid", "path", path, "error", err)
		}
	}

	if !cfg.Grid.Generate {
		slog.Info("starting with an empty grid", "cols", cfg.Grid.Cols, "rows", cfg.Grid.Rows)
		return world.NewGrid(cfg.Grid.Cols, cfg.Grid.Rows)
	}

	g := world.GenerateCity(world.GenConfig{
		Cols:      cfg.Grid.Cols,
		Rows:      cfg.Grid.Rows,
		BlockSize: cfg.Grid.BlockSize,
		Seed:      cfg.Simulation.Seed,
		Vacancy:   cfg.Grid.Vacancy,
	})
	slog.Info("city generated", "cols", g.Cols, "rows", g.Rows)
	return g
}

// startAutosave writes the grid to dir every interval until the returned
// channel is closed.
func startAutosave(sim *engine.Simulation, dir string, interval time.Duration) chan struct{} {
	stop := make(chan struct{})
	if dir == "" || interval <= 0 {
		return stop
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				g, _ := sim.GridCopy()
				path, err := world.SaveFile(dir, g, time.Now())
				if err != nil {
					slog.Error("autosave failed", "error", err)
					continue
				}
				slog.Debug("grid autosaved", "path", path)
			case <-stop:
				return
			}
		}
	}()
	return stop
}
