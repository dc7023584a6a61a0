// Package persistence provides SQLite-based simulation snapshots.
package persistence

import (
	"bytes"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/talgya/tilecity/internal/agents"
	"github.com/talgya/tilecity/internal/engine"
	"github.com/talgya/tilecity/internal/world"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNoState is returned when the database holds no saved simulation.
var ErrNoState = errors.New("no saved simulation state")

// DB wraps a SQLite connection for simulation persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path and applies
// pending migrations.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	return goose.Up(db.conn.DB, "migrations")
}

// SaveGrid stores the grid in its text form.
func (db *DB) SaveGrid(g *world.Grid) error {
	var buf bytes.Buffer
	if err := world.Encode(&buf, g); err != nil {
		return fmt.Errorf("encode grid: %w", err)
	}
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO grids (id, cols, rows, body) VALUES (1, ?, ?, ?)",
		g.Cols, g.Rows, buf.String(),
	)
	return err
}

// LoadGrid reads the stored grid.
func (db *DB) LoadGrid() (*world.Grid, error) {
	var body string
	err := db.conn.Get(&body, "SELECT body FROM grids WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, err
	}
	return world.Decode(bytes.NewBufferString(body))
}

type residentRow struct {
	ID            uint64 `db:"id"`
	HomeRow       int    `db:"home_row"`
	HomeCol       int    `db:"home_col"`
	LocRow        int    `db:"loc_row"`
	LocCol        int    `db:"loc_col"`
	StopIndex     int    `db:"stop_index"`
	Elapsed       int    `db:"elapsed"`
	State         uint8  `db:"state"`
	TimetableJSON string `db:"timetable_json"`
}

// SaveResidents writes all residents to the database (full replace).
func (db *DB) SaveResidents(residents []agents.Resident) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM residents"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO residents
		(id, home_row, home_col, loc_row, loc_col, stop_index, elapsed, state, timetable_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range residents {
		ttJSON, err := json.Marshal(r.Timetable)
		if err != nil {
			return fmt.Errorf("marshal timetable %d: %w", r.ID, err)
		}
		_, err = stmt.Exec(
			r.ID, r.Home.Row, r.Home.Col, r.Loc.Row, r.Loc.Col,
			r.Index, r.Elapsed, r.State, string(ttJSON),
		)
		if err != nil {
			return fmt.Errorf("insert resident %d: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// LoadResidents reads all residents in id order.
func (db *DB) LoadResidents() ([]*agents.Resident, error) {
	var rows []residentRow
	if err := db.conn.Select(&rows, "SELECT * FROM residents ORDER BY id"); err != nil {
		return nil, err
	}

	residents := make([]*agents.Resident, 0, len(rows))
	for _, row := range rows {
		r := &agents.Resident{
			ID:      agents.ResidentID(row.ID),
			Home:    world.Loc(row.HomeRow, row.HomeCol),
			Loc:     world.Loc(row.LocRow, row.LocCol),
			Index:   row.StopIndex,
			Elapsed: agents.Hours(row.Elapsed),
			State:   agents.State(row.State),
		}
		if err := json.Unmarshal([]byte(row.TimetableJSON), &r.Timetable); err != nil {
			return nil, fmt.Errorf("unmarshal timetable %d: %w", row.ID, err)
		}
		residents = append(residents, r)
	}
	return residents, nil
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (seq, tick, sim_time, category, resident_id, description) VALUES (?, ?, ?, ?, ?, ?)",
			e.Seq, e.Tick, e.Time, e.Category, e.Resident, e.Description,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		`SELECT seq, tick, sim_time AS time, category, resident_id AS resident, description
		 FROM events ORDER BY id DESC LIMIT ?`,
		limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// HasWorldState reports whether a simulation snapshot has been saved.
func (db *DB) HasWorldState() bool {
	_, err := db.GetMeta("session")
	return err == nil
}

// SaveWorldState performs a full save of the simulation.
func (db *DB) SaveWorldState(sim *engine.Simulation) error {
	session, residents, clock, lastTick := sim.State()
	grid, _ := sim.GridCopy()

	if err := db.SaveGrid(grid); err != nil {
		return fmt.Errorf("save grid: %w", err)
	}
	if err := db.SaveResidents(residents); err != nil {
		return fmt.Errorf("save residents: %w", err)
	}
	events, seq, err := db.unsavedEvents(sim)
	if err != nil {
		return err
	}
	if err := db.SaveEvents(events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}

	meta := map[string]string{
		"session":   session.String(),
		"last_tick": strconv.FormatUint(lastTick, 10),
		"day":       strconv.Itoa(int(clock.Day)),
		"hour":      strconv.Itoa(clock.Hour),
		"second":    strconv.Itoa(clock.Second),
		"event_seq": strconv.FormatUint(seq, 10),
	}
	for k, v := range meta {
		if err := db.SaveMeta(k, v); err != nil {
			return fmt.Errorf("save meta %s: %w", k, err)
		}
	}

	slog.Info("simulation state saved",
		"session", session,
		"residents", humanize.Comma(int64(len(residents))),
		"time", clock,
	)
	return nil
}

// unsavedEvents returns the events issued since the last save, and the
// sequence number to record as saved. The in-memory log is left intact.
func (db *DB) unsavedEvents(sim *engine.Simulation) ([]engine.Event, uint64, error) {
	var mark uint64
	v, err := db.GetMeta("event_seq")
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, 0, fmt.Errorf("load meta event_seq: %w", err)
	default:
		if mark, err = strconv.ParseUint(v, 10, 64); err != nil {
			return nil, 0, fmt.Errorf("parse meta event_seq: %w", err)
		}
	}
	events, seq := sim.EventsAfter(mark)
	return events, max(seq, mark), nil
}

// WorldState is a loaded snapshot.
type WorldState struct {
	Session   uuid.UUID
	Grid      *world.Grid
	Residents []*agents.Resident
	Clock     engine.Clock
	LastTick  uint64
	EventSeq  uint64
}

// LoadWorldState reads the saved snapshot.
func (db *DB) LoadWorldState() (*WorldState, error) {
	if !db.HasWorldState() {
		return nil, ErrNoState
	}

	st := &WorldState{}
	var err error
	if st.Grid, err = db.LoadGrid(); err != nil {
		return nil, fmt.Errorf("load grid: %w", err)
	}
	if st.Residents, err = db.LoadResidents(); err != nil {
		return nil, fmt.Errorf("load residents: %w", err)
	}

	sessionStr, _ := db.GetMeta("session")
	if st.Session, err = uuid.Parse(sessionStr); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}

	ints := map[string]*int{"hour": &st.Clock.Hour, "second": &st.Clock.Second}
	for k, dst := range ints {
		v, err := db.GetMeta(k)
		if err != nil {
			return nil, fmt.Errorf("load meta %s: %w", k, err)
		}
		if *dst, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("parse meta %s: %w", k, err)
		}
	}
	dayStr, err := db.GetMeta("day")
	if err != nil {
		return nil, fmt.Errorf("load meta day: %w", err)
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil || day < 0 || day >= agents.DaysPerWeek {
		return nil, fmt.Errorf("bad saved day %q", dayStr)
	}
	st.Clock.Day = agents.Day(day)

	if tickStr, err := db.GetMeta("last_tick"); err == nil {
		if t, err := strconv.ParseUint(tickStr, 10, 64); err == nil {
			st.LastTick = t
		}
	}
	if seqStr, err := db.GetMeta("event_seq"); err == nil {
		if n, err := strconv.ParseUint(seqStr, 10, 64); err == nil {
			st.EventSeq = n
		}
	}
	return st, nil
}
