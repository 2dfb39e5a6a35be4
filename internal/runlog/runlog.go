// Package runlog keeps a SQLite ledger of counting runs and their chunks.
//
// A ledger answers after the fact which plan a run used, how long each
// chunk took and how its triangles were distributed. It implements
// worker.Recorder, so a pool can write to it directly.
package runlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	// registers the "sqlite3" driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/hupe1980/trilist/internal/worker"
)

// ErrNoRun is returned when recording outside BeginRun/FinishRun.
var ErrNoRun = errors.New("runlog: no active run")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	graph       TEXT    NOT NULL,
	mode        TEXT    NOT NULL,
	chunks      INTEGER NOT NULL,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER,
	triangles   INTEGER,
	error       TEXT
);
CREATE TABLE IF NOT EXISTS chunks (
	run_id      INTEGER NOT NULL REFERENCES runs(id),
	chunk       INTEGER NOT NULL,
	low         INTEGER NOT NULL,
	high        INTEGER NOT NULL,
	memory      INTEGER NOT NULL,
	avg_degree  REAL    NOT NULL,
	triangles   INTEGER NOT NULL,
	phases      INTEGER NOT NULL,
	elapsed_ns  INTEGER NOT NULL,
	PRIMARY KEY (run_id, chunk)
);`

// Run identifies one ledger entry.
type Run struct {
	ID         int64
	Graph      string
	Mode       string
	Chunks     int
	StartedAt  time.Time
	FinishedAt time.Time
	Triangles  uint64
	Err        string
}

// Ledger is a SQLite run ledger. It is safe for concurrent use.
type Ledger struct {
	db *sql.DB

	mu  sync.Mutex
	run int64
}

// Open opens (creating if needed) the ledger at path. ":memory:" gives a
// private in-memory ledger.
func Open(ctx context.Context, path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	// one connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the database.
func (l *Ledger) Close() error { return l.db.Close() }

// BeginRun starts a run; later RecordChunk calls are attributed to it.
func (l *Ledger) BeginRun(ctx context.Context, graph, mode string, chunks int) (int64, error) {
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (graph, mode, chunks, started_at) VALUES (?, ?, ?, ?)`,
		graph, mode, chunks, time.Now().UnixNano())
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	l.mu.Lock()
	l.run = id
	l.mu.Unlock()
	return id, nil
}

func (l *Ledger) current() (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.run == 0 {
		return 0, ErrNoRun
	}
	return l.run, nil
}

// RecordChunk implements worker.Recorder.
func (l *Ledger) RecordChunk(ctx context.Context, st worker.ChunkStat) error {
	run, err := l.current()
	if err != nil {
		return err
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO chunks (run_id, chunk, low, high, memory, avg_degree, triangles, phases, elapsed_ns)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run, st.Index, int64(st.Low), int64(st.High), int64(st.MemoryBytes), st.AvgDegree,
		int64(st.Triangles), st.Phases, int64(st.Elapsed))
	return err
}

// FinishRun closes the active run with its total and error, if any.
func (l *Ledger) FinishRun(ctx context.Context, triangles uint64, runErr error) error {
	run, err := l.current()
	if err != nil {
		return err
	}
	var msg sql.NullString
	if runErr != nil {
		msg = sql.NullString{String: runErr.Error(), Valid: true}
	}
	if _, err := l.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, triangles = ?, error = ? WHERE id = ?`,
		time.Now().UnixNano(), int64(triangles), msg, run); err != nil {
		return err
	}
	l.mu.Lock()
	l.run = 0
	l.mu.Unlock()
	return nil
}

// Run returns the ledger entry id.
func (l *Ledger) Run(ctx context.Context, id int64) (*Run, error) {
	var (
		r        Run
		started  int64
		finished sql.NullInt64
		tri      sql.NullInt64
		msg      sql.NullString
	)
	err := l.db.QueryRowContext(ctx,
		`SELECT id, graph, mode, chunks, started_at, finished_at, triangles, error FROM runs WHERE id = ?`, id).
		Scan(&r.ID, &r.Graph, &r.Mode, &r.Chunks, &started, &finished, &tri, &msg)
	if err != nil {
		return nil, err
	}
	r.StartedAt = time.Unix(0, started)
	if finished.Valid {
		r.FinishedAt = time.Unix(0, finished.Int64)
	}
	r.Triangles = uint64(tri.Int64)
	r.Err = msg.String
	return &r, nil
}

// Chunks returns the recorded chunks of run id in chunk order.
func (l *Ledger) Chunks(ctx context.Context, id int64) ([]worker.ChunkStat, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT chunk, low, high, memory, avg_degree, triangles, phases, elapsed_ns
		 FROM chunks WHERE run_id = ? ORDER BY chunk`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []worker.ChunkStat
	for rows.Next() {
		var (
			st                         worker.ChunkStat
			low, high, mem, tri, nanos int64
		)
		if err := rows.Scan(&st.Index, &low, &high, &mem, &st.AvgDegree, &tri, &st.Phases, &nanos); err != nil {
			return nil, err
		}
		st.Low, st.High, st.MemoryBytes = uint64(low), uint64(high), uint64(mem)
		st.Triangles, st.Elapsed = uint64(tri), time.Duration(nanos)
		out = append(out, st)
	}
	return out, rows.Err()
}
