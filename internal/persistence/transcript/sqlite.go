package transcript

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"gridsandbox.ai/internal/protocol"
	"gridsandbox.ai/internal/sim/engine"
)

// SQLiteIndex records resolved turns into a queryable index. Writes go
// through a single writer goroutine so recording never blocks the turn loop
// on sqlite contention.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan indexReq
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type indexReq struct {
	runID string
	res   *engine.TurnResult
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan indexReq, 1024),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-style write pattern of a transcript.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS turns (
			run_id TEXT NOT NULL,
			turn INTEGER NOT NULL,
			snapshot TEXT NOT NULL,
			recorded_at TEXT NOT NULL,
			PRIMARY KEY (run_id, turn)
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			turn INTEGER NOT NULL,
			from_agent TEXT NOT NULL,
			to_agent TEXT NOT NULL,
			message TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS debug (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			turn INTEGER NOT NULL,
			agent TEXT NOT NULL,
			response TEXT NOT NULL,
			action TEXT NOT NULL,
			notes TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_run_turn ON messages(run_id, turn);`,
		`CREATE INDEX IF NOT EXISTS idx_debug_run_turn ON debug(run_id, turn);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}

// RecordTurn enqueues one resolved turn. It fails only when the index is
// closed or the queue is full; callers treat failures as non-fatal.
func (s *SQLiteIndex) RecordTurn(runID string, res *engine.TurnResult) error {
	if s.closed.Load() {
		return fmt.Errorf("index closed")
	}
	select {
	case s.ch <- indexReq{runID: runID, res: res}:
		return nil
	default:
		return fmt.Errorf("index queue full; dropped turn %d", res.Turn)
	}
}

func (s *SQLiteIndex) loop() {
	for req := range s.ch {
		if err := s.insertTurn(req.runID, req.res); err != nil {
			// Indexing is best-effort; a failed insert must not stop the drain.
			continue
		}
	}
}

func (s *SQLiteIndex) insertTurn(runID string, res *engine.TurnResult) error {
	snap, err := json.Marshal(res.Snapshot)
	if err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO turns (run_id, turn, snapshot, recorded_at) VALUES (?, ?, ?, ?)`,
		runID, res.Turn, string(snap), time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return err
	}
	for _, m := range res.TurnMessages {
		if _, err := tx.Exec(
			`INSERT INTO messages (run_id, turn, from_agent, to_agent, message) VALUES (?, ?, ?, ?, ?)`,
			runID, m.Turn, m.From, m.To, m.Message,
		); err != nil {
			return err
		}
	}
	for _, d := range res.Debug {
		action := ""
		if d.ParsedAction != nil {
			b, _ := json.Marshal(d.ParsedAction)
			action = string(b)
		}
		if _, err := tx.Exec(
			`INSERT INTO debug (run_id, turn, agent, response, action, notes) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, d.Turn, d.Agent, d.RawResponse, action, d.Notes,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Runs lists the distinct run ids present in the index, oldest first.
func (s *SQLiteIndex) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT run_id FROM turns ORDER BY run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Conversation returns every recorded message for a run in turn order.
func (s *SQLiteIndex) Conversation(ctx context.Context, runID string) ([]protocol.ConversationEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT turn, from_agent, to_agent, message FROM messages WHERE run_id = ? ORDER BY turn, id`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []protocol.ConversationEntry
	for rows.Next() {
		var e protocol.ConversationEntry
		if err := rows.Scan(&e.Turn, &e.From, &e.To, &e.Message); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// TurnCount returns the number of recorded turns for a run.
func (s *SQLiteIndex) TurnCount(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM turns WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}

// Close drains pending writes and closes the database.
func (s *SQLiteIndex) Close() error {
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
	})
	s.wg.Wait()
	return s.db.Close()
}
