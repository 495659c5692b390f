package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cwbudde/metaopt/internal/opt"
)

const (
	TblBest     = "trace_best"
	TblPosition = "trace_position"
)

// OpenSQLite opens (creating if needed) an SQLite database at path.
// ":memory:" gives a private in-memory database.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace database: %w", err)
	}
	// every pooled connection to :memory: would see its own empty database
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open trace database: %w", err)
	}
	return db, nil
}

// SQLTrace records per-iteration progress of one run into SQL tables:
// the best score per iteration in TblBest and its position, one row per
// dimension, in TblPosition. Several runs can share a database.
type SQLTrace struct {
	db    *sql.DB
	runID string
}

// NewSQLTrace creates the trace tables if needed and returns a recorder for
// runID.
func NewSQLTrace(db *sql.DB, runID string) (*SQLTrace, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS " + TblBest + " (run TEXT, iter INTEGER, evals INTEGER, val REAL, ts INTEGER);",
		"CREATE TABLE IF NOT EXISTS " + TblPosition + " (run TEXT, iter INTEGER, dim INTEGER, x REAL);",
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return nil, fmt.Errorf("failed to create trace tables: %w", err)
		}
	}
	return &SQLTrace{db: db, runID: runID}, nil
}

// Record inserts the best candidate of one iteration.
func (t *SQLTrace) Record(entry TraceEntry) error {
	tx, err := t.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin trace transaction: %w", err)
	}

	s1 := "INSERT INTO " + TblBest + " (run,iter,evals,val,ts) VALUES (?,?,?,?,?);"
	if _, err := tx.Exec(s1, t.runID, entry.Iteration, entry.Evaluations, entry.Score, entry.Timestamp.UnixNano()); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to insert trace row: %w", err)
	}

	s2 := "INSERT INTO " + TblPosition + " (run,iter,dim,x) VALUES (?,?,?,?);"
	for i, x := range entry.Position {
		if _, err := tx.Exec(s2, t.runID, entry.Iteration, i, x); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert trace position: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trace row: %w", err)
	}
	return nil
}

// Observer returns an opt.Observer recording every iteration with its best
// position.
func (t *SQLTrace) Observer() opt.Observer {
	return func(p opt.Progress) error {
		return t.Record(EntryFromProgress(p, true))
	}
}

// Entries reads back the trace of the run ordered by iteration.
func (t *SQLTrace) Entries() ([]TraceEntry, error) {
	rows, err := t.db.Query("SELECT iter, evals, val, ts FROM "+TblBest+" WHERE run = ? ORDER BY iter;", t.runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trace: %w", err)
	}
	defer rows.Close()

	var entries []TraceEntry
	index := map[int]int{}
	for rows.Next() {
		var e TraceEntry
		var ts int64
		if err := rows.Scan(&e.Iteration, &e.Evaluations, &e.Score, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan trace row: %w", err)
		}
		e.Timestamp = time.Unix(0, ts)
		index[e.Iteration] = len(entries)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	// release the single connection before the second query
	rows.Close()

	pos, err := t.db.Query("SELECT iter, x FROM "+TblPosition+" WHERE run = ? ORDER BY iter, dim;", t.runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trace positions: %w", err)
	}
	defer pos.Close()

	for pos.Next() {
		var iter int
		var x float64
		if err := pos.Scan(&iter, &x); err != nil {
			return nil, fmt.Errorf("failed to scan trace position: %w", err)
		}
		if i, ok := index[iter]; ok {
			entries[i].Position = append(entries[i].Position, x)
		}
	}
	return entries, pos.Err()
}

// Delete removes every row of the run.
func (t *SQLTrace) Delete() error {
	for _, tbl := range []string{TblBest, TblPosition} {
		if _, err := t.db.Exec("DELETE FROM "+tbl+" WHERE run = ?;", t.runID); err != nil {
			return fmt.Errorf("failed to delete trace rows: %w", err)
		}
	}
	return nil
}
