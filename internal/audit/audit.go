// Package audit records every applied transaction in a SQLite database.
//
// The audit trail is append-only and scoped by run id: it captures what a
// run applied, it is never read back to rebuild ledger state. Rerunning the
// same input produces a fresh set of rows under a new run id.
package audit

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/rumor-ml/commons.systems/payengine/internal/record"
)

const schema = `
CREATE TABLE IF NOT EXISTS applied_transactions (
	run_id     TEXT    NOT NULL,
	seq        INTEGER NOT NULL,
	type       TEXT    NOT NULL,
	client     INTEGER NOT NULL,
	tx         INTEGER NOT NULL,
	amount     REAL,
	applied_at TEXT    NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`

// Log is an open audit database bound to a single run id. Safe for use
// from concurrent ingestion streams.
type Log struct {
	mu    sync.Mutex
	db    *sql.DB
	runID string
	seq   int64
}

// Open creates or opens the audit database at path and ensures the schema
// exists. Each Open gets a fresh run id.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit schema in %s: %w", path, err)
	}

	return &Log{
		db:    db,
		runID: uuid.NewString(),
	}, nil
}

// RunID returns the id under which this run's rows are recorded.
func (l *Log) RunID() string {
	return l.runID
}

// Record appends one applied transaction to the trail. The sequence number
// reflects apply order within the run.
func (l *Log) Record(tx *record.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++

	var amount any
	if tx.Amount != nil {
		amount = *tx.Amount
	}

	_, err := l.db.Exec(
		`INSERT INTO applied_transactions (run_id, seq, type, client, tx, amount, applied_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.runID, l.seq, string(tx.Type), tx.Client, tx.Tx, amount,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record transaction %d: %w", tx.Tx, err)
	}
	return nil
}

// Count returns the number of rows recorded under this run id.
func (l *Log) Count() (int, error) {
	var n int
	err := l.db.QueryRow(
		`SELECT COUNT(*) FROM applied_transactions WHERE run_id = ?`, l.runID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit rows: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	if err := l.db.Close(); err != nil {
		return fmt.Errorf("failed to close audit database: %w", err)
	}
	return nil
}
