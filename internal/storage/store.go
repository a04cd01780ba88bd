// Package storage implements the durable writer (C5): a dual-mode (raw or
// windowed-aggregated) buffered writer over an embedded SQLite database.
package storage

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Row is one persisted packet, in raw mode, or one flushed window bucket, in
// aggregated mode (length holds total_bytes for the window).
type Row struct {
	Timestamp   int64
	SrcIP       string
	DstIP       string
	SrcPort     uint16
	DstPort     uint16
	Protocol    string
	Length      int64
	SrcHostname *string
	DstHostname *string
}

// Store owns the single, process-wide database handle. Every query and
// write serializes through mu: holding it across a full batch transaction is
// deliberate (spec §9 "writer lock granularity") -- it prevents interleaved
// statements from different producers, at the cost of briefly blocking
// readers behind a flush.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path, enables
// WAL journaling and NORMAL synchrony, and ensures the packets schema
// exists. Opening the same database twice in sequence is idempotent: no
// existing rows are altered.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // one process-wide handle; sql.DB itself must not fan out concurrent writers

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: set WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: set synchronous: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS packets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		src_ip TEXT NOT NULL,
		dst_ip TEXT NOT NULL,
		src_port INTEGER,
		dst_port INTEGER,
		protocol TEXT,
		length INTEGER,
		src_hostname TEXT,
		dst_hostname TEXT
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create table: %w", err)
	}

	// Legacy databases may predate the hostname columns. ADD COLUMN errors
	// when the column already exists (unlike SQLite >= 3.35's no-op
	// behavior for some statement forms) -- ignore it either way.
	_, _ = db.Exec(`ALTER TABLE packets ADD COLUMN src_hostname TEXT`)
	_, _ = db.Exec(`ALTER TABLE packets ADD COLUMN dst_hostname TEXT`)

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_timestamp ON packets(timestamp)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create index: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying handle.
func (s *Store) Close() error {
	return s.db.Close()
}

const insertSQL = `INSERT INTO packets
	(timestamp, src_ip, dst_ip, src_port, dst_port, protocol, length, src_hostname, dst_hostname)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// flushRows persists rows in one transaction: open, prepare once, execute
// per row, commit. A per-row execute error is logged by the caller and
// skipped -- the batch keeps going. A begin/commit failure drops the whole
// batch; there is no retry (spec §4.5/§7).
func (s *Store) flushRows(rows []Row, onRowError func(error)) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("storage: prepare insert: %w", err)
	}

	for _, r := range rows {
		if _, err := stmt.Exec(r.Timestamp, r.SrcIP, r.DstIP, r.SrcPort, r.DstPort, r.Protocol, r.Length, r.SrcHostname, r.DstHostname); err != nil {
			if onRowError != nil {
				onRowError(err)
			}
			continue
		}
	}
	_ = stmt.Close()

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit transaction: %w", err)
	}
	return nil
}

// QueryHistory returns up to limit most recent rows, newest first. limit is
// clamped to [0, 1000].
func (s *Store) QueryHistory(limit int) ([]Row, error) {
	if limit < 0 {
		limit = 0
	}
	if limit > 1000 {
		limit = 1000
	}
	if limit == 0 {
		return []Row{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT timestamp, src_ip, dst_ip, src_port, dst_port, protocol, length, src_hostname, dst_hostname
		FROM packets ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: query history: %w", err)
	}
	defer rows.Close()

	out := make([]Row, 0, limit)
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Timestamp, &r.SrcIP, &r.DstIP, &r.SrcPort, &r.DstPort, &r.Protocol, &r.Length, &r.SrcHostname, &r.DstHostname); err != nil {
			return nil, fmt.Errorf("storage: scan history row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteOlderThan removes rows with timestamp < cutoffMillis and returns the
// number of rows deleted.
func (s *Store) DeleteOlderThan(cutoffMillis int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM packets WHERE timestamp < ?`, cutoffMillis)
	if err != nil {
		return 0, fmt.Errorf("storage: delete old rows: %w", err)
	}
	return res.RowsAffected()
}
