package journal

import (
	"database/sql"
	"log/slog"
	"sync"
	"time"
)

// Schema for the file_stages table. Call Store.Init() or apply manually.
const Schema = `
CREATE TABLE IF NOT EXISTS file_stages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id TEXT NOT NULL,
	stage TEXT NOT NULL,
	method TEXT,
	duration_us INTEGER NOT NULL,
	error TEXT,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_file_stages_fid ON file_stages(file_id);
CREATE INDEX IF NOT EXISTS idx_file_stages_ts ON file_stages(timestamp);
CREATE INDEX IF NOT EXISTS idx_file_stages_err ON file_stages(file_id) WHERE error != '';
`

// Store persists journal entries to a SQLite table asynchronously.
type Store struct {
	db   *sql.DB
	ch   chan *Entry
	done chan struct{}
	once sync.Once
}

// NewStore creates a journal store backed by the given database connection
// and starts its flush goroutine.
func NewStore(db *sql.DB) *Store {
	s := &Store{
		db:   db,
		ch:   make(chan *Entry, 1024),
		done: make(chan struct{}),
	}
	go s.flushLoop()
	return s
}

// Init creates the file_stages table if it doesn't exist.
func (s *Store) Init() error {
	_, err := s.db.Exec(Schema)
	return err
}

// RecordAsync queues an entry for async persistence. Non-blocking; drops if buffer full.
func (s *Store) RecordAsync(e *Entry) {
	select {
	case s.ch <- e:
	default:
		// buffer full — drop silently to avoid backpressure on the pipeline
	}
}

// Close drains the buffer and stops the flush goroutine.
func (s *Store) Close() error {
	s.once.Do(func() {
		close(s.ch)
		<-s.done
	})
	return nil
}

// ListByFile returns all entries recorded for a file ID, oldest first.
func (s *Store) ListByFile(fileID string) ([]*Entry, error) {
	rows, err := s.db.Query(`SELECT file_id, stage, method, duration_us, error, timestamp
		FROM file_stages WHERE file_id = ? ORDER BY id`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		var e Entry
		var method, errText sql.NullString
		if err := rows.Scan(&e.FileID, &e.Stage, &method, &e.DurationUS, &errText, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Method = method.String
		e.Error = errText.String
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s *Store) flushLoop() {
	defer close(s.done)

	batch := make([]*Entry, 0, 64)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-s.ch:
			if !ok {
				s.flushBatch(batch)
				return
			}
			batch = append(batch, e)
			if len(batch) >= 64 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *Store) flushBatch(batch []*Entry) {
	if len(batch) == 0 {
		return
	}

	tx, err := s.db.Begin()
	if err != nil {
		slog.Error("journal store: begin tx", "error", err)
		return
	}

	stmt, err := tx.Prepare(`INSERT INTO file_stages (file_id, stage, method, duration_us, error, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		slog.Error("journal store: prepare", "error", err)
		return
	}
	defer stmt.Close()

	for _, e := range batch {
		if _, err := stmt.Exec(e.FileID, e.Stage, e.Method, e.DurationUS, e.Error, e.Timestamp); err != nil {
			slog.Error("journal store: insert", "error", err)
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("journal store: commit", "error", err)
	}
}
