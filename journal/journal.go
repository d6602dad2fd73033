// Package journal keeps a SQLite log of finished processes.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/stackvm/vm"
)

var log = commonlog.GetLogger("stackvm.journal")

// ErrClosed is returned by operations on a closed journal.
var ErrClosed = errors.New("journal closed")

// Entry is one recorded process termination.
type Entry struct {
	ID         int64
	PID        int
	Program    string
	Steps      int
	Slices     int
	OK         bool
	Error      string
	FinishedAt time.Time
}

// Journal appends vm.Status records to a SQLite database. It implements
// vm.Recorder and is safe for concurrent use.
type Journal struct {
	db  *sql.DB
	now func() time.Time
	mu  sync.Mutex
}

// Open opens or creates the journal database at path, creating parent
// directories as needed.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		pid INTEGER NOT NULL,
		program TEXT NOT NULL,
		steps INTEGER NOT NULL,
		slices INTEGER NOT NULL,
		ok INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		finished_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	log.Debugf("journal open at %s", path)
	return &Journal{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}

// Record appends st to the journal.
func (j *Journal) Record(st vm.Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.db == nil {
		return ErrClosed
	}

	var msg string
	if st.Err != nil {
		msg = st.Err.Error()
	}
	_, err := j.db.Exec(
		"INSERT INTO runs (pid, program, steps, slices, ok, error, finished_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		st.PID, st.Program, st.Steps, st.Slices, st.OK(), msg, j.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("recording process %d: %w", st.PID, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. A non-positive limit
// returns every entry.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := j.db.Query(
		"SELECT id, pid, program, steps, slices, ok, error, finished_at FROM runs ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var finished int64
		if err := rows.Scan(&e.ID, &e.PID, &e.Program, &e.Steps, &e.Slices, &e.OK, &e.Error, &finished); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		e.FinishedAt = time.Unix(0, finished)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading runs: %w", err)
	}
	return entries, nil
}
