package sqliteengine

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
)

// makeDSN builds a SQLite DSN, adapted from the teacher's db.makeDSN: one
// connection, WAL journaling, a busy timeout so a slow writer doesn't
// immediately surface as SQLITE_BUSY to this session's single Execute.
// There is no read-only/read-write split here (unlike the teacher) because
// spec.md's concurrency model gives each session its own exclusively-owned
// engine with at most one in-flight Execute — the teacher's RO/RW pool
// split exists to let multiple concurrent sessions share one file safely,
// a concern this engine's single-connection-per-session model doesn't have.
func makeDSN(path string) string {
	opts := url.Values{}
	opts.Add("_fk", "true")
	opts.Add("_journal", "WAL")
	opts.Add("_sync", "0")
	opts.Add("cache", "shared")
	opts.Add("_busy_timeout", "3000")
	return fmt.Sprintf("file:%s?%s", path, opts.Encode())
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// openDB opens (creating if necessary) a SQLite-backed *sql.DB for path.
func openDB(path string) (*sql.DB, error) {
	if !fileExists(path) {
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
		if err != nil {
			return nil, err
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(DriverName, makeDSN(path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA wal_autocheckpoint=1000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure checkpointing: %w", err)
	}
	return db, nil
}
