package sqliteengine

import (
	"database/sql"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// DriverName is the SQL driver registered below, distinct from the plain
// "sqlite3" name mattn/go-sqlite3 registers for itself so a connection hook
// can attach the psql-compatibility functions every session's connection
// needs.
const DriverName = "pgbridge-sqlite3"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			funcs := []struct {
				name string
				fn   any
			}{
				{"current_catalog", currentCatalog},
				{"current_schema", currentSchema},
				{"current_user", currentUser},
				{"session_user", sessionUser},
				{"user", userFunc},
				{"show", show},
				{"version", version},
			}
			for _, f := range funcs {
				if err := conn.RegisterFunc(f.name, f.fn, true); err != nil {
					return fmt.Errorf("cannot register %s(): %w", f.name, err)
				}
			}
			return nil
		},
	})
}

// These back-fill the handful of psql introspection identifiers/functions
// a standard PostgreSQL client driver or psql itself queries at connection
// time; pkg/sqliteengine.rewriteQuery turns the bare identifier forms into
// calls to these before the statement ever reaches SQLite.
func currentCatalog() string { return "public" }
func currentSchema() string  { return "public" }
func currentUser() string    { return "pgbridge" }
func sessionUser() string    { return "pgbridge" }
func userFunc() string       { return "pgbridge" }
func version() string        { return "pgbridge (SQLite backend)" }
func show(name string) string {
	return ""
}
