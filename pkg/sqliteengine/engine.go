// Package sqliteengine is the reference engine.Engine implementation: a
// single SQLite connection per session, fronted by the psql-compatibility
// query rewriting the teacher's parser package established and the
// command classification needed to produce idiomatic CommandComplete tags.
package sqliteengine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"

	"github.com/pgbridge/pgbridge/pkg/engine"
	"github.com/pgbridge/pgbridge/pkg/pgerror"
)

// Engine is a per-session SQLite-backed engine.Engine.
type Engine struct {
	db      *sql.DB
	tx      *sql.Tx
	started bool
}

var _ engine.Engine = (*Engine)(nil)

// Open creates the Engine that will back one session, opening (or
// creating) the SQLite file at path.
func Open(path string) (*Engine, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, pgerror.WithCode(err, pgerrcode.ConnectionException)
	}
	return &Engine{db: db}, nil
}

// Startup is idempotent per spec.md §4.3: a second call is a no-op.
func (e *Engine) Startup(ctx context.Context) error {
	if e.started {
		return nil
	}
	if err := e.db.PingContext(ctx); err != nil {
		return pgerror.WithCode(err, pgerrcode.ConnectionException)
	}
	e.started = true
	return nil
}

// Prepare resolves the result schema for sql where possible; see
// inferFields for the cases it can and can't handle.
func (e *Engine) Prepare(ctx context.Context, sqlText string) ([]engine.Field, error) {
	rewritten := rewriteQuery(sqlText)
	if classify(rewritten) != cmdSelect {
		return nil, nil
	}
	return inferFields(ctx, e.db, rewritten), nil
}

// querier is the subset of *sql.DB/*sql.Tx this engine executes against;
// whichever is active (a transaction, if one is open) is used.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (e *Engine) active() querier {
	if e.tx != nil {
		return e.tx
	}
	return e.db
}

// CreatePortal returns a Portal bound to sql. Transaction-control
// statements are handled here directly (SQLite's own BEGIN/COMMIT/
// ROLLBACK would work, but the engine needs to track which *sql.Tx
// subsequent statements in the session should run against); everything
// else is either queried immediately (SELECT, leaving the *sql.Rows cursor
// open for Fetch to read) or executed immediately (everything else),
// matching the teacher's LocalQueryExecutor.Request shape.
func (e *Engine) CreatePortal(ctx context.Context, sqlText string) (engine.Portal, error) {
	rewritten := rewriteQuery(sqlText)
	cmd := classify(rewritten)

	switch cmd {
	case cmdBegin:
		if e.tx != nil {
			return nil, pgerror.New(pgerrcode.ActiveSQLTransaction, "a transaction is already in progress")
		}
		tx, err := e.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, pgerror.WithCode(err, pgerrcode.ConnectionException)
		}
		e.tx = tx
		return &tagPortal{tag: "BEGIN"}, nil

	case cmdCommit:
		if e.tx == nil {
			return nil, pgerror.New(pgerrcode.NoActiveSQLTransaction, "there is no transaction in progress")
		}
		err := e.tx.Commit()
		e.tx = nil
		if err != nil {
			return nil, pgerror.WithCode(err, pgerrcode.ConnectionException)
		}
		return &tagPortal{tag: "COMMIT"}, nil

	case cmdRollback:
		if e.tx == nil {
			return nil, pgerror.New(pgerrcode.NoActiveSQLTransaction, "there is no transaction in progress")
		}
		err := e.tx.Rollback()
		e.tx = nil
		if err != nil {
			return nil, pgerror.WithCode(err, pgerrcode.ConnectionException)
		}
		return &tagPortal{tag: "ROLLBACK"}, nil

	case cmdSelect:
		rows, err := e.active().QueryContext(ctx, rewritten)
		if err != nil {
			if abortErr := e.abortOnError(); abortErr != nil {
				return nil, abortErr
			}
			return nil, classifyEngineError(err)
		}
		return &selectPortal{rows: rows}, nil

	default:
		result, err := e.active().ExecContext(ctx, rewritten)
		if err != nil {
			if abortErr := e.abortOnError(); abortErr != nil {
				return nil, abortErr
			}
			return nil, classifyEngineError(err)
		}
		n, _ := result.RowsAffected()
		if cmd == cmdInsert {
			return &tagPortal{tag: fmt.Sprintf("INSERT 0 %d", n)}, nil
		}
		return &tagPortal{tag: fmt.Sprintf("%s %d", cmd, n)}, nil
	}
}

// abortOnError rolls back and clears an in-progress transaction after a
// statement inside it fails, matching the teacher's LocalQueryExecutor
// behavior; returns any rollback error, wrapped.
func (e *Engine) abortOnError() error {
	if e.tx == nil {
		return nil
	}
	err := e.tx.Rollback()
	e.tx = nil
	if err != nil {
		return pgerror.WithCode(err, pgerrcode.ConnectionException)
	}
	return nil
}

// Close releases the underlying SQLite connection.
func (e *Engine) Close() error {
	if e.tx != nil {
		e.tx.Rollback()
		e.tx = nil
	}
	return e.db.Close()
}

// classifyEngineError maps a SQLite driver error to a SQLSTATE. Unknown
// error shapes fall to the switch's default arm, which tags them
// DataException —
// this is the Open-Question-1 "don't panic on unrecognized engine errors"
// resolution from spec.md §9, completing the branch the reference
// implementation left as a todo.
func classifyEngineError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return pgerror.WithCode(err, pgerrcode.UniqueViolation)
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return pgerror.WithCode(err, pgerrcode.NotNullViolation)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return pgerror.WithCode(err, pgerrcode.ForeignKeyViolation)
	case strings.Contains(msg, "syntax error"):
		return pgerror.WithCode(err, pgerrcode.SyntaxError)
	case strings.Contains(msg, "no such table"), strings.Contains(msg, "no such column"):
		return pgerror.WithCode(err, pgerrcode.UndefinedTable)
	default:
		return pgerror.WithCode(err, pgerrcode.DataException)
	}
}
