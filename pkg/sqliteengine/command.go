package sqliteengine

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// commandType classifies a statement for CommandComplete tag generation.
// Ported from the teacher's pkg/util/command package; trimmed to the
// command kinds a command tag actually needs, since the wire protocol
// layer does not track transaction state itself (spec.md §3: "there is no
// separate in-transaction state tracked").
type commandType string

const (
	cmdSelect   commandType = "SELECT"
	cmdInsert   commandType = "INSERT"
	cmdUpdate   commandType = "UPDATE"
	cmdDelete   commandType = "DELETE"
	cmdBegin    commandType = "BEGIN"
	cmdCommit   commandType = "COMMIT"
	cmdRollback commandType = "ROLLBACK"
	cmdOther    commandType = "OK"
)

// classify parses sql just far enough to determine its command tag and
// whether it is a transaction-control statement the engine must handle
// itself rather than pass through to SQLite's query path (SQLite's BEGIN/
// COMMIT/ROLLBACK work fine verbatim, but we still need to know which rows
// a result set implies, e.g. SELECT vs a DML statement).
func classify(sql string) commandType {
	result, err := pg_query.Parse(sql)
	if err != nil || len(result.Stmts) == 0 {
		return cmdOther
	}
	stmt := result.Stmts[0].Stmt

	if txn := stmt.GetTransactionStmt(); txn != nil {
		switch txn.Kind {
		case pg_query.TransactionStmtKind_TRANS_STMT_BEGIN:
			return cmdBegin
		case pg_query.TransactionStmtKind_TRANS_STMT_COMMIT:
			return cmdCommit
		case pg_query.TransactionStmtKind_TRANS_STMT_ROLLBACK:
			return cmdRollback
		}
	}
	switch {
	case stmt.GetSelectStmt() != nil:
		return cmdSelect
	case stmt.GetInsertStmt() != nil:
		return cmdInsert
	case stmt.GetUpdateStmt() != nil:
		return cmdUpdate
	case stmt.GetDeleteStmt() != nil:
		return cmdDelete
	}
	return cmdOther
}

// returnsRows reports whether cmd's statement kind produces a RowDescription
// worth sending, as opposed to a bare CommandComplete.
func returnsRows(cmd commandType) bool {
	return cmd == cmdSelect
}
