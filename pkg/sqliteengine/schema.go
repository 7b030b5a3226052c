package sqliteengine

import (
	"context"
	"database/sql"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/pgbridge/pgbridge/pkg/engine"
	"github.com/pgbridge/pgbridge/pkg/rowio"
)

// inferFields attempts to resolve the result schema of a SELECT statement
// ahead of execution, by inspecting pragma_table_info for the statement's
// single source relation. This only covers the simple "SELECT <cols> FROM
// <table>" shape; anything else (joins, subqueries, expressions) returns
// nil, which is the spec's tolerated "engine could not determine schema
// without execution" case — the portal populates fields lazily at fetch
// time instead (see selectPortal.Fetch in pkg/sqliteengine/portal.go).
func inferFields(ctx context.Context, db *sql.DB, sqlText string) []engine.Field {
	result, err := pg_query.Parse(sqlText)
	if err != nil || len(result.Stmts) != 1 {
		return nil
	}
	sel := result.Stmts[0].Stmt.GetSelectStmt()
	if sel == nil || len(sel.FromClause) != 1 {
		return nil
	}
	rv := sel.FromClause[0].GetRangeVar()
	if rv == nil {
		return nil
	}

	cols, err := tableColumns(ctx, db, rv.Relname)
	if err != nil || len(cols) == 0 {
		return nil
	}

	if len(sel.TargetList) == 1 {
		if isStarTarget(sel.TargetList[0]) {
			return cols
		}
	}

	fields := make([]engine.Field, 0, len(sel.TargetList))
	for _, te := range sel.TargetList {
		colName, ok := plainColumnName(te)
		if !ok {
			return nil
		}
		field, found := findField(cols, colName)
		if !found {
			return nil
		}
		fields = append(fields, field)
	}
	return fields
}

func isStarTarget(te *pg_query.Node) bool {
	target := te.GetResTarget()
	if target == nil {
		return false
	}
	cr := target.Val.GetColumnRef()
	if cr == nil || len(cr.Fields) != 1 {
		return false
	}
	return cr.Fields[0].GetAStar() != nil
}

func plainColumnName(te *pg_query.Node) (string, bool) {
	target := te.GetResTarget()
	if target == nil {
		return "", false
	}
	cr := target.Val.GetColumnRef()
	if cr == nil || len(cr.Fields) != 1 {
		return "", false
	}
	s := cr.Fields[0].GetString_()
	if s == nil {
		return "", false
	}
	return s.Sval, true
}

func findField(cols []engine.Field, name string) (engine.Field, bool) {
	for _, c := range cols {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return engine.Field{}, false
}

// tableColumns returns the declared column name/OID pairs for table, via
// SQLite's pragma_table_info, adapted from the teacher's
// db.LookupTypeInfo.
func tableColumns(ctx context.Context, db *sql.DB, table string) ([]engine.Field, error) {
	rows, err := db.QueryContext(ctx, "SELECT name, type FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []engine.Field
	for rows.Next() {
		var name, declType string
		if err := rows.Scan(&name, &declType); err != nil {
			return nil, err
		}
		fields = append(fields, engine.Field{Name: name, OID: rowio.OIDForDeclaredType(declType)})
	}
	return fields, rows.Err()
}
