package sqliteengine

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		sql  string
		want commandType
	}{
		{"SELECT 1", cmdSelect},
		{"select * from t", cmdSelect},
		{"INSERT INTO t(a) VALUES (1)", cmdInsert},
		{"UPDATE t SET a = 1", cmdUpdate},
		{"DELETE FROM t", cmdDelete},
		{"BEGIN", cmdBegin},
		{"COMMIT", cmdCommit},
		{"ROLLBACK", cmdRollback},
		{"CREATE TABLE t(a int)", cmdOther},
		{"not valid sql at all {{{", cmdOther},
	}

	for _, c := range cases {
		if got := classify(c.sql); got != c.want {
			t.Errorf("classify(%q) = %v, want %v", c.sql, got, c.want)
		}
	}
}

func TestReturnsRows(t *testing.T) {
	if !returnsRows(cmdSelect) {
		t.Error("cmdSelect should return rows")
	}
	for _, cmd := range []commandType{cmdInsert, cmdUpdate, cmdDelete, cmdBegin, cmdCommit, cmdRollback, cmdOther} {
		if returnsRows(cmd) {
			t.Errorf("%v should not return rows", cmd)
		}
	}
}

func TestRewriteQuery(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"SET search_path = public", `SELECT 'SET'`},
		{"select string_agg(word, ',') from pg_catalog.pg_get_keywords()", `SELECT '' AS "string_agg" WHERE 1 = 2`},
		{"SHOW transaction_isolation", "SELECT show('transaction_isolation')"},
		{"select current_user", "select current_user()"},
		{"select 1", "select 1"},
	}
	for _, c := range cases {
		if got := rewriteQuery(c.in); got != c.want {
			t.Errorf("rewriteQuery(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
