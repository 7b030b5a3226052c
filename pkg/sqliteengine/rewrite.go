package sqliteengine

import (
	"regexp"
)

// rewriteQuery applies the psql/driver-compatibility rewrites spec.md
// delegates to the engine (the wire protocol itself has no concept of
// these identifiers): SET statements are swallowed into a one-row
// SELECT 'SET' result, pg_catalog keyword-introspection is neutralized
// into an empty result, bare
// current_user/session_user/etc. identifiers are turned into calls to the
// functions pkg/sqliteengine registers on every connection, ::regclass
// casts are stripped, and SHOW commands become a function call.
func rewriteQuery(q string) string {
	if setQueryRegex.MatchString(q) {
		return `SELECT 'SET'`
	}

	if pgKeywordsQueryRegex.MatchString(q) {
		return `SELECT '' AS "string_agg" WHERE 1 = 2`
	}

	q = systemFunctionRegex.ReplaceAllString(q, "$1()$2")
	q = castRegex.ReplaceAllString(q, "")
	q = showRegex.ReplaceAllString(q, "SELECT show('$1')")

	return q
}

var (
	setQueryRegex        = regexp.MustCompile(`(?i)^SET `)
	pgKeywordsQueryRegex = regexp.MustCompile(`select string_agg\(word, ','\) from pg_catalog\.pg_get_keywords\(\)`)
	systemFunctionRegex  = regexp.MustCompile(`\b(current_catalog|current_schema|current_user|session_user|user)\b([^\(]|$)`)
	castRegex            = regexp.MustCompile(`::(regclass)`)
	showRegex            = regexp.MustCompile(`(?i)^SHOW (\w+)`)
)
