// Package rowio implements the columnar→row translation layer: OID
// mapping, a stateless columnar→row adapter, a row-accumulating writer,
// and text/binary wire encoding for the
// closed set of PostgreSQL types spec.md §3 enumerates.
package rowio

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// Supported OIDs, named per spec.md §3's closed PgOid enum. Re-exported
// from pgtype so callers never need to import pgtype directly just to
// build an engine.Field.
const (
	BoolOID      = pgtype.BoolOID
	Int2OID      = pgtype.Int2OID
	Int4OID      = pgtype.Int4OID
	Int8OID      = pgtype.Int8OID
	Float4OID    = pgtype.Float4OID
	Float8OID    = pgtype.Float8OID
	TextOID      = pgtype.TextOID
	DateOID      = pgtype.DateOID
	TimestampOID = pgtype.TimestampOID
)

// typeSizes gives the wire type size for each supported OID; -1 marks
// variable-length types, matching how PostgreSQL itself reports Text.
var typeSizes = map[uint32]int16{
	BoolOID:      1,
	Int2OID:      2,
	Int4OID:      4,
	Int8OID:      8,
	Float4OID:    4,
	Float8OID:    8,
	TextOID:      -1,
	DateOID:      4,
	TimestampOID: 8,
}

// TypeSize returns the RowDescription type-size field for oid, defaulting
// to -1 (variable length) for anything not in the closed set above.
func TypeSize(oid uint32) int16 {
	if sz, ok := typeSizes[oid]; ok {
		return sz
	}
	return -1
}

// sqliteTypeOIDs maps SQLite column-declared type names (from
// sqlite_master/pragma_table_info, case sensitivity irrelevant) to the
// PostgreSQL OID a client should see. Ported from the teacher's
// db.Typemap(), trimmed to the OIDs spec.md actually supports.
var sqliteTypeOIDs = map[string]uint32{
	"INT":               Int8OID,
	"INTEGER":           Int8OID,
	"BIGINT":            Int8OID,
	"UNSIGNED BIG INT":  Int8OID,
	"INT8":              Int8OID,
	"TINYINT":           Int2OID,
	"INT2":              Int2OID,
	"SMALLINT":          Int4OID,
	"MEDIUMINT":         Int4OID,
	"CHARACTER":         TextOID,
	"NCHAR":             TextOID,
	"NVARCHAR":          TextOID,
	"VARCHAR":           TextOID,
	"VARYING CHARACTER": TextOID,
	"TEXT":              TextOID,
	"CLOB":              TextOID,
	"DATETIME":          TimestampOID,
	"BLOB":              TextOID,
	"REAL":              Float8OID,
	"DOUBLE":            Float8OID,
	"DOUBLE PRECISION":  Float8OID,
	"FLOAT":             Float8OID,
	"NUMERIC":           Float8OID,
	"DECIMAL":           Float8OID,
	"BOOLEAN":           BoolOID,
	"BOOL":              BoolOID,
	"DATE":              DateOID,
	"TIMESTAMP":         TimestampOID,
}

// OIDForDeclaredType resolves a SQLite declared column type (which may
// carry a length/precision suffix, e.g. "VARCHAR(255)" or "DECIMAL(10,5)")
// to the PostgreSQL OID a client should see. Unrecognized types fall back
// to Text, matching SQLite's own dynamic-typing philosophy: any value can
// always be rendered as text.
func OIDForDeclaredType(declared string) uint32 {
	name := strings.ToUpper(strings.TrimSpace(declared))
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	if oid, ok := sqliteTypeOIDs[name]; ok {
		return oid
	}
	return TextOID
}

// OIDForGoValue resolves the OID for a value already materialized as a Go
// type; types outside the closed set map to Text. Adapt's fetch-time
// schema path does not use it: it resolves OIDs with OIDForDeclaredType
// from the driver's column metadata.
func OIDForGoValue(v any) uint32 {
	switch v.(type) {
	case nil:
		return TextOID
	case bool:
		return BoolOID
	case int16:
		return Int2OID
	case int32:
		return Int4OID
	case int, int64:
		return Int8OID
	case float32:
		return Float4OID
	case float64:
		return Float8OID
	case string:
		return TextOID
	case []byte:
		return TextOID
	default:
		return TextOID
	}
}
