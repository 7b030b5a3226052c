package rowio

import (
	"database/sql"
	"math"
	"strconv"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/shopspring/decimal"

	"github.com/pgbridge/pgbridge/pkg/engine"
	"github.com/pgbridge/pgbridge/pkg/pgerror"
)

// sqliteTimestampLayouts are the SQLite text representations this adapter
// accepts for TIMESTAMP columns, tried in order. DATE columns are parsed
// by parseSQLiteDate from their first ten characters only.
var sqliteTimestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseSQLiteDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s[:min(len(s), 10)])
	if err != nil {
		return time.Time{}, pgerror.Newf(pgerrcode.InvalidDatetimeFormat, "invalid date %q", s)
	}
	return t, nil
}

func parseSQLiteTimestamp(s string) (time.Time, error) {
	for _, layout := range sqliteTimestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, pgerror.Newf(pgerrcode.InvalidDatetimeFormat, "invalid timestamp %q", s)
}

// Adapt is the stateless columnar→row adapter spec.md §9 requires: it
// takes a *sql.Rows batch and a Writer and copies every row across,
// inspecting each column's declared type to route to the right cell
// writer. It is a free function rather than a method on any engine type
// so no inheritance relationship ever forms between an engine and the
// adapter.
func Adapt(rows *sql.Rows, w *Writer) error {
	cols, err := rows.ColumnTypes()
	if err != nil {
		return pgerror.WithCode(err, pgerrcode.DataException)
	}

	if len(w.Fields()) == 0 {
		fields := make([]engine.Field, len(cols))
		for i, c := range cols {
			fields[i] = engine.Field{Name: c.Name(), OID: OIDForDeclaredType(c.DatabaseTypeName())}
		}
		w.SetFields(fields)
	}

	scanTargets := make([]any, len(cols))
	scanValues := make([]sql.RawBytes, len(cols))
	for i := range scanTargets {
		scanTargets[i] = &scanValues[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanTargets...); err != nil {
			return pgerror.WithCode(err, pgerrcode.DataException)
		}
		rb := w.Row()
		for i, raw := range scanValues {
			oid := w.Fields()[i].OID
			if err := writeCell(rb, oid, raw); err != nil {
				return err
			}
		}
	}
	return pgerror.WithCode(rows.Err(), pgerrcode.DataException)
}

// writeCell decodes a raw SQLite column value (always returned as text by
// the driver when scanned into RawBytes) into the typed cell call the
// declared OID implies.
func writeCell(rb engine.RowBuilder, oid uint32, raw sql.RawBytes) error {
	if raw == nil {
		rb.WriteNull()
		return nil
	}
	s := string(raw)

	switch oid {
	case BoolOID:
		rb.WriteBool(s == "1" || s == "t" || s == "true")
	case Int2OID:
		n, err := parseInt(s)
		if err != nil {
			return err
		}
		rb.WriteInt2(int16(n))
	case Int4OID:
		n, err := parseInt(s)
		if err != nil {
			return err
		}
		rb.WriteInt4(int32(n))
	case Int8OID:
		n, err := parseInt(s)
		if err != nil {
			return err
		}
		rb.WriteInt8(n)
	case Float4OID:
		f, err := parseFloat(s)
		if err != nil {
			return err
		}
		rb.WriteFloat4(float32(f))
	case Float8OID:
		if d, derr := decimal.NewFromString(s); derr == nil && d.Exponent() < 0 {
			rb.WriteFloat8(DecimalToFloat64(d))
			return nil
		}
		f, err := parseFloat(s)
		if err != nil {
			return err
		}
		rb.WriteFloat8(f)
	case DateOID:
		t, err := parseSQLiteDate(s)
		if err != nil {
			return err
		}
		rb.WriteDate(t.Year(), int(t.Month()), t.Day())
	case TimestampOID:
		t, err := parseSQLiteTimestamp(s)
		if err != nil {
			return err
		}
		rb.WriteTimestamp(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond())
	default:
		rb.WriteString(s)
	}
	return nil
}

func parseInt(s string) (int64, error) {
	var n int64
	var neg bool
	i := 0
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		i = 1
	}
	if i == len(s) {
		return 0, pgerror.Newf(pgerrcode.DataException, "invalid integer literal %q", s)
	}
	var u uint64
	for ; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, pgerror.Newf(pgerrcode.DataException, "invalid integer literal %q", s)
		}
		if u > math.MaxUint64/10 {
			return 0, pgerror.Newf(pgerrcode.DataException, "integer %q overflows 64 bits", s)
		}
		u = u*10 + uint64(c-'0')
	}
	if !neg && u > math.MaxInt64 {
		return 0, pgerror.Newf(pgerrcode.DataException, "unsigned value %q overflows int64", s)
	}
	n = int64(u)
	if neg {
		n = -n
	}
	return n, nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, pgerror.Newf(pgerrcode.DataException, "invalid float literal %q", s)
	}
	return f, nil
}
