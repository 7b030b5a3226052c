package rowio

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgproto3"

	"github.com/pgbridge/pgbridge/pkg/engine"
)

// FormatCode is the single wire format that applies to every column of a
// result set; spec.md §3 rejects per-column format codes entirely.
type FormatCode int16

const (
	FormatText   FormatCode = 0
	FormatBinary FormatCode = 1
)

// Writer accumulates rows for a single result set and serializes them as
// pgproto3 messages. It implements engine.Writer/engine.RowBuilder so a
// Portal can write directly into it; pkg/rowio.Adapt handles the
// columnar-batch case (database/sql rows) on top of the same type.
type Writer struct {
	fields []engine.Field
	format FormatCode

	rows [][]any // one []any of len(fields) cells per accumulated row
	cur  []any   // cells accumulated for the row currently being built
}

var _ engine.Writer = (*Writer)(nil)
var _ engine.RowBuilder = (*Writer)(nil)

// New constructs a Writer for the given schema and wire format. fields may
// be empty; see SetFields.
func New(fields []engine.Field, format FormatCode) *Writer {
	return &Writer{fields: fields, format: format}
}

func (w *Writer) SetFields(fields []engine.Field) {
	if len(w.rows) != 0 {
		panic("rowio: SetFields called after rows were written")
	}
	w.fields = fields
}

func (w *Writer) Fields() []engine.Field { return w.fields }

// NumRows reports how many complete rows have been accumulated.
func (w *Writer) NumRows() int {
	w.flushRow()
	return len(w.rows)
}

func (w *Writer) Row() engine.RowBuilder {
	w.flushRow()
	w.cur = make([]any, 0, len(w.fields))
	return w
}

// flushRow finalizes the in-progress row, if any. Called lazily by the
// next Row() call and before any serialization, so callers never need to
// remember to "close" a row explicitly.
func (w *Writer) flushRow() {
	if w.cur == nil {
		return
	}
	if len(w.cur) != len(w.fields) {
		panic(fmt.Sprintf("rowio: row has %d cells, want %d", len(w.cur), len(w.fields)))
	}
	w.rows = append(w.rows, w.cur)
	w.cur = nil
}

func (w *Writer) WriteNull()            { w.cur = append(w.cur, nil) }
func (w *Writer) WriteBool(v bool)      { w.cur = append(w.cur, v) }
func (w *Writer) WriteInt2(v int16)     { w.cur = append(w.cur, v) }
func (w *Writer) WriteInt4(v int32)     { w.cur = append(w.cur, v) }
func (w *Writer) WriteInt8(v int64)     { w.cur = append(w.cur, v) }
func (w *Writer) WriteFloat4(v float32) { w.cur = append(w.cur, v) }
func (w *Writer) WriteFloat8(v float64) { w.cur = append(w.cur, v) }
func (w *Writer) WriteString(v string)  { w.cur = append(w.cur, v) }

func (w *Writer) WriteDate(y, m, d int) {
	w.cur = append(w.cur, dateValue{y, m, d})
}

func (w *Writer) WriteTimestamp(y, mo, d, h, mi, s, nanos int) {
	w.cur = append(w.cur, timestampValue{y, mo, d, h, mi, s, nanos})
}

type dateValue struct{ y, m, d int }
type timestampValue struct{ y, mo, d, h, mi, s, nanos int }

// RowDescription builds the pgproto3 message describing w's current
// schema. Call it after Fetch returns, so engines that populate fields
// lazily (see engine.Writer docs) are reflected correctly.
func (w *Writer) RowDescription() *pgproto3.RowDescription {
	fd := make([]pgproto3.FieldDescription, len(w.fields))
	for i, f := range w.fields {
		fd[i] = pgproto3.FieldDescription{
			Name:                 []byte(f.Name),
			TableOID:             0,
			TableAttributeNumber: 0,
			DataTypeOID:          f.OID,
			DataTypeSize:         TypeSize(f.OID),
			TypeModifier:         -1,
			Format:               int16(w.format),
		}
	}
	return &pgproto3.RowDescription{Fields: fd}
}

// DataRows returns one pgproto3.DataRow message per accumulated row, with
// every cell encoded per the column's OID and w's format code.
func (w *Writer) DataRows() ([]*pgproto3.DataRow, error) {
	w.flushRow()
	out := make([]*pgproto3.DataRow, len(w.rows))
	for i, cells := range w.rows {
		values := make([][]byte, len(cells))
		for c, cell := range cells {
			oid := uint32(0)
			if c < len(w.fields) {
				oid = w.fields[c].OID
			}
			enc, err := encodeCell(cell, oid, w.format)
			if err != nil {
				return nil, err
			}
			values[c] = enc
		}
		out[i] = &pgproto3.DataRow{Values: values}
	}
	return out, nil
}
