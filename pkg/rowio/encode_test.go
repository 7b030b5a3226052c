package rowio

import (
	"encoding/binary"
	"testing"

	"github.com/pgbridge/pgbridge/pkg/engine"
)

func TestNullRoundTripsAsLengthMinusOne(t *testing.T) {
	for _, format := range []FormatCode{FormatText, FormatBinary} {
		w := New([]engine.Field{{Name: "a", OID: Int4OID}, {Name: "b", OID: TextOID}}, format)
		rb := w.Row()
		rb.WriteNull()
		rb.WriteNull()

		rows, err := w.DataRows()
		if err != nil {
			t.Fatalf("DataRows: %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("got %d rows, want 1", len(rows))
		}
		for i, v := range rows[0].Values {
			if v != nil {
				t.Fatalf("column %d = %v, want nil (NULL)", i, v)
			}
		}
	}
}

func TestTextEncodingOfScalars(t *testing.T) {
	w := New([]engine.Field{
		{Name: "b", OID: BoolOID},
		{Name: "i", OID: Int4OID},
		{Name: "f", OID: Float8OID},
		{Name: "s", OID: TextOID},
		{Name: "d", OID: DateOID},
	}, FormatText)

	rb := w.Row()
	rb.WriteBool(true)
	rb.WriteInt4(42)
	rb.WriteFloat8(3.5)
	rb.WriteString("hello")
	rb.WriteDate(2024, 3, 7)

	rows, err := w.DataRows()
	if err != nil {
		t.Fatalf("DataRows: %v", err)
	}
	got := rows[0].Values
	want := []string{"t", "42", "3.5", "hello", "2024-03-07"}
	for i, w := range want {
		if string(got[i]) != w {
			t.Errorf("column %d = %q, want %q", i, got[i], w)
		}
	}
}

func TestBinaryEncodingOfInt4(t *testing.T) {
	w := New([]engine.Field{{Name: "i", OID: Int4OID}}, FormatBinary)
	rb := w.Row()
	rb.WriteInt4(42)

	rows, err := w.DataRows()
	if err != nil {
		t.Fatalf("DataRows: %v", err)
	}
	got := binary.BigEndian.Uint32(rows[0].Values[0])
	if got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestDecimalScalePreservesIntegerPart(t *testing.T) {
	// 123456 with scale 2 => 1234.56
	got := ScaledToFloat64(123456, 2)
	if got != 1234.56 {
		t.Fatalf("got %v, want 1234.56", got)
	}
}

func TestRowBuilderRejectsWrongCellCount(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on mismatched cell count")
		}
	}()
	w := New([]engine.Field{{Name: "a", OID: Int4OID}, {Name: "b", OID: Int4OID}}, FormatText)
	rb := w.Row()
	rb.WriteInt4(1)
	w.Row() // flushes the first row, which only has 1 of 2 cells
}
