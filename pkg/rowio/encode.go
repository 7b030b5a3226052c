package rowio

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jackc/pgerrcode"

	"github.com/pgbridge/pgbridge/pkg/pgerror"
)

// pgEpoch is the PostgreSQL date/time epoch, 2000-01-01, that Date and
// Timestamp binary encodings are relative to (spec.md §4.2).
var pgEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// encodeCell renders one cell to its wire bytes for the given OID and
// format. A nil cell always yields a nil return (NULL, column length -1)
// regardless of OID or format.
func encodeCell(cell any, oid uint32, format FormatCode) ([]byte, error) {
	if cell == nil {
		return nil, nil
	}

	switch v := cell.(type) {
	case bool:
		if format == FormatBinary {
			if v {
				return []byte{1}, nil
			}
			return []byte{0}, nil
		}
		if v {
			return []byte("t"), nil
		}
		return []byte("f"), nil

	case int16:
		if format == FormatBinary {
			b := make([]byte, 2)
			binary.BigEndian.PutUint16(b, uint16(v))
			return b, nil
		}
		return []byte(strconv.FormatInt(int64(v), 10)), nil

	case int32:
		if format == FormatBinary {
			b := make([]byte, 4)
			binary.BigEndian.PutUint32(b, uint32(v))
			return b, nil
		}
		return []byte(strconv.FormatInt(int64(v), 10)), nil

	case int64:
		if format == FormatBinary {
			b := make([]byte, 8)
			binary.BigEndian.PutUint64(b, uint64(v))
			return b, nil
		}
		return []byte(strconv.FormatInt(v, 10)), nil

	case float32:
		if format == FormatBinary {
			b := make([]byte, 4)
			binary.BigEndian.PutUint32(b, math.Float32bits(v))
			return b, nil
		}
		return []byte(strconv.FormatFloat(float64(v), 'g', -1, 32)), nil

	case float64:
		if format == FormatBinary {
			b := make([]byte, 8)
			binary.BigEndian.PutUint64(b, math.Float64bits(v))
			return b, nil
		}
		return []byte(strconv.FormatFloat(v, 'g', -1, 64)), nil

	case string:
		return []byte(v), nil

	case []byte:
		return v, nil

	case dateValue:
		return encodeDate(v, format)

	case timestampValue:
		return encodeTimestamp(v, format)

	default:
		return nil, pgerror.Newf(pgerrcode.FeatureNotSupported, "unsupported cell type %T", cell)
	}
}

func encodeDate(v dateValue, format FormatCode) ([]byte, error) {
	t := time.Date(v.y, time.Month(v.m), v.d, 0, 0, 0, 0, time.UTC)
	if t.Year() != v.y || int(t.Month()) != v.m || t.Day() != v.d {
		return nil, pgerror.New(pgerrcode.InvalidDatetimeFormat, "invalid date")
	}
	if format == FormatBinary {
		days := int32(t.Sub(pgEpoch).Hours() / 24)
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(days))
		return b, nil
	}
	return []byte(fmt.Sprintf("%04d-%02d-%02d", v.y, v.m, v.d)), nil
}

func encodeTimestamp(v timestampValue, format FormatCode) ([]byte, error) {
	t := time.Date(v.y, time.Month(v.mo), v.d, v.h, v.mi, v.s, v.nanos, time.UTC)
	if t.Year() != v.y || int(t.Month()) != v.mo || t.Day() != v.d ||
		t.Hour() != v.h || t.Minute() != v.mi || t.Second() != v.s {
		return nil, pgerror.New(pgerrcode.InvalidDatetimeFormat, "invalid timestamp")
	}
	if format == FormatBinary {
		micros := t.Sub(pgEpoch).Microseconds()
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, uint64(micros))
		return b, nil
	}
	if v.nanos == 0 {
		return []byte(fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", v.y, v.mo, v.d, v.h, v.mi, v.s)), nil
	}
	frac := fmt.Sprintf("%09d", v.nanos)
	// PostgreSQL's text format carries microsecond precision.
	micro := frac[:6]
	return []byte(fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d.%s", v.y, v.mo, v.d, v.h, v.mi, v.s, micro)), nil
}
