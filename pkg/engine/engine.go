// Package engine defines the capability surface a SQL backend must expose
// to be driven by the connection state machine in pkg/pgwire. An Engine is
// exclusively owned by one session for its lifetime; it is not required to
// be safe for concurrent use across sessions.
package engine

import "context"

// Field describes one column of a result set: its name and PostgreSQL OID.
// Wire-level details (table OID, attribute number, type size, type
// modifier, format code) are filled in by pkg/rowio from this.
type Field struct {
	Name string
	OID  uint32
}

// Writer accepts rows produced by a Portal's Fetch. Implementations (see
// pkg/rowio) accumulate DataRow-ready cells and may be constructed with an
// empty field list, in which case SetFields must be called before the
// first row is written — this is how an engine whose prepare() could not
// determine a result schema communicates it lazily, per the fetch-time
// field population the engine contract allows.
type Writer interface {
	// SetFields installs or replaces the result schema. Calling it after
	// rows have already been written is a programming error.
	SetFields(fields []Field)

	// Fields returns the schema currently installed, possibly empty if
	// SetFields has not yet been called.
	Fields() []Field

	// Row returns a fresh RowBuilder for the next row; callers must write
	// exactly len(Fields()) cells to it before calling Row again.
	Row() RowBuilder
}

// RowBuilder writes the cells of a single row, one call per column, in
// column order. Writing a value whose type doesn't match the column's
// declared OID is an engine bug, not a client-triggerable condition.
type RowBuilder interface {
	WriteNull()
	WriteBool(v bool)
	WriteInt2(v int16)
	WriteInt4(v int32)
	WriteInt8(v int64)
	WriteFloat4(v float32)
	WriteFloat8(v float64)
	WriteString(v string)
	WriteDate(y int, m int, d int)
	WriteTimestamp(y, mo, d, h, mi, s, nanos int)
}

// Portal is a bound, ready-to-execute form of a prepared statement. It is
// created once per Bind and fetched at most once, by Execute.
type Portal interface {
	// Fetch streams every row of the portal's result into w. If the
	// portal's owning statement could not have its schema determined by
	// Engine.Prepare, Fetch must call w.SetFields before writing any row.
	Fetch(ctx context.Context, w Writer) error

	// Close releases whatever the portal is holding (e.g. open rows from a
	// query that was bound but never fetched). It must be safe to call
	// whether or not Fetch ever ran, and safe to call more than once. The
	// session calls it when a portal name is rebound over an existing
	// portal, when a simple-query portal finishes being fetched, and when
	// the session itself ends, so a portal never outlives all three of
	// those events.
	Close() error
}

// CommandTagger is an optional capability a Portal may implement to
// control the tag text CommandComplete carries (e.g. "INSERT 0 3" rather
// than the default "SELECT <n>" derived from the row count a Writer
// accumulated). Engines that don't implement it get the default.
type CommandTagger interface {
	CommandTag() string
}

// Engine is the abstract backend a session dispatches SQL execution to. It
// is not a database: it owns whatever storage or connection state it needs
// to answer these four operations.
type Engine interface {
	// Startup is called exactly once per session, after the protocol
	// handshake completes and before the first ReadyForQuery is sent.
	// Implementations must make repeated calls (should the caller violate
	// the "exactly once" contract) a no-op rather than an error.
	Startup(ctx context.Context) error

	// Prepare returns the ordered result schema for sql. An engine unable
	// to determine its result schema without executing may return a nil
	// or empty slice; see Portal.Fetch for how that case is completed.
	Prepare(ctx context.Context, sql string) ([]Field, error)

	// CreatePortal returns a Portal bound to sql, ready to be fetched.
	CreatePortal(ctx context.Context, sql string) (Portal, error)

	// Close releases any resources held by the engine. Called once when
	// the owning session ends.
	Close() error
}
