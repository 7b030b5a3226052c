// Package pgwire drives one client connection through the v3 wire
// protocol's startup handshake and simple/extended query sub-protocols,
// dispatching all SQL execution to an engine.Engine. It never touches a
// database itself; see pkg/sqliteengine for the reference backend.
package pgwire

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgproto3"

	"github.com/pgbridge/pgbridge/pkg/engine"
	"github.com/pgbridge/pgbridge/pkg/metrics"
	"github.com/pgbridge/pgbridge/pkg/pgerror"
	"github.com/pgbridge/pgbridge/pkg/rowio"
	"github.com/pgbridge/pgbridge/pkg/wire"
)

// ServerVersion is reported to clients during startup.
const ServerVersion = "13.0.0"

type connState int

const (
	stateStartup connState = iota
	stateIdle
)

// preparedStatement is the result of a Parse message: the raw SQL text and
// whatever result schema the engine could determine ahead of execution.
type preparedStatement struct {
	sql    string
	fields []engine.Field
}

// boundPortal is the result of a Bind message. A nil boundPortal value is
// legal and mirrors the Rust original's Option<BoundPortal>: Describe and
// Execute against such a portal answer NoData/EmptyQueryResponse rather
// than erroring, which is how an engine.Portal with nothing to bind (not a
// case this engine produces, but one the protocol must tolerate) would
// surface.
type boundPortal struct {
	portal engine.Portal
	fields []engine.Field
	format rowio.FormatCode
}

// Session is one client connection's protocol state machine. It owns the
// statement/portal namespaces and the engine instance bound to this
// connection for its lifetime.
type Session struct {
	codec   *wire.Codec
	eng     engine.Engine
	log     logr.Logger
	metrics *metrics.Registry

	state      connState
	statements map[string]*preparedStatement
	portals    map[string]*boundPortal
}

// NewSession wraps conn's codec and eng into a Session ready to Run. reg
// may be nil, in which case metrics are simply not recorded.
func NewSession(codec *wire.Codec, eng engine.Engine, log logr.Logger, reg *metrics.Registry) *Session {
	return &Session{
		codec:      codec,
		eng:        eng,
		log:        log,
		metrics:    reg,
		state:      stateStartup,
		statements: map[string]*preparedStatement{},
		portals:    map[string]*boundPortal{},
	}
}

// Run drives the session until the client terminates the connection or an
// unrecoverable error occurs. It implements spec.md §7's recovery loop:
// a recoverable ERROR is reported and the session stays Idle; a FATAL
// error is reported and the connection is closed; any error that wasn't
// already classified is reported as a recoverable DATA_EXCEPTION (see
// pgerror.Classify). Codec framing/IO failures arrive already classified
// as FATAL CONNECTION_EXCEPTION by pkg/wire. Every
// portal still open when the session ends, bound or not yet fetched, is
// closed so its engine handle can't outlive the connection.
func (s *Session) Run(ctx context.Context) error {
	defer s.closeAllPortals()
	for {
		err := s.step(ctx)
		if err == nil {
			continue
		}
		if err == errTerminate {
			return nil
		}

		severity, code, message := pgerror.Classify(err)
		s.recordError(code)
		sendErr := s.codec.Send(&pgproto3.ErrorResponse{
			Severity: string(severity),
			Code:     code,
			Message:  message,
		})
		if sendErr != nil {
			return sendErr
		}

		if severity == pgerror.SeverityFatal {
			return err
		}

		if err := s.codec.Send(&pgproto3.ReadyForQuery{TxStatus: 'I'}); err != nil {
			return err
		}
		s.state = stateIdle
	}
}

// errTerminate is the sentinel step returns when the client sent Terminate;
// it is never classified or sent to the client.
var errTerminate = fmt.Errorf("pgwire: terminate")

// closeAllPortals releases every still-open portal's engine handle. Called
// once, from Run's deferred teardown.
func (s *Session) closeAllPortals() {
	for name, bound := range s.portals {
		if bound != nil {
			bound.portal.Close()
		}
		delete(s.portals, name)
	}
}

func (s *Session) step(ctx context.Context) error {
	if s.state == stateStartup {
		return s.stepStartup(ctx)
	}
	return s.stepIdle(ctx)
}

func (s *Session) stepStartup(ctx context.Context) error {
	msg, err := s.codec.ReceiveStartup()
	if err != nil {
		return err
	}

	switch m := msg.(type) {
	case *pgproto3.SSLRequest:
		if err := s.codec.DeclineSSL(); err != nil {
			return err
		}
		return nil // stay in Startup; client retries with a real Startup message

	case *pgproto3.StartupMessage:
		return s.handleStartup(ctx, m)

	case *pgproto3.CancelRequest:
		return errTerminate

	default:
		return pgerror.Fatal(pgerrcode.ProtocolViolation, "expected startup message")
	}
}

func (s *Session) handleStartup(ctx context.Context, msg *pgproto3.StartupMessage) error {
	if err := s.eng.Startup(ctx); err != nil {
		return err
	}

	params := []*pgproto3.ParameterStatus{
		{Name: "server_version", Value: ServerVersion},
		{Name: "server_encoding", Value: "UTF8"},
		{Name: "client_encoding", Value: "UTF8"},
		{Name: "DateStyle", Value: "ISO"},
		{Name: "TimeZone", Value: "UTC"},
		{Name: "integer_datetimes", Value: "on"},
	}

	batch := make([]pgproto3.Message, 0, len(params)+2)
	batch = append(batch, &pgproto3.AuthenticationOk{})
	for _, p := range params {
		batch = append(batch, p)
	}
	batch = append(batch, &pgproto3.ReadyForQuery{TxStatus: 'I'})

	if err := s.codec.SendBatch(batch...); err != nil {
		return err
	}
	s.state = stateIdle
	return nil
}

func (s *Session) stepIdle(ctx context.Context) error {
	msg, err := s.codec.Receive()
	if err != nil {
		return err
	}

	switch m := msg.(type) {
	case *pgproto3.Parse:
		return s.handleParse(ctx, m)
	case *pgproto3.Bind:
		return s.handleBind(ctx, m)
	case *pgproto3.Describe:
		return s.handleDescribe(ctx, m)
	case *pgproto3.Execute:
		return s.handleExecute(ctx, m)
	case *pgproto3.Sync:
		return s.codec.Send(&pgproto3.ReadyForQuery{TxStatus: 'I'})
	case *pgproto3.Query:
		return s.handleQuery(ctx, m)
	case *pgproto3.Terminate:
		return errTerminate
	default:
		return pgerror.New(pgerrcode.ProtocolViolation, fmt.Sprintf("unexpected message type %T", msg))
	}
}

// handleParse resolves the statement's result schema via the engine and
// stores it under name, replacing whatever was there before. This is a
// deliberate divergence from the teacher's addPreparedStatement, which
// errors on a name collision: spec.md's data model requires Parse (and
// Bind) to replace a same-named prior definition rather than reject it.
func (s *Session) handleParse(ctx context.Context, msg *pgproto3.Parse) error {
	fields, err := s.eng.Prepare(ctx, msg.Query)
	if err != nil {
		return err
	}
	s.statements[msg.Name] = &preparedStatement{sql: msg.Query, fields: fields}
	if s.metrics != nil {
		s.metrics.StatementPrepared()
	}
	return s.codec.Send(&pgproto3.ParseComplete{})
}

func (s *Session) recordError(code string) {
	if s.metrics != nil {
		s.metrics.ErrorSent(code)
	}
}

// handleBind creates a portal bound to a previously-parsed statement,
// replacing any portal already registered under the same name. Releasing
// the overwritten portal's engine handle is the caller's only chance to do
// so exactly once, so it happens here rather than being left to garbage
// collection.
func (s *Session) handleBind(ctx context.Context, msg *pgproto3.Bind) error {
	if len(msg.ResultFormatCodes) > 1 {
		return pgerror.New(pgerrcode.FeatureNotSupported, "per-column format codes not supported")
	}

	stmt, ok := s.statements[msg.PreparedStatement]
	if !ok {
		return pgerror.New(pgerrcode.InvalidSQLStatementName, fmt.Sprintf("prepared statement %q does not exist", msg.PreparedStatement))
	}

	portal, err := s.eng.CreatePortal(ctx, stmt.sql)
	if err != nil {
		return err
	}

	format := rowio.FormatText
	if len(msg.ResultFormatCodes) > 0 && msg.ResultFormatCodes[0] == 1 {
		format = rowio.FormatBinary
	}

	if prior := s.portals[msg.DestinationPortal]; prior != nil {
		prior.portal.Close()
	}
	s.portals[msg.DestinationPortal] = &boundPortal{portal: portal, fields: stmt.fields, format: format}
	return s.codec.Send(&pgproto3.BindComplete{})
}

func (s *Session) handleDescribe(ctx context.Context, msg *pgproto3.Describe) error {
	switch msg.ObjectType {
	case 'S':
		stmt, ok := s.statements[msg.Name]
		if !ok {
			return pgerror.New(pgerrcode.InvalidSQLStatementName, fmt.Sprintf("prepared statement %q does not exist", msg.Name))
		}
		writer := rowio.New(stmt.fields, rowio.FormatText)
		return s.codec.SendBatch(
			&pgproto3.ParameterDescription{},
			writer.RowDescription(),
		)

	case 'P':
		bound, ok := s.portals[msg.Name]
		if !ok {
			return pgerror.New(pgerrcode.InvalidCursorName, fmt.Sprintf("portal %q does not exist", msg.Name))
		}
		if bound == nil {
			return s.codec.Send(&pgproto3.NoData{})
		}
		writer := rowio.New(bound.fields, bound.format)
		return s.codec.Send(writer.RowDescription())

	default:
		return pgerror.New(pgerrcode.ProtocolViolation, fmt.Sprintf("unknown Describe target %q", msg.ObjectType))
	}
}

// handleExecute fetches a bound portal's rows in full; spec.md's v1 design
// always fetches to completion and never sends PortalSuspended, so the max
// row count Execute carries is not honored.
func (s *Session) handleExecute(ctx context.Context, msg *pgproto3.Execute) error {
	bound, ok := s.portals[msg.Portal]
	if !ok {
		return pgerror.New(pgerrcode.InvalidCursorName, fmt.Sprintf("portal %q does not exist", msg.Portal))
	}
	if bound == nil {
		return s.codec.Send(&pgproto3.EmptyQueryResponse{})
	}

	writer := rowio.New(bound.fields, bound.format)
	if err := bound.portal.Fetch(ctx, writer); err != nil {
		return err
	}

	rows, err := writer.DataRows()
	if err != nil {
		return err
	}

	batch := make([]pgproto3.Message, 0, len(rows)+1)
	for _, r := range rows {
		batch = append(batch, r)
	}
	batch = append(batch, &pgproto3.CommandComplete{CommandTag: []byte(commandTag(bound.portal, writer.NumRows()))})
	return s.codec.SendBatch(batch...)
}

// handleQuery implements the simple query sub-protocol: prepare, bind and
// fetch in one round trip, with no persisted statement or portal.
func (s *Session) handleQuery(ctx context.Context, msg *pgproto3.Query) error {
	fields, err := s.eng.Prepare(ctx, msg.String)
	if err != nil {
		return err
	}

	portal, err := s.eng.CreatePortal(ctx, msg.String)
	if err != nil {
		return err
	}
	defer portal.Close()

	writer := rowio.New(fields, rowio.FormatText)
	if err := portal.Fetch(ctx, writer); err != nil {
		return err
	}

	rows, err := writer.DataRows()
	if err != nil {
		return err
	}

	batch := make([]pgproto3.Message, 0, len(rows)+3)
	batch = append(batch, writer.RowDescription())
	for _, r := range rows {
		batch = append(batch, r)
	}
	batch = append(batch,
		&pgproto3.CommandComplete{CommandTag: []byte(commandTag(portal, writer.NumRows()))},
		&pgproto3.ReadyForQuery{TxStatus: 'I'},
	)
	return s.codec.SendBatch(batch...)
}

// commandTag asks portal for its own tag via engine.CommandTagger (the
// differentiated "INSERT 0 3" / "BEGIN" / "COMMIT" style tags a real
// engine needs), falling back to the plain "SELECT <n>" example spec.md's
// worked scenarios show when the portal doesn't implement it.
func commandTag(portal engine.Portal, numRows int) string {
	if tagger, ok := portal.(engine.CommandTagger); ok {
		return tagger.CommandTag()
	}
	return fmt.Sprintf("SELECT %d", numRows)
}
