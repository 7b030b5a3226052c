// Package wire wraps pgproto3's frontend/backend message codec with the
// two read phases spec.md §4.1 describes: ReceiveStartup reads
// length-prefixed, untagged startup-phase messages and Receive reads
// tagged message-phase messages. The codec keeps no phase state of its
// own; the caller (pgwire.Session) keeps calling ReceiveStartup until a
// real Startup message (as opposed to an SSLRequest) has been decoded,
// then uses Receive for the rest of the connection's life.
package wire

import (
	"io"

	"github.com/jackc/pgx/v5/pgproto3"

	"github.com/jackc/pgerrcode"

	"github.com/pgbridge/pgbridge/pkg/pgerror"
)

// Codec is a per-connection framer/encoder. It owns the underlying
// pgproto3.Backend and the raw stream, and exposes exactly the read/write
// operations the connection state machine needs.
type Codec struct {
	backend *pgproto3.Backend
	conn    io.ReadWriter
}

// New wraps conn in a Codec; the first read on a fresh connection is
// ReceiveStartup.
func New(conn io.ReadWriter) *Codec {
	return &Codec{backend: pgproto3.NewBackend(conn, conn), conn: conn}
}

// ReceiveStartup reads one startup-phase message: an
// *pgproto3.StartupMessage, *pgproto3.SSLRequest, *pgproto3.CancelRequest,
// or *pgproto3.GSSEncRequest. Framing/IO failures are classified FATAL
// per spec.md §7.
func (c *Codec) ReceiveStartup() (pgproto3.FrontendMessage, error) {
	msg, err := c.backend.ReceiveStartupMessage()
	if err != nil {
		return nil, pgerror.Fatal(pgerrcode.ConnectionException, "connection error: "+err.Error())
	}
	return msg, nil
}

// Receive reads one message-phase (tagged) frontend message.
func (c *Codec) Receive() (pgproto3.FrontendMessage, error) {
	msg, err := c.backend.Receive()
	if err != nil {
		return nil, pgerror.Fatal(pgerrcode.ConnectionException, "connection error: "+err.Error())
	}
	return msg, nil
}

// DeclineSSL writes the single 'N' byte that tells the client to retry
// without TLS; the caller stays in startup phase and calls ReceiveStartup
// again for the retry.
func (c *Codec) DeclineSSL() error {
	if _, err := c.conn.Write([]byte{'N'}); err != nil {
		return pgerror.Fatal(pgerrcode.ConnectionException, "connection error: "+err.Error())
	}
	return nil
}

// Send encodes and writes a single backend message.
func (c *Codec) Send(msg pgproto3.Message) error {
	return c.SendBatch(msg)
}

// SendBatch encodes every message into one buffer and writes it with a
// single syscall, matching the teacher's writeMessages helper: a logical
// response group (e.g. RowDescription + N DataRows + CommandComplete)
// should reach the client as one write.
func (c *Codec) SendBatch(msgs ...pgproto3.Message) error {
	var buf []byte
	for _, msg := range msgs {
		var err error
		buf, err = msg.Encode(buf)
		if err != nil {
			return pgerror.Fatal(pgerrcode.ConnectionException, "connection error: "+err.Error())
		}
	}
	if _, err := c.conn.Write(buf); err != nil {
		return pgerror.Fatal(pgerrcode.ConnectionException, "connection error: "+err.Error())
	}
	return nil
}
