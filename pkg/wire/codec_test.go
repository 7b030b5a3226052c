package wire

import (
	"bytes"
	"testing"

	"github.com/jackc/pgx/v5/pgproto3"
)

// fakeConn is a bidirectional in-memory stream: writes land in `out`,
// reads come from `in`.
type fakeConn struct {
	in  *bytes.Buffer
	out *bytes.Buffer
}

func (f *fakeConn) Read(p []byte) (int, error)  { return f.in.Read(p) }
func (f *fakeConn) Write(p []byte) (int, error) { return f.out.Write(p) }

func TestSendBatchRoundTripsReadyForQuery(t *testing.T) {
	conn := &fakeConn{in: new(bytes.Buffer), out: new(bytes.Buffer)}
	c := New(conn)

	if err := c.SendBatch(&pgproto3.ReadyForQuery{TxStatus: 'I'}); err != nil {
		t.Fatalf("SendBatch: %v", err)
	}

	got := conn.out.Bytes()
	if len(got) == 0 || got[0] != 'Z' {
		t.Fatalf("expected ReadyForQuery tag 'Z', got %v", got)
	}
}

func TestDeclineSSLWritesSingleNByte(t *testing.T) {
	conn := &fakeConn{in: new(bytes.Buffer), out: new(bytes.Buffer)}
	c := New(conn)

	if err := c.DeclineSSL(); err != nil {
		t.Fatalf("DeclineSSL: %v", err)
	}
	if got := conn.out.Bytes(); len(got) != 1 || got[0] != 'N' {
		t.Fatalf("got %v, want single 'N' byte", got)
	}
}

func TestReceiveStartupDecodesSSLRequest(t *testing.T) {
	in := new(bytes.Buffer)
	// SSLRequest wire form: length(8) + magic 80877103.
	in.Write([]byte{0, 0, 0, 8, 4, 210, 22, 47})

	conn := &fakeConn{in: in, out: new(bytes.Buffer)}
	c := New(conn)

	msg, err := c.ReceiveStartup()
	if err != nil {
		t.Fatalf("ReceiveStartup: %v", err)
	}
	if _, ok := msg.(*pgproto3.SSLRequest); !ok {
		t.Fatalf("got %T, want *pgproto3.SSLRequest", msg)
	}
}
