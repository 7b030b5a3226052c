// Package server accepts TCP connections, instantiates a fresh engine and
// pgwire.Session per connection, and tracks every session's goroutine so
// Stop can wait for a clean shutdown.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/pgbridge/pgbridge/pkg/engine"
	"github.com/pgbridge/pgbridge/pkg/metrics"
	"github.com/pgbridge/pgbridge/pkg/pgwire"
	"github.com/pgbridge/pgbridge/pkg/wire"
)

// EngineFactory builds the engine.Engine instance that will exclusively
// own one connection for its lifetime. Called once per accepted
// connection, never concurrently with itself for the same connection.
type EngineFactory func(ctx context.Context) (engine.Engine, error)

// Server listens for Postgres wire protocol connections and drives each
// one in its own goroutine, tracked by a shared errgroup so Stop can wait
// for every in-flight session to actually finish.
type Server struct {
	Address   string
	NewEngine EngineFactory
	Log       logr.Logger
	Metrics   *metrics.Registry

	listener    net.Listener
	connections sync.Map
	group       errgroup.Group
	ctx         context.Context
	cancel      context.CancelFunc
}

// New constructs a Server bound to address, using factory to create the
// engine backing each accepted connection.
func New(address string, factory EngineFactory, log logr.Logger, reg *metrics.Registry) *Server {
	s := &Server{
		Address:   address,
		NewEngine: factory,
		Log:       log,
		Metrics:   reg,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Start begins listening and accepting connections in the background; it
// returns once the listener is bound, not once the server has stopped.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.Address, err)
	}
	s.listener = listener

	s.group.Go(func() error {
		if err := s.serve(); s.ctx.Err() == nil {
			return err // return error unless context canceled
		}
		return nil
	})
	return nil
}

// Stop closes the listener, closes every tracked connection, and waits for
// their goroutines to return.
func (s *Server) Stop() error {
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.cancel()

	s.connections.Range(func(key, _ any) bool {
		key.(net.Conn).Close()
		return true
	})
	s.connections.Clear()

	if werr := s.group.Wait(); err == nil {
		err = werr
	}
	return err
}

func (s *Server) serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}

		s.connections.Store(conn, nil)
		s.Metrics.ConnectionOpened()
		connLog := s.Log.WithValues("remote", conn.RemoteAddr().String())
		connLog.Info("connection accepted")

		s.group.Go(func() error {
			defer func() {
				conn.Close()
				s.connections.Delete(conn)
				s.Metrics.ConnectionClosed()
			}()

			if err := s.serveConn(s.ctx, conn, connLog); err != nil && s.ctx.Err() == nil {
				connLog.Info("connection closed", "cause", err.Error())
				return nil
			}
			connLog.Info("connection closed")
			return nil
		})
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn, log logr.Logger) error {
	eng, err := s.NewEngine(ctx)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	defer eng.Close()

	codec := wire.New(conn)
	session := pgwire.NewSession(codec, eng, log, s.Metrics)
	return session.Run(ctx)
}
