// Package statusapi is the small HTTP surface a running server exposes
// alongside the Postgres wire listener: a liveness endpoint and a
// Prometheus /metrics endpoint. It carries no replication or backup
// surface the way the teacher's equivalent package does — those concerns
// don't exist in this design.
package statusapi

import (
	"context"
	"net"
	"net/http"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pgbridge/pgbridge/pkg/metrics"
)

// Service is the status/metrics HTTP server.
type Service struct {
	httpServer http.Server
	address    string
	listener   net.Listener
	log        logr.Logger
}

// New returns an unstarted Service bound to address, serving reg's
// metrics and a /status liveness check.
func New(address string, reg *metrics.Registry, log logr.Logger) *Service {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/status", http.StatusFound)
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{}))

	return &Service{
		httpServer: http.Server{Handler: mux},
		address:    address,
		log:        log,
	}
}

// Start begins serving in the background.
func (s *Service) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	s.listener = listener

	go func() {
		if err := s.httpServer.Serve(s.listener); err != nil && err != http.ErrServerClosed {
			s.log.Info("status service stopped", "cause", err.Error())
		}
	}()
	s.log.Info("status service listening", "address", s.listener.Addr().String())
	return nil
}

// Stop gracefully shuts the service down.
func (s *Service) Stop() error {
	return s.httpServer.Shutdown(context.Background())
}
