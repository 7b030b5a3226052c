package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"

	"github.com/pgbridge/pgbridge/pkg/engine"
	"github.com/pgbridge/pgbridge/pkg/metrics"
	"github.com/pgbridge/pgbridge/pkg/server"
	"github.com/pgbridge/pgbridge/pkg/sqliteengine"
	"github.com/pgbridge/pgbridge/pkg/statusapi"
	"github.com/pgbridge/pgbridge/pkg/util/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	addr := flag.String("addr", ":5432", "postgres wire protocol bind address")
	statusAddr := flag.String("status-addr", ":8080", "status/metrics HTTP bind address")
	dataDir := flag.String("data-dir", "", "directory holding SQLite database files")
	logLevel := flag.Int("log-level", log.LogLevelInfo, "0=info, 1=debug")
	logFile := flag.String("log-file", "", "log file path, empty for stderr")
	flag.Parse()

	if *dataDir == "" {
		return fmt.Errorf("required: -data-dir PATH")
	}
	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	logger := log.CreateLogger("pgbridge", *logLevel, *logFile)
	reg := metrics.NewRegistry()

	var sessionCounter atomic.Int64
	newSessionEngine := func(ctx context.Context) (engine.Engine, error) {
		n := sessionCounter.Add(1)
		path := filepath.Join(*dataDir, fmt.Sprintf("session-%d.db", n))
		return sqliteengine.Open(path)
	}

	srv := server.New(*addr, newSessionEngine, logger, reg)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	logger.Info("listening", "address", *addr)

	status := statusapi.New(*statusAddr, reg, logger)
	if err := status.Start(); err != nil {
		return fmt.Errorf("start status service: %w", err)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	if err := status.Stop(); err != nil {
		logger.Info("status service shutdown error", "cause", err.Error())
	}
	if err := srv.Stop(); err != nil {
		return fmt.Errorf("stop server: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
