package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cardroom/holdem/internal/logging"
	"github.com/cardroom/holdem/pkg/server"
)

func main() {
	var (
		dbPath      string
		logFile     string
		debugLevel  string
		maxLogFiles int
		sweepMs     int
	)
	flag.StringVar(&dbPath, "db", "", "Path to SQLite database file (created if missing)")
	flag.StringVar(&logFile, "logfile", "", "Rotating log file path (empty for stderr only)")
	flag.StringVar(&debugLevel, "debuglevel", "info",
		"Logging level, or per-subsystem pairs like SRVR=debug,STOR=trace")
	flag.IntVar(&maxLogFiles, "maxlogfiles", 3, "Rotated log files to keep")
	flag.IntVar(&sweepMs, "sweepms", 1000, "Action timeout sweep interval in milliseconds")
	flag.Parse()

	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "holdem.sqlite")
	}

	logBackend, err := logging.NewBackend(logging.Config{
		LogFile:     logFile,
		DebugLevel:  debugLevel,
		MaxLogFiles: maxLogFiles,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logBackend.Close()
	log := logBackend.Logger("SRVR")

	srv, err := server.NewServer(server.Config{
		DBPath:        dbPath,
		Log:           log,
		GameLog:       logBackend.Logger("HAND"),
		SweepInterval: time.Duration(sweepMs) * time.Millisecond,
	})
	if err != nil {
		log.Errorf("Failed to start server: %v", err)
		os.Exit(1)
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("Serving tables from %s", dbPath)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		log.Errorf("Server exited: %v", err)
		os.Exit(1)
	}
	log.Infof("Shutdown complete")
}
