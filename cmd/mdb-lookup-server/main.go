// mdb-lookup-server answers substring queries against a record database file.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/s00inx/mdbserver/internal/config"
	"github.com/s00inx/mdbserver/internal/logging"
	"github.com/s00inx/mdbserver/server"
)

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, config.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadLookup(os.Args[0], os.Args[1:], os.Stderr)
	if err != nil {
		return err
	}
	log, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}

	// the database must at least open at startup, each connection loads it again
	f, err := os.Open(cfg.Database)
	if err != nil {
		return err
	}
	f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &server.LookupServer{DBPath: cfg.Database, Log: log}
	log.Info("listening", "port", cfg.Port, "database", cfg.Database)
	return server.Run(ctx, [4]byte{}, cfg.Port, srv.ServeConn)
}
