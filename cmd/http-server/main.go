// http-server serves static files and the mdb-lookup gateway.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/s00inx/mdbserver/internal/config"
	"github.com/s00inx/mdbserver/internal/logging"
	"github.com/s00inx/mdbserver/server"
	"github.com/s00inx/mdbserver/server/engine"
	"github.com/s00inx/mdbserver/server/lookup"
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
	cfg, err := config.LoadHTTP(os.Args[0], os.Args[1:], os.Stderr)
	if err != nil {
		return err
	}
	log, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}

	client := lookup.NewClient(func() (net.Conn, error) {
		return engine.Dial(cfg.MdbHost, cfg.MdbPort)
	})
	defer client.Close()

	// fail fast when the lookup server is not there at all
	if err := client.Connect(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.NewHTTPServer(cfg.WebRoot, client, log)
	log.Info("listening", "port", cfg.Port, "web_root", cfg.WebRoot,
		"mdb", net.JoinHostPort(cfg.MdbHost, fmt.Sprint(cfg.MdbPort)))
	return server.Run(ctx, [4]byte{}, cfg.Port, srv.ServeConn)
}
