// Command spinedb runs the in-memory key-value server: a TCP RESP2
// listener, a secondary WebSocket/HTTP ingress, and a background
// expiration sweeper, all driven off one shared engine.Engine.
// Grounded on the teacher's cmd/spine main.go (signal-driven shutdown)
// with cobra flag binding replacing its hand-rolled flag package use.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"spinedb/internal/commands"
	"spinedb/internal/config"
	"spinedb/internal/engine"
	"spinedb/internal/sweeper"
	"spinedb/internal/transport"
)

func main() {
	root := &cobra.Command{
		Use:   "spinedb",
		Short: "In-memory RESP2 key-value server",
	}
	root.AddCommand(newServeCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	var (
		bind          string
		port          int
		wsBind        string
		sweepInterval time.Duration
		logLevel      string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Config{BindAddress: bind, Port: port, WSBind: wsBind}
			return runServe(cfg, sweepInterval, logLevel)
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "0.0.0.0", "TCP bind address")
	cmd.Flags().IntVar(&port, "port", 6380, "TCP listen port")
	cmd.Flags().StringVar(&wsBind, "ws-bind", "0.0.0.0:6381", "WebSocket/HTTP bind address (host:port)")
	cmd.Flags().DurationVar(&sweepInterval, "sweep-interval", 1*time.Second, "Active-expiration sweep period")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug/info/warn/error)")

	return cmd
}

func runServe(cfg config.Config, sweepInterval time.Duration, logLevel string) error {
	log := newLogger(logLevel)

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return err
	}

	eng := engine.NewEngine()
	commands.Register(eng.Registry)

	sweep := sweeper.New(eng.DB, sweepInterval, log)
	go sweep.Run()
	defer sweep.Stop()

	srv := transport.NewServer(eng, log)

	errCh := make(chan error, 2)
	go func() {
		if err := srv.ListenAndServeTCP(cfg.Addr()); err != nil {
			errCh <- err
		}
	}()
	go func() {
		if err := srv.ListenAndServeHTTP(cfg.WSBind); err != nil {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		log.Error().Err(err).Msg("listener failed")
		return err
	}

	return nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
