// Command labeld runs the label print server, or prints a single label file
// in one-shot mode.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ibp/labeld/internal/api"
	"github.com/ibp/labeld/internal/api/middleware"
	"github.com/ibp/labeld/internal/config"
	"github.com/ibp/labeld/internal/cups"
	"github.com/ibp/labeld/internal/discover"
	"github.com/ibp/labeld/internal/dispatch"
	"github.com/ibp/labeld/internal/history"
	"github.com/ibp/labeld/internal/queue"
	"github.com/ibp/labeld/internal/render"
	"github.com/ibp/labeld/internal/usb"
	"github.com/ibp/labeld/internal/webhook"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "print":
		err = runPrint(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		slog.Error("labeld failed", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: labeld print <label.json> | labeld serve [-port N] [-config PATH]")
}

func setupLogging(cfg config.LoggingConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// runPrint renders and prints one label file, then exits. No queue, no
// retries: failures surface directly on the command line.
func runPrint(args []string) error {
	fs := flag.NewFlagSet("print", flag.ExitOnError)
	configPath := fs.String("config", "labeld.yaml", "path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("print requires exactly one label file argument")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	setupLogging(cfg.Logging)

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("cannot read label file: %w", err)
	}

	var label render.Label
	if err := json.Unmarshal(data, &label); err != nil {
		return fmt.Errorf("cannot parse label file: %w", err)
	}
	if err := label.Validate(cfg.Server.MaxFieldLength); err != nil {
		return err
	}

	client := cups.NewExecClient()
	cache := discover.NewCache(client, usb.NewSysfsEnumerator(), cfg.Printers.Preferred, cfg.Printers.DiscoveryTTL)
	engine := dispatch.NewEngine(client, cache, &cfg.Printers)

	slog.Info("printing label", "file", fs.Arg(0), "package_id", label.PackageID)
	return engine.PrintLabel(context.Background(), label)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.Int("port", 0, "listen port (overrides config)")
	configPath := fs.String("config", "labeld.yaml", "path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	setupLogging(cfg.Logging)

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	auth, err := middleware.NewAuthMiddleware(store)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}

	sender := webhook.NewSender(&cfg.Webhooks)
	sender.Start()
	defer sender.Stop()

	client := cups.NewExecClient()
	cache := discover.NewCache(client, usb.NewSysfsEnumerator(), cfg.Printers.Preferred, cfg.Printers.DiscoveryTTL)
	engine := dispatch.NewEngine(client, cache, &cfg.Printers)

	q := queue.New(cfg.Queue.Capacity)
	loop := queue.NewLoop(q, engine, store, sender, cfg.Queue.MaxRetries)

	router := api.NewRouter(api.Dependencies{
		Config:   &cfg.Server,
		Cache:    cache,
		Queue:    q,
		Loop:     loop,
		History:  store,
		Notifier: sender,
		Auth:     auth,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loopCtx, cancelLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		loop.Run(loopCtx)
	}()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		cancelLoop()
		<-loopDone
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	// Stop accepting first so in-flight requests finish enqueueing, then
	// let the dispatch loop exit at its next idle check.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	cancelLoop()
	<-loopDone

	slog.Info("shutdown complete")
	return nil
}
