package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/btouchard/eventpush"
	"github.com/btouchard/eventpush/internal/config"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "send":
		cmdSend(os.Args[2:])
	case "check":
		cmdCheck(os.Args[2:])
	case "version":
		fmt.Printf("eventpush %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: eventpush <command> [flags]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve     Ingest events over HTTP and push them to targets\n")
	fmt.Fprintf(os.Stderr, "  send      Read JSON events from stdin, one per line, and push them\n")
	fmt.Fprintf(os.Stderr, "  check     Print the merged target configuration\n")
	fmt.Fprintf(os.Stderr, "  version   Print version\n")
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to host config file")
	projectDir := fs.String("project", "", "project directory (overrides config)")
	_ = fs.Parse(args) // ExitOnError handles errors

	cfg, err := LoadHostConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *projectDir != "" {
		cfg.ProjectDir = *projectDir
	}

	setupLogging(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func cmdSend(args []string) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	projectDir := fs.String("project", "", "project directory")
	_ = fs.Parse(args) // ExitOnError handles errors

	setupLogging("info")

	handler := eventpush.Activate(*projectDir, eventpush.NewSlogLogger(slog.Default()))

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		event := make(json.RawMessage, len(line))
		copy(event, line)
		handler(context.Background(), event)
	}
	if err := scanner.Err(); err != nil {
		slog.Error("reading stdin", "error", err)
		os.Exit(1)
	}
}

func cmdCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	projectDir := fs.String("project", "", "project directory")
	_ = fs.Parse(args) // ExitOnError handles errors

	cfg := config.NewLoader(slog.Default()).Load(*projectDir)

	fmt.Printf("%d target(s) configured\n", len(cfg.Targets))
	for _, t := range cfg.Targets {
		events := "all events"
		if len(t.Events) > 0 {
			events = fmt.Sprintf("%v", t.Events)
		}
		fmt.Printf("  %s  (%s, %d attempt(s))\n", t.URL, events, t.Retry.AttemptCount())
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
}

func run(ctx context.Context, cfg *HostConfig) error {
	handler := eventpush.Activate(cfg.ProjectDir, eventpush.NewSlogLogger(slog.Default()))

	r := chi.NewRouter()

	r.Post("/events", func(w http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(io.LimitReader(req.Body, 1024*1024))
		if err != nil {
			http.Error(w, "reading body", http.StatusBadRequest)
			return
		}
		if !json.Valid(body) {
			http.Error(w, "body must be a JSON event", http.StatusBadRequest)
			return
		}

		id := uuid.NewString()
		slog.Info("event accepted", "id", id)

		// Push in the background; ingestion acknowledges receipt, not
		// delivery.
		go handler(context.WithoutCancel(req.Context()), body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = fmt.Fprintf(w, `{"id":%q}`, id)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("eventpush is ready", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
