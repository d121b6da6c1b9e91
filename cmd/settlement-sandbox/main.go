package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/settlement-go/internal/auth"
	"github.com/mmynk/settlement-go/internal/sandbox"
	"github.com/mmynk/settlement-go/internal/storage/sqlite"
	"github.com/mmynk/settlement-go/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	issueToken := flag.String("issue-token", "", "print a bearer token for this merchant ID and exit")
	flag.Parse()

	logging.Setup()

	cfg, err := sandbox.ConfigFromEnv()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	if *issueToken != "" {
		token, err := jwtManager.Generate(*issueToken)
		if err != nil {
			slog.Error("Failed to issue token", "error", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	if err := run(cfg, jwtManager); err != nil {
		slog.Error("Sandbox failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg sandbox.Config, jwtManager *auth.JWTManager) error {
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	srv, err := sandbox.NewServer(cfg, store, jwtManager)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h2c.NewHandler(srv.Routes(), &http2.Server{}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Sandbox starting",
			"address", cfg.Addr,
			"opening_balance", cfg.OpeningBalance.String(),
			"daily_limit", cfg.DailyLimit.String(),
			"max_accounts", cfg.MaxAccounts,
			"approve_accounts", cfg.ApproveAccounts,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
