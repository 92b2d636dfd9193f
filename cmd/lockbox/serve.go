package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lockbox-storage/lockbox/config"
	lockboxhttp "github.com/lockbox-storage/lockbox/http"
	"github.com/lockbox-storage/lockbox/keybackend"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the lockbox HTTP server.

The metadata schema is created on startup when database.auto_migrate is set
and validated in every case.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port (env: LOCKBOX_SERVER_PORT)")
	serveCmd.Flags().String("auth-mode", "", "authentication: jwt, static (env: LOCKBOX_AUTH_MODE)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	b, err := openBackends(ctx, cfg, cfg.Database.AutoMigrate)
	if err != nil {
		return err
	}
	defer b.Close()

	auth, err := newAuthenticator(ctx, cfg.Auth)
	if err != nil {
		return err
	}

	handlerConfig := lockboxhttp.HandlerConfig{
		Authenticator: auth,
		CORS:          cfg.CORS,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		HealthCheck:   b.db.Ping,
	}

	handler := lockboxhttp.NewHandler(&handlerConfig, b.service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr, "storage", cfg.Storage.Type, "auth", cfg.Auth.Mode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "err", err)
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

func newAuthenticator(ctx context.Context, cfg config.AuthConfig) (lockboxhttp.Authenticator, error) {
	switch cfg.Mode {
	case "jwt":
		auth, err := lockboxhttp.NewJWTAuthenticator(ctx, lockboxhttp.JWTConfig{
			JWKSURL:         cfg.JWT.JWKSURL,
			Issuer:          cfg.JWT.Issuer,
			Audience:        cfg.JWT.Audience,
			RefreshInterval: cfg.JWT.RefreshInterval,
			Leeway:          cfg.JWT.Leeway,
		})
		if err != nil {
			return nil, fmt.Errorf("create jwt authenticator: %w", err)
		}
		return auth, nil

	case "static":
		tokens, err := keybackend.NewTokenStore(cfg.Keys)
		if err != nil {
			return nil, fmt.Errorf("load tokens: %w", err)
		}
		if tokens.Len() == 0 {
			slog.Warn("no static tokens configured, every API request will be rejected")
		}
		return lockboxhttp.NewTokenAuthenticator(tokens), nil

	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", cfg.Mode)
	}
}
