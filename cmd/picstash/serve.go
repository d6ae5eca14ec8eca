package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/picstash/picstash"
	picstashhttp "github.com/picstash/picstash/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP gateway",
	Long:  `Start the picstash HTTP gateway.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port")
	serveCmd.Flags().String("static-dir", "", "frontend asset directory (default: ./frontend)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := configFromContext(ctx)
	if err != nil {
		return err
	}

	store, opener, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}
	defer cleanup()

	slog.Info("connected to object store", "backend", cfg.Storage.Backend, "bucket", cfg.Storage.Bucket)

	service, err := newService(cfg, store)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	handlerConfig := picstashhttp.HandlerConfig{
		StaticDir: cfg.Server.StaticDir,
		CORS:      cfg.CORS,
	}
	if opener != nil {
		handlerConfig.MediaVerifier = picstash.NewVerifier(picstash.VerifierConfig{
			AccessKey: cfg.Sign.AccessKey,
			SecretKey: cfg.Sign.SecretKey,
			Region:    cfg.Sign.Region,
			Service:   cfg.Sign.Service,
		})
	}

	handler := picstashhttp.NewHandler(&handlerConfig, service, opener)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "backend", cfg.Storage.Backend)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
