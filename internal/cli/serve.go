package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fankeji/debtbook/internal/api"
	"github.com/fankeji/debtbook/internal/app/render"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local web UI and API server",
	Long: `Serve the browser UI and the JSON API on localhost. The DeepSeek API
key is read from the environment variable named in the config; without
it the server still runs, with the AI rewrite disabled.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.InfoLevel).With().Timestamp().Logger()
	if os.Getenv("DEBTBOOK_DEBUG") != "" {
		log = log.Level(zerolog.DebugLevel)
	}

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	renderer, err := render.New(cfg.Render.FontPath)
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}

	chat, composer := newComposer(cfg, log)
	if chat == nil {
		log.Warn().Str("env", cfg.Chat.APIKeyEnv).
			Msg("no API key in environment, AI rewrite disabled")
	}

	srv := api.NewServer(st, chat, composer, renderer, log)
	if cfg.API.Metrics {
		srv.EnableMetrics()
	}

	httpSrv := &http.Server{
		Addr:              cfg.API.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.API.Addr()).Msg("debtbook server listening")
		errCh <- httpSrv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}
