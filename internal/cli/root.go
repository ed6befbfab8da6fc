// Package cli implements the debtbook command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fankeji/debtbook/internal/app/compose"
	"github.com/fankeji/debtbook/internal/app/store"
	"github.com/fankeji/debtbook/internal/daemon"
	"github.com/fankeji/debtbook/internal/infra/deepseek"
	"github.com/fankeji/debtbook/internal/infra/sqlite"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "debtbook",
	Short: "Personal debt tracker",
	Long: `debtbook keeps a private ledger of money you lent and money you owe,
stored locally. It exports calendar reminders, backs itself up to a
portable JSON file, composes repayment messages (with optional AI
rewriting), and renders signed commitment letters as images.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml (default ~/.debtbook/config.toml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// ─── Shared bootstrap ───────────────────────────────────────────────────────

// loadConfig reads the config file, falling back to defaults when the
// --config flag is unset and no file exists.
func loadConfig() (daemon.Config, error) {
	return daemon.Load(configPath)
}

// openStore opens the sqlite-backed record store. The caller owns the
// returned close function.
func openStore(cfg daemon.Config) (*store.Store, func(), error) {
	db, err := sqlite.Open(cfg.Storage.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	st, err := store.Open(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("load records: %w", err)
	}
	return st, func() { db.Close() }, nil
}

// newComposer builds the AI message composer, or nil when no API key is
// configured. Callers treat nil as "templates only".
func newComposer(cfg daemon.Config, log zerolog.Logger) (*deepseek.Client, *compose.Composer) {
	key := cfg.APIKey()
	if key == "" {
		return nil, nil
	}
	chatCfg := deepseek.Config{
		BaseURL: cfg.Chat.BaseURL,
		APIKey:  key,
		Model:   cfg.Chat.Model,
		Timeout: cfg.Chat.Timeout(),
	}
	client := deepseek.New(chatCfg, log)
	return client, compose.New(client)
}

// newLogger builds the CLI logger: console output, warnings and up
// unless DEBTBOOK_DEBUG is set.
func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if os.Getenv("DEBTBOOK_DEBUG") != "" {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}
