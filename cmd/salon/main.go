package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/salon-scheduler/internal/config"
	"github.com/example/salon-scheduler/internal/logging"
	"github.com/example/salon-scheduler/internal/persistence/sqlstore"
)

var (
	// Version is set at build time.
	Version = "dev"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the state shared by every subcommand.
type app struct {
	root       *cobra.Command
	configPath string
	out        io.Writer
	logOut     io.Writer

	cfg    config.Config
	logger *slog.Logger
}

func newApp(out, logOut io.Writer) *app {
	a := &app{out: out, logOut: logOut}

	a.root = &cobra.Command{
		Use:   "salon",
		Short: "Salon staff scheduling server",
		Long: `salon serves the staff schedule grid of a salon over HTTP.

Settings come from a TOML file (--config, $SALON_CONFIG_FILE or
$XDG_CONFIG_HOME/salon/config.toml) overridden by SALON_* variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig()
		},
	}
	a.root.SetOut(out)
	a.root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a TOML configuration file")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.serveCmd())
	a.root.AddCommand(a.migrateCmd())
	a.root.AddCommand(a.userCmd())
	return a
}

func (a *app) Execute() error {
	return a.root.Execute()
}

func (a *app) loadConfig() error {
	var (
		cfg config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger, err := logging.New(a.logOut, level, cfg.Log.Format)
	if err != nil {
		return err
	}
	if cfg.Source != "" {
		logger.Debug("configuration loaded", "file", cfg.Source)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) openStore(ctx context.Context) (*sqlstore.Store, error) {
	store, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver:       a.cfg.Database.Driver,
		DSN:          a.cfg.Database.DSN,
		MaxOpenConns: a.cfg.Database.MaxOpenConns,
		BusyTimeout:  a.cfg.Database.BusyTimeout.Duration,
	})
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	return store, nil
}

func (a *app) closeStore(store *sqlstore.Store) {
	if err := store.Close(); err != nil {
		a.logger.Error("failed to close storage", "error", err)
	}
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		// Printing the version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "salon %s\n", Version)
		},
	}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
