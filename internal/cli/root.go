// Package cli implements the command line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/libersoft-org/smart-contracts/internal/config"
	"github.com/libersoft-org/smart-contracts/internal/networks"
	"github.com/libersoft-org/smart-contracts/internal/observability/metrics"
	"github.com/libersoft-org/smart-contracts/internal/storage"
)

var (
	networkName  string
	networksFile string
	dataDir      string
	quiet        bool
)

// Execute runs the CLI
func Execute(version string) error {
	rootCmd := &cobra.Command{
		Use:     "smart-contracts",
		Short:   "Deploy and verify ERC-20 tokens on EVM chains",
		Long:    `smart-contracts deploys ERC-20 token contracts to EVM networks, records the deployments locally, and verifies the contract source on Etherscan-compatible explorers.`,
		Version: version,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&networkName, "network", "sepolia", "target network name")
	rootCmd.PersistentFlags().StringVar(&networksFile, "networks-file", "", "TOML file with extra network definitions (default: <data-dir>/networks.toml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for history and keys (default: ~/.smart-contracts)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")

	// Add subcommands
	rootCmd.AddCommand(createDeployCmd())
	rootCmd.AddCommand(createVerifyCmd())
	rootCmd.AddCommand(createWalletCmd())
	rootCmd.AddCommand(createNetworksCmd())
	rootCmd.AddCommand(createDeploymentsCmd())

	return rootCmd.Execute()
}

// loadEnvironment assembles the pieces every command needs: config,
// logger, and the network registry.
func loadEnvironment() (*config.Config, *slog.Logger, *networks.Registry, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
		cfg.Storage.SQLite.Path = filepath.Join(dataDir, "deployments.db")
	}

	logger := newLogger(cfg.Logging)

	netsPath := networksFile
	if netsPath == "" {
		netsPath = filepath.Join(cfg.DataDir, "networks.toml")
	}
	registry, err := networks.Load(netsPath)
	if err != nil {
		return nil, nil, nil, err
	}

	if cfg.Metrics.Enabled {
		metrics.Init(true, "smart-contracts")
		metrics.Serve(cfg.Metrics.Addr, logger)
	}

	return cfg, logger, registry, nil
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
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
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// openStore opens the deployment history store and runs migrations.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("opening deployment history: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
