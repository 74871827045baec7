package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"chainchat/internal/auth"
	"chainchat/internal/client"
	"chainchat/internal/config"
	"chainchat/internal/store"
)

var (
	cfgFile   string
	debugFlag bool

	cfg       *config.Config
	logger    *slog.Logger
	logFile   *os.File
	apiClient *client.Client
)

var rootCmd = &cobra.Command{
	Use:          "chainchat",
	Short:        "Terminal client for the chainchat service",
	Long:         "Streams chat turns from the chainchat service and folds them into a live transcript.\nSessions can be listed, resumed, and replayed offline from the local archive.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			_ = logFile.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultConfigPath(), "path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging on the console")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(replayCmd)
}

func setup(cmd *cobra.Command) error {
	cfg = config.Load()
	if err := cfg.ApplyFile(cfgFile); err != nil {
		return err
	}
	if debugFlag {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	f, err := config.SetupLogFile(cfg.LogDir, cfg.LogMaxFiles)
	if err != nil {
		return err
	}
	logFile = f
	logger = config.NewLogger(f, cfg.Debug)
	slog.SetDefault(logger)

	apiClient = client.New(cfg.APIBaseURL, cfg.APIKey, cfg.AppID, client.WithLogger(logger))

	// Inspect the bearer token before any expensive call. An opaque API
	// key passes; an expired JWT fails fast instead of mid-stream.
	inspector, err := auth.NewTokenInspector(cmd.Context(), cfg.JWKSURL, logger)
	if err != nil {
		return err
	}
	if err := inspector.CheckToken(cfg.APIKey); err != nil {
		return fmt.Errorf("bearer token rejected: %w", err)
	}
	return nil
}

// openArchive opens the local sqlite archive used for offline replay.
func openArchive() (*store.Store, error) {
	return store.NewStore(cfg.DBPath)
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "chainchat.yaml"
	}
	return filepath.Join(home, ".chainchat", "config.yaml")
}
