// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "github.com/tomtom215/insightboard/docs" // swagger spec for /swagger/*
	"github.com/tomtom215/insightboard/internal/config"
	"github.com/tomtom215/insightboard/internal/logging"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

var (
	configPath string
	envFile    string
	cfg        *config.Config
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "insightboard",
		Short:         "Insights dashboard data service",
		Long:          "Insightboard serves filtered rows and facet lists from the insights table, and accepts batch ingest.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return loadConfig()
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config.yaml (overrides CONFIG_PATH)")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before the environment is read")

	root.AddCommand(newServeCmd())
	root.AddCommand(newInitDBCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newTokenCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// loadConfig fills cfg. Variables already in the environment win over the
// dotenv file, and a missing file is not an error.
func loadConfig() error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if configPath != "" {
		if err := os.Setenv(config.ConfigPathEnvVar, configPath); err != nil {
			return err
		}
	}

	loaded, err := config.LoadWithKoanf()
	if err != nil {
		return err
	}
	cfg = loaded

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "insightboard %s (%s)\n", version, commit)
		},
	}
}
