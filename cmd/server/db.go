// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/insightboard/internal/database"
	"github.com/tomtom215/insightboard/internal/fallback"
	"github.com/tomtom215/insightboard/internal/models"
)

func newInitDBCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "init-db",
		Short: "Create the insights table",
		Long:  "Create the insights table if it does not exist. With --reset the table is dropped first and every row is lost.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := database.Open(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer closeLogged("database", db.Close)

			if reset {
				err = db.ResetSchema(ctx)
			} else {
				err = db.CreateSchema(ctx)
			}
			if err != nil {
				return fmt.Errorf("init-db: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Table %q ready (%s)\n", models.TableName, db.Dialect())
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Drop and recreate the table")
	return cmd
}

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the table contents with a dataset file",
		Long:  "Load a JSON dataset file into the insights table, replacing every existing row. Without --file the first existing fallback path is used.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := file
			if path == "" {
				found, err := fallback.FindFile(cfg.Fallback.Paths)
				if err != nil {
					return err
				}
				path = found
			}
			records, err := fallback.LoadFile(path)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := database.Open(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer closeLogged("database", db.Close)

			if err := db.CreateSchema(ctx); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			res, err := db.Seed(ctx, records)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d records from %s (table now holds %d)\n", res.Inserted, path, res.Total)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Dataset file (JSON array of records)")
	return cmd
}
