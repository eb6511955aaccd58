// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/insightboard/internal/auth"
)

func newTokenCmd() *cobra.Command {
	var (
		username string
		role     string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a JWT for POST /api/insert",
		Long:  "Sign a bearer token with JWT_SECRET. Only writer and admin roles may ingest when INGEST_AUTH=jwt.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if role != auth.RoleWriter && role != auth.RoleAdmin {
				return fmt.Errorf("role must be %q or %q", auth.RoleWriter, auth.RoleAdmin)
			}
			manager, err := auth.NewJWTManager(cfg.Security.JWTSecret)
			if err != nil {
				return err
			}
			token, err := manager.GenerateToken(username, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "user", "u", "ingest", "Subject username")
	cmd.Flags().StringVarP(&role, "role", "r", auth.RoleWriter, "Token role (writer or admin)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
