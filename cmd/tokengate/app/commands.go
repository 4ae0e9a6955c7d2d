// SPDX-FileCopyrightText: Copyright 2026 Arcline Software, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app provides the entry point for the tokengate command-line
// application.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arcline/tokengate/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:               "tokengate",
	DisableAutoGenTag: true,
	Short:             "tokengate is an OAuth2 application gateway",
	Long: `tokengate lets an operator register third-party OAuth2 client applications,
drive each through an authorization-code exchange with PKCE, and expose a stable
proxy endpoint that forwards API calls with the stored bearer token injected.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// Re-initialize so the parsed debug flag takes effect.
		logger.Initialize()
	},
	Run: func(cmd *cobra.Command, _ []string) {
		// If no subcommand is provided, print help
		if err := cmd.Help(); err != nil {
			logger.Errorf("Error displaying help: %v", err)
		}
	},
}

// NewRootCmd creates the root command for the tokengate CLI.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		logger.Fatalf("Failed to bind debug flag: %v", err)
	}

	rootCmd.AddCommand(serveCmd)

	return rootCmd
}
