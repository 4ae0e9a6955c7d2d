// SPDX-FileCopyrightText: Copyright 2026 Arcline Software, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package main is the entry point for the tokengate gateway.
package main

import (
	"os"

	"github.com/arcline/tokengate/cmd/tokengate/app"
	"github.com/arcline/tokengate/pkg/logger"
)

func main() {
	logger.Initialize()

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
