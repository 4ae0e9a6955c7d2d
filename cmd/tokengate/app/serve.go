// SPDX-FileCopyrightText: Copyright 2026 Arcline Software, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arcline/tokengate/pkg/flow"
	"github.com/arcline/tokengate/pkg/logger"
	"github.com/arcline/tokengate/pkg/proxy"
	"github.com/arcline/tokengate/pkg/registry"
	"github.com/arcline/tokengate/pkg/server"
	"github.com/arcline/tokengate/pkg/session"
	"github.com/arcline/tokengate/pkg/store"
	"github.com/arcline/tokengate/pkg/upstream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway server",
	Long: `Start the gateway server. The admin API manages OAuth application
registrations, the callback endpoint completes authorization exchanges, and
the proxy route forwards API calls with stored bearer tokens injected.`,
	RunE: runServe,
}

// Development credentials seeded into the in-memory store. Redis
// deployments provision the credential keys out-of-band instead.
const (
	devUsername = "admin"
	devPassword = "password123"
)

func init() {
	serveCmd.Flags().String("address", ":8080", "Address to listen on")
	serveCmd.Flags().String("external-url", "", "Externally reachable base URL of this gateway (used for the OAuth redirect URI)")
	serveCmd.Flags().String("store", "memory", "Credential store backend (memory or redis)")
	serveCmd.Flags().String("redis-url", "redis://localhost:6379", "Redis connection URL when --store=redis")
	serveCmd.Flags().Duration("session-ttl", session.DefaultTTL, "Admin session lifetime")
	serveCmd.Flags().Duration("timeout", 30*time.Second, "Timeout for upstream token exchanges")

	for _, name := range []string{"address", "external-url", "store", "redis-url", "session-ttl", "timeout"} {
		if err := viper.BindPFlag(name, serveCmd.Flags().Lookup(name)); err != nil {
			logger.Fatalf("Failed to bind %s flag: %v", name, err)
		}
	}
}

func newStore(ctx context.Context) (store.Store, func(), error) {
	backend := viper.GetString("store")
	switch backend {
	case "redis":
		st, err := store.NewRedisStore(ctx, store.RedisConfig{URL: viper.GetString("redis-url")})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return st, func() {
			if err := st.Close(); err != nil {
				logger.Warnf("failed to close redis store: %v", err)
			}
		}, nil
	case "memory":
		st := store.NewMemoryStore()
		if err := st.Set(ctx, store.KeyAdminUsername, []byte(devUsername), 0); err != nil {
			return nil, nil, err
		}
		if err := st.Set(ctx, store.KeyAdminPassword, []byte(devPassword), 0); err != nil {
			return nil, nil, err
		}
		logger.Warnf("using in-memory store with development credentials (%s); data is lost on restart", devUsername)
		return st, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	address := viper.GetString("address")
	externalURL := strings.TrimSuffix(viper.GetString("external-url"), "/")
	if externalURL == "" {
		return fmt.Errorf("external-url flag is required")
	}

	st, closeStore, err := newStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	sessionTTL := viper.GetDuration("session-ttl")
	if sessionTTL <= 0 {
		sessionTTL = session.DefaultTTL
	}

	exchangeTimeout := viper.GetDuration("timeout")
	if exchangeTimeout <= 0 {
		exchangeTimeout = 30 * time.Second
	}

	sessions := session.NewManager(st, session.WithTTL(sessionTTL))
	reg := registry.New(st)
	client := upstream.NewClient(upstream.WithHTTPClient(&http.Client{Timeout: exchangeTimeout}))
	exchanges := flow.New(st, reg, client, externalURL+"/oauth/callback")
	forwarder := proxy.NewForwarder(reg)
	metrics := server.NewMetrics()

	router := server.Router(sessions, reg, exchanges, forwarder, metrics)

	logger.Infow("starting tokengate",
		"address", address,
		"store", viper.GetString("store"),
		"session_ttl", sessionTTL.String(),
	)

	start := time.Now()
	if err := server.Serve(ctx, address, router); err != nil {
		return err
	}
	logger.Infof("tokengate stopped after %s", time.Since(start).Round(time.Second))
	return nil
}
