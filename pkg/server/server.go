// SPDX-FileCopyrightText: Copyright 2026 Arcline Software, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package server contains the HTTP surface of the gateway: the admin API,
// the OAuth callback endpoint, and the token-injecting proxy route.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/arcline/tokengate/pkg/flow"
	"github.com/arcline/tokengate/pkg/logger"
	"github.com/arcline/tokengate/pkg/proxy"
	"github.com/arcline/tokengate/pkg/registry"
	"github.com/arcline/tokengate/pkg/session"
)

const (
	middlewareTimeout = 60 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Routes holds the dependencies of the gateway's HTTP handlers.
type Routes struct {
	sessions  *session.Manager
	registry  *registry.Registry
	flow      *flow.Flow
	forwarder *proxy.Forwarder
	metrics   *Metrics
}

// Router assembles the gateway router.
func Router(
	sessions *session.Manager,
	reg *registry.Registry,
	f *flow.Flow,
	forwarder *proxy.Forwarder,
	metrics *Metrics,
) http.Handler {
	routes := &Routes{
		sessions:  sessions,
		registry:  reg,
		flow:      f,
		forwarder: forwarder,
		metrics:   metrics,
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Timeout(middlewareTimeout),
	)

	r.Get("/health", routes.health)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/admin", routes.adminStatus)
	r.Post("/admin", routes.login)
	r.Get("/admin/apps", routes.listApps)
	r.Post("/admin/apps", routes.handleAction)
	r.Get("/oauth/callback", routes.oauthCallback)
	r.HandleFunc("/get/{appName}", routes.forward)
	r.HandleFunc("/get/{appName}/*", routes.forward)

	return r
}

// Serve runs the handler on the given address until ctx is cancelled, then
// shuts down gracefully.
func Serve(ctx context.Context, address string, handler http.Handler) error {
	srv := &http.Server{
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Addr:              address,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}

	logger.Infof("starting HTTP server on %s", address)

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server stopped with error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Infof("server stopped")
	return nil
}
