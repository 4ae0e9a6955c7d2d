// SPDX-FileCopyrightText: Copyright 2026 Arcline Software, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package proxy implements the capability-token gated forwarder that relays
// inbound requests to a registered application's upstream API with the
// stored bearer token injected.
package proxy

import (
	"crypto/subtle"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/arcline/tokengate/pkg/errs"
	"github.com/arcline/tokengate/pkg/logger"
	"github.com/arcline/tokengate/pkg/registry"
)

// TokenParam is the query parameter carrying the caller's capability token.
// It is stripped from the forwarded request.
const TokenParam = "proxyToken"

// Forwarder validates capability tokens and relays requests upstream.
type Forwarder struct {
	registry  *registry.Registry
	transport http.RoundTripper
	now       func() time.Time
}

// Option configures a Forwarder.
type Option func(*Forwarder)

// WithTransport sets the RoundTripper used for upstream requests.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Forwarder) {
		f.transport = rt
	}
}

// WithClock sets a custom clock for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(f *Forwarder) {
		f.now = now
	}
}

// NewForwarder creates a Forwarder over the given registry.
func NewForwarder(reg *registry.Registry, opts ...Option) *Forwarder {
	f := &Forwarder{
		registry:  reg,
		transport: http.DefaultTransport,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Forward relays the request to the named application's upstream API at the
// given subpath. A returned error means nothing was written to w and the
// caller maps it to a status code; the upstream call is only issued once the
// capability token and the stored access token have both been validated.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, appName, subpath string) error {
	app, err := f.registry.Get(r.Context(), appName)
	if err != nil {
		return err
	}

	supplied := r.URL.Query().Get(TokenParam)
	if supplied == "" ||
		subtle.ConstantTimeCompare([]byte(supplied), []byte(app.ProxyToken)) != 1 {
		return errs.NewAuthError("invalid proxy token", nil)
	}

	if !app.HasLiveToken(f.now()) {
		return errs.NewAuthError("application has no valid access token", nil)
	}

	target, err := url.Parse(app.APIPath)
	if err != nil {
		return errs.NewUpstreamError("invalid upstream API path", err)
	}

	rp := httputil.NewSingleHostReverseProxy(target)
	rp.Transport = f.transport

	originalDirector := rp.Director
	rp.Director = func(req *http.Request) {
		originalDirector(req)

		req.URL.Path = joinPath(target.Path, subpath)

		// Drop the capability token; everything else passes through.
		q := req.URL.Query()
		q.Del(TokenParam)
		req.URL.RawQuery = q.Encode()

		req.Header.Set("Authorization", "Bearer "+app.AccessToken)
		// The upstream sees its own host, not the gateway's.
		req.Host = req.URL.Host
	}

	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Errorw("upstream request failed",
			"app", appName,
			"url", r.URL.String(),
			"error", err.Error(),
		)
		http.Error(w, "upstream request failed", http.StatusBadGateway)
	}

	logger.Debugw("forwarding request", "app", appName, "subpath", subpath, "method", r.Method)
	rp.ServeHTTP(w, r)
	return nil
}

func joinPath(base, subpath string) string {
	base = strings.TrimSuffix(base, "/")
	if subpath == "" {
		if base == "" {
			return "/"
		}
		return base
	}
	return base + "/" + strings.TrimPrefix(subpath, "/")
}
