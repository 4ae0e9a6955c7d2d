// SPDX-FileCopyrightText: Copyright 2026 Arcline Software, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package flow drives the OAuth 2.0 authorization-code exchange with PKCE
// for registered applications, from redirect construction through callback
// handling to token storage.
package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arcline/tokengate/pkg/errs"
	"github.com/arcline/tokengate/pkg/logger"
	"github.com/arcline/tokengate/pkg/registry"
	"github.com/arcline/tokengate/pkg/store"
	"github.com/arcline/tokengate/pkg/tokens"
	"github.com/arcline/tokengate/pkg/upstream"
)

// DefaultStateTTL bounds how long an authorization may remain pending
// before its state record expires.
const DefaultStateTTL = 15 * time.Minute

// pendingAuth is the record persisted under oauth_state:{state} while an
// authorization is in flight.
type pendingAuth struct {
	AppName      string `json:"appName"`
	CodeVerifier string `json:"codeVerifier"`
}

// Exchanger exchanges an authorization code for tokens at an upstream
// token endpoint.
type Exchanger interface {
	ExchangeCode(ctx context.Context, tokenEndpoint, clientID, redirectURI, code, codeVerifier string) (*upstream.Tokens, error)
}

// Flow coordinates PKCE authorization-code exchanges. The redirect URI is
// fixed at construction; every pending authorization uses it.
type Flow struct {
	store       store.Store
	registry    *registry.Registry
	exchanger   Exchanger
	redirectURI string
	stateTTL    time.Duration
}

// Option configures a Flow.
type Option func(*Flow)

// WithStateTTL overrides the pending-authorization TTL.
func WithStateTTL(ttl time.Duration) Option {
	return func(f *Flow) {
		f.stateTTL = ttl
	}
}

// New creates a Flow over the given store and registry. redirectURI is the
// externally reachable callback URL registered with the upstream providers.
func New(st store.Store, reg *registry.Registry, exchanger Exchanger, redirectURI string, opts ...Option) *Flow {
	f := &Flow{
		store:       st,
		registry:    reg,
		exchanger:   exchanger,
		redirectURI: redirectURI,
		stateTTL:    DefaultStateTTL,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Begin starts an authorization for the named application. It generates the
// state and PKCE verifier, persists the pending record, and returns the URL
// to redirect the operator to.
func (f *Flow) Begin(ctx context.Context, appName string) (string, error) {
	app, err := f.registry.Get(ctx, appName)
	if err != nil {
		return "", err
	}

	state := tokens.Generate()
	verifier := tokens.Generate()

	pending := pendingAuth{
		AppName:      app.Name,
		CodeVerifier: verifier,
	}
	data, err := json.Marshal(&pending)
	if err != nil {
		return "", fmt.Errorf("failed to encode pending authorization: %w", err)
	}

	if err := f.store.Set(ctx, store.OAuthStateKey(state), data, f.stateTTL); err != nil {
		return "", errs.NewStoreError("failed to persist pending authorization", err)
	}

	redirectURL, err := upstream.AuthorizationURL(
		app.AuthPath, app.ClientID, f.redirectURI, app.Scope, state, tokens.Challenge(verifier))
	if err != nil {
		return "", err
	}

	logger.Infow("authorization started", "app", app.Name)
	return redirectURL, nil
}

// Callback completes an authorization. The state record is consumed on
// first use regardless of whether the exchange succeeds, so a replayed
// callback always fails with an invalid-state error. Returns the name of
// the application whose tokens were stored.
func (f *Flow) Callback(ctx context.Context, code, state string) (string, error) {
	if code == "" || state == "" {
		return "", errs.NewInvalidRequestError("missing code or state parameter", nil)
	}

	data, err := f.store.Get(ctx, store.OAuthStateKey(state))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", errs.NewInvalidStateError("unknown or expired state parameter", nil)
		}
		return "", errs.NewStoreError("failed to load pending authorization", err)
	}

	// Consume immediately so the state is single-use even when a later
	// step fails and the caller retries.
	if err := f.store.Delete(ctx, store.OAuthStateKey(state)); err != nil {
		logger.Warnf("failed to delete consumed state record: %v", err)
	}

	var pending pendingAuth
	if err := json.Unmarshal(data, &pending); err != nil {
		return "", errs.NewInvalidStateError("corrupt pending authorization record", err)
	}

	app, err := f.registry.Get(ctx, pending.AppName)
	if err != nil {
		return "", err
	}

	toks, err := f.exchanger.ExchangeCode(
		ctx, app.APIPath, app.ClientID, f.redirectURI, code, pending.CodeVerifier)
	if err != nil {
		return "", err
	}

	if _, err := f.registry.AttachTokens(ctx, app.Name, toks.AccessToken, toks.RefreshToken, toks.ExpiresAt); err != nil {
		return "", err
	}

	logger.Infow("authorization completed", "app", app.Name)
	return app.Name, nil
}
