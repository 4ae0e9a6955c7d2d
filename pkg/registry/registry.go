// SPDX-FileCopyrightText: Copyright 2026 Arcline Software, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package registry manages OAuth client application registrations.
//
// Session enforcement lives at the HTTP boundary; this package assumes its
// caller is already authorized.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arcline/tokengate/pkg/errs"
	"github.com/arcline/tokengate/pkg/logger"
	"github.com/arcline/tokengate/pkg/store"
	"github.com/arcline/tokengate/pkg/tokens"
)

// DefaultScope is the OAuth scope requested when an application is
// registered without one.
const DefaultScope = "read"

// Application is a registered OAuth client application. It is the JSON
// contract for app:{name} values in the credential store.
type Application struct {
	// Name uniquely identifies the application and is its primary key.
	Name string `json:"name"`

	// ClientID is the OAuth client_id issued by the third-party service.
	ClientID string `json:"clientId"`

	// AuthPath is the upstream authorization endpoint.
	AuthPath string `json:"authPath"`

	// APIPath is the upstream base API and token endpoint.
	APIPath string `json:"apiPath"`

	// Scope is the OAuth scope requested during authorization.
	Scope string `json:"scope,omitempty"`

	// ProxyToken is the capability token gating the proxy forwarder for
	// this application. Always present once the application exists.
	ProxyToken string `json:"proxyToken"`

	// AccessToken, RefreshToken, and TokenExpiresAt form the token triple
	// set as a unit by the OAuth flow callback. TokenExpiresAt is unix
	// seconds.
	AccessToken    string `json:"accessToken,omitempty"`
	RefreshToken   string `json:"refreshToken,omitempty"`
	TokenExpiresAt int64  `json:"tokenExpiresAt,omitempty"`
}

// HasLiveToken reports whether the application holds an access token that
// has not expired at the given instant.
func (a *Application) HasLiveToken(now time.Time) bool {
	if a.AccessToken == "" {
		return false
	}
	return now.Unix() < a.TokenExpiresAt
}

// Registry is CRUD over application records in the credential store. It
// holds no in-memory copies; every operation round-trips the store.
type Registry struct {
	store store.Store
}

// New creates a Registry backed by the given store.
func New(st store.Store) *Registry {
	return &Registry{store: st}
}

// Create registers a new application. The name must be unique: creation
// uses the store's conditional put so a concurrent create of the same name
// loses cleanly instead of overwriting. A fresh proxy token is generated.
func (r *Registry) Create(ctx context.Context, name, clientID, authPath, apiPath, scope string) (*Application, error) {
	if name == "" || clientID == "" || authPath == "" || apiPath == "" {
		return nil, errs.NewInvalidRequestError("name, client_id, auth_path, and api_path are required", nil)
	}
	if scope == "" {
		scope = DefaultScope
	}

	app := &Application{
		Name:       name,
		ClientID:   clientID,
		AuthPath:   authPath,
		APIPath:    apiPath,
		Scope:      scope,
		ProxyToken: tokens.Generate(),
	}

	data, err := json.Marshal(app)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal application: %w", err)
	}

	ok, err := r.store.SetNX(ctx, store.AppKey(name), data, 0)
	if err != nil {
		return nil, errs.NewStoreError("failed to persist application", err)
	}
	if !ok {
		return nil, errs.NewNameConflictError("application name already exists", nil)
	}

	logger.Infow("application created", "name", name, "client_id", clientID)
	return app, nil
}

// Get loads an application by name.
func (r *Registry) Get(ctx context.Context, name string) (*Application, error) {
	data, err := r.store.Get(ctx, store.AppKey(name))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errs.NewNotFoundError("application not found", nil)
		}
		return nil, errs.NewStoreError("failed to load application", err)
	}

	var app Application
	if err := json.Unmarshal(data, &app); err != nil {
		return nil, errs.NewNotFoundError("application record is corrupt", err)
	}
	return &app, nil
}

// Edit mutates the upstream endpoints and scope of an existing application.
// ClientID, the proxy token, and the stored OAuth tokens are untouched.
func (r *Registry) Edit(ctx context.Context, name, authPath, apiPath, scope string) (*Application, error) {
	return r.update(ctx, name, func(app *Application) {
		app.AuthPath = authPath
		app.APIPath = apiPath
		if scope != "" {
			app.Scope = scope
		}
	})
}

// Delete removes an application unconditionally. Deleting an unknown name
// is not an error.
func (r *Registry) Delete(ctx context.Context, name string) error {
	if err := r.store.Delete(ctx, store.AppKey(name)); err != nil {
		return errs.NewStoreError("failed to delete application", err)
	}
	logger.Infow("application deleted", "name", name)
	return nil
}

// RegenerateProxyToken replaces the proxy capability token with a fresh
// value. The old value stops working the moment the write lands; there is
// no grace period.
func (r *Registry) RegenerateProxyToken(ctx context.Context, name string) (*Application, error) {
	app, err := r.update(ctx, name, func(app *Application) {
		app.ProxyToken = tokens.Generate()
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("proxy token regenerated", "name", name)
	return app, nil
}

// AttachTokens replaces the OAuth token triple wholesale. Only the
// authorization flow calls this, after a successful code exchange.
func (r *Registry) AttachTokens(ctx context.Context, name, accessToken, refreshToken string, expiresAt time.Time) (*Application, error) {
	return r.update(ctx, name, func(app *Application) {
		app.AccessToken = accessToken
		app.RefreshToken = refreshToken
		app.TokenExpiresAt = expiresAt.Unix()
	})
}

// List enumerates all registered applications. A record that fails to
// decode is logged and skipped rather than aborting the listing. Order is
// whatever the store's prefix scan yields.
func (r *Registry) List(ctx context.Context) ([]*Application, error) {
	keys, err := r.store.List(ctx, store.KeyPrefixApp)
	if err != nil {
		return nil, errs.NewStoreError("failed to list applications", err)
	}

	apps := make([]*Application, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Deleted between scan and fetch.
				continue
			}
			return nil, errs.NewStoreError("failed to load application", err)
		}

		var app Application
		if err := json.Unmarshal(data, &app); err != nil {
			logger.Warnw("skipping corrupt application record", "key", key, "error", err)
			continue
		}
		apps = append(apps, &app)
	}
	return apps, nil
}

// update applies mutate to an existing application and writes it back.
func (r *Registry) update(ctx context.Context, name string, mutate func(*Application)) (*Application, error) {
	app, err := r.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	mutate(app)

	data, err := json.Marshal(app)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal application: %w", err)
	}
	if err := r.store.Set(ctx, store.AppKey(name), data, 0); err != nil {
		return nil, errs.NewStoreError("failed to persist application", err)
	}
	return app, nil
}
