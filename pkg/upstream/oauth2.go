// SPDX-FileCopyrightText: Copyright 2026 Arcline Software, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package upstream implements the OAuth 2.0 wire protocol against the
// third-party services that registered applications point at. Endpoints are
// supplied per call because every application carries its own.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arcline/tokengate/pkg/errs"
	"github.com/arcline/tokengate/pkg/logger"
	"github.com/arcline/tokengate/pkg/tokens"
)

// maxResponseSize caps token endpoint response bodies at 1MB.
const maxResponseSize = 1024 * 1024

// defaultExchangeTimeout bounds the token exchange when the caller's
// context carries no deadline of its own.
const defaultExchangeTimeout = 30 * time.Second

// HTTPClient is the interface for making HTTP requests, satisfied by
// *http.Client and swappable in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Tokens represents the tokens obtained from a third-party token endpoint.
type Tokens struct {
	// AccessToken is the bearer token for the upstream API.
	AccessToken string

	// RefreshToken is the refresh token, if the upstream issued one.
	RefreshToken string

	// ExpiresAt is when the access token expires.
	ExpiresAt time.Time
}

// Client performs OAuth 2.0 exchanges against upstream services.
type Client struct {
	httpClient HTTPClient
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPClient) ClientOption {
	return func(u *Client) {
		u.httpClient = c
	}
}

// NewClient creates an upstream OAuth client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultExchangeTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthorizationURL builds the URL to redirect the operator to the upstream
// authorization endpoint, carrying the PKCE challenge.
func AuthorizationURL(authEndpoint, clientID, redirectURI, scope, state, codeChallenge string) (string, error) {
	if state == "" {
		return "", errors.New("state parameter is required")
	}

	params := url.Values{
		"response_type":         {"code"},
		"client_id":             {clientID},
		"redirect_uri":          {redirectURI},
		"state":                 {state},
		"scope":                 {scope},
		"code_challenge":        {codeChallenge},
		"code_challenge_method": {tokens.ChallengeMethodS256},
	}

	return authEndpoint + "?" + params.Encode(), nil
}

// ExchangeCode exchanges an authorization code for tokens at the given
// token endpoint, presenting the PKCE verifier generated at begin time.
// A non-success upstream response surfaces the status and body for
// operator diagnosis; nothing is retried.
func (c *Client) ExchangeCode(ctx context.Context, tokenEndpoint, clientID, redirectURI, code, codeVerifier string) (*Tokens, error) {
	if code == "" {
		return nil, errors.New("authorization code is required")
	}

	logger.Infow("exchanging authorization code for tokens",
		"token_endpoint", tokenEndpoint,
	)

	params := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectURI},
		"client_id":     {clientID},
		"code_verifier": {codeVerifier},
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		tokenEndpoint,
		strings.NewReader(params.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.NewUpstreamError("token request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errs.NewUpstreamError("failed to read token response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errs.NewUpstreamError(
			fmt.Sprintf("token endpoint %s returned %d: %s", tokenEndpoint, resp.StatusCode, string(body)), nil)
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, errs.NewUpstreamError("failed to parse token response", err)
	}

	if tokenResp.AccessToken == "" {
		return nil, errs.NewUpstreamError("token response missing access_token", nil)
	}

	// Default to 1 hour if the upstream omits expires_in.
	expiresAt := time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	if tokenResp.ExpiresIn == 0 {
		expiresAt = time.Now().Add(time.Hour)
	}

	logger.Infow("authorization code exchange successful",
		"has_refresh_token", tokenResp.RefreshToken != "",
		"expires_at", expiresAt.Format(time.RFC3339),
	)

	return &Tokens{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// tokenResponse represents the response from the token endpoint.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	Scope        string `json:"scope,omitempty"`
}
