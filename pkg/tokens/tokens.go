// SPDX-FileCopyrightText: Copyright 2026 Arcline Software, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package tokens generates the opaque secrets used throughout tokengate:
// admin session tokens, proxy capability tokens, OAuth state values, and
// PKCE code verifiers all come from the same primitive so they share its
// entropy guarantee.
package tokens

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/oauth2"
)

// tokenBytes is the number of random bytes per token (256 bits of entropy).
const tokenBytes = 32

// ChallengeMethodS256 is the PKCE challenge method using SHA-256 (RFC 7636).
const ChallengeMethodS256 = "S256"

// Generate returns a cryptographically random opaque token, hex-encoded to
// 64 characters. Hex output stays inside the RFC 7636 unreserved alphabet,
// so the same value is a valid PKCE code_verifier.
// It panics on crypto/rand read failure, which is unrecoverable.
func Generate() string {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		panic("tokens: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// Challenge computes the PKCE code_challenge from a code_verifier using the
// S256 method per RFC 7636 Section 4.2:
// code_challenge = BASE64URL(SHA256(code_verifier)), no padding.
//
// This delegates to oauth2.S256ChallengeFromVerifier from golang.org/x/oauth2.
func Challenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}
