// SPDX-FileCopyrightText: Copyright 2026 Arcline Software, Inc.
// SPDX-License-Identifier: Apache-2.0

package tokens

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	token := Generate()
	assert.Len(t, token, 64)

	_, err := hex.DecodeString(token)
	require.NoError(t, err, "token must be valid hex")

	// RFC 7636: code_verifier must be 43-128 characters, so the same
	// primitive can serve as the PKCE verifier source.
	assert.GreaterOrEqual(t, len(token), 43)
	assert.LessOrEqual(t, len(token), 128)
}

func TestGenerateUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := Generate()
		assert.False(t, seen[token], "tokens must not repeat")
		seen[token] = true
	}
}

func TestChallenge_RFC7636Example(t *testing.T) {
	t.Parallel()

	// RFC 7636 Appendix B example
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	expected := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"

	assert.Equal(t, expected, Challenge(verifier))
}
