package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPhrase = "12345678901234567890123456789012"

func testClaims() Claims {
	return Claims{
		UserID:    "0xconsumer",
		DID:       "did:nv:1234abcd",
		Owner:     "0xowner",
		Endpoints: []string{"https://api.example.com/ask"},
		Headers: Headers{
			Authentication: Authentication{Type: "oauth", Token: "upstream-secret"},
		},
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	codec, err := NewCodec(testPhrase, zap.NewNop())
	require.NoError(t, err)

	key, err := KeyFromPhrase(testPhrase)
	require.NoError(t, err)

	want := testClaims()
	sealed, err := Seal(want, key)
	require.NoError(t, err)

	got, err := codec.Decode("Bearer " + sealed)
	require.NoError(t, err)
	assert.Equal(t, want.UserID, got.UserID)
	assert.Equal(t, want.DID, got.DID)
	assert.Equal(t, want.Endpoints, got.Endpoints)
	assert.Equal(t, "upstream-secret", got.ServiceToken())
	assert.Equal(t, want.ExpiresAt, got.ExpiresAt)
}

func TestDecodeBareToken(t *testing.T) {
	codec, err := NewCodec(testPhrase, zap.NewNop())
	require.NoError(t, err)

	key, _ := KeyFromPhrase(testPhrase)
	sealed, err := Seal(testClaims(), key)
	require.NoError(t, err)

	_, err = codec.Decode(sealed)
	assert.NoError(t, err)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	codec, err := NewCodec(testPhrase, zap.NewNop())
	require.NoError(t, err)

	for _, raw := range []string{"", "Bearer", "Bearer not-a-token", "a.b.c.d.e"} {
		_, err := codec.Decode(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, "input %q", raw)
	}
}

func TestDecodeRejectsWrongKey(t *testing.T) {
	codec, err := NewCodec(testPhrase, zap.NewNop())
	require.NoError(t, err)

	otherKey, err := KeyFromPhrase("99999999999999999999999999999999")
	require.NoError(t, err)
	sealed, err := Seal(testClaims(), otherKey)
	require.NoError(t, err)

	_, err = codec.Decode(sealed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeRejectsSchemaViolations(t *testing.T) {
	codec, err := NewCodec(testPhrase, zap.NewNop())
	require.NoError(t, err)
	key, _ := KeyFromPhrase(testPhrase)

	cases := map[string]func(*Claims){
		"missing user":      func(c *Claims) { c.UserID = "" },
		"missing did":       func(c *Claims) { c.DID = "" },
		"missing endpoints": func(c *Claims) { c.Endpoints = nil },
		"missing exp":       func(c *Claims) { c.ExpiresAt = 0 },
	}
	for name, mutate := range cases {
		claims := testClaims()
		mutate(&claims)
		sealed, err := Seal(claims, key)
		require.NoError(t, err)

		_, err = codec.Decode(sealed)
		assert.ErrorIs(t, err, ErrInvalidToken, name)
	}
}

func TestKeyFromPhrase(t *testing.T) {
	key, err := KeyFromPhrase(testPhrase)
	require.NoError(t, err)
	require.Len(t, key, 32)
	// digit characters map to their values, not their ASCII codes
	assert.Equal(t, byte(1), key[0])
	assert.Equal(t, byte(2), key[1])
	assert.Equal(t, byte(0), key[9])

	raw, err := KeyFromPhrase("abcdefghijklmnopqrstuvwxyzabcdef")
	require.NoError(t, err)
	assert.Equal(t, []byte("abcdefghijklmnopqrstuvwxyzabcdef"), raw)

	_, err = KeyFromPhrase("too-short")
	assert.Error(t, err)
}
