// Package token decrypts and validates the gateway authorization token.
package token

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidToken covers decryption, integrity and schema failures alike;
	// callers answer 401 without detail either way.
	ErrInvalidToken = errors.New("invalid authorization token")
)

// Authentication describes the credential the gateway forwards upstream.
type Authentication struct {
	Type     string `json:"type,omitempty"`
	Token    string `json:"token,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// Headers carries upstream-facing header material embedded in the token.
type Headers struct {
	Authentication Authentication `json:"authentication,omitempty"`
}

// Claims is the decrypted payload of an authorization token. Immutable once
// parsed; it lives for a single request.
type Claims struct {
	UserID    string   `json:"userId"`
	DID       string   `json:"did"`
	Owner     string   `json:"owner,omitempty"`
	Endpoints []string `json:"endpoints"`
	Headers   Headers  `json:"headers,omitempty"`
	IssuedAt  int64    `json:"iat,omitempty"`
	ExpiresAt int64    `json:"exp"`
}

// parseClaims decodes the decrypted payload, rejecting unknown fields and
// missing required ones instead of trusting the shape at use-site.
func parseClaims(plaintext []byte) (*Claims, error) {
	dec := json.NewDecoder(bytes.NewReader(plaintext))
	dec.DisallowUnknownFields()

	var claims Claims
	if err := dec.Decode(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := claims.validate(); err != nil {
		return nil, err
	}
	return &claims, nil
}

func (c *Claims) validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return fmt.Errorf("%w: missing userId", ErrInvalidToken)
	}
	if strings.TrimSpace(c.DID) == "" {
		return fmt.Errorf("%w: missing did", ErrInvalidToken)
	}
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("%w: no granted endpoints", ErrInvalidToken)
	}
	if c.ExpiresAt <= 0 {
		return fmt.Errorf("%w: missing exp", ErrInvalidToken)
	}
	return nil
}

// ServiceToken returns the upstream access token embedded in the claims,
// empty when the upstream needs none.
func (c *Claims) ServiceToken() string {
	return c.Headers.Authentication.Token
}
