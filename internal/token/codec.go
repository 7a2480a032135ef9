package token

import (
	"encoding/json"
	"fmt"
	"strings"

	jose "github.com/go-jose/go-jose/v4"
	"go.uber.org/zap"
)

var supportedEncryption = []jose.ContentEncryption{jose.A128CBC_HS256, jose.A256CBC_HS512}

// Codec decrypts inbound authorization tokens with a pre-shared symmetric key.
type Codec struct {
	key []byte
	log *zap.Logger
}

func NewCodec(secretPhrase string, log *zap.Logger) (*Codec, error) {
	key, err := KeyFromPhrase(secretPhrase)
	if err != nil {
		return nil, err
	}
	return &Codec{key: key, log: log.Named("token")}, nil
}

// Decode accepts either "<scheme> <token>" or a bare token, decrypts it and
// validates the claims schema. Expiry is the caller's business rule.
func (c *Codec) Decode(headerValue string) (*Claims, error) {
	raw := strings.TrimSpace(headerValue)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty header", ErrInvalidToken)
	}
	if parts := strings.Fields(raw); len(parts) > 1 {
		raw = parts[1]
	} else {
		raw = parts[0]
	}

	obj, err := jose.ParseEncrypted(raw, []jose.KeyAlgorithm{jose.DIRECT}, supportedEncryption)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	plaintext, err := obj.Decrypt(c.key)
	if err != nil {
		c.log.Debug("token decryption failed", zap.Error(err))
		return nil, fmt.Errorf("%w: decryption failed", ErrInvalidToken)
	}
	return parseClaims(plaintext)
}

// Seal is the issuer-side counterpart of Decode, used by local tooling and
// tests to mint tokens against the same shared secret.
func Seal(claims Claims, key []byte) (string, error) {
	enc := jose.A128CBC_HS256
	if len(key) == 64 {
		enc = jose.A256CBC_HS512
	}
	encrypter, err := jose.NewEncrypter(enc, jose.Recipient{Algorithm: jose.DIRECT, Key: key}, nil)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	obj, err := encrypter.Encrypt(payload)
	if err != nil {
		return "", err
	}
	return obj.CompactSerialize()
}

// KeyFromPhrase derives the symmetric key from the shared secret phrase.
// All-digit phrases map each character to its digit value, the convention the
// token issuer uses; any other phrase is taken as raw bytes. The result must
// be a valid AES-CBC-HMAC key length.
func KeyFromPhrase(phrase string) ([]byte, error) {
	if phrase == "" {
		return nil, fmt.Errorf("token secret phrase is required")
	}

	key := make([]byte, len(phrase))
	digitsOnly := true
	for i := 0; i < len(phrase); i++ {
		ch := phrase[i]
		if ch < '0' || ch > '9' {
			digitsOnly = false
			break
		}
		key[i] = ch - '0'
	}
	if !digitsOnly {
		key = []byte(phrase)
	}

	switch len(key) {
	case 32, 64:
		return key, nil
	default:
		return nil, fmt.Errorf("token secret phrase must be 32 or 64 characters, got %d", len(phrase))
	}
}
