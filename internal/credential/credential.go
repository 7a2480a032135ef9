// Package credential builds the header the proxy attaches when forwarding a
// granted request upstream.
package credential

import (
	"encoding/base64"
	"strings"

	"github.com/tollgate-io/tollgate/internal/token"
	"go.uber.org/zap"
)

const (
	TypeBearer = "bearer"
	TypeOAuth  = "oauth"
	TypeBasic  = "basic"
	TypeNone   = "none"
)

// Compose maps the claims' upstream credential spec to a forwarding header.
// Unknown or absent specs yield an empty credential; upstream services that
// need no auth are a normal case, not an error.
func Compose(auth token.Authentication, log *zap.Logger) (authType, header string) {
	switch strings.ToLower(strings.TrimSpace(auth.Type)) {
	case TypeBearer, TypeOAuth:
		if auth.Token == "" {
			break
		}
		return auth.Type, "Bearer " + auth.Token
	case TypeBasic:
		if auth.Username == "" && auth.Password == "" {
			break
		}
		encoded := base64.StdEncoding.EncodeToString([]byte(auth.Username + ":" + auth.Password))
		return TypeBasic, "Basic " + encoded
	}
	if log != nil {
		log.Debug("no upstream credential to forward", zap.String("type", auth.Type))
	}
	return TypeNone, ""
}
