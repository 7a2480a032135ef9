// Package introspect answers whether a proxied request may pass and with what
// upstream identity.
package introspect

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	assetdomain "github.com/tollgate-io/tollgate/internal/asset/domain"
	"github.com/tollgate-io/tollgate/internal/clock"
	"github.com/tollgate-io/tollgate/internal/credential"
	"github.com/tollgate-io/tollgate/internal/endpoint"
	"github.com/tollgate-io/tollgate/internal/observability/metrics"
	"github.com/tollgate-io/tollgate/internal/subscription"
	"github.com/tollgate-io/tollgate/internal/token"
	"go.uber.org/zap"
)

// Deny reasons, kept low-cardinality for the denial counter.
const (
	ReasonBadRequestedURL    = "bad_requested_url"
	ReasonInvalidToken       = "invalid_token"
	ReasonTokenExpired       = "token_expired"
	ReasonEndpointNotGranted = "endpoint_not_granted"
	ReasonSubscription       = "subscription"
	ReasonUnauthorized       = "unauthorized"
	ReasonTimeout            = "timeout"
)

// Decision is the full introspection verdict. On deny only Reason is set.
type Decision struct {
	Allow        bool
	Reason       string
	UserID       string
	Owner        string
	AuthType     string
	AuthHeader   string
	ServiceToken string
	UpstreamHost string
	Scope        string
	Exp          int64
	Iat          int64
}

func deny(reason string) Decision { return Decision{Reason: reason} }

// Engine evaluates introspection requests.
type Engine struct {
	codec    *token.Codec
	resolver assetdomain.Resolver
	checker  *subscription.Checker
	metrics  *metrics.Metrics
	clock    clock.Clock
	timeout  time.Duration
	log      *zap.Logger
}

func NewEngine(
	codec *token.Codec,
	resolver assetdomain.Resolver,
	checker *subscription.Checker,
	m *metrics.Metrics,
	clk clock.Clock,
	timeout time.Duration,
	log *zap.Logger,
) *Engine {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Engine{
		codec:    codec,
		resolver: resolver,
		checker:  checker,
		metrics:  m,
		clock:    clk,
		timeout:  timeout,
		log:      log.Named("introspect"),
	}
}

// Decide runs the evaluation under the engine timeout. A decision that cannot
// be reached in time is a deny; the gateway never fails open.
func (e *Engine) Decide(ctx context.Context, authHeader, requestedURL string) Decision {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan Decision, 1)
	go func() { done <- e.evaluate(ctx, authHeader, requestedURL) }()

	var decision Decision
	select {
	case decision = <-done:
	case <-ctx.Done():
		e.log.Warn("introspection timed out", zap.String("requested_url", requestedURL))
		decision = deny(ReasonTimeout)
	}

	if !decision.Allow {
		e.metrics.RecordAccessDenied(ctx, decision.Reason)
	}
	return decision
}

// evaluate applies the decision order: requested URL shape first, then the
// token path, then the open-access path. A token-path denial is not final;
// the service may still publish the requested endpoint as open, so the
// fallback runs before the denial stands.
func (e *Engine) evaluate(ctx context.Context, authHeader, requestedURL string) Decision {
	requested, err := url.Parse(strings.TrimSpace(requestedURL))
	if err != nil || requested.Host == "" || requested.Scheme == "" {
		return deny(ReasonBadRequestedURL)
	}

	if strings.TrimSpace(authHeader) != "" {
		decision := e.evaluateToken(ctx, authHeader, requested)
		if decision.Allow {
			return decision
		}
		if open := e.evaluateOpenAccess(ctx, requested); open.Allow {
			return open
		}
		// Keep the token-path reason; it names the real failure.
		return decision
	}
	return e.evaluateOpenAccess(ctx, requested)
}

func (e *Engine) evaluateToken(ctx context.Context, authHeader string, requested *url.URL) Decision {
	claims, err := e.codec.Decode(authHeader)
	if err != nil {
		e.log.Debug("token rejected", zap.Error(err))
		return deny(ReasonInvalidToken)
	}

	if e.clock.Now().Unix() >= claims.ExpiresAt {
		return deny(ReasonTokenExpired)
	}

	pattern, ok := endpoint.Match(claims.Endpoints, requested.Path, e.log)
	if !ok {
		e.log.Debug("requested path not granted",
			zap.String("did", claims.DID),
			zap.String("path", requested.Path),
		)
		return deny(ReasonEndpointNotGranted)
	}

	if err := e.checker.Check(ctx, claims.DID, claims.UserID, claims.Owner); err != nil {
		if !errors.Is(err, subscription.ErrSubscriptionValidation) {
			e.log.Error("subscription check failed", zap.Error(err))
		}
		return deny(ReasonSubscription)
	}

	authType, header := credential.Compose(claims.Headers.Authentication, e.log)

	upstreamHost := pattern.Host()
	if upstreamHost == "" {
		upstreamHost = requested.Hostname()
	}

	e.metrics.RecordAccessGranted(ctx, claims.DID, claims.Owner, claims.UserID, pattern.Raw)
	return Decision{
		Allow:        true,
		UserID:       claims.UserID,
		Owner:        claims.Owner,
		AuthType:     authType,
		AuthHeader:   header,
		ServiceToken: claims.ServiceToken(),
		UpstreamHost: upstreamHost,
		Scope:        claims.DID,
		Exp:          claims.ExpiresAt,
		Iat:          claims.IssuedAt,
	}
}

// evaluateOpenAccess serves tokenless requests to endpoints a service
// publishes as open. The asset identifier rides in the leftmost DNS label of
// the requested host.
func (e *Engine) evaluateOpenAccess(ctx context.Context, requested *url.URL) Decision {
	label, _, _ := strings.Cut(requested.Hostname(), ".")
	did, err := assetdomain.DIDFromLabel(label)
	if err != nil {
		return deny(ReasonUnauthorized)
	}

	svc, err := e.resolver.Resolve(ctx, did)
	if err != nil {
		if !errors.Is(err, assetdomain.ErrNotFound) {
			e.log.Error("open-access resolution failed", zap.String("did", did), zap.Error(err))
		}
		return deny(ReasonUnauthorized)
	}

	pattern, ok := endpoint.Match(svc.OpenEndpoints, requested.Path, e.log)
	if !ok {
		return deny(ReasonUnauthorized)
	}

	upstreamHost := pattern.Host()
	if upstreamHost == "" {
		upstreamHost = requested.Hostname()
	}

	e.metrics.RecordAccessGranted(ctx, svc.DID, svc.Owner, "", pattern.Raw)
	return Decision{
		Allow:        true,
		Owner:        svc.Owner,
		AuthType:     credential.TypeNone,
		UpstreamHost: upstreamHost,
		Scope:        svc.DID,
	}
}
