// Package subscription decides whether a consumer currently holds enough of a
// plan to call a paid service.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"

	assetdomain "github.com/tollgate-io/tollgate/internal/asset/domain"
	"github.com/tollgate-io/tollgate/internal/chain"
	"go.uber.org/zap"
)

// ErrSubscriptionValidation wraps every failure that should surface as a
// denied introspection rather than an internal error.
var ErrSubscriptionValidation = errors.New("subscription validation failed")

// Checker validates a consumer's plan against the on-chain balance.
type Checker struct {
	resolver          assetdomain.Resolver
	chain             chain.Client
	defaultMinCredits uint64
	log               *zap.Logger
}

func NewChecker(resolver assetdomain.Resolver, chainClient chain.Client, defaultMinCredits uint64, log *zap.Logger) *Checker {
	if defaultMinCredits == 0 {
		defaultMinCredits = 1
	}
	return &Checker{
		resolver:          resolver,
		chain:             chainClient,
		defaultMinCredits: defaultMinCredits,
		log:               log.Named("subscription"),
	}
}

// Check returns nil when the consumer may use the service described by did.
// The owner of a service always passes. Time-based plans pass as long as the
// descriptor resolves; credit plans additionally need the consumer's balance
// to cover the plan's minimum.
func (c *Checker) Check(ctx context.Context, did, consumer, owner string) error {
	svc, err := c.resolver.Resolve(ctx, did)
	if err != nil {
		return fmt.Errorf("%w: resolving %s: %v", ErrSubscriptionValidation, did, err)
	}

	if strings.EqualFold(consumer, svc.Owner) || (owner != "" && strings.EqualFold(owner, svc.Owner)) {
		c.log.Debug("owner bypass", zap.String("did", did), zap.String("consumer", consumer))
		return nil
	}

	if svc.SubscriptionType == assetdomain.SubscriptionTime {
		return nil
	}

	minCredits := svc.Charge.MinCreditsRequired
	if minCredits == 0 {
		minCredits = c.defaultMinCredits
	}

	balance, err := c.chain.Balance(ctx, svc.Access.ContractAddress, svc.Access.TokenID, consumer)
	if err != nil {
		return fmt.Errorf("%w: balance for %s: %v", ErrSubscriptionValidation, consumer, err)
	}
	if balance < minCredits {
		return fmt.Errorf("%w: balance %d below required %d", ErrSubscriptionValidation, balance, minCredits)
	}
	return nil
}
