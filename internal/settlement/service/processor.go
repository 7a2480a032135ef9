// Package service decides and executes the credit debit for one usage record.
package service

import (
	"context"
	"fmt"
	"strings"

	assetdomain "github.com/tollgate-io/tollgate/internal/asset/domain"
	"github.com/tollgate-io/tollgate/internal/chain"
	"github.com/tollgate-io/tollgate/internal/observability/metrics"
	"github.com/tollgate-io/tollgate/internal/settlement/domain"
	"go.uber.org/zap"
)

// Settlement messages stored on the record. Kept to the historical wording
// operators already search for.
const (
	msgCallByOwner       = "Call by owner."
	msgFreeService       = "Free service."
	msgInsufficientFunds = "Insufficient funds"
	msgBurned            = "Burned"

	codeBurnFailed = "BURN-001"
)

// Processor settles one usage record against the subscription ledger.
type Processor struct {
	resolver assetdomain.Resolver
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewProcessor(resolver assetdomain.Resolver, m *metrics.Metrics, log *zap.Logger) *Processor {
	return &Processor{
		resolver: resolver,
		metrics:  m,
		log:      log.Named("settlement.processor"),
	}
}

// Process returns the settlement outcome for rec. It never returns an error:
// failures become retry or invalid outcomes so one record can never abort the
// batch. The session carries contract bindings across consecutive records.
func (p *Processor) Process(ctx context.Context, session *chain.Session, rec domain.UsageRecord) domain.Outcome {
	if err := validate(rec); err != nil {
		return invalid(err.Error())
	}

	svc, err := p.resolver.Resolve(ctx, rec.DID)
	if err != nil {
		return p.retry(ctx, rec, fmt.Sprintf("resolving %s: %v", rec.DID, err))
	}
	if svc.SubscriptionType == assetdomain.SubscriptionTime {
		return p.done(ctx, rec, 0, msgFreeService)
	}

	if err := session.EnsureLoaded(ctx, svc.Access.ContractAddress); err != nil {
		return p.retry(ctx, rec, fmt.Sprintf("loading contract %s: %v", svc.Access.ContractAddress, err))
	}

	subscriptionDID := assetdomain.SubscriptionDID(svc.Access.TokenID)
	owner, err := session.AssetOwner(ctx, subscriptionDID)
	if err != nil {
		return p.retry(ctx, rec, fmt.Sprintf("resolving owner of %s: %v", subscriptionDID, err))
	}
	if strings.EqualFold(owner, rec.ConsumerID) {
		return p.done(ctx, rec, 0, msgCallByOwner)
	}

	credits := chargeFor(svc.Charge, rec.CreditsHint)
	if credits < 1 {
		return p.done(ctx, rec, 0, msgFreeService)
	}

	balance, err := session.Balance(ctx, svc.Access.ContractAddress, svc.Access.TokenID, rec.ConsumerID)
	if err != nil {
		return p.retry(ctx, rec, fmt.Sprintf("balance of %s: %v", rec.ConsumerID, err))
	}
	if balance == 0 {
		return p.done(ctx, rec, 0, msgInsufficientFunds)
	}

	if balance < credits {
		p.log.Warn("balance below computed charge, capping burn",
			zap.String("log_id", rec.LogID),
			zap.Uint64("balance", balance),
			zap.Uint64("credits", credits),
		)
		credits = balance
	}

	if err := session.Burn(ctx, svc.Access.ContractAddress, rec.ConsumerID, svc.Access.TokenID, credits); err != nil {
		return p.retry(ctx, rec, fmt.Sprintf("burning %d credits: %v", credits, err))
	}
	return p.done(ctx, rec, credits, msgBurned)
}

// validate rejects records that can never settle regardless of retries.
func validate(rec domain.UsageRecord) error {
	if strings.TrimSpace(rec.DID) == "" {
		return fmt.Errorf("%w: missing did", domain.ErrInvalidRecord)
	}
	if strings.TrimSpace(rec.ConsumerID) == "" {
		return fmt.Errorf("%w: missing consumer", domain.ErrInvalidRecord)
	}
	if rec.UpstreamStatus < 200 || rec.UpstreamStatus >= 300 {
		return fmt.Errorf("%w: upstream answered %d", domain.ErrInvalidRecord, rec.UpstreamStatus)
	}
	return nil
}

// chargeFor computes the credits to debit. Fixed pricing ignores the proxy's
// hint; dynamic pricing clamps it into the service's configured band.
func chargeFor(policy assetdomain.ChargePolicy, hint *uint64) uint64 {
	minCharge := policy.MinCreditsToCharge
	maxCharge := policy.MaxCreditsToCharge
	if maxCharge < minCharge {
		maxCharge = minCharge
	}

	if policy.Type != assetdomain.ChargeDynamic {
		return minCharge
	}
	if hint == nil {
		return minCharge
	}
	credits := *hint
	if credits < minCharge {
		return minCharge
	}
	if credits > maxCharge {
		return maxCharge
	}
	return credits
}

func (p *Processor) done(ctx context.Context, rec domain.UsageRecord, credits uint64, message string) domain.Outcome {
	p.metrics.RecordSettlement(ctx, "done", credits)
	p.log.Info("record settled",
		zap.String("log_id", rec.LogID),
		zap.Uint64("credits", credits),
		zap.String("message", message),
	)
	return domain.Outcome{Kind: domain.OutcomeDone, Credits: credits, Message: message}
}

// retry defers the record with the debit failure code; resolution and debit
// failures are stored uniformly as "BURN-001 <sanitized cause>".
func (p *Processor) retry(ctx context.Context, rec domain.UsageRecord, message string) domain.Outcome {
	p.metrics.RecordSettlement(ctx, "retry", 0)
	p.log.Warn("record deferred",
		zap.String("log_id", rec.LogID),
		zap.String("message", message),
	)
	return domain.Outcome{Kind: domain.OutcomeRetry, Message: codeBurnFailed + " " + sanitize(message)}
}

func invalid(message string) domain.Outcome {
	return domain.Outcome{Kind: domain.OutcomeInvalid, Message: sanitize(message)}
}

// sanitize keeps stored messages to printable ASCII; node errors have been
// seen carrying control bytes that break log pipelines.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x20 && s[i] <= 0x7e {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
