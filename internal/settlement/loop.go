// Package settlement drives the usage reconciliation cycle.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/tollgate-io/tollgate/internal/chain"
	"github.com/tollgate-io/tollgate/internal/lock"
	"github.com/tollgate-io/tollgate/internal/settlement/domain"
	"github.com/tollgate-io/tollgate/internal/settlement/repository"
	"github.com/tollgate-io/tollgate/internal/settlement/service"
	"go.uber.org/zap"
)

const codeUpdateFailed = "UPDATE-001"

// Config controls the reconciliation cadence and batch shape.
type Config struct {
	PollInterval time.Duration
	RetryCeiling int
	BatchSize    int
	JobTimeout   time.Duration
	LockKey      string
	LockTTL      time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.RetryCeiling <= 0 {
		c.RetryCeiling = 3
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = time.Minute
	}
	if c.LockKey == "" {
		c.LockKey = "tollgate:reconciler:run"
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 2 * c.JobTimeout
	}
	return c
}

// Loop reads pending usage records, settles each one and records the outcome.
// Per-record failures stay inside the cycle; only store failures escape as
// errors so the supervisor can stop the process.
type Loop struct {
	cfg       Config
	repo      *repository.Repository
	processor *service.Processor
	chain     chain.Client
	locker    *lock.Locker
	genID     *snowflake.Node
	log       *zap.Logger
}

func NewLoop(
	cfg Config,
	repo *repository.Repository,
	processor *service.Processor,
	chainClient chain.Client,
	locker *lock.Locker,
	genID *snowflake.Node,
	log *zap.Logger,
) *Loop {
	return &Loop{
		cfg:       cfg.withDefaults(),
		repo:      repo,
		processor: processor,
		chain:     chainClient,
		locker:    locker,
		genID:     genID,
		log:       log.Named("settlement"),
	}
}

// RunOnce executes a single reconciliation cycle. A nil error means the cycle
// ran to completion or was skipped because another instance holds the lock.
func (l *Loop) RunOnce(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, l.cfg.JobTimeout)
	defer cancel()

	log := l.log.With(zap.String("run_id", l.genID.Generate().String()))

	if l.locker != nil {
		token, acquired, err := l.locker.TryLock(ctx, l.cfg.LockKey, l.cfg.LockTTL)
		if err != nil {
			log.Warn("run lock unavailable, proceeding unguarded", zap.Error(err))
		} else if !acquired {
			log.Debug("another instance holds the run lock")
			return nil
		} else {
			defer func() {
				if err := l.locker.Release(context.WithoutCancel(ctx), l.cfg.LockKey, token); err != nil {
					log.Warn("releasing run lock failed", zap.Error(err))
				}
			}()
		}
	}

	if err := l.repo.Ping(ctx); err != nil {
		return err
	}

	records, err := l.repo.PendingBelowRetryCeiling(ctx, l.cfg.RetryCeiling, l.cfg.BatchSize)
	if err != nil {
		return err
	}
	if len(records) > 0 {
		log.Info("reconciling usage records", zap.Int("count", len(records)))
	}

	session := chain.NewSession(l.chain)
	for _, rec := range records {
		outcome := l.processor.Process(ctx, session, rec)
		l.record(ctx, log, rec, outcome)
	}

	swept, err := l.repo.SweepDeadLetters(ctx, l.cfg.RetryCeiling)
	if err != nil {
		return err
	}
	if swept > 0 {
		log.Warn("parked exhausted records", zap.Int64("count", swept))
	}
	return nil
}

// record persists one outcome. A failed update is fatal only if the store
// itself is gone; the Ping on the next cycle decides that.
func (l *Loop) record(ctx context.Context, log *zap.Logger, rec domain.UsageRecord, outcome domain.Outcome) {
	var err error
	switch outcome.Kind {
	case domain.OutcomeDone:
		err = l.repo.MarkDone(ctx, rec.LogID)
	case domain.OutcomeRetry:
		err = l.repo.MarkRetry(ctx, rec.LogID, outcome.Message)
	case domain.OutcomeInvalid:
		err = l.repo.MarkInvalid(ctx, rec.LogID, outcome.Message)
	default:
		err = fmt.Errorf("unknown outcome %q", outcome.Kind)
	}
	if err != nil {
		log.Error(codeUpdateFailed+" recording settlement outcome failed",
			zap.String("log_id", rec.LogID),
			zap.String("outcome", string(outcome.Kind)),
			zap.Error(err),
		)
	}
}

// RunForever ticks until the context ends or the store becomes unreachable.
// The caller decides what a store failure means for the process.
func (l *Loop) RunForever(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := l.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, domain.ErrStoreUnavailable) {
				return err
			}
			l.log.Warn("reconciliation cycle failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
