// Package repository reads and transitions the usage settlement queue.
package repository

import (
	"context"
	"fmt"

	"github.com/tollgate-io/tollgate/internal/clock"
	"github.com/tollgate-io/tollgate/internal/settlement/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Repository struct {
	db    *gorm.DB
	clock clock.Clock
	log   *zap.Logger
}

func New(db *gorm.DB, clk clock.Clock, log *zap.Logger) *Repository {
	return &Repository{db: db, clock: clk, log: log.Named("settlement.repository")}
}

// Ping verifies the store is reachable. A failed ping aborts the cycle; the
// queue must never be half-read against a dying connection.
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// PendingBelowRetryCeiling returns the settleable batch, oldest first.
// Records at or above the ceiling are left for the dead-letter sweep.
func (r *Repository) PendingBelowRetryCeiling(ctx context.Context, ceiling, limit int) ([]domain.UsageRecord, error) {
	var records []domain.UsageRecord
	err := r.db.WithContext(ctx).Raw(
		`SELECT log_id, did, consumer_id, upstream_status, credits_hint, log_line,
		        status, retried, error_message, created_at, updated_at
		 FROM service_access_queue
		 WHERE status = ? AND retried < ?
		 ORDER BY created_at
		 LIMIT ?`,
		domain.StatusPending,
		ceiling,
		limit,
	).Scan(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return records, nil
}

// MarkDone settles a record and clears any stale retry message. The outcome
// reason lives in the logs, not on the row.
func (r *Repository) MarkDone(ctx context.Context, logID string) error {
	return r.transition(ctx,
		`UPDATE service_access_queue
		 SET status = ?, error_message = '', updated_at = ?
		 WHERE log_id = ?`,
		domain.StatusDone, r.clock.Now(), logID,
	)
}

// MarkRetry keeps the record pending and bumps its attempt counter. The
// message records the last failure for operators.
func (r *Repository) MarkRetry(ctx context.Context, logID, message string) error {
	return r.transition(ctx,
		`UPDATE service_access_queue
		 SET retried = retried + 1, error_message = ?, updated_at = ?
		 WHERE log_id = ?`,
		message, r.clock.Now(), logID,
	)
}

// MarkInvalid parks a record that can never settle.
func (r *Repository) MarkInvalid(ctx context.Context, logID, message string) error {
	return r.transition(ctx,
		`UPDATE service_access_queue
		 SET status = ?, error_message = ?, updated_at = ?
		 WHERE log_id = ?`,
		domain.StatusError, message, r.clock.Now(), logID,
	)
}

// SweepDeadLetters moves exhausted pending records to the terminal Error
// status and reports how many it parked.
func (r *Repository) SweepDeadLetters(ctx context.Context, ceiling int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE service_access_queue
		 SET status = ?, updated_at = ?
		 WHERE status = ? AND retried >= ?`,
		domain.StatusError, r.clock.Now(), domain.StatusPending, ceiling,
	)
	if res.Error != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *Repository) transition(ctx context.Context, query string, args ...any) error {
	res := r.db.WithContext(ctx).Exec(query, args...)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		r.log.Warn("transition matched no rows", zap.String("query", "service_access_queue update"))
	}
	return nil
}
