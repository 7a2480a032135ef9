package repository

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tollgate-io/tollgate/internal/clock"
	"github.com/tollgate-io/tollgate/internal/settlement/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupRepo(t *testing.T) (*Repository, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.UsageRecord{}))

	clk := clock.NewFakeClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	return New(db, clk, zap.NewNop()), db, clk
}

func seedRecord(t *testing.T, db *gorm.DB, logID string, status domain.Status, retried int, createdAt time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&domain.UsageRecord{
		LogID:          logID,
		DID:            "did:nv:0001",
		ConsumerID:     "0xConsumer",
		UpstreamStatus: 200,
		Status:         status,
		Retried:        retried,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}).Error)
}

func TestPendingBelowRetryCeilingOrdersByCreation(t *testing.T) {
	repo, db, clk := setupRepo(t)
	base := clk.Now()

	seedRecord(t, db, "log-2", domain.StatusPending, 0, base.Add(time.Minute))
	seedRecord(t, db, "log-1", domain.StatusPending, 0, base)
	seedRecord(t, db, "log-3", domain.StatusDone, 0, base)

	records, err := repo.PendingBelowRetryCeiling(context.Background(), 3, 50)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "log-1", records[0].LogID)
	assert.Equal(t, "log-2", records[1].LogID)
}

func TestPendingBelowRetryCeilingSkipsExhausted(t *testing.T) {
	repo, db, clk := setupRepo(t)

	seedRecord(t, db, "fresh", domain.StatusPending, 2, clk.Now())
	seedRecord(t, db, "exhausted", domain.StatusPending, 3, clk.Now())

	records, err := repo.PendingBelowRetryCeiling(context.Background(), 3, 50)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "fresh", records[0].LogID)
}

func TestMarkDoneClearsErrorMessage(t *testing.T) {
	repo, db, clk := setupRepo(t)
	seedRecord(t, db, "log-1", domain.StatusPending, 1, clk.Now())
	require.NoError(t, db.Model(&domain.UsageRecord{}).
		Where("log_id = ?", "log-1").
		Update("error_message", "BURN-001 previous failure").Error)

	clk.Advance(time.Minute)
	require.NoError(t, repo.MarkDone(context.Background(), "log-1"))

	var rec domain.UsageRecord
	require.NoError(t, db.First(&rec, "log_id = ?", "log-1").Error)
	assert.Equal(t, domain.StatusDone, rec.Status)
	assert.Empty(t, rec.ErrorMessage)
	assert.WithinDuration(t, clk.Now(), rec.UpdatedAt, time.Second)
}

func TestMarkRetryIncrementsCounter(t *testing.T) {
	repo, db, clk := setupRepo(t)
	seedRecord(t, db, "log-1", domain.StatusPending, 1, clk.Now())

	require.NoError(t, repo.MarkRetry(context.Background(), "log-1", "BURN-001 node unreachable"))

	var rec domain.UsageRecord
	require.NoError(t, db.First(&rec, "log_id = ?", "log-1").Error)
	assert.Equal(t, domain.StatusPending, rec.Status)
	assert.Equal(t, 2, rec.Retried)
	assert.Equal(t, "BURN-001 node unreachable", rec.ErrorMessage)
}

func TestMarkInvalidIsTerminal(t *testing.T) {
	repo, db, clk := setupRepo(t)
	seedRecord(t, db, "log-1", domain.StatusPending, 0, clk.Now())

	require.NoError(t, repo.MarkInvalid(context.Background(), "log-1", "missing consumer"))

	var rec domain.UsageRecord
	require.NoError(t, db.First(&rec, "log_id = ?", "log-1").Error)
	assert.Equal(t, domain.StatusError, rec.Status)
	assert.Equal(t, 0, rec.Retried, "invalid records skip the retry path")

	records, err := repo.PendingBelowRetryCeiling(context.Background(), 3, 50)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSweepDeadLetters(t *testing.T) {
	repo, db, clk := setupRepo(t)

	seedRecord(t, db, "alive", domain.StatusPending, 2, clk.Now())
	seedRecord(t, db, "dead-1", domain.StatusPending, 3, clk.Now())
	seedRecord(t, db, "dead-2", domain.StatusPending, 5, clk.Now())
	seedRecord(t, db, "done", domain.StatusDone, 4, clk.Now())

	swept, err := repo.SweepDeadLetters(context.Background(), 3)
	require.NoError(t, err)
	assert.EqualValues(t, 2, swept)

	var alive domain.UsageRecord
	require.NoError(t, db.First(&alive, "log_id = ?", "alive").Error)
	assert.Equal(t, domain.StatusPending, alive.Status)

	var done domain.UsageRecord
	require.NoError(t, db.First(&done, "log_id = ?", "done").Error)
	assert.Equal(t, domain.StatusDone, done.Status, "settled records are never swept")
}

func TestTransitionOnMissingRowIsQuiet(t *testing.T) {
	repo, _, _ := setupRepo(t)

	// A row deleted between read and write must not fail the batch.
	assert.NoError(t, repo.MarkDone(context.Background(), "ghost"))
}
