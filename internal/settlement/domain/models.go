// Package domain holds the usage queue records the reconciler settles.
package domain

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

var (
	// ErrInvalidRecord marks records that can never be settled: they go
	// straight to the terminal Error status instead of the retry path.
	ErrInvalidRecord = errors.New("invalid usage record")
	// ErrStoreUnavailable marks store failures the loop cannot work around.
	ErrStoreUnavailable = errors.New("usage store unavailable")
)

// Status is the settlement lifecycle of a usage record.
type Status string

const (
	StatusPending Status = "Pending"
	StatusDone    Status = "Done"
	StatusError   Status = "Error"
)

// UsageRecord is one proxied upstream request awaiting credit settlement. The
// proxy inserts rows as Pending; the reconciler owns every transition out.
type UsageRecord struct {
	LogID          string            `gorm:"column:log_id;primaryKey"`
	DID            string            `gorm:"column:did"`
	ConsumerID     string            `gorm:"column:consumer_id"`
	UpstreamStatus int               `gorm:"column:upstream_status"`
	CreditsHint    *uint64           `gorm:"column:credits_hint"`
	LogLine        datatypes.JSONMap `gorm:"column:log_line"`
	Status         Status            `gorm:"column:status"`
	Retried        int               `gorm:"column:retried"`
	ErrorMessage   string            `gorm:"column:error_message"`
	CreatedAt      time.Time         `gorm:"column:created_at"`
	UpdatedAt      time.Time         `gorm:"column:updated_at"`
}

func (UsageRecord) TableName() string { return "service_access_queue" }

// OutcomeKind classifies what the processor decided for one record.
type OutcomeKind string

const (
	// OutcomeDone settles the record, possibly with zero credits debited.
	OutcomeDone OutcomeKind = "done"
	// OutcomeRetry leaves the record pending for a later cycle.
	OutcomeRetry OutcomeKind = "retry"
	// OutcomeInvalid parks the record as a terminal Error.
	OutcomeInvalid OutcomeKind = "invalid"
)

// Outcome is the processor verdict the recorder persists.
type Outcome struct {
	Kind    OutcomeKind
	Credits uint64
	Message string
}
