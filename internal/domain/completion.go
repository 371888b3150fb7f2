package domain

import (
	"time"

	"github.com/google/uuid"
)

type CompletionStatus string

const (
	CompletionStarted   CompletionStatus = "started"
	CompletionSubmitted CompletionStatus = "submitted"
	CompletionApproved  CompletionStatus = "approved"
	CompletionRejected  CompletionStatus = "rejected"
	CompletionCancelled CompletionStatus = "cancelled"
)

// Terminal reports whether no further transitions are permitted.
func (s CompletionStatus) Terminal() bool {
	switch s {
	case CompletionApproved, CompletionRejected, CompletionCancelled:
		return true
	}
	return false
}

// Completion records one account's attempt at one task. At most one row
// exists per (account, task); re-attempts reuse the row.
type Completion struct {
	ID           int64
	AccountID    int64
	TaskID       int64
	Status       CompletionStatus
	RewardAmount int64
	TrackingID   uuid.UUID
	Proof        string
	RejectReason string

	// Advisory anti-fraud fields; policy may consult them, transitions
	// do not.
	IP         string
	DeviceHash string
	RiskScore  int
	Fraudulent bool

	StartedAt   time.Time
	SubmittedAt *time.Time
	CompletedAt *time.Time
}
