package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TaskType string

const (
	TaskTypeVideo        TaskType = "video"
	TaskTypeSurvey       TaskType = "survey"
	TaskTypeAppInstall   TaskType = "app_install"
	TaskTypeRegistration TaskType = "registration"
	TaskTypeSocial       TaskType = "social"
	TaskTypeVisitSite    TaskType = "visit_site"
	TaskTypeQuiz         TaskType = "quiz"
	TaskTypeOffer        TaskType = "offer"
)

type Verification string

const (
	VerifyAutomatic Verification = "automatic"
	VerifyManual    Verification = "manual"
	VerifyPostback  Verification = "postback"
)

// UnlimitedCompletions marks a task without a global completion cap.
const UnlimitedCompletions = -1

type Task struct {
	ID              int64
	Type            TaskType
	Category        string
	Title           string
	Description     string
	URL             string
	BaseReward      int64
	Payout          decimal.Decimal
	Partner         string
	ExternalOfferID string
	Verification    Verification

	MinLevel          int
	MinVIPTier        VIPTier
	MinTasksCompleted int
	PremiumOnly       bool
	Countries         []string

	IsActive       bool
	ScheduledStart *time.Time
	ScheduledEnd   *time.Time

	MaxCompletionsTotal  int
	MaxCompletionsPerDay int

	// Computed from the completions table, not stored.
	CompletedCount      int
	CompletedTodayCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AutoVerified reports whether a submit should approve in the same step.
func (t *Task) AutoVerified() bool {
	return t.Verification == VerifyAutomatic
}
