package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/set-night/earnhub/internal/domain"
)

// Store is the persistence surface the services operate on. *Queries is the
// Postgres implementation; tests use an in-memory fake with the same
// conditional-update semantics.
type Store interface {
	// Accounts
	GetAccountByID(ctx context.Context, id int64) (*domain.Account, error)
	GetAccountByTelegramID(ctx context.Context, telegramID int64) (*domain.Account, error)
	GetAccountByReferralCode(ctx context.Context, code string) (*domain.Account, error)
	GetAccountForUpdate(ctx context.Context, id int64) (*domain.Account, error)
	CreateAccount(ctx context.Context, arg CreateAccountParams) (*domain.Account, error)
	UpdateAccountProfile(ctx context.Context, arg UpdateAccountProfileParams) error
	// AddBalance atomically applies delta and returns the new balance;
	// a negative result is rejected with domain.ErrInsufficientBalance
	// before any mutation.
	AddBalance(ctx context.Context, accountID, delta int64) (int64, error)
	// CreditEarned credits balance and total_earned together and bumps
	// tasks_completed when countTask is set.
	CreditEarned(ctx context.Context, accountID, amount int64, countTask bool) (*domain.Account, error)
	AddReferralEarnings(ctx context.Context, accountID, amount int64) error
	SetAccountProgress(ctx context.Context, accountID int64, level int, tier domain.VIPTier) error
	SetCheckIn(ctx context.Context, accountID int64, at time.Time, streak int) error
	AddWithdrawn(ctx context.Context, accountID, amount int64) error
	SetBanned(ctx context.Context, accountID int64, banned bool) error

	// Tasks
	GetTaskByID(ctx context.Context, id int64) (*domain.Task, error)
	ListActiveTasks(ctx context.Context, now time.Time) ([]*domain.Task, error)
	CreateTask(ctx context.Context, arg CreateTaskParams) (*domain.Task, error)
	UpsertPartnerTask(ctx context.Context, arg UpsertPartnerTaskParams) (*domain.Task, error)
	SetTaskActive(ctx context.Context, id int64, active bool) error

	// Completions
	GetCompletionByID(ctx context.Context, id int64) (*domain.Completion, error)
	GetCompletionByAccountTask(ctx context.Context, accountID, taskID int64) (*domain.Completion, error)
	GetCompletionByTrackingID(ctx context.Context, trackingID uuid.UUID) (*domain.Completion, error)
	ListCompletionsByAccount(ctx context.Context, accountID int64) ([]*domain.Completion, error)
	CreateCompletion(ctx context.Context, arg CreateCompletionParams) (*domain.Completion, error)
	// The Mark* methods flip status with a single conditional update;
	// ok=false means the precondition did not hold (race lost or wrong
	// state) and nothing changed.
	MarkSubmitted(ctx context.Context, id int64, proof string, at time.Time) (*domain.Completion, bool, error)
	MarkApproved(ctx context.Context, id int64, at time.Time) (*domain.Completion, bool, error)
	MarkRejected(ctx context.Context, id int64, reason string) (*domain.Completion, bool, error)
	MarkCancelled(ctx context.Context, id int64) (*domain.Completion, bool, error)
	ReopenCompletion(ctx context.Context, id int64, at time.Time) (*domain.Completion, bool, error)

	// Withdrawals
	CreateWithdrawal(ctx context.Context, arg CreateWithdrawalParams) (*domain.WithdrawalRequest, error)
	GetWithdrawalByReference(ctx context.Context, reference uuid.UUID) (*domain.WithdrawalRequest, error)
	ListWithdrawalsByAccount(ctx context.Context, accountID int64) ([]*domain.WithdrawalRequest, error)
	// SumWithdrawalsSince totals requested points of non-reverted
	// requests created at or after since.
	SumWithdrawalsSince(ctx context.Context, accountID int64, since time.Time) (int64, error)
	MarkWithdrawalProcessing(ctx context.Context, id int64) (bool, error)
	MarkWithdrawalCompleted(ctx context.Context, id int64, txReference string, at time.Time) (bool, error)
	MarkWithdrawalFailed(ctx context.Context, id int64, at time.Time) (bool, error)
	MarkWithdrawalCancelled(ctx context.Context, id int64, at time.Time) (bool, error)

	// Promo codes
	GetPromoByCode(ctx context.Context, code string) (*domain.PromoCode, error)
	CreatePromo(ctx context.Context, arg CreatePromoParams) (*domain.PromoCode, error)
	ConsumePromoUse(ctx context.Context, promoID int64) (bool, error)
	CreatePromoActivation(ctx context.Context, promoID, accountID int64) error

	// Transactions
	CreateTransaction(ctx context.Context, arg CreateTransactionParams) error
	ListTransactionsByAccount(ctx context.Context, accountID int64, limit int) ([]*domain.Transaction, error)

	// InTx runs fn against a Store bound to one database transaction.
	InTx(ctx context.Context, fn func(Store) error) error
}

type CreateAccountParams struct {
	TelegramID   int64
	FirstName    string
	Username     string
	Country      string
	IsPremium    bool
	IsAdmin      bool
	ReferralCode string
	ReferredByID *int64
}

type UpdateAccountProfileParams struct {
	AccountID int64
	FirstName string
	Username  string
	Country   string
	IsPremium bool
}

type CreateTaskParams struct {
	Type                 domain.TaskType
	Category             string
	Title                string
	Description          string
	URL                  string
	BaseReward           int64
	Payout               decimal.Decimal
	Partner              string
	ExternalOfferID      string
	Verification         domain.Verification
	MinLevel             int
	MinVIPTier           domain.VIPTier
	MinTasksCompleted    int
	PremiumOnly          bool
	Countries            []string
	IsActive             bool
	ScheduledStart       *time.Time
	ScheduledEnd         *time.Time
	MaxCompletionsTotal  int
	MaxCompletionsPerDay int
}

type UpsertPartnerTaskParams struct {
	Partner         string
	ExternalOfferID string
	Type            domain.TaskType
	Title           string
	Description     string
	URL             string
	BaseReward      int64
	Payout          decimal.Decimal
	Countries       []string
}

type CreateCompletionParams struct {
	AccountID    int64
	TaskID       int64
	RewardAmount int64
	TrackingID   uuid.UUID
	IP           string
	DeviceHash   string
	RiskScore    int
	StartedAt    time.Time
}

type CreateWithdrawalParams struct {
	Reference       uuid.UUID
	AccountID       int64
	AmountRequested int64
	Currency        domain.WithdrawalCurrency
	WalletAddress   string
	ConversionRate  decimal.Decimal
	FeePercent      decimal.Decimal
	NetworkFee      decimal.Decimal
	FinalAmount     decimal.Decimal
}

type CreatePromoParams struct {
	Code      string
	Amount    int64
	MaxUses   int
	Comment   string
	CreatedBy int64
}

type CreateTransactionParams struct {
	AccountID   int64
	Amount      int64
	TxType      domain.TxType
	Description string
}
