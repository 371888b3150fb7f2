package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/set-night/earnhub/internal/domain"
	"github.com/set-night/earnhub/internal/repository"
)

type CompletionService struct {
	store repository.Store
	now   func() time.Time
}

func NewCompletionService(store repository.Store) *CompletionService {
	return &CompletionService{store: store, now: time.Now}
}

// StartMeta carries advisory anti-fraud context captured at the boundary.
type StartMeta struct {
	IP         string
	DeviceHash string
	RiskScore  int
}

func snapshotFor(account *domain.Account, now time.Time) *domain.EligibilitySnapshot {
	return &domain.EligibilitySnapshot{
		Now:            now,
		Level:          account.Level,
		Tier:           account.VIPTier,
		TasksCompleted: account.TasksCompleted,
		IsPremium:      account.IsPremium,
		Country:        account.Country,
	}
}

// Start begins (or idempotently resumes) the account's attempt at a task.
// The reward is computed once here and frozen on the row. A concurrent
// double-start resolves to the existing row via the uniqueness constraint.
func (s *CompletionService) Start(ctx context.Context, account *domain.Account, taskID int64, meta StartMeta) (*domain.Completion, error) {
	now := s.now()

	task, err := s.store.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	ok, reason, err := domain.CanComplete(task, snapshotFor(account, now))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrIneligible, reason)
	}

	existing, err := s.store.GetCompletionByAccountTask(ctx, account.ID, taskID)
	if err == nil {
		return s.resumeExisting(ctx, existing, now)
	}
	if !errors.Is(err, domain.ErrCompletionNotFound) {
		return nil, err
	}

	reward := domain.CalculateReward(task.BaseReward, account.VIPTier, task.PremiumOnly)
	completion, err := s.store.CreateCompletion(ctx, repository.CreateCompletionParams{
		AccountID:    account.ID,
		TaskID:       taskID,
		RewardAmount: reward,
		TrackingID:   uuid.New(),
		IP:           meta.IP,
		DeviceHash:   meta.DeviceHash,
		RiskScore:    meta.RiskScore,
		StartedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrCompletionExists) {
			// Lost the double-start race: fall back to the row the
			// other writer created.
			existing, err := s.store.GetCompletionByAccountTask(ctx, account.ID, taskID)
			if err != nil {
				return nil, err
			}
			return s.resumeExisting(ctx, existing, now)
		}
		return nil, err
	}
	return completion, nil
}

func (s *CompletionService) resumeExisting(ctx context.Context, existing *domain.Completion, now time.Time) (*domain.Completion, error) {
	switch existing.Status {
	case domain.CompletionApproved:
		return nil, domain.ErrTaskAlreadyDone
	case domain.CompletionRejected, domain.CompletionCancelled:
		reopened, ok, err := s.store.ReopenCompletion(ctx, existing.ID, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Raced with another transition; current state wins.
			return s.store.GetCompletionByID(ctx, existing.ID)
		}
		return reopened, nil
	default:
		return existing, nil
	}
}

// Submit transitions started -> submitted and, for automatically verified
// tasks, approves in the same operation.
func (s *CompletionService) Submit(ctx context.Context, accountID, completionID int64, proof string) (*domain.Completion, error) {
	completion, err := s.store.GetCompletionByID(ctx, completionID)
	if err != nil {
		return nil, err
	}
	if completion.AccountID != accountID {
		return nil, domain.ErrCompletionNotFound
	}

	submitted, ok, err := s.store.MarkSubmitted(ctx, completionID, proof, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.store.GetCompletionByID(ctx, completionID)
		if err != nil {
			return nil, err
		}
		if current.Status.Terminal() {
			return nil, domain.ErrAlreadyTerminal
		}
		return nil, domain.ErrInvalidTransition
	}

	task, err := s.store.GetTaskByID(ctx, submitted.TaskID)
	if err != nil {
		return nil, err
	}
	if task.AutoVerified() {
		return s.Approve(ctx, completionID)
	}
	return submitted, nil
}

// Approve flips submitted -> approved and applies the frozen reward to the
// account ledger, including the referral commission, in one database
// transaction. The conditional status update guarantees the credit runs at
// most once per completion no matter how many approval signals race.
func (s *CompletionService) Approve(ctx context.Context, completionID int64) (*domain.Completion, error) {
	now := s.now()
	var approved *domain.Completion

	err := s.store.InTx(ctx, func(st repository.Store) error {
		completion, ok, err := st.MarkApproved(ctx, completionID, now)
		if err != nil {
			return err
		}
		if !ok {
			current, err := st.GetCompletionByID(ctx, completionID)
			if err != nil {
				return err
			}
			if current.Status.Terminal() {
				return domain.ErrAlreadyTerminal
			}
			return domain.ErrInvalidTransition
		}

		account, err := st.CreditEarned(ctx, completion.AccountID, completion.RewardAmount, true)
		if err != nil {
			return err
		}
		if err := applyProgress(ctx, st, account); err != nil {
			return err
		}
		if err := st.CreateTransaction(ctx, repository.CreateTransactionParams{
			AccountID:   account.ID,
			Amount:      completion.RewardAmount,
			TxType:      domain.TxTypeCredit,
			Description: fmt.Sprintf("Reward for task %d", completion.TaskID),
		}); err != nil {
			return err
		}

		if account.ReferredByID != nil {
			commission := domain.ReferralCommission(completion.RewardAmount)
			if commission > 0 {
				if err := st.AddReferralEarnings(ctx, *account.ReferredByID, commission); err != nil {
					return err
				}
				if err := st.CreateTransaction(ctx, repository.CreateTransactionParams{
					AccountID:   *account.ReferredByID,
					Amount:      commission,
					TxType:      domain.TxTypeCredit,
					Description: fmt.Sprintf("Referral commission from account %d", account.ID),
				}); err != nil {
					return err
				}
			}
		}

		approved = completion
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// Reject moves submitted -> rejected. No balance effect: the reward was
// never credited before approval.
func (s *CompletionService) Reject(ctx context.Context, completionID int64, reason string) (*domain.Completion, error) {
	rejected, ok, err := s.store.MarkRejected(ctx, completionID, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.store.GetCompletionByID(ctx, completionID)
		if err != nil {
			return nil, err
		}
		if current.Status.Terminal() {
			return nil, domain.ErrAlreadyTerminal
		}
		return nil, domain.ErrInvalidTransition
	}
	return rejected, nil
}

// Cancel abandons a non-terminal attempt.
func (s *CompletionService) Cancel(ctx context.Context, accountID, completionID int64) (*domain.Completion, error) {
	completion, err := s.store.GetCompletionByID(ctx, completionID)
	if err != nil {
		return nil, err
	}
	if completion.AccountID != accountID {
		return nil, domain.ErrCompletionNotFound
	}

	cancelled, ok, err := s.store.MarkCancelled(ctx, completionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrAlreadyTerminal
	}
	return cancelled, nil
}

func (s *CompletionService) ListByAccount(ctx context.Context, accountID int64) ([]*domain.Completion, error) {
	return s.store.ListCompletionsByAccount(ctx, accountID)
}

// HandlePostback applies a normalized partner conversion signal. A signal
// for an unknown tracking id is dropped with an error so monitoring can
// surface it; partners deliver at most once and we never retry on their
// behalf.
func (s *CompletionService) HandlePostback(ctx context.Context, trackingID uuid.UUID, approved bool, reason string) (*domain.Completion, error) {
	completion, err := s.store.GetCompletionByTrackingID(ctx, trackingID)
	if err != nil {
		if errors.Is(err, domain.ErrCompletionNotFound) {
			slog.Error("postback for unknown tracking id", "tracking_id", trackingID)
		}
		return nil, err
	}

	// Postback-verified tasks have no client submit step; bring a started
	// attempt to submitted before the terminal transition.
	if completion.Status == domain.CompletionStarted {
		if _, _, err := s.store.MarkSubmitted(ctx, completion.ID, "partner postback", s.now()); err != nil {
			return nil, err
		}
	}

	if approved {
		return s.Approve(ctx, completion.ID)
	}
	if reason == "" {
		reason = "rejected by partner"
	}
	return s.Reject(ctx, completion.ID, reason)
}
