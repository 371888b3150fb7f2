package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/set-night/earnhub/internal/config"
	"github.com/set-night/earnhub/internal/domain"
	"github.com/set-night/earnhub/internal/repository"
)

type WithdrawalService struct {
	store repository.Store
	now   func() time.Time
}

func NewWithdrawalService(store repository.Store) *WithdrawalService {
	return &WithdrawalService{store: store, now: time.Now}
}

// Request validates the payout and, on success, creates the pending request
// and debits the balance in one transaction, so there is no state where one
// happened without the other.
func (s *WithdrawalService) Request(ctx context.Context, accountID, amountRequested int64, currency domain.WithdrawalCurrency, walletAddress string) (*domain.WithdrawalRequest, error) {
	now := s.now()

	if amountRequested < config.MinWithdrawalPoints {
		return nil, domain.ErrBelowMinWithdrawal
	}
	networkFee, ok := config.NetworkFees[currency]
	if !ok || !domain.ValidWalletAddress(currency, walletAddress) {
		return nil, domain.ErrInvalidWalletAddress
	}

	quote, err := domain.QuoteWithdrawal(amountRequested, config.PointsPerUSDT,
		config.WithdrawalFeePercent, config.MinWithdrawalFee, networkFee)
	if err != nil {
		return nil, err
	}

	since := now.UTC().Truncate(24 * time.Hour)
	todayTotal, err := s.store.SumWithdrawalsSince(ctx, accountID, since)
	if err != nil {
		return nil, err
	}
	if todayTotal+amountRequested > config.DailyWithdrawalLimit {
		return nil, domain.ErrDailyLimitExceeded
	}

	var request *domain.WithdrawalRequest
	err = s.store.InTx(ctx, func(st repository.Store) error {
		if _, err := st.AddBalance(ctx, accountID, -amountRequested); err != nil {
			return err
		}
		request, err = st.CreateWithdrawal(ctx, repository.CreateWithdrawalParams{
			Reference:       uuid.New(),
			AccountID:       accountID,
			AmountRequested: amountRequested,
			Currency:        currency,
			WalletAddress:   walletAddress,
			ConversionRate:  config.PointsPerUSDT,
			FeePercent:      config.WithdrawalFeePercent,
			NetworkFee:      networkFee,
			FinalAmount:     quote.FinalAmount,
		})
		if err != nil {
			return err
		}
		return st.CreateTransaction(ctx, repository.CreateTransactionParams{
			AccountID:   accountID,
			Amount:      -amountRequested,
			TxType:      domain.TxTypeDebit,
			Description: fmt.Sprintf("Withdrawal request %s", request.Reference),
		})
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// MarkProcessing moves a pending request into processing once settlement
// has been picked up.
func (s *WithdrawalService) MarkProcessing(ctx context.Context, reference uuid.UUID) error {
	request, err := s.store.GetWithdrawalByReference(ctx, reference)
	if err != nil {
		return err
	}
	ok, err := s.store.MarkWithdrawalProcessing(ctx, request.ID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAlreadyTerminal
	}
	return nil
}

// Complete records a successful settlement: the request is closed and the
// account's lifetime withdrawn counter grows. The balance was already
// debited at request time.
func (s *WithdrawalService) Complete(ctx context.Context, reference uuid.UUID, txReference string) (*domain.WithdrawalRequest, error) {
	return s.resolve(ctx, reference, func(st repository.Store, request *domain.WithdrawalRequest) (bool, error) {
		ok, err := st.MarkWithdrawalCompleted(ctx, request.ID, txReference, s.now())
		if err != nil || !ok {
			return ok, err
		}
		return true, st.AddWithdrawn(ctx, request.AccountID, request.AmountRequested)
	})
}

// Fail reverts a settlement failure by refunding exactly the requested
// amount back to the balance.
func (s *WithdrawalService) Fail(ctx context.Context, reference uuid.UUID) (*domain.WithdrawalRequest, error) {
	return s.resolve(ctx, reference, func(st repository.Store, request *domain.WithdrawalRequest) (bool, error) {
		ok, err := st.MarkWithdrawalFailed(ctx, request.ID, s.now())
		if err != nil || !ok {
			return ok, err
		}
		return true, s.refund(ctx, st, request)
	})
}

// Cancel is user-initiated and only permitted while the request is still
// pending; it performs the same full refund as a failure.
func (s *WithdrawalService) Cancel(ctx context.Context, accountID int64, reference uuid.UUID) (*domain.WithdrawalRequest, error) {
	request, err := s.store.GetWithdrawalByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if request.AccountID != accountID {
		return nil, domain.ErrWithdrawalNotFound
	}
	return s.resolve(ctx, reference, func(st repository.Store, request *domain.WithdrawalRequest) (bool, error) {
		ok, err := st.MarkWithdrawalCancelled(ctx, request.ID, s.now())
		if err != nil || !ok {
			return ok, err
		}
		return true, s.refund(ctx, st, request)
	})
}

func (s *WithdrawalService) refund(ctx context.Context, st repository.Store, request *domain.WithdrawalRequest) error {
	if _, err := st.AddBalance(ctx, request.AccountID, request.AmountRequested); err != nil {
		return err
	}
	return st.CreateTransaction(ctx, repository.CreateTransactionParams{
		AccountID:   request.AccountID,
		Amount:      request.AmountRequested,
		TxType:      domain.TxTypeCredit,
		Description: fmt.Sprintf("Withdrawal %s refund", request.Reference),
	})
}

func (s *WithdrawalService) resolve(ctx context.Context, reference uuid.UUID, fn func(repository.Store, *domain.WithdrawalRequest) (bool, error)) (*domain.WithdrawalRequest, error) {
	var resolved *domain.WithdrawalRequest
	err := s.store.InTx(ctx, func(st repository.Store) error {
		request, err := st.GetWithdrawalByReference(ctx, reference)
		if err != nil {
			return err
		}
		ok, err := fn(st, request)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrAlreadyTerminal
		}
		resolved, err = st.GetWithdrawalByReference(ctx, reference)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

func (s *WithdrawalService) ListByAccount(ctx context.Context, accountID int64) ([]*domain.WithdrawalRequest, error) {
	return s.store.ListWithdrawalsByAccount(ctx, accountID)
}
