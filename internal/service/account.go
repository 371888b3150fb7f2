package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/set-night/earnhub/internal/config"
	"github.com/set-night/earnhub/internal/domain"
	"github.com/set-night/earnhub/internal/repository"
)

type AccountService struct {
	store repository.Store
	now   func() time.Time
}

func NewAccountService(store repository.Store) *AccountService {
	return &AccountService{store: store, now: time.Now}
}

type FindOrCreateParams struct {
	TelegramID   int64
	FirstName    string
	Username     string
	Country      string
	IsPremium    bool
	IsAdmin      bool
	ReferralCode string // referrer's code from the start parameter, optional
}

// FindOrCreate resolves the account for an authenticated Telegram user,
// creating it on first contact. The referral back-reference is bound once,
// at creation, and never changes afterwards.
func (s *AccountService) FindOrCreate(ctx context.Context, arg FindOrCreateParams) (*domain.Account, bool, error) {
	account, err := s.store.GetAccountByTelegramID(ctx, arg.TelegramID)
	if err == nil {
		if account.FirstName != arg.FirstName || account.Username != arg.Username ||
			account.IsPremium != arg.IsPremium || (arg.Country != "" && account.Country != arg.Country) {
			country := account.Country
			if arg.Country != "" {
				country = arg.Country
			}
			if err := s.store.UpdateAccountProfile(ctx, repository.UpdateAccountProfileParams{
				AccountID: account.ID,
				FirstName: arg.FirstName,
				Username:  arg.Username,
				Country:   country,
				IsPremium: arg.IsPremium,
			}); err != nil {
				return nil, false, err
			}
			account.FirstName = arg.FirstName
			account.Username = arg.Username
			account.Country = country
			account.IsPremium = arg.IsPremium
		}
		return account, false, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, false, err
	}

	var referredByID *int64
	if arg.ReferralCode != "" {
		referrer, err := s.store.GetAccountByReferralCode(ctx, arg.ReferralCode)
		if err == nil && referrer.TelegramID != arg.TelegramID {
			referredByID = &referrer.ID
		}
	}

	code, err := s.generateUniqueReferralCode(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("generate referral code: %w", err)
	}

	account, err = s.store.CreateAccount(ctx, repository.CreateAccountParams{
		TelegramID:   arg.TelegramID,
		FirstName:    arg.FirstName,
		Username:     arg.Username,
		Country:      arg.Country,
		IsPremium:    arg.IsPremium,
		IsAdmin:      arg.IsAdmin,
		ReferralCode: code,
		ReferredByID: referredByID,
	})
	if err != nil {
		return nil, false, fmt.Errorf("create account: %w", err)
	}

	if referredByID != nil {
		refID := *referredByID
		err := s.store.InTx(ctx, func(st repository.Store) error {
			if err := st.AddReferralEarnings(ctx, refID, config.ReferralRegistrationBonus); err != nil {
				return err
			}
			return st.CreateTransaction(ctx, repository.CreateTransactionParams{
				AccountID:   refID,
				Amount:      config.ReferralRegistrationBonus,
				TxType:      domain.TxTypeCredit,
				Description: fmt.Sprintf("Referral registration bonus for account %d", account.ID),
			})
		})
		if err != nil {
			return nil, false, fmt.Errorf("grant referral bonus: %w", err)
		}
	}

	return account, true, nil
}

func (s *AccountService) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	return s.store.GetAccountByID(ctx, id)
}

func (s *AccountService) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.Account, error) {
	return s.store.GetAccountByTelegramID(ctx, telegramID)
}

func (s *AccountService) Transactions(ctx context.Context, accountID int64, limit int) ([]*domain.Transaction, error) {
	return s.store.ListTransactionsByAccount(ctx, accountID, limit)
}

type CheckInResult struct {
	Streak  int
	Reward  int64
	Balance int64
}

// CheckIn credits the daily streak reward. The account row is locked for
// the duration of the transaction so two concurrent check-ins cannot both
// pass the same-day guard.
func (s *AccountService) CheckIn(ctx context.Context, accountID int64) (*CheckInResult, error) {
	now := s.now()
	var result *CheckInResult

	err := s.store.InTx(ctx, func(st repository.Store) error {
		account, err := st.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}

		streak, err := domain.NextStreak(account.LastCheckIn, account.CheckInStreak, now)
		if err != nil {
			return err
		}
		reward := domain.CheckInReward(streak, config.CheckInRewards)

		if err := st.SetCheckIn(ctx, accountID, now, streak); err != nil {
			return err
		}
		updated, err := st.CreditEarned(ctx, accountID, reward, false)
		if err != nil {
			return err
		}
		if err := applyProgress(ctx, st, updated); err != nil {
			return err
		}
		if err := st.CreateTransaction(ctx, repository.CreateTransactionParams{
			AccountID:   accountID,
			Amount:      reward,
			TxType:      domain.TxTypeCredit,
			Description: fmt.Sprintf("Daily check-in, day %d", streak),
		}); err != nil {
			return err
		}

		result = &CheckInResult{Streak: streak, Reward: reward, Balance: updated.Balance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyProgress recomputes level and VIP tier from cumulative counters.
// The tier only ever moves up through this path.
func applyProgress(ctx context.Context, st repository.Store, account *domain.Account) error {
	tier := domain.TierForPoints(account.TotalEarned)
	if tier.Rank() < account.VIPTier.Rank() {
		tier = account.VIPTier
	}
	level := domain.LevelForTasks(account.TasksCompleted)
	if level < account.Level {
		level = account.Level
	}
	if tier == account.VIPTier && level == account.Level {
		return nil
	}
	return st.SetAccountProgress(ctx, account.ID, level, tier)
}

const referralCodeLength = 8
const referralCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func generateReferralCode() (string, error) {
	code := make([]byte, referralCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(referralCodeCharset))))
		if err != nil {
			return "", fmt.Errorf("random int: %w", err)
		}
		code[i] = referralCodeCharset[n.Int64()]
	}
	return string(code), nil
}

func (s *AccountService) generateUniqueReferralCode(ctx context.Context) (string, error) {
	for i := 0; i < 10; i++ {
		code, err := generateReferralCode()
		if err != nil {
			return "", err
		}
		_, err = s.store.GetAccountByReferralCode(ctx, code)
		if errors.Is(err, domain.ErrAccountNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("check referral code: %w", err)
		}
	}
	return "", errors.New("failed to generate unique referral code after 10 attempts")
}
