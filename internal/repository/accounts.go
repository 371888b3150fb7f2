package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/set-night/earnhub/internal/domain"
)

const accountColumns = `id, telegram_id, first_name, username, country, is_premium, is_admin, banned,
	balance, total_earned, total_withdrawn, level, vip_tier, tasks_completed,
	referral_code, referred_by_id, referral_earnings, last_check_in, check_in_streak,
	created_at, updated_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	var tier string
	err := row.Scan(
		&a.ID, &a.TelegramID, &a.FirstName, &a.Username, &a.Country, &a.IsPremium, &a.IsAdmin, &a.Banned,
		&a.Balance, &a.TotalEarned, &a.TotalWithdrawn, &a.Level, &tier, &a.TasksCompleted,
		&a.ReferralCode, &a.ReferredByID, &a.ReferralEarnings, &a.LastCheckIn, &a.CheckInStreak,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	a.VIPTier = domain.VIPTier(tier)
	return &a, nil
}

func (q *Queries) GetAccountByID(ctx context.Context, id int64) (*domain.Account, error) {
	row := q.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

func (q *Queries) GetAccountByTelegramID(ctx context.Context, telegramID int64) (*domain.Account, error) {
	row := q.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE telegram_id = $1`, telegramID)
	return scanAccount(row)
}

func (q *Queries) GetAccountByReferralCode(ctx context.Context, code string) (*domain.Account, error) {
	row := q.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE referral_code = $1`, code)
	return scanAccount(row)
}

func (q *Queries) GetAccountForUpdate(ctx context.Context, id int64) (*domain.Account, error) {
	row := q.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
	return scanAccount(row)
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (*domain.Account, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO accounts (telegram_id, first_name, username, country, is_premium, is_admin, referral_code, referred_by_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+accountColumns,
		arg.TelegramID, arg.FirstName, arg.Username, arg.Country, arg.IsPremium, arg.IsAdmin,
		arg.ReferralCode, arg.ReferredByID,
	)
	return scanAccount(row)
}

func (q *Queries) UpdateAccountProfile(ctx context.Context, arg UpdateAccountProfileParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE accounts
		SET first_name = $2, username = $3, country = $4, is_premium = $5, updated_at = now()
		WHERE id = $1`,
		arg.AccountID, arg.FirstName, arg.Username, arg.Country, arg.IsPremium,
	)
	if err != nil {
		return fmt.Errorf("update account profile: %w", err)
	}
	return nil
}

// AddBalance applies delta as a single guarded increment so concurrent
// credits and debits on the same account serialize on the row and a debit
// can never drive the balance negative.
func (q *Queries) AddBalance(ctx context.Context, accountID, delta int64) (int64, error) {
	var balance int64
	err := q.db.QueryRow(ctx, `
		UPDATE accounts
		SET balance = balance + $2, updated_at = now()
		WHERE id = $1 AND balance + $2 >= 0
		RETURNING balance`,
		accountID, delta,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the account is missing or the debit would go
			// negative; distinguish for the caller.
			if _, getErr := q.GetAccountByID(ctx, accountID); getErr != nil {
				return 0, getErr
			}
			return 0, domain.ErrInsufficientBalance
		}
		return 0, fmt.Errorf("add balance: %w", err)
	}
	return balance, nil
}

func (q *Queries) CreditEarned(ctx context.Context, accountID, amount int64, countTask bool) (*domain.Account, error) {
	taskInc := 0
	if countTask {
		taskInc = 1
	}
	row := q.db.QueryRow(ctx, `
		UPDATE accounts
		SET balance = balance + $2,
		    total_earned = total_earned + $2,
		    tasks_completed = tasks_completed + $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+accountColumns,
		accountID, amount, taskInc,
	)
	return scanAccount(row)
}

func (q *Queries) AddReferralEarnings(ctx context.Context, accountID, amount int64) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE accounts
		SET balance = balance + $2, referral_earnings = referral_earnings + $2, updated_at = now()
		WHERE id = $1`,
		accountID, amount,
	)
	if err != nil {
		return fmt.Errorf("add referral earnings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (q *Queries) SetAccountProgress(ctx context.Context, accountID int64, level int, tier domain.VIPTier) error {
	_, err := q.db.Exec(ctx, `
		UPDATE accounts SET level = $2, vip_tier = $3, updated_at = now() WHERE id = $1`,
		accountID, level, string(tier),
	)
	if err != nil {
		return fmt.Errorf("set account progress: %w", err)
	}
	return nil
}

func (q *Queries) SetCheckIn(ctx context.Context, accountID int64, at time.Time, streak int) error {
	_, err := q.db.Exec(ctx, `
		UPDATE accounts SET last_check_in = $2, check_in_streak = $3, updated_at = now() WHERE id = $1`,
		accountID, at, streak,
	)
	if err != nil {
		return fmt.Errorf("set check-in: %w", err)
	}
	return nil
}

func (q *Queries) AddWithdrawn(ctx context.Context, accountID, amount int64) error {
	_, err := q.db.Exec(ctx, `
		UPDATE accounts SET total_withdrawn = total_withdrawn + $2, updated_at = now() WHERE id = $1`,
		accountID, amount,
	)
	if err != nil {
		return fmt.Errorf("add withdrawn: %w", err)
	}
	return nil
}

func (q *Queries) SetBanned(ctx context.Context, accountID int64, banned bool) error {
	_, err := q.db.Exec(ctx, `
		UPDATE accounts SET banned = $2, updated_at = now() WHERE id = $1`,
		accountID, banned,
	)
	if err != nil {
		return fmt.Errorf("set banned: %w", err)
	}
	return nil
}
