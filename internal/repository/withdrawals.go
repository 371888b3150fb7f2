package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/set-night/earnhub/internal/domain"
)

const withdrawalColumns = `id, reference, account_id, amount_requested, currency, wallet_address,
	conversion_rate, fee_percent, network_fee, final_amount, status, tx_reference,
	created_at, resolved_at`

func scanWithdrawal(row pgx.Row) (*domain.WithdrawalRequest, error) {
	var w domain.WithdrawalRequest
	var currency, status string
	err := row.Scan(
		&w.ID, &w.Reference, &w.AccountID, &w.AmountRequested, &currency, &w.WalletAddress,
		&w.ConversionRate, &w.FeePercent, &w.NetworkFee, &w.FinalAmount, &status, &w.TxReference,
		&w.CreatedAt, &w.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWithdrawalNotFound
		}
		return nil, fmt.Errorf("scan withdrawal: %w", err)
	}
	w.Currency = domain.WithdrawalCurrency(currency)
	w.Status = domain.WithdrawalStatus(status)
	return &w, nil
}

func (q *Queries) CreateWithdrawal(ctx context.Context, arg CreateWithdrawalParams) (*domain.WithdrawalRequest, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO withdrawal_requests (reference, account_id, amount_requested, currency, wallet_address,
			conversion_rate, fee_percent, network_fee, final_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+withdrawalColumns,
		arg.Reference, arg.AccountID, arg.AmountRequested, string(arg.Currency), arg.WalletAddress,
		arg.ConversionRate, arg.FeePercent, arg.NetworkFee, arg.FinalAmount,
	)
	return scanWithdrawal(row)
}

func (q *Queries) GetWithdrawalByReference(ctx context.Context, reference uuid.UUID) (*domain.WithdrawalRequest, error) {
	row := q.db.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE reference = $1`, reference)
	return scanWithdrawal(row)
}

func (q *Queries) ListWithdrawalsByAccount(ctx context.Context, accountID int64) ([]*domain.WithdrawalRequest, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE account_id = $1 ORDER BY created_at DESC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	defer rows.Close()

	var out []*domain.WithdrawalRequest
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// SumWithdrawalsSince ignores failed and cancelled requests since those
// were refunded and no longer count against the daily limit.
func (q *Queries) SumWithdrawalsSince(ctx context.Context, accountID int64, since time.Time) (int64, error) {
	var sum int64
	err := q.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_requested), 0)
		FROM withdrawal_requests
		WHERE account_id = $1 AND created_at >= $2 AND status NOT IN ('failed', 'cancelled')`,
		accountID, since,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum withdrawals: %w", err)
	}
	return sum, nil
}

func (q *Queries) MarkWithdrawalProcessing(ctx context.Context, id int64) (bool, error) {
	return q.condWithdrawalUpdate(ctx, `
		UPDATE withdrawal_requests SET status = 'processing' WHERE id = $1 AND status = 'pending'`, id)
}

func (q *Queries) MarkWithdrawalCompleted(ctx context.Context, id int64, txReference string, at time.Time) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE withdrawal_requests
		SET status = 'completed', tx_reference = $2, resolved_at = $3
		WHERE id = $1 AND status IN ('pending', 'processing')`,
		id, txReference, at,
	)
	if err != nil {
		return false, fmt.Errorf("mark withdrawal completed: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (q *Queries) MarkWithdrawalFailed(ctx context.Context, id int64, at time.Time) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE withdrawal_requests
		SET status = 'failed', resolved_at = $2
		WHERE id = $1 AND status IN ('pending', 'processing')`,
		id, at,
	)
	if err != nil {
		return false, fmt.Errorf("mark withdrawal failed: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (q *Queries) MarkWithdrawalCancelled(ctx context.Context, id int64, at time.Time) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE withdrawal_requests
		SET status = 'cancelled', resolved_at = $2
		WHERE id = $1 AND status = 'pending'`,
		id, at,
	)
	if err != nil {
		return false, fmt.Errorf("mark withdrawal cancelled: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (q *Queries) condWithdrawalUpdate(ctx context.Context, sql string, args ...any) (bool, error) {
	tag, err := q.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("withdrawal update: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
