package repository

import (
	"context"
	"fmt"

	"github.com/set-night/earnhub/internal/domain"
)

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO transactions (account_id, amount, tx_type, description)
		VALUES ($1, $2, $3, $4)`,
		arg.AccountID, arg.Amount, string(arg.TxType), arg.Description,
	)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (q *Queries) ListTransactionsByAccount(ctx context.Context, accountID int64, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.db.Query(ctx, `
		SELECT id, account_id, amount, tx_type, description, created_at
		FROM transactions WHERE account_id = $1
		ORDER BY created_at DESC LIMIT $2`,
		accountID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var txType string
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Amount, &txType, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.TxType = domain.TxType(txType)
		out = append(out, &t)
	}
	return out, rows.Err()
}
