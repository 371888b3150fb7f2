package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/set-night/earnhub/internal/domain"
)

const promoColumns = `id, code, amount, max_uses, activation_count, comment, created_by, created_at`

func scanPromo(row pgx.Row) (*domain.PromoCode, error) {
	var p domain.PromoCode
	err := row.Scan(&p.ID, &p.Code, &p.Amount, &p.MaxUses, &p.ActivationCount, &p.Comment, &p.CreatedBy, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPromoNotFound
		}
		return nil, fmt.Errorf("scan promo: %w", err)
	}
	return &p, nil
}

func (q *Queries) GetPromoByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	row := q.db.QueryRow(ctx, `SELECT `+promoColumns+` FROM promo_codes WHERE code = $1`, code)
	return scanPromo(row)
}

func (q *Queries) CreatePromo(ctx context.Context, arg CreatePromoParams) (*domain.PromoCode, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO promo_codes (code, amount, max_uses, comment, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+promoColumns,
		arg.Code, arg.Amount, arg.MaxUses, arg.Comment, arg.CreatedBy,
	)
	return scanPromo(row)
}

// ConsumePromoUse reserves one activation; ok=false means the code is
// already used up.
func (q *Queries) ConsumePromoUse(ctx context.Context, promoID int64) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE promo_codes
		SET activation_count = activation_count + 1
		WHERE id = $1 AND (max_uses < 0 OR activation_count < max_uses)`,
		promoID,
	)
	if err != nil {
		return false, fmt.Errorf("consume promo use: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (q *Queries) CreatePromoActivation(ctx context.Context, promoID, accountID int64) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO promo_activations (promo_id, account_id) VALUES ($1, $2)`,
		promoID, accountID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrPromoAlreadyUsed
		}
		return fmt.Errorf("create promo activation: %w", err)
	}
	return nil
}
