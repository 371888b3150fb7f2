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

const completionColumns = `id, account_id, task_id, status, reward_amount, tracking_id, proof,
	reject_reason, ip, device_hash, risk_score, fraudulent, started_at, submitted_at, completed_at`

func scanCompletion(row pgx.Row) (*domain.Completion, error) {
	var c domain.Completion
	var status string
	err := row.Scan(
		&c.ID, &c.AccountID, &c.TaskID, &status, &c.RewardAmount, &c.TrackingID, &c.Proof,
		&c.RejectReason, &c.IP, &c.DeviceHash, &c.RiskScore, &c.Fraudulent,
		&c.StartedAt, &c.SubmittedAt, &c.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCompletionNotFound
		}
		return nil, fmt.Errorf("scan completion: %w", err)
	}
	c.Status = domain.CompletionStatus(status)
	return &c, nil
}

func (q *Queries) GetCompletionByID(ctx context.Context, id int64) (*domain.Completion, error) {
	row := q.db.QueryRow(ctx, `SELECT `+completionColumns+` FROM completions WHERE id = $1`, id)
	return scanCompletion(row)
}

func (q *Queries) GetCompletionByAccountTask(ctx context.Context, accountID, taskID int64) (*domain.Completion, error) {
	row := q.db.QueryRow(ctx, `SELECT `+completionColumns+` FROM completions WHERE account_id = $1 AND task_id = $2`, accountID, taskID)
	return scanCompletion(row)
}

func (q *Queries) GetCompletionByTrackingID(ctx context.Context, trackingID uuid.UUID) (*domain.Completion, error) {
	row := q.db.QueryRow(ctx, `SELECT `+completionColumns+` FROM completions WHERE tracking_id = $1`, trackingID)
	return scanCompletion(row)
}

func (q *Queries) ListCompletionsByAccount(ctx context.Context, accountID int64) ([]*domain.Completion, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+completionColumns+` FROM completions WHERE account_id = $1 ORDER BY started_at DESC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Completion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCompletion inserts the single row for (account, task). The unique
// constraint turns a double-start race into domain.ErrCompletionExists,
// which callers resolve by re-reading the existing row.
func (q *Queries) CreateCompletion(ctx context.Context, arg CreateCompletionParams) (*domain.Completion, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO completions (account_id, task_id, reward_amount, tracking_id, ip, device_hash, risk_score, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+completionColumns,
		arg.AccountID, arg.TaskID, arg.RewardAmount, arg.TrackingID,
		arg.IP, arg.DeviceHash, arg.RiskScore, arg.StartedAt,
	)
	c, err := scanCompletion(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrCompletionExists
		}
		return nil, err
	}
	return c, nil
}

func (q *Queries) MarkSubmitted(ctx context.Context, id int64, proof string, at time.Time) (*domain.Completion, bool, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE completions
		SET status = 'submitted', proof = $2, submitted_at = $3
		WHERE id = $1 AND status = 'started'
		RETURNING `+completionColumns,
		id, proof, at,
	)
	return scanConditional(row)
}

// MarkApproved flips submitted -> approved in one conditional statement;
// the loser of a double-approve race sees ok=false and must not credit.
func (q *Queries) MarkApproved(ctx context.Context, id int64, at time.Time) (*domain.Completion, bool, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE completions
		SET status = 'approved', completed_at = $2
		WHERE id = $1 AND status = 'submitted'
		RETURNING `+completionColumns,
		id, at,
	)
	return scanConditional(row)
}

func (q *Queries) MarkRejected(ctx context.Context, id int64, reason string) (*domain.Completion, bool, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE completions
		SET status = 'rejected', reject_reason = $2
		WHERE id = $1 AND status = 'submitted'
		RETURNING `+completionColumns,
		id, reason,
	)
	return scanConditional(row)
}

func (q *Queries) MarkCancelled(ctx context.Context, id int64) (*domain.Completion, bool, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE completions
		SET status = 'cancelled'
		WHERE id = $1 AND status IN ('started', 'submitted')
		RETURNING `+completionColumns,
		id,
	)
	return scanConditional(row)
}

// ReopenCompletion lets an account retry a rejected or cancelled attempt by
// reusing the existing row instead of inserting a second one.
func (q *Queries) ReopenCompletion(ctx context.Context, id int64, at time.Time) (*domain.Completion, bool, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE completions
		SET status = 'started', proof = '', reject_reason = '',
		    started_at = $2, submitted_at = NULL, completed_at = NULL
		WHERE id = $1 AND status IN ('rejected', 'cancelled')
		RETURNING `+completionColumns,
		id, at,
	)
	return scanConditional(row)
}

func scanConditional(row pgx.Row) (*domain.Completion, bool, error) {
	c, err := scanCompletion(row)
	if err != nil {
		if errors.Is(err, domain.ErrCompletionNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return c, true, nil
}
