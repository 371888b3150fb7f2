package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/set-night/earnhub/internal/domain"
)

const taskColumns = `t.id, t.type, t.category, t.title, t.description, t.url, t.base_reward, t.payout,
	t.partner, t.external_offer_id, t.verification, t.min_level, t.min_vip_tier,
	t.min_tasks_completed, t.premium_only, t.countries, t.is_active,
	t.scheduled_start, t.scheduled_end, t.max_completions_total, t.max_completions_per_day,
	t.created_at, t.updated_at`

// taskCounts attaches approved completion counters used by eligibility.
const taskCounts = `,
	(SELECT count(*) FROM completions c WHERE c.task_id = t.id AND c.status = 'approved') AS completed_count,
	(SELECT count(*) FROM completions c WHERE c.task_id = t.id AND c.status = 'approved'
		AND c.completed_at >= date_trunc('day', now())) AS completed_today`

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	var typ, tier, verification string
	err := row.Scan(
		&t.ID, &typ, &t.Category, &t.Title, &t.Description, &t.URL, &t.BaseReward, &t.Payout,
		&t.Partner, &t.ExternalOfferID, &verification, &t.MinLevel, &tier,
		&t.MinTasksCompleted, &t.PremiumOnly, &t.Countries, &t.IsActive,
		&t.ScheduledStart, &t.ScheduledEnd, &t.MaxCompletionsTotal, &t.MaxCompletionsPerDay,
		&t.CreatedAt, &t.UpdatedAt,
		&t.CompletedCount, &t.CompletedTodayCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	t.Type = domain.TaskType(typ)
	t.MinVIPTier = domain.VIPTier(tier)
	t.Verification = domain.Verification(verification)
	return &t, nil
}

func (q *Queries) GetTaskByID(ctx context.Context, id int64) (*domain.Task, error) {
	row := q.db.QueryRow(ctx, `SELECT `+taskColumns+taskCounts+` FROM tasks t WHERE t.id = $1`, id)
	return scanTask(row)
}

func (q *Queries) ListActiveTasks(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+taskColumns+taskCounts+`
		FROM tasks t
		WHERE t.is_active
		  AND (t.scheduled_start IS NULL OR t.scheduled_start <= $1)
		  AND (t.scheduled_end IS NULL OR t.scheduled_end >= $1)
		ORDER BY t.base_reward DESC, t.id`,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("list active tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (q *Queries) CreateTask(ctx context.Context, arg CreateTaskParams) (*domain.Task, error) {
	countries := arg.Countries
	if countries == nil {
		countries = []string{}
	}
	row := q.db.QueryRow(ctx, `
		INSERT INTO tasks (type, category, title, description, url, base_reward, payout,
			partner, external_offer_id, verification, min_level, min_vip_tier,
			min_tasks_completed, premium_only, countries, is_active,
			scheduled_start, scheduled_end, max_completions_total, max_completions_per_day)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id`,
		string(arg.Type), arg.Category, arg.Title, arg.Description, arg.URL, arg.BaseReward, arg.Payout,
		arg.Partner, arg.ExternalOfferID, string(arg.Verification), arg.MinLevel, string(arg.MinVIPTier),
		arg.MinTasksCompleted, arg.PremiumOnly, countries, arg.IsActive,
		arg.ScheduledStart, arg.ScheduledEnd, arg.MaxCompletionsTotal, arg.MaxCompletionsPerDay,
	)
	var id int64
	if err := row.Scan(&id); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return q.GetTaskByID(ctx, id)
}

// UpsertPartnerTask inserts or refreshes a partner-synced offer keyed by
// (partner, external_offer_id). Eligibility fields stay under admin control
// and are not overwritten on refresh.
func (q *Queries) UpsertPartnerTask(ctx context.Context, arg UpsertPartnerTaskParams) (*domain.Task, error) {
	countries := arg.Countries
	if countries == nil {
		countries = []string{}
	}
	row := q.db.QueryRow(ctx, `
		INSERT INTO tasks (type, title, description, url, base_reward, payout,
			partner, external_offer_id, verification, countries, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'postback', $9, 'partner')
		ON CONFLICT (partner, external_offer_id) WHERE partner <> ''
		DO UPDATE SET title = EXCLUDED.title, description = EXCLUDED.description,
			url = EXCLUDED.url, base_reward = EXCLUDED.base_reward,
			payout = EXCLUDED.payout, countries = EXCLUDED.countries,
			updated_at = now()
		RETURNING id`,
		string(arg.Type), arg.Title, arg.Description, arg.URL, arg.BaseReward, arg.Payout,
		arg.Partner, arg.ExternalOfferID, countries,
	)
	var id int64
	if err := row.Scan(&id); err != nil {
		return nil, fmt.Errorf("upsert partner task: %w", err)
	}
	return q.GetTaskByID(ctx, id)
}

func (q *Queries) SetTaskActive(ctx context.Context, id int64, active bool) error {
	tag, err := q.db.Exec(ctx, `UPDATE tasks SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("set task active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}
