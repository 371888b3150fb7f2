package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/set-night/earnhub/internal/config"
	"github.com/set-night/earnhub/internal/domain"
	"github.com/set-night/earnhub/internal/partner"
	"github.com/set-night/earnhub/internal/repository"
)

type CatalogService struct {
	store    repository.Store
	adapters []partner.Adapter
	now      func() time.Time
}

func NewCatalogService(store repository.Store, adapters []partner.Adapter) *CatalogService {
	return &CatalogService{store: store, adapters: adapters, now: time.Now}
}

// TaskView is one catalog entry personalized for an account.
type TaskView struct {
	Task             *domain.Task
	Reward           int64 // reward this account would be credited
	Eligible         bool
	IneligibleReason string
	CompletionStatus domain.CompletionStatus // empty when never attempted
}

// ListForAccount returns the active catalog with per-account eligibility
// and reward amounts. Tasks the account already finished stay in the list
// with their status so the client can render them as done.
func (s *CatalogService) ListForAccount(ctx context.Context, account *domain.Account) ([]TaskView, error) {
	now := s.now()

	tasks, err := s.store.ListActiveTasks(ctx, now)
	if err != nil {
		return nil, err
	}

	completions, err := s.store.ListCompletionsByAccount(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	byTask := make(map[int64]*domain.Completion, len(completions))
	for _, c := range completions {
		byTask[c.TaskID] = c
	}

	snap := snapshotFor(account, now)
	views := make([]TaskView, 0, len(tasks))
	for _, task := range tasks {
		view := TaskView{
			Task:   task,
			Reward: domain.CalculateReward(task.BaseReward, account.VIPTier, task.PremiumOnly),
		}
		if c, ok := byTask[task.ID]; ok {
			view.CompletionStatus = c.Status
		}
		ok, reason, err := domain.CanComplete(task, snap)
		if err != nil {
			return nil, err
		}
		view.Eligible = ok && view.CompletionStatus != domain.CompletionApproved
		if !ok {
			view.IneligibleReason = reason
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *CatalogService) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	return s.store.GetTaskByID(ctx, id)
}

func (s *CatalogService) CreateTask(ctx context.Context, arg repository.CreateTaskParams) (*domain.Task, error) {
	return s.store.CreateTask(ctx, arg)
}

func (s *CatalogService) SetTaskActive(ctx context.Context, id int64, active bool) error {
	return s.store.SetTaskActive(ctx, id, active)
}

// SyncPartnerOffers pulls every configured partner feed and upserts offers
// into the catalog. An unreachable partner degrades to whatever the local
// catalog already has instead of failing the sync.
func (s *CatalogService) SyncPartnerOffers(ctx context.Context) int {
	synced := 0
	for _, adapter := range s.adapters {
		offers, err := adapter.FetchOffers(ctx)
		if err != nil {
			slog.Warn("partner offer fetch failed, serving local catalog",
				"partner", adapter.Name(), "error", err)
			continue
		}
		for _, offer := range offers {
			reward := offer.Reward
			if reward <= 0 {
				// Partner reported money only; convert at the
				// ledger rate.
				reward = offer.Payout.Mul(config.PointsPerUSDT).Floor().IntPart()
			}
			if reward <= 0 {
				continue
			}
			if _, err := s.store.UpsertPartnerTask(ctx, repository.UpsertPartnerTaskParams{
				Partner:         offer.Partner,
				ExternalOfferID: offer.ExternalID,
				Type:            domain.TaskTypeOffer,
				Title:           offer.Title,
				Description:     offer.Description,
				URL:             offer.URL,
				BaseReward:      reward,
				Payout:          offer.Payout,
				Countries:       offer.Countries,
			}); err != nil {
				slog.Error("upsert partner offer", "partner", offer.Partner,
					"offer_id", offer.ExternalID, "error", err)
				continue
			}
			synced++
		}
	}
	return synced
}
