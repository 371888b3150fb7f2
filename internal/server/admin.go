package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/set-night/earnhub/internal/domain"
	"github.com/set-night/earnhub/internal/repository"
)

func (s *Server) handleCreateTask(c *fiber.Ctx) error {
	var req struct {
		Type                 string     `json:"type"`
		Category             string     `json:"category"`
		Title                string     `json:"title"`
		Description          string     `json:"description"`
		URL                  string     `json:"url"`
		BaseReward           int64      `json:"base_reward"`
		Verification         string     `json:"verification"`
		MinLevel             int        `json:"min_level"`
		MinVIPTier           string     `json:"min_vip_tier"`
		MinTasksCompleted    int        `json:"min_tasks_completed"`
		PremiumOnly          bool       `json:"premium_only"`
		Countries            []string   `json:"countries"`
		IsActive             *bool      `json:"is_active"`
		ScheduledStart       *time.Time `json:"scheduled_start"`
		ScheduledEnd         *time.Time `json:"scheduled_end"`
		MaxCompletionsTotal  *int       `json:"max_completions_total"`
		MaxCompletionsPerDay *int       `json:"max_completions_per_day"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Title == "" || req.BaseReward <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "title and positive base_reward are required")
	}

	arg := repository.CreateTaskParams{
		Type:                 domain.TaskType(req.Type),
		Category:             req.Category,
		Title:                req.Title,
		Description:          req.Description,
		URL:                  req.URL,
		BaseReward:           req.BaseReward,
		Payout:               decimal.Zero,
		Verification:         domain.Verification(req.Verification),
		MinLevel:             req.MinLevel,
		MinVIPTier:           domain.VIPTier(req.MinVIPTier),
		MinTasksCompleted:    req.MinTasksCompleted,
		PremiumOnly:          req.PremiumOnly,
		Countries:            req.Countries,
		IsActive:             true,
		ScheduledStart:       req.ScheduledStart,
		ScheduledEnd:         req.ScheduledEnd,
		MaxCompletionsTotal:  domain.UnlimitedCompletions,
		MaxCompletionsPerDay: domain.UnlimitedCompletions,
	}
	if arg.Verification == "" {
		arg.Verification = domain.VerifyManual
	}
	if arg.MinVIPTier == "" {
		arg.MinVIPTier = domain.TierBronze
	}
	if arg.MinLevel < 1 {
		arg.MinLevel = 1
	}
	if req.IsActive != nil {
		arg.IsActive = *req.IsActive
	}
	if req.MaxCompletionsTotal != nil {
		arg.MaxCompletionsTotal = *req.MaxCompletionsTotal
	}
	if req.MaxCompletionsPerDay != nil {
		arg.MaxCompletionsPerDay = *req.MaxCompletionsPerDay
	}

	task, err := s.catalog.CreateTask(c.Context(), arg)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": task.ID})
}

func (s *Server) handleSetTaskActive(c *fiber.Ctx) error {
	taskID, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid task id")
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := s.catalog.SetTaskActive(c.Context(), int64(taskID), req.Active); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"active": req.Active})
}

func (s *Server) handleSyncOffers(c *fiber.Ctx) error {
	synced := s.catalog.SyncPartnerOffers(c.Context())
	return c.JSON(fiber.Map{"synced": synced})
}

func (s *Server) handleApproveCompletion(c *fiber.Ctx) error {
	completionID, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid completion id")
	}
	completion, err := s.completions.Approve(c.Context(), int64(completionID))
	if err != nil {
		return err
	}
	if account, err := s.accounts.GetByID(c.Context(), completion.AccountID); err == nil {
		s.notifier.NotifyTaskApproved(account.TelegramID, completion.TaskID, completion.RewardAmount)
	}
	return c.JSON(toCompletionResponse(completion))
}

func (s *Server) handleRejectCompletion(c *fiber.Ctx) error {
	completionID, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid completion id")
	}
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.BodyParser(&req)
	if req.Reason == "" {
		req.Reason = "rejected by moderator"
	}

	completion, err := s.completions.Reject(c.Context(), int64(completionID), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(toCompletionResponse(completion))
}

func (s *Server) handleWithdrawalProcessing(c *fiber.Ctx) error {
	reference, err := uuid.Parse(c.Params("reference"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid reference")
	}
	if err := s.withdrawals.MarkProcessing(c.Context(), reference); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": domain.WithdrawalProcessing})
}

func (s *Server) handleWithdrawalComplete(c *fiber.Ctx) error {
	reference, err := uuid.Parse(c.Params("reference"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid reference")
	}
	var req struct {
		TxReference string `json:"tx_reference"`
	}
	_ = c.BodyParser(&req)

	request, err := s.withdrawals.Complete(c.Context(), reference, req.TxReference)
	if err != nil {
		return err
	}
	s.notifier.NotifyWithdrawalResolved(request)
	return c.JSON(toWithdrawalResponse(request))
}

func (s *Server) handleWithdrawalFail(c *fiber.Ctx) error {
	reference, err := uuid.Parse(c.Params("reference"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid reference")
	}
	request, err := s.withdrawals.Fail(c.Context(), reference)
	if err != nil {
		return err
	}
	s.notifier.NotifyWithdrawalResolved(request)
	return c.JSON(toWithdrawalResponse(request))
}

func (s *Server) handleCreatePromos(c *fiber.Ctx) error {
	var req struct {
		Amount  int64  `json:"amount"`
		Count   int    `json:"count"`
		MaxUses int    `json:"max_uses"`
		Comment string `json:"comment"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Count == 0 {
		req.Count = 1
	}
	if req.MaxUses == 0 {
		req.MaxUses = 1
	}

	codes, err := s.promos.Create(c.Context(), req.Amount, req.Count, req.MaxUses,
		req.Comment, currentAccount(c).ID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"codes": codes})
}
