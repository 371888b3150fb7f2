package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/set-night/earnhub/internal/service"
)

func (s *Server) handleMe(c *fiber.Ctx) error {
	return c.JSON(toAccountResponse(currentAccount(c)))
}

func (s *Server) handleTransactions(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	transactions, err := s.accounts.Transactions(c.Context(), currentAccount(c).ID, limit)
	if err != nil {
		return err
	}
	out := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, toTransactionResponse(t))
	}
	return c.JSON(fiber.Map{"transactions": out})
}

func (s *Server) handleCheckIn(c *fiber.Ctx) error {
	result, err := s.accounts.CheckIn(c.Context(), currentAccount(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"streak":  result.Streak,
		"reward":  result.Reward,
		"balance": result.Balance,
	})
}

func (s *Server) handleActivatePromo(c *fiber.Ctx) error {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil || req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "code is required")
	}

	account := currentAccount(c)
	amount, err := s.promos.Activate(c.Context(), req.Code, account.ID)
	if err != nil {
		return err
	}
	s.notifier.NotifyPromoActivated(account.TelegramID, req.Code, amount)
	return c.JSON(fiber.Map{"amount": amount})
}

func (s *Server) handleListTasks(c *fiber.Ctx) error {
	views, err := s.catalog.ListForAccount(c.Context(), currentAccount(c))
	if err != nil {
		return err
	}
	out := make([]taskResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toTaskResponse(v))
	}
	return c.JSON(fiber.Map{"tasks": out})
}

func (s *Server) handleStartTask(c *fiber.Ctx) error {
	taskID, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid task id")
	}

	completion, err := s.completions.Start(c.Context(), currentAccount(c), int64(taskID), service.StartMeta{
		IP:         c.IP(),
		DeviceHash: c.Get("X-Device-Hash"),
	})
	if err != nil {
		return err
	}
	return c.JSON(toCompletionResponse(completion))
}

func (s *Server) handleListCompletions(c *fiber.Ctx) error {
	completions, err := s.completions.ListByAccount(c.Context(), currentAccount(c).ID)
	if err != nil {
		return err
	}
	out := make([]completionResponse, 0, len(completions))
	for _, completion := range completions {
		out = append(out, toCompletionResponse(completion))
	}
	return c.JSON(fiber.Map{"completions": out})
}

func (s *Server) handleSubmitCompletion(c *fiber.Ctx) error {
	completionID, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid completion id")
	}
	var req struct {
		Proof string `json:"proof"`
	}
	// Proof is optional; an empty body is a bare submit.
	_ = c.BodyParser(&req)

	completion, err := s.completions.Submit(c.Context(), currentAccount(c).ID, int64(completionID), req.Proof)
	if err != nil {
		return err
	}
	return c.JSON(toCompletionResponse(completion))
}

func (s *Server) handleCancelCompletion(c *fiber.Ctx) error {
	completionID, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid completion id")
	}
	completion, err := s.completions.Cancel(c.Context(), currentAccount(c).ID, int64(completionID))
	if err != nil {
		return err
	}
	return c.JSON(toCompletionResponse(completion))
}
