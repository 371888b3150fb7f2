package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/set-night/earnhub/internal/domain"
)

func (s *Server) handleListWithdrawals(c *fiber.Ctx) error {
	requests, err := s.withdrawals.ListByAccount(c.Context(), currentAccount(c).ID)
	if err != nil {
		return err
	}
	out := make([]withdrawalResponse, 0, len(requests))
	for _, w := range requests {
		out = append(out, toWithdrawalResponse(w))
	}
	return c.JSON(fiber.Map{"withdrawals": out})
}

func (s *Server) handleRequestWithdrawal(c *fiber.Ctx) error {
	var req struct {
		Amount        int64  `json:"amount"`
		Currency      string `json:"currency"`
		WalletAddress string `json:"wallet_address"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	account := currentAccount(c)
	request, err := s.withdrawals.Request(c.Context(), account.ID, req.Amount,
		domain.WithdrawalCurrency(req.Currency), req.WalletAddress)
	if err != nil {
		return err
	}
	s.notifier.NotifyWithdrawalRequested(account.TelegramID, request)
	return c.Status(fiber.StatusCreated).JSON(toWithdrawalResponse(request))
}

func (s *Server) handleCancelWithdrawal(c *fiber.Ctx) error {
	reference, err := uuid.Parse(c.Params("reference"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid reference")
	}
	request, err := s.withdrawals.Cancel(c.Context(), currentAccount(c).ID, reference)
	if err != nil {
		return err
	}
	return c.JSON(toWithdrawalResponse(request))
}
