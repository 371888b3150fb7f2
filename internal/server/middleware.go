package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/set-night/earnhub/internal/config"
	"github.com/set-night/earnhub/internal/domain"
	"github.com/set-night/earnhub/internal/service"
)

const accountKey = "account"

// requireAccount authenticates the request via signed Mini App init data
// and resolves (creating if needed) the backing account. The referral code
// rides in on start_param at first contact.
func (s *Server) requireAccount(c *fiber.Ctx) error {
	raw, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "tma ")
	if !ok || raw == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "missing init data")
	}

	initData, err := ParseInitData(raw, s.cfg.BotToken, config.InitDataMaxAge, time.Now())
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid init data")
	}

	account, created, err := s.accounts.FindOrCreate(c.Context(), service.FindOrCreateParams{
		TelegramID:   initData.User.ID,
		FirstName:    initData.User.FirstName,
		Username:     initData.User.Username,
		Country:      strings.ToUpper(c.Get("X-Country")),
		IsPremium:    initData.User.IsPremium,
		IsAdmin:      s.cfg.IsAdmin(initData.User.ID),
		ReferralCode: initData.StartParam,
	})
	if err != nil {
		return err
	}
	if created {
		s.notifier.NotifyRegistration(account.TelegramID, account.FirstName,
			account.Username, account.ReferredByID != nil)
	}
	if account.Banned {
		return domain.ErrAccountBanned
	}

	c.Locals(accountKey, account)
	return c.Next()
}

func (s *Server) rateLimit(c *fiber.Ctx) error {
	account := currentAccount(c)
	if !s.limiter.Allow(strconv.FormatInt(account.TelegramID, 10)) {
		return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
	}
	return c.Next()
}

// requireAdmin passes accounts flagged as admin, or requests carrying the
// configured admin token for non-interactive tooling.
func (s *Server) requireAdmin(c *fiber.Ctx) error {
	if currentAccount(c).IsAdmin {
		return c.Next()
	}
	if s.cfg.AdminToken != "" && c.Get("X-Admin-Token") == s.cfg.AdminToken {
		return c.Next()
	}
	return fiber.NewError(fiber.StatusForbidden, "admin access required")
}

func currentAccount(c *fiber.Ctx) *domain.Account {
	return c.Locals(accountKey).(*domain.Account)
}
