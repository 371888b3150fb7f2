// Package server exposes the HTTP API for the Mini App frontend and the
// partner postback endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/set-night/earnhub/internal/config"
	"github.com/set-night/earnhub/internal/domain"
	"github.com/set-night/earnhub/internal/partner"
	"github.com/set-night/earnhub/internal/ratelimit"
	"github.com/set-night/earnhub/internal/service"
	"github.com/set-night/earnhub/internal/telegram"
)

type Deps struct {
	Config      *config.Config
	Accounts    *service.AccountService
	Catalog     *service.CatalogService
	Completions *service.CompletionService
	Withdrawals *service.WithdrawalService
	Promos      *service.PromoService
	Adapters    []partner.Adapter
	Notifier    *telegram.Notifier
}

type Server struct {
	app         *fiber.App
	cfg         *config.Config
	accounts    *service.AccountService
	catalog     *service.CatalogService
	completions *service.CompletionService
	withdrawals *service.WithdrawalService
	promos      *service.PromoService
	adapters    map[string]partner.Adapter
	notifier    *telegram.Notifier
	limiter     *ratelimit.Limiter
}

func New(deps Deps) (*Server, error) {
	limiter, err := ratelimit.New(config.RateLimitPerMinute, config.RateLimitWindow, 10000)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:         deps.Config,
		accounts:    deps.Accounts,
		catalog:     deps.Catalog,
		completions: deps.Completions,
		withdrawals: deps.Withdrawals,
		promos:      deps.Promos,
		adapters:    make(map[string]partner.Adapter, len(deps.Adapters)),
		notifier:    deps.Notifier,
		limiter:     limiter,
	}
	for _, a := range deps.Adapters {
		s.adapters[a.Name()] = a
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "earnhub",
		ErrorHandler: s.errorHandler,
	})
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.app.Use(recover.New())
	s.app.Use(s.requestLogger)

	if len(s.cfg.AllowedOrigins) > 0 {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(s.cfg.AllowedOrigins, ","),
			AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Country",
		}))
	}

	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Partner server-to-server callbacks; authenticated by signature, not
	// by init data.
	s.app.Get("/postback/:partner", s.handlePostback)
	s.app.Post("/postback/:partner", s.handlePostback)

	api := s.app.Group("/api", s.requireAccount, s.rateLimit)

	api.Get("/me", s.handleMe)
	api.Get("/me/transactions", s.handleTransactions)
	api.Post("/me/checkin", s.handleCheckIn)
	api.Post("/me/promo", s.handleActivatePromo)

	api.Get("/tasks", s.handleListTasks)
	api.Post("/tasks/:id/start", s.handleStartTask)

	api.Get("/completions", s.handleListCompletions)
	api.Post("/completions/:id/submit", s.handleSubmitCompletion)
	api.Post("/completions/:id/cancel", s.handleCancelCompletion)

	api.Get("/withdrawals", s.handleListWithdrawals)
	api.Post("/withdrawals", s.handleRequestWithdrawal)
	api.Post("/withdrawals/:reference/cancel", s.handleCancelWithdrawal)

	admin := api.Group("/admin", s.requireAdmin)
	admin.Post("/tasks", s.handleCreateTask)
	admin.Post("/tasks/:id/active", s.handleSetTaskActive)
	admin.Post("/tasks/sync", s.handleSyncOffers)
	admin.Post("/completions/:id/approve", s.handleApproveCompletion)
	admin.Post("/completions/:id/reject", s.handleRejectCompletion)
	admin.Post("/withdrawals/:reference/processing", s.handleWithdrawalProcessing)
	admin.Post("/withdrawals/:reference/complete", s.handleWithdrawalComplete)
	admin.Post("/withdrawals/:reference/fail", s.handleWithdrawalFail)
	admin.Post("/promos", s.handleCreatePromos)
}

func (s *Server) Listen(port int) error {
	return s.app.Listen(fmt.Sprintf(":%d", port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}

	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		s.notifier.NotifyError(err, c.Method()+" "+c.Path())
		return c.Status(status).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrCompletionNotFound),
		errors.Is(err, domain.ErrWithdrawalNotFound),
		errors.Is(err, domain.ErrPromoNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrAccountBanned),
		errors.Is(err, domain.ErrIneligible),
		errors.Is(err, domain.ErrInvalidSignature):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrTaskAlreadyDone),
		errors.Is(err, domain.ErrCompletionExists),
		errors.Is(err, domain.ErrAlreadyTerminal),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrAlreadyCheckedIn),
		errors.Is(err, domain.ErrPromoAlreadyUsed),
		errors.Is(err, domain.ErrPromoMaxUses):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrBelowMinWithdrawal),
		errors.Is(err, domain.ErrInvalidWalletAddress),
		errors.Is(err, domain.ErrDailyLimitExceeded),
		errors.Is(err, domain.ErrInsufficientNetAmount),
		errors.Is(err, domain.ErrInvalidAmount):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	slog.Info("request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start),
	)
	return err
}
