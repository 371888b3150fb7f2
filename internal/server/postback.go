package server

import (
	"errors"
	"log/slog"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/set-night/earnhub/internal/domain"
)

// handlePostback receives a partner conversion signal. Authentication is
// the partner's own signature scheme, checked by the adapter; an unsigned
// or mis-signed postback never reaches the completion service.
func (s *Server) handlePostback(c *fiber.Ctx) error {
	adapter, ok := s.adapters[c.Params("partner")]
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "unknown partner")
	}

	values, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query")
	}
	if c.Method() == fiber.MethodPost {
		args := c.Context().PostArgs()
		args.VisitAll(func(key, value []byte) {
			values.Set(string(key), string(value))
		})
	}

	postback, err := adapter.ParsePostback(values)
	if err != nil {
		slog.Warn("rejected partner postback",
			"partner", adapter.Name(), "error", err, "ip", c.IP())
		return fiber.NewError(fiber.StatusForbidden, "invalid postback")
	}

	_, err = s.completions.HandlePostback(c.Context(), postback.TrackingID, postback.Approved, postback.Reason)
	if err != nil {
		if errors.Is(err, domain.ErrCompletionNotFound) {
			s.notifier.NotifyPostbackDropped(adapter.Name(), postback.TrackingID.String())
			return fiber.NewError(fiber.StatusNotFound, "unknown tracking id")
		}
		if errors.Is(err, domain.ErrAlreadyTerminal) || errors.Is(err, domain.ErrTaskAlreadyDone) {
			// Duplicate delivery; the first one already settled.
			return c.SendString("OK")
		}
		return err
	}
	return c.SendString("OK")
}
