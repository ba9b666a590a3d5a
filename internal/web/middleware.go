package web

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	authservice "github.com/hailinhs/alumnisite/auth/service"
)

func (s *Server) logRequest(ctx *fiber.Ctx) error {
	start := time.Now()
	err := ctx.Next()
	status := ctx.Response().StatusCode()
	if err != nil {
		status = statusOf(err)
	}
	entry := s.log.WithFields(logrus.Fields{
		"method":  ctx.Method(),
		"path":    ctx.Path(),
		"status":  status,
		"latency": time.Since(start).String(),
	})
	if status >= fiber.StatusInternalServerError {
		entry.Warn("request")
	} else {
		entry.Debug("request")
	}
	return err
}

// guard resolves the caller's session from the token cookie and applies the
// access rules. A stale or broken token is dropped and the caller continues
// as a guest.
func (s *Server) guard(ctx *fiber.Ctx) error {
	session, err := s.auth.SessionFromToken(ctx.Cookies("token"))
	if err != nil {
		ctx.ClearCookie("token")
	}
	ctx.Locals(sessionKey, session)

	err = s.auth.Authorize(session, ctx.Method(), ctx.Path())
	if err != nil {
		if !errors.Is(err, authservice.ErrForbidden) && !errors.Is(err, authservice.ErrNotAuthorized) {
			return err
		}
		return ctx.Status(statusOf(err)).JSON(newData().WithSession(session).WithErrors(err))
	}
	return ctx.Next()
}
