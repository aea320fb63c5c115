package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"shopadmin/internal/backend"
	"shopadmin/internal/domain"
	"shopadmin/internal/log"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	return c.Render(tmpl, withCommon(c, data))
}

// withCommon adds the current user and the csrf token to template data.
func withCommon(c *fiber.Ctx, data fiber.Map) fiber.Map {
	if data == nil {
		data = fiber.Map{}
	}
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	// Locals first, then the cookie if the middleware did not run for this route
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	return data
}

// statusFor picks the response code for a page that shows err as an outcome.
func statusFor(err error) int {
	var verr *domain.ValidationError
	var rerr *domain.RemoteError
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.As(err, &verr):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNoSession):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.As(err, &rerr):
		if rerr.Status >= 400 && rerr.Status < 500 {
			return rerr.Status
		}
		return fiber.StatusBadGateway
	case errors.Is(err, domain.ErrUnreachable):
		return fiber.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": msg})
}

// logFailure records a failed backend call. A rejected token is also a security event.
func logFailure(c *fiber.Ctx, action string, err error, fields map[string]any) {
	log.Error(c, action, err, fields)
	if backend.IsUnauthorized(err) {
		log.Security(c, "auth.token.rejected", map[string]any{"action": action})
	}
}

// ErrorHandler logs anything a handler did not turn into a page and shows a generic
// message with the matching status.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	log.Error(c, "server.error", err, map[string]any{"code": code})
	msg := "Something went wrong. Please try again."
	switch code {
	case fiber.StatusNotFound:
		msg = "Page not found"
	case fiber.StatusRequestEntityTooLarge:
		msg = "The upload is too large."
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}
