package handlers

import (
	"github.com/gofiber/fiber/v2"

	"shopadmin/internal/gate"
	applog "shopadmin/internal/log"
	"shopadmin/internal/services"
)

// RouteGate redirects based on the session cookie before any handler runs. The
// cookie is only checked for presence.
func RouteGate(g *gate.Gate, ck Cookies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if !g.Applies(path) {
			return c.Next()
		}
		tok := c.Cookies(ck.Session)
		d := g.Decide(path, tok)
		fields := map[string]any{
			"decision":    d.String(),
			"token":       tok != "",
			"fingerprint": applog.Fingerprint(tok),
		}
		if d == gate.Allow {
			applog.Info(c, "gate.allow", fields)
			return c.Next()
		}
		applog.Info(c, "gate.redirect", fields)
		return c.Redirect(d.Location(), fiber.StatusTemporaryRedirect)
	}
}

// LoadUser puts the stored user, if any, in Locals("user") for templates.
func LoadUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sid := clientID(c); sid != "" {
			u, err := auth.CurrentUser(c.UserContext(), sid)
			if err != nil {
				applog.Error(c, "session.load", err, nil)
			} else if u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	}
}

// RequireAdmin limits a route to users the backend flagged as admin. Anyone else
// goes back to the dashboard.
func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := clientID(c)
		if sid == "" {
			return c.Redirect("/login")
		}
		u, err := auth.CurrentUser(c.UserContext(), sid)
		if err != nil || u == nil {
			return c.Redirect("/login")
		}
		if !u.IsAdmin {
			applog.Security(c, "access.denied.admin", map[string]any{"user": u.ID})
			return c.Redirect("/")
		}
		c.Locals("user", u)
		return c.Next()
	}
}
