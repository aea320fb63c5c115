package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Cookies names the cookies the dashboard reads and writes.
type Cookies struct {
	Session string // bearer token, read by the route gate
	Client  string // storage namespace id
	Secure  bool
}

var DefaultCookies = Cookies{Session: "userToken", Client: "sid"}

// ClientID makes sure every request carries a client namespace id and puts it in
// Locals("sid").
func ClientID(ck Cookies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(ck.Client)
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
			c.Cookie(&fiber.Cookie{
				Name:     ck.Client,
				Value:    sid,
				Path:     "/",
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
				Secure:   ck.Secure,
			})
		}
		c.Locals("sid", sid)
		return c.Next()
	}
}

func clientID(c *fiber.Ctx) string {
	sid, _ := c.Locals("sid").(string)
	return sid
}

func setSessionCookie(c *fiber.Ctx, ck Cookies, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     ck.Session,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   ck.Secure,
	})
}

func clearSessionCookie(c *fiber.Ctx, ck Cookies) {
	c.Cookie(&fiber.Cookie{
		Name:     ck.Session,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   ck.Secure,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}
