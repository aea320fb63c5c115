package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"shopadmin/internal/domain"
	"shopadmin/internal/log"
	"shopadmin/internal/services"
	"shopadmin/internal/session"
	"shopadmin/internal/validate"
)

type AuthHandler struct {
	Auth    *services.AuthService
	Cookies Cookies
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Err": "", "Email": ""})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := clientID(c)
	email := c.FormValue("email")
	pass := c.FormValue("password")
	if _, ok := validate.Email(email); !ok {
		log.Security(c, "auth.login.fail", map[string]any{"reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).Render("login", withCommon(c, fiber.Map{
			"Err": "Please enter a valid email address.", "Email": email,
		}))
	}
	if !validate.Password(pass) {
		log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": "bad_password_format"})
		return c.Status(fiber.StatusUnauthorized).Render("login", withCommon(c, fiber.Map{
			"Err": "Password is required.", "Email": email,
		}))
	}

	sess, err := h.Auth.Login(c.UserContext(), sid, email, pass)
	if err != nil {
		log.Security(c, "auth.login.fail", map[string]any{"email": email, "err": err.Error()})
		return c.Status(statusFor(err)).Render("login", withCommon(c, fiber.Map{
			"Err": loginMessage(err), "Email": email,
		}))
	}

	setSessionCookie(c, h.Cookies, sess.Token)
	log.Audit(c, "auth.login.success", map[string]any{"email": email, "user": sess.User.ID})
	return c.Redirect("/")
}

// loginMessage shows the backend's message as is.
func loginMessage(err error) string {
	var rerr *domain.RemoteError
	switch {
	case errors.As(err, &rerr) && rerr.Message != "":
		return rerr.Message
	case errors.Is(err, domain.ErrUnreachable):
		return domain.MsgUnreachable
	case errors.As(err, &rerr):
		return "Login failed"
	default:
		return "An unexpected error occurred."
	}
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := clientID(c)
	target := session.LoginPath
	nav := session.NavigatorFunc(func(p string) { target = p })
	if err := h.Auth.Logout(c.UserContext(), sid, nav); err != nil {
		log.Error(c, "auth.logout", err, nil)
	}
	clearSessionCookie(c, h.Cookies)
	log.Audit(c, "auth.logout", map[string]any{"fingerprint": log.Fingerprint(c.Cookies(h.Cookies.Session))})
	return c.Redirect(target)
}
