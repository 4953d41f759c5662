package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"tradeup/internal/domain"
	"tradeup/internal/log"
	"tradeup/internal/services"
	"tradeup/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false, // set true behind TLS
		})
	}
	return sid
}

// userView strips the password hash before a user row leaves the API.
func userView(u *domain.User) fiber.Map {
	return fiber.Map{
		"id":           u.ID,
		"email":        u.Email,
		"name":         u.Name,
		"role":         u.Role,
		"credit_score": u.CreditScore,
		"credit_level": domain.CreditLevel(u.CreditScore),
		"can_trade":    domain.CanTrade(u.CreditScore),
		"balance":      u.Balance.StringFixed(2),
		"trade_count":  u.TradeCount,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	email, ok := validate.Email(c.FormValue("email"))
	if !ok {
		log.Security(c, "auth.register.fail", map[string]any{"reason": "bad_email"})
		return badRequest(c, "invalid email")
	}
	name, ok := validate.Name(c.FormValue("name"))
	if !ok {
		return badRequest(c, "name must be 1-20 characters")
	}
	pass := c.FormValue("password")
	if !validate.Password(pass) {
		return badRequest(c, "password must be 8-20 chars with upper, lower, digit and symbol")
	}

	u, err := h.Auth.Register(email, name, pass)
	if err != nil {
		return fail(c, "auth.register", err)
	}
	log.Audit(c, "auth.register", map[string]any{"email": email})
	return c.Status(fiber.StatusCreated).JSON(userView(u))
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := ensureSID(c)
	email := c.FormValue("email")
	pass := c.FormValue("password")
	if _, ok := validate.Email(email); !ok {
		log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid email or password"})
	}

	u, err := h.Auth.Login(sid, email, pass)
	if err != nil {
		log.Security(c, "auth.login.fail", map[string]any{"email": email})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid email or password"})
	}

	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	return c.JSON(userView(u))
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := ensureSID(c)
	_ = h.Auth.Logout(sid)
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	log.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return c.JSON(fiber.Map{"ok": true})
}

// Me returns the current user's profile.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(userView(currentUser(c)))
}
