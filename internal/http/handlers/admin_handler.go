package handlers

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "tradeup/internal/log"
	"tradeup/internal/repos"
	"tradeup/internal/validate"
)

type AdminHandler struct {
	Users *repos.UserRepo
}

// ListUsers returns the most recent accounts.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.Users.List(100)
	if err != nil {
		return fail(c, "admin.users.list", err)
	}
	views := make([]fiber.Map, 0, len(users))
	for i := range users {
		views = append(views, userView(&users[i]))
	}
	return c.JSON(fiber.Map{"users": views})
}

// DeleteUser removes an account. Admins cannot delete themselves, and
// accounts with listings or orders are refused to keep trade history.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	admin := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid user id")
	}
	if id == admin.ID {
		applog.Security(c, "admin.users.delete.self", map[string]any{"user_id": id})
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "permission_denied",
			"message": "cannot delete the currently logged-in admin account",
		})
	}

	if err := h.Users.Delete(id); err != nil {
		switch {
		case errors.Is(err, repos.ErrUserHasRecords):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "invalid_state",
				"message": "user has products or orders; delist and settle them first",
			})
		case errors.Is(err, sql.ErrNoRows):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "not_found",
				"message": "user not found",
			})
		default:
			return fail(c, "admin.users.delete", err)
		}
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"user_id": id})
	return c.JSON(fiber.Map{"ok": true})
}
