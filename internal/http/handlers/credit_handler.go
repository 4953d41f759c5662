package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tradeup/internal/domain"
	"tradeup/internal/log"
	"tradeup/internal/services"
	"tradeup/internal/validate"
)

// CreditHandler exposes the credit ledger: the caller's own summary
// and the admin adjustment endpoint.
type CreditHandler struct {
	Credit *services.CreditService
}

func (h *CreditHandler) Me(c *fiber.Ctx) error {
	u := currentUser(c)
	sum, err := h.Credit.Summary(u.ID, 50)
	if err != nil {
		return fail(c, "credit.me", err)
	}
	return c.JSON(sum)
}

// ApplyEvent scores one canonical ledger event against a user. Admin
// only. Event-type aliases ("completed", "refund", ...) and party
// shorthands ("b"/"s") are accepted here and normalized before the
// command leaves the handler.
func (h *CreditHandler) ApplyEvent(c *fiber.Ctx) error {
	var body struct {
		UserID    string `json:"user_id"`
		EventType string `json:"event_type"`
		Party     string `json:"party"`
		Delta     *int   `json:"delta"`
		RefType   string `json:"ref_type"`
		RefID     string `json:"ref_id"`
		Reason    string `json:"reason"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "malformed body")
	}
	if _, ok := validate.ID(body.UserID); !ok {
		return badRequest(c, "invalid user_id")
	}
	et, err := domain.ParseCreditEventType(body.EventType)
	if err != nil {
		return fail(c, "credit.event", err)
	}
	party, err := domain.ParseParty(body.Party)
	if err != nil {
		return fail(c, "credit.event", err)
	}

	res, err := h.Credit.Apply(services.CreditCommand{
		UserID:      body.UserID,
		EventType:   et,
		RefType:     body.RefType,
		RefID:       body.RefID,
		Reason:      body.Reason,
		Party:       party,
		ManualDelta: body.Delta,
	})
	if err != nil {
		return fail(c, "credit.event", err)
	}
	log.Audit(c, "credit.event", map[string]any{
		"user_id": body.UserID, "event_type": string(et), "delta": res.Delta, "created": res.Created,
	})
	return c.JSON(res)
}

// Adjust applies a manual_adjust event to any user. Admin only; the
// delta is required and the ref fields keep repeats idempotent.
func (h *CreditHandler) Adjust(c *fiber.Ctx) error {
	var body struct {
		UserID  string `json:"user_id"`
		Delta   *int   `json:"delta"`
		RefType string `json:"ref_type"`
		RefID   string `json:"ref_id"`
		Reason  string `json:"reason"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "malformed body")
	}
	if _, ok := validate.ID(body.UserID); !ok {
		return badRequest(c, "invalid user_id")
	}

	res, err := h.Credit.Apply(services.CreditCommand{
		UserID:      body.UserID,
		EventType:   domain.EventManualAdjust,
		RefType:     body.RefType,
		RefID:       body.RefID,
		Reason:      body.Reason,
		ManualDelta: body.Delta,
	})
	if err != nil {
		return fail(c, "credit.adjust", err)
	}
	log.Audit(c, "credit.adjust", map[string]any{
		"user_id": body.UserID, "delta": res.Delta, "created": res.Created,
	})
	return c.JSON(res)
}
