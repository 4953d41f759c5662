package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"tradeup/internal/log"
	"tradeup/internal/services"
	"tradeup/internal/validate"
)

// ListingHandler drives the seller flow: draft, analyze, estimate,
// publish, delist.
type ListingHandler struct {
	Listings *services.ListingService
}

func (h *ListingHandler) InitDraft(c *fiber.Ctx) error {
	key := h.Listings.InitDraft()
	log.Info(c, "listing.draft.init", map[string]any{"draft_key": key})
	return c.JSON(fiber.Map{"draft_key": key})
}

// Analyze runs the recognition stub over a draft's images and returns
// the detected grade and defects.
func (h *ListingHandler) Analyze(c *fiber.Ctx) error {
	key, ok := validate.ID(c.Params("draft_key"))
	if !ok {
		return badRequest(c, "invalid draft key")
	}
	return c.JSON(h.Listings.Recognizer.Analyze(key))
}

type estimateBody struct {
	CategoryID    string   `json:"category_id"`
	DeviceModelID string   `json:"device_model_id"`
	YearsUsed     float64  `json:"years_used"`
	OriginalPrice string   `json:"original_price"`
	GradeID       string   `json:"grade_id"`
	GradeLabel    string   `json:"grade_label"`
	Defects       []string `json:"defects"`
}

func (b estimateBody) toRequest() (services.EstimateRequest, error) {
	price, err := decimal.NewFromString(b.OriginalPrice)
	if err != nil {
		return services.EstimateRequest{}, err
	}
	return services.EstimateRequest{
		CategoryID:    b.CategoryID,
		DeviceModelID: b.DeviceModelID,
		YearsUsed:     b.YearsUsed,
		OriginalPrice: price,
		GradeID:       b.GradeID,
		GradeLabel:    b.GradeLabel,
		Defects:       b.Defects,
	}, nil
}

func (h *ListingHandler) Estimate(c *fiber.Ctx) error {
	var body estimateBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "malformed body")
	}
	req, err := body.toRequest()
	if err != nil {
		return badRequest(c, "invalid original_price")
	}
	res, err := h.Listings.Estimate(req)
	if err != nil {
		return fail(c, "listing.estimate", err)
	}
	return c.JSON(res)
}

type publishBody struct {
	estimateBody
	Title        string `json:"title"`
	Description  string `json:"description"`
	SellingPrice string `json:"selling_price"`
}

func (h *ListingHandler) Publish(c *fiber.Ctx) error {
	u := currentUser(c)

	var body publishBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "malformed body")
	}
	req, err := body.toRequest()
	if err != nil {
		return badRequest(c, "invalid original_price")
	}
	selling, err := decimal.NewFromString(body.SellingPrice)
	if err != nil {
		return badRequest(c, "invalid selling_price")
	}

	res, err := h.Listings.Publish(u.ID, services.PublishRequest{
		EstimateRequest: req,
		Title:           body.Title,
		Description:     body.Description,
		SellingPrice:    selling,
	})
	if err != nil {
		return fail(c, "listing.publish", err)
	}
	log.Audit(c, "listing.publish", map[string]any{
		"product_id": res.ProductID, "market_tag": res.MarketTag,
	})
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *ListingHandler) Delist(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid product id")
	}
	if err := h.Listings.Delist(u.ID, id); err != nil {
		return fail(c, "listing.delist", err)
	}
	log.Audit(c, "listing.delist", map[string]any{"product_id": id})
	return c.JSON(fiber.Map{"ok": true})
}
