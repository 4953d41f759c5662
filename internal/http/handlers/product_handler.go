package handlers

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"tradeup/internal/domain"
	"tradeup/internal/services"
	"tradeup/internal/validate"
)

// ProductHandler serves the market browse surface.
type ProductHandler struct {
	Catalog *services.CatalogService
}

func productView(p domain.Product) fiber.Map {
	var condition any
	_ = json.Unmarshal([]byte(p.ConditionJSON), &condition)
	return fiber.Map{
		"id":              p.ID,
		"seller_id":       p.SellerID,
		"device_model_id": p.DeviceModelID,
		"title":           p.Title,
		"description":     p.Description,
		"estimated_price": p.EstimatedPrice.StringFixed(2),
		"selling_price":   p.SellingPrice.StringFixed(2),
		"status":          p.Status,
		"quality_grade":   p.QualityGrade,
		"condition":       condition,
		"view_count":      p.ViewCount,
		"created_at":      p.CreatedAt,
	}
}

// List returns the market feed; ?seller_id= narrows to one seller.
func (h *ProductHandler) List(c *fiber.Ctx) error {
	sellerID := c.Query("seller_id")
	if sellerID != "" {
		if _, ok := validate.ID(sellerID); !ok {
			return badRequest(c, "invalid seller_id")
		}
	}
	page, _ := strconv.Atoi(c.Query("page", "1"))
	products, err := h.Catalog.ListProducts(sellerID, page, 12)
	if err != nil {
		return fail(c, "market.list", err)
	}
	views := make([]fiber.Map, 0, len(products))
	for _, p := range products {
		views = append(views, productView(p))
	}
	return c.JSON(fiber.Map{"products": views, "page": page})
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid product id")
	}
	p, err := h.Catalog.GetProduct(id)
	if err != nil {
		return fail(c, "market.detail", err)
	}
	return c.JSON(productView(p))
}
