package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tradeup/internal/services"
	"tradeup/internal/validate"
)

// CatalogHandler serves the device reference data used by the listing
// flow pickers.
type CatalogHandler struct {
	Catalog *services.CatalogService
}

func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories()
	if err != nil {
		return fail(c, "catalog.categories", err)
	}
	return c.JSON(fiber.Map{"categories": cats})
}

func (h *CatalogHandler) Brands(c *fiber.Ctx) error {
	catID, ok := validate.ID(c.Query("category_id"))
	if !ok {
		return badRequest(c, "invalid category_id")
	}
	brands, err := h.Catalog.ListBrands(catID)
	if err != nil {
		return fail(c, "catalog.brands", err)
	}
	return c.JSON(fiber.Map{"brands": brands})
}

func (h *CatalogHandler) DeviceModels(c *fiber.Ctx) error {
	catID, ok := validate.ID(c.Query("category_id"))
	if !ok {
		return badRequest(c, "invalid category_id")
	}
	models, err := h.Catalog.ListDeviceModels(catID)
	if err != nil {
		return fail(c, "catalog.models", err)
	}
	return c.JSON(fiber.Map{"device_models": models})
}

func (h *CatalogHandler) Grades(c *fiber.Ctx) error {
	catID, ok := validate.ID(c.Query("category_id"))
	if !ok {
		return badRequest(c, "invalid category_id")
	}
	grades, err := h.Catalog.ListGrades(catID)
	if err != nil {
		return fail(c, "catalog.grades", err)
	}
	return c.JSON(fiber.Map{"grades": grades})
}
