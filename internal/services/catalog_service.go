package services

import (
	"database/sql"
	"errors"

	"tradeup/internal/apperr"
	"tradeup/internal/domain"
	"tradeup/internal/repos"
)

// CatalogService serves the read-only device reference data and the
// market browse surface.
type CatalogService struct {
	Catalog  *repos.CatalogRepo
	Products *repos.ProductRepo
}

func NewCatalogService(catalog *repos.CatalogRepo, products *repos.ProductRepo) *CatalogService {
	return &CatalogService{Catalog: catalog, Products: products}
}

func (s *CatalogService) ListCategories() ([]domain.Category, error) {
	return s.Catalog.ListCategories()
}

func (s *CatalogService) ListBrands(categoryID string) ([]domain.Brand, error) {
	return s.Catalog.ListBrands(categoryID)
}

func (s *CatalogService) ListDeviceModels(categoryID string) ([]domain.DeviceModel, error) {
	return s.Catalog.ListDeviceModels(categoryID)
}

func (s *CatalogService) ListGrades(categoryID string) ([]domain.ConditionGrade, error) {
	return s.Catalog.ListGrades(categoryID)
}

// Market listing: all on-sale products, optionally one seller's.
func (s *CatalogService) ListProducts(sellerID string, page, pageSize int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 12
	}
	offset := (page - 1) * pageSize
	return s.Products.ListOnSale(sellerID, pageSize, offset)
}

// GetProduct returns a product and bumps its view counter.
func (s *CatalogService) GetProduct(id string) (domain.Product, error) {
	p, err := s.Products.Get(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, apperr.NotFound("product")
		}
		return domain.Product{}, err
	}
	_ = s.Products.BumpViewCount(id) // best effort
	return p, nil
}
