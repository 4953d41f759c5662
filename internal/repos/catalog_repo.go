package repos

import (
	"github.com/jmoiron/sqlx"

	"tradeup/internal/domain"
)

// CatalogRepo reads the device reference data: categories, brands,
// models and condition grades. All of it is immutable at runtime.
type CatalogRepo struct{ db *sqlx.DB }

func NewCatalogRepo(db *sqlx.DB) *CatalogRepo { return &CatalogRepo{db: db} }

func (r *CatalogRepo) ListCategories() ([]domain.Category, error) {
	var out []domain.Category
	err := r.db.Select(&out, `SELECT id,name,code FROM categories ORDER BY name`)
	return out, err
}

func (r *CatalogRepo) CategoryByID(id string) (domain.Category, error) {
	var c domain.Category
	err := r.db.Get(&c, `SELECT id,name,code FROM categories WHERE id=?`, id)
	return c, err
}

func (r *CatalogRepo) ListBrands(categoryID string) ([]domain.Brand, error) {
	var out []domain.Brand
	err := r.db.Select(&out, `
	  SELECT id,category_id,name FROM brands
	  WHERE category_id = ?
	  ORDER BY name
	`, categoryID)
	return out, err
}

func (r *CatalogRepo) ListDeviceModels(categoryID string) ([]domain.DeviceModel, error) {
	var out []domain.DeviceModel
	err := r.db.Select(&out, `
	  SELECT d.id,d.brand_id,d.name,d.base_price,d.release_year,d.storage_spec,d.discontinued
	  FROM device_models d
	  JOIN brands b ON b.id = d.brand_id
	  WHERE b.category_id = ?
	  ORDER BY d.name
	`, categoryID)
	return out, err
}

func (r *CatalogRepo) DeviceModelByID(id string) (domain.DeviceModel, error) {
	var d domain.DeviceModel
	err := r.db.Get(&d, `
	  SELECT id,brand_id,name,base_price,release_year,storage_spec,discontinued
	  FROM device_models WHERE id=?
	`, id)
	return d, err
}

// CategoryOfModel resolves the category a device model belongs to.
func (r *CatalogRepo) CategoryOfModel(modelID string) (domain.Category, error) {
	var c domain.Category
	err := r.db.Get(&c, `
	  SELECT c.id,c.name,c.code
	  FROM device_models d
	  JOIN brands b ON b.id = d.brand_id
	  JOIN categories c ON c.id = b.category_id
	  WHERE d.id = ?
	`, modelID)
	return c, err
}

func (r *CatalogRepo) ListGrades(categoryID string) ([]domain.ConditionGrade, error) {
	var out []domain.ConditionGrade
	err := r.db.Select(&out, `
	  SELECT id,category_id,label,factor FROM condition_grades
	  WHERE category_id = ?
	  ORDER BY factor DESC
	`, categoryID)
	return out, err
}

func (r *CatalogRepo) GradeByID(id string) (domain.ConditionGrade, error) {
	var g domain.ConditionGrade
	err := r.db.Get(&g, `SELECT id,category_id,label,factor FROM condition_grades WHERE id=?`, id)
	return g, err
}

func (r *CatalogRepo) GradeByLabel(categoryID, label string) (domain.ConditionGrade, error) {
	var g domain.ConditionGrade
	err := r.db.Get(&g, `
	  SELECT id,category_id,label,factor FROM condition_grades
	  WHERE category_id = ? AND label = ?
	`, categoryID, label)
	return g, err
}
