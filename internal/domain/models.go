package domain

import "github.com/shopspring/decimal"

type Category struct {
	ID   string `db:"id"`
	Name string `db:"name"`
	Code string `db:"code"` // pricing key, e.g. "mobile"
}

type Brand struct {
	ID         string `db:"id"`
	CategoryID string `db:"category_id"`
	Name       string `db:"name"`
}

// DeviceModel is immutable reference data for the pricing engine.
type DeviceModel struct {
	ID           string          `db:"id"`
	BrandID      string          `db:"brand_id"`
	Name         string          `db:"name"`
	BasePrice    decimal.Decimal `db:"base_price"`
	ReleaseYear  int             `db:"release_year"`
	StorageSpec  string          `db:"storage_spec"`
	Discontinued bool            `db:"discontinued"`
}

// ConditionGrade maps a per-category label ("like new", "worn") to a
// price multiplier in (0,1].
type ConditionGrade struct {
	ID         string          `db:"id"`
	CategoryID string          `db:"category_id"`
	Label      string          `db:"label"`
	Factor     decimal.Decimal `db:"factor"`
}

// Product statuses. A product is a single unique item; its status is
// its inventory.
const (
	ProductDraft     = "draft"
	ProductOnSale    = "on_sale"
	ProductLocked    = "locked"
	ProductSold      = "sold"
	ProductCancelled = "cancelled"
)

type Product struct {
	ID             string          `db:"id"`
	SellerID       string          `db:"seller_id"`
	DeviceModelID  string          `db:"device_model_id"`
	Title          string          `db:"title"`
	Description    string          `db:"description"`
	EstimatedPrice decimal.Decimal `db:"estimated_price"`
	SellingPrice   decimal.Decimal `db:"selling_price"`
	Status         string          `db:"status"`
	QualityGrade   string          `db:"quality_grade"`
	ConditionJSON  string          `db:"condition_json"` // valuation snapshot at publish
	ViewCount      int             `db:"view_count"`
	CreatedAt      string          `db:"created_at"`
	UpdatedAt      string          `db:"updated_at"`
}

type Order struct {
	ID           string          `db:"id"`
	OrderNo      string          `db:"order_no"`
	BuyerID      string          `db:"buyer_id"`
	ProductID    string          `db:"product_id"`
	Amount       decimal.Decimal `db:"amount"`
	Status       OrderStatus     `db:"status"`
	PayTime      string          `db:"pay_time"`
	ShipTime     string          `db:"ship_time"`
	CompleteTime string          `db:"complete_time"`
	CancelTime   string          `db:"cancel_time"`
	BuyerMessage string          `db:"buyer_message"`
	CreatedAt    string          `db:"created_at"`
	UpdatedAt    string          `db:"updated_at"`
}
