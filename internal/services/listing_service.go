package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradeup/internal/apperr"
	"tradeup/internal/domain"
	"tradeup/internal/metrics"
	"tradeup/internal/pricing"
	"tradeup/internal/repos"
)

// ListingService runs the seller flow: draft, AI grading, estimate,
// publish, delist.
type ListingService struct {
	Catalog    *repos.CatalogRepo
	Products   *repos.ProductRepo
	Users      *repos.UserRepo
	Recognizer *RecognitionService
}

func NewListingService(catalog *repos.CatalogRepo, products *repos.ProductRepo, users *repos.UserRepo, rec *RecognitionService) *ListingService {
	return &ListingService{Catalog: catalog, Products: products, Users: users, Recognizer: rec}
}

// InitDraft hands the client an opaque key carried through the rest
// of the flow.
func (s *ListingService) InitDraft() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// EstimateRequest carries the validated inputs of one estimate call.
// GradeID wins over GradeLabel when both are set.
type EstimateRequest struct {
	CategoryID    string
	DeviceModelID string
	YearsUsed     float64
	OriginalPrice decimal.Decimal
	GradeID       string
	GradeLabel    string
	Defects       []string
}

// EstimateResult is the stored valuation snapshot, monetary fields as
// decimal strings for transport.
type EstimateResult struct {
	CategoryCode  string  `json:"category_code"`
	GradeLabel    string  `json:"grade_label"`
	GradeFactor   string  `json:"grade_factor"`
	EstimatedMin  string  `json:"estimated_min"`
	EstimatedMid  string  `json:"estimated_mid"`
	EstimatedMax  string  `json:"estimated_max"`
	Volatility    float64 `json:"volatility"`
	AgeFactor     float64 `json:"age_factor"`
	DefectPenalty float64 `json:"defect_penalty"`

	est pricing.Estimate // keeps full precision for internal reuse
}

// defaultGradeFactor applies when no condition grade matches.
var defaultGradeFactor = decimal.RequireFromString("0.75")

// Estimate resolves catalog inputs and runs the pricing engine.
func (s *ListingService) Estimate(req EstimateRequest) (EstimateResult, error) {
	if req.YearsUsed < 0 {
		return EstimateResult{}, apperr.InvalidArgumentf("years_used must be >= 0")
	}
	if !req.OriginalPrice.IsPositive() {
		return EstimateResult{}, apperr.InvalidArgumentf("original_price must be positive")
	}

	var (
		cat domain.Category
		err error
	)
	if req.CategoryID != "" {
		cat, err = s.Catalog.CategoryByID(req.CategoryID)
	} else if req.DeviceModelID != "" {
		// Model implies category when the client sends only the model.
		cat, err = s.Catalog.CategoryOfModel(req.DeviceModelID)
	} else {
		return EstimateResult{}, apperr.InvalidArgumentf("category_id or device_model_id is required")
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return EstimateResult{}, apperr.NotFound("category")
		}
		return EstimateResult{}, err
	}

	gradeLabel := strings.TrimSpace(req.GradeLabel)
	gradeFactor := defaultGradeFactor
	if req.GradeID != "" {
		g, err := s.Catalog.GradeByID(req.GradeID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return EstimateResult{}, apperr.NotFound("condition grade")
			}
			return EstimateResult{}, err
		}
		gradeLabel, gradeFactor = g.Label, g.Factor
	} else if gradeLabel != "" {
		if g, err := s.Catalog.GradeByLabel(cat.ID, gradeLabel); err == nil {
			gradeFactor = g.Factor
		}
	}

	penalty := pricing.DefectPenalty(len(req.Defects))
	est := pricing.EstimateRange(req.OriginalPrice, req.YearsUsed, gradeFactor, penalty, cat.Code)

	return EstimateResult{
		CategoryCode:  cat.Code,
		GradeLabel:    gradeLabel,
		GradeFactor:   gradeFactor.String(),
		EstimatedMin:  est.Min.StringFixed(2),
		EstimatedMid:  est.Mid.StringFixed(2),
		EstimatedMax:  est.Max.StringFixed(2),
		Volatility:    est.Volatility,
		AgeFactor:     est.AgeFactor,
		DefectPenalty: est.DefectPenalty,
		est:           est,
	}, nil
}

type PublishRequest struct {
	EstimateRequest
	Title        string
	Description  string
	SellingPrice decimal.Decimal
}

type PublishResult struct {
	ProductID    string  `json:"product_id"`
	EstimatedMin string  `json:"estimated_min"`
	EstimatedMid string  `json:"estimated_mid"`
	EstimatedMax string  `json:"estimated_max"`
	MarketTag    string  `json:"market_tag"`
	DiffPct      float64 `json:"diff_pct"`
	ValueScore   float64 `json:"value_score"`
}

// conditionSnapshot is what publish freezes into the product row.
type conditionSnapshot struct {
	CategoryID    string   `json:"category_id"`
	YearsUsed     float64  `json:"years_used"`
	OriginalPrice string   `json:"original_price"`
	GradeLabel    string   `json:"grade_label"`
	Defects       []string `json:"defects"`
	MarketTag     string   `json:"market_tag"`
	DiffPct       float64  `json:"diff_pct"`
	ValueScore    float64  `json:"value_score"`
}

// Publish re-runs the estimate, positions the asking price against it
// and creates the product directly on sale. Sellers below the trade
// threshold cannot list.
func (s *ListingService) Publish(sellerID string, req PublishRequest) (PublishResult, error) {
	seller, err := s.Users.ByID(sellerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PublishResult{}, apperr.NotFound("user")
		}
		return PublishResult{}, err
	}
	if !domain.CanTrade(seller.CreditScore) {
		return PublishResult{}, apperr.PermissionDenied("credit score below trading threshold")
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return PublishResult{}, apperr.InvalidArgumentf("title is required")
	}
	if req.DeviceModelID == "" {
		return PublishResult{}, apperr.InvalidArgumentf("device model is required")
	}
	if _, err := s.Catalog.DeviceModelByID(req.DeviceModelID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PublishResult{}, apperr.NotFound("device model")
		}
		return PublishResult{}, err
	}
	if !req.SellingPrice.IsPositive() {
		return PublishResult{}, apperr.InvalidArgumentf("selling_price must be positive")
	}

	er, err := s.Estimate(req.EstimateRequest)
	if err != nil {
		return PublishResult{}, err
	}

	diffPct, marketTag := pricing.ComparePrice(req.SellingPrice, er.est.Min, er.est.Max)
	valueScore := pricing.ValueScore(diffPct)

	snap, _ := json.Marshal(conditionSnapshot{
		CategoryID:    req.CategoryID,
		YearsUsed:     req.YearsUsed,
		OriginalPrice: req.OriginalPrice.String(),
		GradeLabel:    er.GradeLabel,
		Defects:       req.Defects,
		MarketTag:     marketTag,
		DiffPct:       diffPct,
		ValueScore:    valueScore,
	})

	p := domain.Product{
		ID:             uuid.NewString(),
		SellerID:       sellerID,
		DeviceModelID:  req.DeviceModelID,
		Title:          req.Title,
		Description:    strings.TrimSpace(req.Description),
		EstimatedPrice: er.est.Mid,
		SellingPrice:   req.SellingPrice,
		Status:         domain.ProductOnSale,
		QualityGrade:   qualityGrade(er.GradeLabel),
		ConditionJSON:  string(snap),
	}
	if err := s.Products.Create(&p); err != nil {
		return PublishResult{}, err
	}
	metrics.ListingsPublished.Inc()

	return PublishResult{
		ProductID:    p.ID,
		EstimatedMin: er.EstimatedMin,
		EstimatedMid: er.EstimatedMid,
		EstimatedMax: er.EstimatedMax,
		MarketTag:    marketTag,
		DiffPct:      diffPct,
		ValueScore:   valueScore,
	}, nil
}

// qualityGrade buckets a grade label into the coarse A-D ladder shown
// in listings.
func qualityGrade(label string) string {
	switch label {
	case "like new":
		return "A"
	case "excellent":
		return "B"
	case "good":
		return "C"
	case "fair":
		return "D"
	default:
		return "B"
	}
}

// Delist takes a seller's own on-sale product off the market.
func (s *ListingService) Delist(sellerID, productID string) error {
	p, err := s.Products.Get(productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("product")
		}
		return err
	}
	if p.SellerID != sellerID {
		return apperr.PermissionDenied("only the seller may delist")
	}
	ok, err := s.Products.SetStatusIf(productID, domain.ProductOnSale, domain.ProductCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.InvalidState("only on-sale products can be delisted")
	}
	return nil
}
