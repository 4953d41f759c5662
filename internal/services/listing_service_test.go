package services_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"tradeup/internal/apperr"
	"tradeup/internal/domain"
	"tradeup/internal/repos"
	"tradeup/internal/services"
)

func listingEnv(t *testing.T) (*services.ListingService, *repos.ProductRepo, func() *services.ListingService) {
	t.Helper()
	db := memdb(t)
	seedUser(t, db, "seller", 100)
	seedCatalog(t, db)
	prodRepo := repos.NewProductRepo(db)
	svc := services.NewListingService(repos.NewCatalogRepo(db), prodRepo,
		repos.NewUserRepo(db), services.NewRecognitionService())
	addDeadbeat := func() *services.ListingService {
		seedUser(t, db, "deadbeat", 40)
		return svc
	}
	return svc, prodRepo, addDeadbeat
}

func approx(t *testing.T, got string, want, tol float64) {
	t.Helper()
	f, err := strconv.ParseFloat(got, 64)
	if err != nil {
		t.Fatalf("not a number: %q", got)
	}
	if f < want-tol || f > want+tol {
		t.Fatalf("got %s, want about %v", got, want)
	}
}

func TestEstimate(t *testing.T) {
	svc, _, _ := listingEnv(t)

	res, err := svc.Estimate(services.EstimateRequest{
		CategoryID:    "cat-1",
		DeviceModelID: "dm-1",
		YearsUsed:     2,
		OriginalPrice: decimal.NewFromInt(6000),
		GradeID:       "gr-excellent",
		Defects:       []string{"faint screen scratches"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.CategoryCode != "mobile" {
		t.Fatalf("category code = %q", res.CategoryCode)
	}
	if res.GradeLabel != "excellent" || res.GradeFactor != "0.83" {
		t.Fatalf("grade = %q / %q", res.GradeLabel, res.GradeFactor)
	}
	approx(t, res.EstimatedMid, 2275.16, 0.05)
	approx(t, res.EstimatedMin, 1987.58, 0.05)
	approx(t, res.EstimatedMax, 2562.73, 0.05)
}

func TestEstimate_GradeLabelFallback(t *testing.T) {
	svc, _, _ := listingEnv(t)

	res, err := svc.Estimate(services.EstimateRequest{
		CategoryID:    "cat-1",
		YearsUsed:     1,
		OriginalPrice: decimal.NewFromInt(1000),
		GradeLabel:    "good",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.GradeFactor != "0.75" {
		t.Fatalf("factor = %q", res.GradeFactor)
	}
}

func TestEstimate_CategoryImpliedByModel(t *testing.T) {
	svc, _, _ := listingEnv(t)

	res, err := svc.Estimate(services.EstimateRequest{
		DeviceModelID: "dm-1",
		YearsUsed:     1,
		OriginalPrice: decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.CategoryCode != "mobile" {
		t.Fatalf("category code = %q", res.CategoryCode)
	}

	_, err = svc.Estimate(services.EstimateRequest{
		YearsUsed:     1,
		OriginalPrice: decimal.NewFromInt(1000),
	})
	if !apperr.Is(err, apperr.CodeInvalidArgument) {
		t.Fatalf("no category and no model: %v", err)
	}
}

func TestEstimate_Rejections(t *testing.T) {
	svc, _, _ := listingEnv(t)

	_, err := svc.Estimate(services.EstimateRequest{
		CategoryID: "cat-1", YearsUsed: -1, OriginalPrice: decimal.NewFromInt(1000),
	})
	if !apperr.Is(err, apperr.CodeInvalidArgument) {
		t.Fatalf("negative years: %v", err)
	}

	_, err = svc.Estimate(services.EstimateRequest{
		CategoryID: "cat-1", YearsUsed: 1, OriginalPrice: decimal.Zero,
	})
	if !apperr.Is(err, apperr.CodeInvalidArgument) {
		t.Fatalf("zero price: %v", err)
	}

	_, err = svc.Estimate(services.EstimateRequest{
		CategoryID: "nope", YearsUsed: 1, OriginalPrice: decimal.NewFromInt(1000),
	})
	if !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("unknown category: %v", err)
	}
}

func TestPublishAndDelist(t *testing.T) {
	svc, prodRepo, _ := listingEnv(t)

	req := services.PublishRequest{
		EstimateRequest: services.EstimateRequest{
			CategoryID:    "cat-1",
			DeviceModelID: "dm-1",
			YearsUsed:     2,
			OriginalPrice: decimal.NewFromInt(6000),
			GradeID:       "gr-excellent",
		},
		Title:        "iPhone 13 128G, light use",
		Description:  "bought new, always in a case",
		SellingPrice: decimal.NewFromInt(2200),
	}
	res, err := svc.Publish("seller", req)
	if err != nil {
		t.Fatal(err)
	}
	if res.MarketTag != "within reasonable range" {
		t.Fatalf("tag = %q", res.MarketTag)
	}
	if res.ValueScore != 100 {
		t.Fatalf("value score = %v", res.ValueScore)
	}

	p, err := prodRepo.Get(res.ProductID)
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != domain.ProductOnSale {
		t.Fatalf("status = %q", p.Status)
	}
	if p.QualityGrade != "B" {
		t.Fatalf("quality grade = %q", p.QualityGrade)
	}
	if !strings.Contains(p.ConditionJSON, "within reasonable range") {
		t.Fatalf("condition snapshot = %s", p.ConditionJSON)
	}

	// Only the owner may delist, and only once.
	if err := svc.Delist("someone-else", p.ID); !apperr.Is(err, apperr.CodePermissionDenied) {
		t.Fatalf("stranger delist: %v", err)
	}
	if err := svc.Delist("seller", p.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delist("seller", p.ID); !apperr.Is(err, apperr.CodeInvalidState) {
		t.Fatalf("second delist: %v", err)
	}
}

func TestPublish_Overpriced(t *testing.T) {
	svc, _, _ := listingEnv(t)

	res, err := svc.Publish("seller", services.PublishRequest{
		EstimateRequest: services.EstimateRequest{
			CategoryID:    "cat-1",
			DeviceModelID: "dm-1",
			YearsUsed:     2,
			OriginalPrice: decimal.NewFromInt(6000),
			GradeID:       "gr-excellent",
		},
		Title:        "iPhone 13, collectors price",
		SellingPrice: decimal.NewFromInt(5000),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(res.MarketTag, "above market by ") {
		t.Fatalf("tag = %q", res.MarketTag)
	}
	if res.ValueScore >= 100 {
		t.Fatalf("value score = %v", res.ValueScore)
	}
}

func TestPublish_Gates(t *testing.T) {
	svc, _, addDeadbeat := listingEnv(t)
	addDeadbeat()

	base := services.PublishRequest{
		EstimateRequest: services.EstimateRequest{
			CategoryID:    "cat-1",
			DeviceModelID: "dm-1",
			YearsUsed:     2,
			OriginalPrice: decimal.NewFromInt(6000),
		},
		Title:        "ok title",
		SellingPrice: decimal.NewFromInt(2000),
	}

	if _, err := svc.Publish("deadbeat", base); !apperr.Is(err, apperr.CodePermissionDenied) {
		t.Fatalf("low credit: %v", err)
	}

	noTitle := base
	noTitle.Title = "  "
	if _, err := svc.Publish("seller", noTitle); !apperr.Is(err, apperr.CodeInvalidArgument) {
		t.Fatalf("blank title: %v", err)
	}

	badModel := base
	badModel.DeviceModelID = "dm-ghost"
	if _, err := svc.Publish("seller", badModel); !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("unknown model: %v", err)
	}

	freebie := base
	freebie.SellingPrice = decimal.Zero
	if _, err := svc.Publish("seller", freebie); !apperr.Is(err, apperr.CodeInvalidArgument) {
		t.Fatalf("zero price: %v", err)
	}
}

func TestRecognitionIsStable(t *testing.T) {
	rec := services.NewRecognitionService()
	key := "draft-abc123"
	a := rec.Analyze(key)
	b := rec.Analyze(key)
	if a.GradeLabel != b.GradeLabel || a.GradeScore != b.GradeScore || len(a.Defects) != len(b.Defects) {
		t.Fatalf("unstable analysis: %+v vs %+v", a, b)
	}
	switch a.GradeLabel {
	case "like new", "excellent", "good":
	default:
		t.Fatalf("grade label = %q", a.GradeLabel)
	}
	if len(a.Defects) > 2 {
		t.Fatalf("defects = %v", a.Defects)
	}
}
