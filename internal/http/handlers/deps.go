package handlers

import (
	"github.com/jmoiron/sqlx"

	"tradeup/internal/repos"
	"tradeup/internal/services"
)

type Deps struct {
	CatalogHandler *CatalogHandler
	ProductHandler *ProductHandler
	ListingHandler *ListingHandler
	OrderHandler   *OrderHandler
	CreditHandler  *CreditHandler
	AdminHandler   *AdminHandler
}

func NewDeps(db *sqlx.DB) *Deps {
	userRepo := repos.NewUserRepo(db)
	catalogRepo := repos.NewCatalogRepo(db)
	prodRepo := repos.NewProductRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	creditRepo := repos.NewCreditRepo(db)

	creditSvc := services.NewCreditService(db, userRepo, creditRepo)
	catalogSvc := services.NewCatalogService(catalogRepo, prodRepo)
	listingSvc := services.NewListingService(catalogRepo, prodRepo, userRepo, services.NewRecognitionService())
	flowSvc := services.NewOrderService(db, orderRepo, prodRepo, userRepo, creditSvc)
	tradeSvc := services.NewTradeService(db, prodRepo, orderRepo, userRepo, flowSvc)

	return &Deps{
		CatalogHandler: &CatalogHandler{Catalog: catalogSvc},
		ProductHandler: &ProductHandler{Catalog: catalogSvc},
		ListingHandler: &ListingHandler{Listings: listingSvc},
		OrderHandler:   &OrderHandler{Trade: tradeSvc, Flow: flowSvc, Orders: orderRepo},
		CreditHandler:  &CreditHandler{Credit: creditSvc},
		AdminHandler:   &AdminHandler{Users: userRepo},
	}
}
