package main

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"tradeup/internal/config"
	"tradeup/internal/http/handlers"
	applog "tradeup/internal/log"
	"tradeup/internal/metrics"
	"tradeup/internal/repos"
	"tradeup/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN, cfg.Seed)
	if err != nil {
		log.Fatal(err)
	}

	// Auth wiring
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}
	authH := &handlers.AuthHandler{Auth: authSvc}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "internal",
				"message": "something went wrong, please try again",
			})
		},
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	// Attach user to context if logged in, for audit fields
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
				c.Locals("user_id", u.ID)
			}
		}
		return c.Next()
	})
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/healthz" || c.Path() == "/metrics"
		},
	}))

	deps := handlers.NewDeps(db)
	mustUser := handlers.RequireUser(authSvc)
	mustAdmin := handlers.RequireAdmin(authSvc)

	api := app.Group("/api/v1")

	// Auth (login throttled)
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate_limited", "message": "too many attempts, try again later"})
		},
	}), authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/me", mustUser, authH.Me)

	// Catalog
	api.Get("/categories", deps.CatalogHandler.Categories)
	api.Get("/brands", deps.CatalogHandler.Brands)
	api.Get("/device-models", deps.CatalogHandler.DeviceModels)
	api.Get("/grades", deps.CatalogHandler.Grades)

	// Market browse
	api.Get("/products", deps.ProductHandler.List)
	api.Get("/products/:id", deps.ProductHandler.Detail)

	// Listings
	api.Post("/listings/draft", mustUser, deps.ListingHandler.InitDraft)
	api.Post("/listings/:draft_key/analyze", mustUser, deps.ListingHandler.Analyze)
	api.Post("/listings/estimate", mustUser, deps.ListingHandler.Estimate)
	api.Post("/listings", mustUser, deps.ListingHandler.Publish)
	api.Post("/listings/:id/delist", mustUser, deps.ListingHandler.Delist)

	// Orders
	api.Post("/orders", mustUser, deps.OrderHandler.CreateTrade)
	api.Get("/orders", mustUser, deps.OrderHandler.List)
	api.Get("/orders/:id", mustUser, deps.OrderHandler.View)
	api.Post("/orders/:id/pay", mustUser, deps.OrderHandler.Pay())
	api.Post("/orders/:id/cancel-payment", mustUser, deps.OrderHandler.CancelPayment())
	api.Post("/orders/:id/ship", mustUser, deps.OrderHandler.Ship())
	api.Post("/orders/:id/confirm-receipt", mustUser, deps.OrderHandler.ConfirmReceipt())
	api.Post("/orders/:id/refund", mustUser, deps.OrderHandler.Refund())
	api.Post("/orders/:id/complete", mustUser, deps.OrderHandler.Complete)

	// Credit
	api.Get("/credit/me", mustUser, deps.CreditHandler.Me)

	// Admin
	admin := api.Group("/admin", mustAdmin)
	admin.Get("/users", deps.AdminHandler.ListUsers)
	admin.Post("/users/:id/delete", deps.AdminHandler.DeleteUser)
	admin.Post("/credit/events", deps.CreditHandler.ApplyEvent)
	admin.Post("/credit/adjust", deps.CreditHandler.Adjust)

	// Ops endpoints
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "no such route"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}
