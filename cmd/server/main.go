package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"mandi-backend/internal/audit"
	"mandi-backend/internal/auth"
	"mandi-backend/internal/config"
	"mandi-backend/internal/customers"
	"mandi-backend/internal/dashboard"
	"mandi-backend/internal/database"
	"mandi-backend/internal/fruits"
	"mandi-backend/internal/ledger"
	"mandi-backend/internal/realtime"
	"mandi-backend/internal/receipt"
	"mandi-backend/internal/reports"
	"mandi-backend/internal/sales"
	"mandi-backend/internal/store"
	"mandi-backend/internal/trays"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := config.NewLogger(cfg.LogLevel)
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.WithError(err).WithField("timezone", cfg.Timezone).Fatal("unknown timezone")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	st := store.NewGormStore(db)

	hub := realtime.NewHub(log)
	var opts []ledger.Option

	rdb, locker, err := database.OpenRedis(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("redis unavailable")
	}
	if rdb != nil {
		defer rdb.Close()
		bridge := realtime.NewRedisBridge(rdb, cfg.EventChannel, hub, log)
		go func() {
			if err := bridge.Run(ctx); err != nil {
				log.WithError(err).Error("change event bridge stopped")
			}
		}()
		opts = append(opts, ledger.WithLocker(locker))
	}

	svc := ledger.NewService(st, hub, log, cfg.OverpaymentPolicy, opts...)
	formatter := receipt.NewFormatter(cfg.ShopName, loc)
	dispatcher := receipt.NewDispatcher(cfg.WhatsAppBaseURL, cfg.PhoneRegion)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var e *fiber.Error
			if errors.As(err, &e) {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.WithError(err).Error("unexpected error")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal server error",
			})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register", auth.RegisterHandler(cfg, st, log))
	api.Post("/auth/login", auth.LoginHandler(cfg, st))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler(st))

	// Change stream
	protected.Get("/events", realtime.StreamHandler(hub, log))

	// Customers
	protected.Post("/customers", customers.CreateCustomerHandler(svc, log))
	protected.Get("/customers", customers.ListCustomersHandler(st, log))
	protected.Get("/customers/:id", customers.GetCustomerHandler(st, log))
	protected.Put("/customers/:id", customers.UpdateCustomerHandler(svc, log))
	protected.Put("/customers/:id/visibility", customers.SetVisibilityHandler(svc, log))
	protected.Delete("/customers/:id", customers.DeleteCustomerHandler(svc, log))

	// Fruits & categories
	protected.Get("/fruits", fruits.ListFruitsHandler(st, log))
	protected.Post("/fruits", fruits.CreateFruitHandler(st, hub, log))
	protected.Get("/fruits/:id", fruits.GetFruitHandler(st, log))
	protected.Put("/fruits/:id", fruits.UpdateFruitHandler(st, hub, log))
	protected.Delete("/fruits/:id", fruits.DeleteFruitHandler(st, hub, log))
	protected.Get("/fruits/:id/categories", fruits.ListCategoriesHandler(st, log))
	protected.Post("/fruits/:id/categories", fruits.CreateCategoryHandler(st, hub, log))
	protected.Get("/fruit-categories", fruits.ListCategoriesHandler(st, log))
	protected.Put("/fruit-categories/:id", fruits.UpdateCategoryHandler(st, hub, log))
	protected.Delete("/fruit-categories/:id", fruits.DeleteCategoryHandler(st, hub, log))

	// Sales
	protected.Post("/transactions", sales.CreateSaleHandler(svc, log))
	protected.Get("/transactions", sales.ListSalesHandler(st, log))
	protected.Get("/transactions/:id", sales.GetSaleHandler(st, log))
	protected.Put("/transactions/:id/payment", sales.UpdatePaymentHandler(svc, log))
	protected.Post("/transactions/:id/cancel", sales.CancelSaleHandler(svc, log))
	protected.Get("/transactions/:id/receipt", sales.ReceiptHandler(st, formatter, log))
	protected.Post("/transactions/:id/receipt/send", sales.SendReceiptHandler(st, formatter, dispatcher, log))

	// Trays
	protected.Post("/trays", trays.CreateTrayHandler(svc, log))
	protected.Get("/trays", trays.ListTraysHandler(st, log))
	protected.Put("/trays/:id", trays.UpdateTrayHandler(svc, log))
	protected.Put("/trays/:id/payment", trays.UpdatePaymentHandler(svc, log))
	protected.Put("/trays/:id/status", trays.UpdateStatusHandler(svc, log))

	// Dashboard & reports
	protected.Get("/dashboard", dashboard.SummaryHandler(st, log))
	protected.Get("/dashboard/chart", dashboard.ChartHandler(st, loc, log))
	protected.Get("/reports", reports.ReportHandler(st, loc, log))
	protected.Get("/reports/export", reports.ExportHandler(st, loc, log))

	// Ledger checks
	protected.Post("/ledger/reconcile", customers.ReconcileHandler(svc, log))
	protected.Get("/ledger/discrepancies", audit.ListDiscrepanciesHandler(st))

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("shutdown")
		}
	}()

	log.WithField("port", cfg.HTTPPort).Info("server listening")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
