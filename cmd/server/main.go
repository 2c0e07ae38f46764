package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/vardar-pos/api/internal/auth"
	"github.com/vardar-pos/api/internal/catalog"
	"github.com/vardar-pos/api/internal/config"
	"github.com/vardar-pos/api/internal/enum"
	"github.com/vardar-pos/api/internal/floorplan"
	"github.com/vardar-pos/api/internal/logging"
	"github.com/vardar-pos/api/internal/order"
	"github.com/vardar-pos/api/internal/printer"
	"github.com/vardar-pos/api/internal/router"
	"github.com/vardar-pos/api/internal/service"
	"github.com/vardar-pos/api/internal/store"
	"github.com/vardar-pos/api/internal/ws"
)

func main() {
	log := logging.New()

	if err := godotenv.Load(); err != nil {
		log.Debug(".env file not found, using process environment")
	}

	cfg := config.Load()
	if cfg.AdminCodeHash == "" {
		log.Fatal("admin code hash could not be derived")
	}

	var (
		cat  service.Catalog
		plan service.FloorPlan
		db   router.Pinger
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("unable to create connection pool")
		}
		defer pool.Close()
		if err := pool.Ping(context.Background()); err != nil {
			log.WithError(err).Fatal("unable to reach database")
		}
		cat = catalog.NewPostgres(pool)
		plan = floorplan.NewPostgres(pool)
		db = pool
		log.Info("using postgres catalog and floor plan")
	} else {
		mem := catalog.NewMemory(devMenu()...)
		for _, it := range mem.List() {
			log.WithField("id", it.ID).Infof("dev menu: %s (%s)", it.Name, it.Price.StringFixed(2))
		}
		cat = mem
		plan = floorplan.NewMemoryRange(order.MinDineIn, 40)
		log.Warn("DATABASE_URL not set, using built-in dev catalog and floor plan")
	}

	hub := ws.NewHub()
	go hub.Run()

	gate := auth.NewGate(cfg.AdminCodeHash, cfg.JWTSecret)
	svc := service.NewOrderService(store.New(), cat, plan, gate, printer.NewLog(log), log)

	r := router.New(cfg, svc, gate, hub, db, log)

	log.Infof("starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

// devMenu seeds a small menu so the API is usable without a database.
func devMenu() []catalog.MenuItem {
	return []catalog.MenuItem{
		{Name: "Espresso", Category: "Coffee", Price: decimal.NewFromInt(60), PrintDestination: enum.PrintDestBar, Available: true},
		{Name: "Cappuccino", Category: "Coffee", Price: decimal.NewFromInt(80), PrintDestination: enum.PrintDestBar, Available: true},
		{Name: "Cheesecake", Category: "Dessert", Price: decimal.NewFromInt(150), PrintDestination: enum.PrintDestKitchen, Available: true},
		{Name: "Club Sandwich", Category: "Food", Price: decimal.NewFromInt(220), PrintDestination: enum.PrintDestKitchen, Available: true},
		{Name: "Lemonade", Category: "Drinks", Price: decimal.NewFromInt(70), PrintDestination: enum.PrintDestBar, Available: true},
	}
}
