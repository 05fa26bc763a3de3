package main

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"github.com/ruivenancio/finance-app/internal/auth"
	"github.com/ruivenancio/finance-app/internal/config"
	"github.com/ruivenancio/finance-app/internal/quotes"
	"github.com/ruivenancio/finance-app/internal/routes"
	"github.com/ruivenancio/finance-app/internal/service"
	"github.com/ruivenancio/finance-app/internal/storage/postgres"
)

func schedulePriceRefresh(spec string, stocks *service.StockService) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		updated, err := stocks.RefreshAllPrices(context.Background())
		if err != nil {
			log.Printf("scheduled price refresh failed: %v", err)
			return
		}
		log.Printf("scheduled price refresh updated %d stocks", updated)
	})
	if err != nil {
		log.Fatalf("invalid price refresh cron spec %q: %v", spec, err)
	}
	c.Start()
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	// API payloads carry amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer pool.Close()

	store := postgres.New(pool)
	if err := store.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("preparing schema: %v", err)
	}

	quoteClient := quotes.NewClient(cfg.QuoteAPIURL)
	stockSvc := service.NewStockService(store, quoteClient)

	if cfg.PriceSyncSpec != "" {
		schedulePriceRefresh(cfg.PriceSyncSpec, stockSvc)
	}

	r := routes.SetupRouter(routes.Services{
		Auth:         auth.NewService(store, cfg.JWTSecret, cfg.TokenTTL),
		Accounts:     service.NewAccountService(store),
		Categories:   service.NewCategoryService(store),
		Transactions: service.NewTransactionService(store),
		Stocks:       stockSvc,
		Dashboard:    service.NewDashboardService(store),
	})

	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
