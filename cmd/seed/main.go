// Command seed fills the database with demo data: one user with a few
// accounts, categories and a month of transactions. Handy for trying
// the dashboard without typing everything in by hand.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/ruivenancio/finance-app/internal/auth"
	"github.com/ruivenancio/finance-app/internal/config"
	"github.com/ruivenancio/finance-app/internal/quotes"
	"github.com/ruivenancio/finance-app/internal/service"
	"github.com/ruivenancio/finance-app/internal/storage/postgres"
	"github.com/ruivenancio/finance-app/models"
)

func main() {
	email := flag.String("email", "demo@example.com", "demo user email")
	password := flag.String("password", "demo1234", "demo user password")
	transactions := flag.Int("transactions", 40, "number of transactions to generate")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer pool.Close()

	store := postgres.New(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("preparing schema: %v", err)
	}

	authSvc := auth.NewService(store, cfg.JWTSecret, cfg.TokenTTL)
	user, err := authSvc.Register(ctx, *email, *password)
	if err != nil {
		log.Fatalf("creating demo user: %v", err)
	}
	log.Printf("created user %s", user.Email)

	accountSvc := service.NewAccountService(store)
	categorySvc := service.NewCategoryService(store)
	transactionSvc := service.NewTransactionService(store)
	stockSvc := service.NewStockService(store, quotes.Static{
		"AAPL": decimal.NewFromFloat(189.50),
		"MSFT": decimal.NewFromFloat(415.20),
		"VTI":  decimal.NewFromFloat(262.10),
	})

	checking, err := accountSvc.Create(ctx, user.ID, "Checking", models.AccountBank, decimal.NewFromInt(2500))
	if err != nil {
		log.Fatalf("creating account: %v", err)
	}
	brokerage, err := accountSvc.Create(ctx, user.ID, "Brokerage", models.AccountStock, decimal.NewFromInt(10000))
	if err != nil {
		log.Fatalf("creating account: %v", err)
	}
	if _, err := accountSvc.Create(ctx, user.ID, "Credit Card", models.AccountCard, decimal.Zero); err != nil {
		log.Fatalf("creating account: %v", err)
	}

	salary, err := categorySvc.Create(ctx, user.ID, "Salary", models.CategoryIncome, nil)
	if err != nil {
		log.Fatalf("creating category: %v", err)
	}
	var expenses []*models.Category
	for _, name := range []string{"Groceries", "Rent", "Transport", "Eating Out"} {
		cat, err := categorySvc.Create(ctx, user.ID, name, models.CategoryExpense, nil)
		if err != nil {
			log.Fatalf("creating category: %v", err)
		}
		expenses = append(expenses, cat)
	}

	for i := 0; i < *transactions; i++ {
		cat := expenses[rand.Intn(len(expenses))]
		amount := decimal.NewFromFloat(gofakeit.Price(5, 250)).Neg()
		if rand.Intn(10) == 0 {
			cat = salary
			amount = decimal.NewFromFloat(gofakeit.Price(1500, 3500))
		}
		_, err := transactionSvc.Create(ctx, user.ID, service.TransactionInput{
			Date:        time.Now().AddDate(0, 0, -rand.Intn(60)),
			Amount:      amount,
			Description: gofakeit.Sentence(4),
			AccountID:   checking.ID,
			CategoryID:  &cat.ID,
		})
		if err != nil {
			log.Fatalf("creating transaction: %v", err)
		}
	}
	log.Printf("created %d transactions", *transactions)

	holding, err := stockSvc.Create(ctx, user.ID, service.StockInput{
		Symbol:    "AAPL",
		AccountID: brokerage.ID,
	})
	if err != nil {
		log.Fatalf("creating stock: %v", err)
	}
	qty := decimal.NewFromInt(10)
	if _, err := stockSvc.CreateTransaction(ctx, user.ID, holding.ID, service.StockTransactionInput{
		Type:     models.StockBuy,
		Quantity: &qty,
		Amount:   decimal.NewFromInt(1850),
		Date:     time.Now().AddDate(0, -1, 0),
	}); err != nil {
		log.Fatalf("creating stock transaction: %v", err)
	}

	fmt.Printf("seeded demo data for %s (password %q)\n", *email, *password)
}
