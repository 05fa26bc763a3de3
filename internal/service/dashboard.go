package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ruivenancio/finance-app/internal/storage"
	"github.com/ruivenancio/finance-app/models"
)

// DashboardService is read-only aggregation over the other entities.
type DashboardService struct {
	store storage.Store
	now   func() time.Time
}

func NewDashboardService(store storage.Store) *DashboardService {
	return &DashboardService{store: store, now: time.Now}
}

type MonthlyStat struct {
	Month    string          `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

type Summary struct {
	TotalBalance       decimal.Decimal      `json:"totalBalance"`
	AccountCount       int                  `json:"accountCount"`
	MonthlyIncome      decimal.Decimal      `json:"monthlyIncome"`
	MonthlyExpenses    decimal.Decimal      `json:"monthlyExpenses"`
	TotalBudget        decimal.Decimal      `json:"totalBudget"`
	RecentTransactions []models.Transaction `json:"recentTransactions"`
	MonthlyStats       []MonthlyStat        `json:"monthlyStats"`
}

func (s *DashboardService) Budgets(ctx context.Context, userID string, year int) ([]models.Budget, error) {
	if year == 0 {
		year = s.now().Year()
	}
	return s.store.ListBudgets(ctx, userID, year)
}

// Summary aggregates total balance, current-month income/expense, the
// year's budget, the five most recent transactions and a 12-month
// income/expense series. Income and expense sums follow the linked
// category's type; uncategorized transactions stay out of both.
func (s *DashboardService) Summary(ctx context.Context, userID string) (*Summary, error) {
	now := s.now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	startOfYear := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())

	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	totalBalance := decimal.Zero
	for _, a := range accounts {
		totalBalance = totalBalance.Add(a.Balance)
	}

	monthly, err := s.store.ListTransactionsSince(ctx, userID, startOfMonth)
	if err != nil {
		return nil, err
	}
	monthlyIncome, monthlyExpenses := decimal.Zero, decimal.Zero
	for _, t := range monthly {
		switch categoryType(t) {
		case models.CategoryIncome:
			monthlyIncome = monthlyIncome.Add(t.Amount)
		case models.CategoryExpense:
			monthlyExpenses = monthlyExpenses.Add(t.Amount)
		}
	}

	budgets, err := s.store.ListBudgets(ctx, userID, now.Year())
	if err != nil {
		return nil, err
	}
	totalBudget := decimal.Zero
	for _, b := range budgets {
		totalBudget = totalBudget.Add(b.Amount)
	}

	recent, err := s.store.ListRecentTransactions(ctx, userID, 5)
	if err != nil {
		return nil, err
	}

	yearly, err := s.store.ListTransactionsSince(ctx, userID, startOfYear)
	if err != nil {
		return nil, err
	}
	stats := make([]MonthlyStat, 0, 12)
	for m := time.January; m <= time.December; m++ {
		income, expenses := decimal.Zero, decimal.Zero
		for _, t := range yearly {
			if t.Date.Month() != m || t.Date.Year() != now.Year() {
				continue
			}
			switch categoryType(t) {
			case models.CategoryIncome:
				income = income.Add(t.Amount)
			case models.CategoryExpense:
				expenses = expenses.Add(t.Amount.Abs())
			}
		}
		stats = append(stats, MonthlyStat{
			Month:    time.Date(now.Year(), m, 1, 0, 0, 0, 0, time.UTC).Format("Jan"),
			Income:   income,
			Expenses: expenses,
		})
	}

	return &Summary{
		TotalBalance:       totalBalance,
		AccountCount:       len(accounts),
		MonthlyIncome:      monthlyIncome,
		MonthlyExpenses:    monthlyExpenses,
		TotalBudget:        totalBudget,
		RecentTransactions: recent,
		MonthlyStats:       stats,
	}, nil
}

func categoryType(t models.Transaction) models.CategoryType {
	if t.Category == nil {
		return ""
	}
	return t.Category.Type
}
