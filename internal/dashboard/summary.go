package dashboard

import (
	"sort"

	"mandi-backend/internal/apierr"
	"mandi-backend/internal/auth"
	"mandi-backend/internal/models"
	"mandi-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	recentLimit       = 5
	topCustomersLimit = 5
)

type CustomerActivity struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Balance          decimal.Decimal `json:"balance"`
	TransactionCount int             `json:"transaction_count"`
}

type Summary struct {
	TotalRevenue         decimal.Decimal          `json:"total_revenue"`
	TotalPaid            decimal.Decimal          `json:"total_paid"`
	TotalPending         decimal.Decimal          `json:"total_pending"`
	TransactionCount     int                      `json:"transaction_count"`
	CompletedCount       int                      `json:"completed_count"`
	PendingCount         int                      `json:"pending_count"`
	CancelledCount       int                      `json:"cancelled_count"`
	CustomerCount        int                      `json:"customer_count"`
	CustomersWithBalance int                      `json:"customers_with_balance"`
	RecentTransactions   []models.SaleTransaction `json:"recent_transactions"`
	TopCustomers         []CustomerActivity       `json:"top_customers"`
}

// BuildSummary expects sales newest first, as the store returns them.
// Cancelled sales are counted but excluded from the money totals.
func BuildSummary(customers []models.Customer, sales []models.SaleTransaction) Summary {
	s := Summary{
		TotalRevenue:       decimal.Zero,
		TotalPaid:          decimal.Zero,
		TransactionCount:   len(sales),
		CustomerCount:      len(customers),
		RecentTransactions: make([]models.SaleTransaction, 0, recentLimit),
		TopCustomers:       make([]CustomerActivity, 0, topCustomersLimit),
	}

	counts := make(map[string]int)
	for _, t := range sales {
		counts[t.CustomerID]++
		switch t.Status {
		case models.StatusCompleted:
			s.CompletedCount++
		case models.StatusPending:
			s.PendingCount++
		case models.StatusCancelled:
			s.CancelledCount++
			continue
		}
		s.TotalRevenue = s.TotalRevenue.Add(t.TotalAmount)
		s.TotalPaid = s.TotalPaid.Add(t.PaidAmount)
	}
	s.TotalPending = s.TotalRevenue.Sub(s.TotalPaid)

	if len(sales) > recentLimit {
		s.RecentTransactions = append(s.RecentTransactions, sales[:recentLimit]...)
	} else {
		s.RecentTransactions = append(s.RecentTransactions, sales...)
	}

	activity := make([]CustomerActivity, 0, len(customers))
	for _, c := range customers {
		if c.Balance.IsPositive() {
			s.CustomersWithBalance++
		}
		activity = append(activity, CustomerActivity{
			ID:               c.ID,
			Name:             c.Name,
			Balance:          c.Balance,
			TransactionCount: counts[c.ID],
		})
	}
	sort.SliceStable(activity, func(i, j int) bool {
		return activity[i].TransactionCount > activity[j].TransactionCount
	})
	if len(activity) > topCustomersLimit {
		activity = activity[:topCustomersLimit]
	}
	s.TopCustomers = append(s.TopCustomers, activity...)
	return s
}

// GET /api/dashboard
func SummaryHandler(st store.Store, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		customers, err := st.ListCustomers(c.UserContext(), ownerID, store.CustomerFilter{})
		if err != nil {
			return apierr.From(log, err)
		}
		sales, err := st.ListSales(c.UserContext(), ownerID, store.SaleFilter{})
		if err != nil {
			return apierr.From(log, err)
		}
		return c.JSON(BuildSummary(customers, sales))
	}
}
