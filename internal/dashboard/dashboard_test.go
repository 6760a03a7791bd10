package dashboard

import (
	"testing"
	"time"

	"mandi-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sale(customer string, total, paid string, status models.TransactionStatus, at time.Time) models.SaleTransaction {
	return models.SaleTransaction{
		ID:          customer + at.Format("150405.000"),
		CustomerID:  customer,
		TotalAmount: dec(total),
		PaidAmount:  dec(paid),
		Status:      status,
		CreatedAt:   at,
	}
}

func TestBuildSummary(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	customers := []models.Customer{
		{ID: "a", Name: "Anil", Balance: dec("300")},
		{ID: "b", Name: "Bina", Balance: dec("0")},
		{ID: "c", Name: "Chetan", Balance: dec("50")},
	}
	sales := []models.SaleTransaction{
		sale("b", "100", "100", models.StatusCompleted, now),
		sale("a", "500", "200", models.StatusPending, now.Add(-time.Hour)),
		sale("c", "80", "30", models.StatusPending, now.Add(-2*time.Hour)),
		sale("b", "40", "0", models.StatusCancelled, now.Add(-3*time.Hour)),
		sale("b", "60", "60", models.StatusCompleted, now.Add(-4*time.Hour)),
		sale("b", "20", "20", models.StatusCompleted, now.Add(-5*time.Hour)),
	}

	s := BuildSummary(customers, sales)

	assert.True(t, s.TotalRevenue.Equal(dec("760")), s.TotalRevenue.String())
	assert.True(t, s.TotalPaid.Equal(dec("410")), s.TotalPaid.String())
	assert.True(t, s.TotalPending.Equal(dec("350")), s.TotalPending.String())
	assert.Equal(t, 6, s.TransactionCount)
	assert.Equal(t, 3, s.CompletedCount)
	assert.Equal(t, 2, s.PendingCount)
	assert.Equal(t, 1, s.CancelledCount)
	assert.Equal(t, 3, s.CustomerCount)
	assert.Equal(t, 2, s.CustomersWithBalance)

	require.Len(t, s.RecentTransactions, 5)
	assert.Equal(t, sales[0].ID, s.RecentTransactions[0].ID)

	require.Len(t, s.TopCustomers, 3)
	assert.Equal(t, "b", s.TopCustomers[0].ID)
	assert.Equal(t, 4, s.TopCustomers[0].TransactionCount)
}

func TestBuildSummaryEmpty(t *testing.T) {
	s := BuildSummary(nil, nil)
	assert.True(t, s.TotalPending.IsZero())
	assert.NotNil(t, s.RecentTransactions)
	assert.NotNil(t, s.TopCustomers)
}

func TestBuildChartDaily(t *testing.T) {
	now := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)
	sales := []models.SaleTransaction{
		sale("a", "100", "40", models.StatusPending, now),
		sale("a", "50", "50", models.StatusCompleted, now.AddDate(0, 0, -1)),
		sale("a", "70", "0", models.StatusCancelled, now.AddDate(0, 0, -1)),
		sale("a", "999", "0", models.StatusPending, now.AddDate(0, 0, -30)),
	}

	ch := BuildChart(sales, "daily", 7, now, time.UTC)

	assert.Equal(t, "2024-03-04", ch.From)
	assert.Equal(t, "2024-03-10", ch.To)
	require.Len(t, ch.Points, 7)
	assert.Equal(t, "2024-03-10", ch.Points[6].Label)
	assert.True(t, ch.Points[6].Pending.Equal(dec("60")))
	assert.True(t, ch.Points[5].Revenue.Equal(dec("50")))
	assert.True(t, ch.Points[0].Revenue.IsZero())
	assert.True(t, ch.GrandTotals.Revenue.Equal(dec("150")))
	assert.True(t, ch.GrandTotals.Collected.Equal(dec("90")))
}

func TestBuildChartWeeklyAndMonthly(t *testing.T) {
	// Sunday
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	weekly := BuildChart(nil, "weekly", 0, now, time.UTC)
	require.Len(t, weekly.Points, 8)
	assert.Equal(t, "2024-03-04", weekly.Points[7].Label)
	assert.Equal(t, "2024-03-10", weekly.To)

	monthly := BuildChart(nil, "monthly", 3, now, time.UTC)
	require.Len(t, monthly.Points, 3)
	assert.Equal(t, "2024-01-01", monthly.From)
	assert.Equal(t, "2024-03-31", monthly.To)
}

func TestBuildChartUsesLocation(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, ist)
	// 20:00 UTC on the 9th is already the 10th in IST.
	at := time.Date(2024, 3, 9, 20, 0, 0, 0, time.UTC)

	ch := BuildChart([]models.SaleTransaction{sale("a", "10", "0", models.StatusPending, at)}, "daily", 2, now, ist)
	assert.True(t, ch.Points[1].Revenue.Equal(dec("10")))
	assert.True(t, ch.Points[0].Revenue.IsZero())
}
