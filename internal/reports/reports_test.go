package reports

import (
	"testing"
	"time"

	"mandi-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fixture(now time.Time) []models.SaleTransaction {
	apple := &models.Fruit{ID: "f1", Name: "Apple"}
	mango := &models.Fruit{ID: "f2", Name: "Mango"}
	ravi := &models.Customer{ID: "c1", Name: "Ravi"}
	sita := &models.Customer{ID: "c2", Name: "Sita"}

	return []models.SaleTransaction{
		{ID: "s1", CustomerID: "c1", Customer: ravi, FruitID: "f1", Fruit: apple, Quantity: dec("10"), TotalAmount: dec("500"), PaidAmount: dec("200"), Status: models.StatusPending, CreatedAt: now},
		{ID: "s2", CustomerID: "c2", Customer: sita, FruitID: "f2", Fruit: mango, Quantity: dec("4"), TotalAmount: dec("320"), PaidAmount: dec("320"), Status: models.StatusCompleted, CreatedAt: now.AddDate(0, 0, -2)},
		{ID: "s3", CustomerID: "c1", Customer: ravi, FruitID: "f2", Fruit: mango, Quantity: dec("2"), TotalAmount: dec("160"), PaidAmount: dec("0"), Status: models.StatusCancelled, CreatedAt: now.AddDate(0, 0, -1)},
		{ID: "s4", CustomerID: "c1", Customer: ravi, FruitID: "f1", Fruit: apple, Quantity: dec("1.5"), TotalAmount: dec("75"), PaidAmount: dec("75"), Status: models.StatusCompleted, CreatedAt: now.AddDate(0, 0, -6)},
		{ID: "old", CustomerID: "c2", Customer: sita, FruitID: "f1", Fruit: apple, Quantity: dec("100"), TotalAmount: dec("5000"), PaidAmount: dec("0"), Status: models.StatusPending, CreatedAt: now.AddDate(0, 0, -7)},
	}
}

func TestBuild(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	r := Build(fixture(now), 7, now, time.UTC)

	assert.Equal(t, "2024-03-04", r.From)
	assert.Equal(t, "2024-03-10", r.To)

	require.Len(t, r.Daily, 7)
	assert.Equal(t, "Mar 4", r.Daily[0].Label)
	assert.True(t, r.Daily[0].Revenue.Equal(dec("75")))
	assert.True(t, r.Daily[5].Revenue.IsZero(), "cancelled sale is not revenue")
	assert.True(t, r.Daily[6].Pending.Equal(dec("300")))

	require.Len(t, r.Fruits, 2)
	assert.Equal(t, "Apple", r.Fruits[0].Name)
	assert.True(t, r.Fruits[0].Quantity.Equal(dec("11.5")))
	assert.True(t, r.Fruits[0].Revenue.Equal(dec("575")))
	assert.True(t, r.Fruits[1].Quantity.Equal(dec("4")))

	assert.Equal(t, []StatusCount{
		{Status: models.StatusCompleted, Label: "Paid", Count: 2},
		{Status: models.StatusPending, Label: "Pending", Count: 1},
		{Status: models.StatusCancelled, Label: "Cancelled", Count: 1},
	}, r.Statuses)

	require.Len(t, r.TopCustomers, 2)
	assert.Equal(t, "Ravi", r.TopCustomers[0].Name)
	assert.Equal(t, 2, r.TopCustomers[0].TransactionCount)
	assert.True(t, r.TopCustomers[0].Revenue.Equal(dec("575")))
}

func TestBuildDefaultsDays(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	r := Build(nil, 0, now, time.UTC)
	assert.Len(t, r.Daily, DefaultDays)
	assert.Empty(t, r.Fruits)
	assert.Empty(t, r.TopCustomers)
}

func TestWorkbook(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	f, err := Workbook(Build(fixture(now), 7, now, time.UTC))
	require.NoError(t, err)
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	x, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer x.Close()

	assert.Equal(t, []string{sheetDaily, sheetFruits, sheetCustomers, sheetStatus}, x.GetSheetList())

	daily, err := x.GetRows(sheetDaily)
	require.NoError(t, err)
	require.Len(t, daily, 8)
	assert.Equal(t, []string{"Date", "Revenue", "Collected", "Pending"}, daily[0])
	assert.Equal(t, "2024-03-10", daily[7][0])
	assert.Equal(t, "500", daily[7][1])

	fruits, err := x.GetRows(sheetFruits)
	require.NoError(t, err)
	assert.Equal(t, "Apple", fruits[1][0])

	customers, err := x.GetRows(sheetCustomers)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ravi", "2", "575"}, customers[1])

	statuses, err := x.GetRows(sheetStatus)
	require.NoError(t, err)
	require.Len(t, statuses, 4)
	assert.Equal(t, []string{"Cancelled", "1"}, statuses[3])
}
