// Package reports aggregates sale transactions into the daily, per-fruit,
// status and customer views used by the reports screen and its xlsx export.
package reports

import (
	"sort"
	"time"

	"mandi-backend/internal/models"

	"github.com/shopspring/decimal"
)

const (
	DefaultDays  = 7
	MaxDays      = 366
	topCustomers = 5
)

type DailySales struct {
	Date      string          `json:"date"`
	Label     string          `json:"label"`
	Revenue   decimal.Decimal `json:"revenue"`
	Collected decimal.Decimal `json:"collected"`
	Pending   decimal.Decimal `json:"pending"`
}

type FruitSales struct {
	FruitID  string          `json:"fruit_id"`
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type StatusCount struct {
	Status models.TransactionStatus `json:"status"`
	Label  string                   `json:"label"`
	Count  int                      `json:"count"`
}

type CustomerSales struct {
	CustomerID       string          `json:"customer_id"`
	Name             string          `json:"name"`
	Revenue          decimal.Decimal `json:"revenue"`
	TransactionCount int             `json:"transaction_count"`
}

type Report struct {
	From         string          `json:"from"`
	To           string          `json:"to"`
	Daily        []DailySales    `json:"daily"`
	Fruits       []FruitSales    `json:"fruits"`
	Statuses     []StatusCount   `json:"statuses"`
	TopCustomers []CustomerSales `json:"top_customers"`
}

// WindowStart is midnight in loc of the first of the last days calendar days.
func WindowStart(days int, now time.Time, loc *time.Location) time.Time {
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	return today.AddDate(0, 0, -(days - 1))
}

// Build aggregates sales over the last days calendar days ending today in loc.
// Sales outside the window are ignored; cancelled sales only show up in the
// status distribution.
func Build(sales []models.SaleTransaction, days int, now time.Time, loc *time.Location) Report {
	if days <= 0 {
		days = DefaultDays
	}
	start := WindowStart(days, now, loc)

	daily := make([]DailySales, days)
	dayIndex := make(map[string]int, days)
	for i := range daily {
		d := start.AddDate(0, 0, i)
		key := d.Format("2006-01-02")
		dayIndex[key] = i
		daily[i] = DailySales{
			Date:      key,
			Label:     d.Format("Jan 2"),
			Revenue:   decimal.Zero,
			Collected: decimal.Zero,
			Pending:   decimal.Zero,
		}
	}

	fruits := make(map[string]*FruitSales)
	customers := make(map[string]*CustomerSales)
	statuses := map[models.TransactionStatus]int{}

	for _, t := range sales {
		i, ok := dayIndex[t.CreatedAt.In(loc).Format("2006-01-02")]
		if !ok {
			continue
		}
		statuses[t.Status]++
		if t.Status == models.StatusCancelled {
			continue
		}

		d := &daily[i]
		d.Revenue = d.Revenue.Add(t.TotalAmount)
		d.Collected = d.Collected.Add(t.PaidAmount)
		d.Pending = d.Revenue.Sub(d.Collected)

		f, ok := fruits[t.FruitID]
		if !ok {
			f = &FruitSales{FruitID: t.FruitID, Name: "Unknown", Quantity: decimal.Zero, Revenue: decimal.Zero}
			if t.Fruit != nil {
				f.Name = t.Fruit.Name
			}
			fruits[t.FruitID] = f
		}
		f.Quantity = f.Quantity.Add(t.Quantity)
		f.Revenue = f.Revenue.Add(t.TotalAmount)

		c, ok := customers[t.CustomerID]
		if !ok {
			c = &CustomerSales{CustomerID: t.CustomerID, Name: "Unknown", Revenue: decimal.Zero}
			if t.Customer != nil {
				c.Name = t.Customer.Name
			}
			customers[t.CustomerID] = c
		}
		c.Revenue = c.Revenue.Add(t.TotalAmount)
		c.TransactionCount++
	}

	r := Report{
		From:         start.Format("2006-01-02"),
		To:           start.AddDate(0, 0, days-1).Format("2006-01-02"),
		Daily:        daily,
		Fruits:       make([]FruitSales, 0, len(fruits)),
		TopCustomers: make([]CustomerSales, 0, topCustomers),
		Statuses: []StatusCount{
			{Status: models.StatusCompleted, Label: "Paid", Count: statuses[models.StatusCompleted]},
			{Status: models.StatusPending, Label: "Pending", Count: statuses[models.StatusPending]},
			{Status: models.StatusCancelled, Label: "Cancelled", Count: statuses[models.StatusCancelled]},
		},
	}

	for _, f := range fruits {
		r.Fruits = append(r.Fruits, *f)
	}
	sort.Slice(r.Fruits, func(i, j int) bool {
		if c := r.Fruits[i].Revenue.Cmp(r.Fruits[j].Revenue); c != 0 {
			return c > 0
		}
		return r.Fruits[i].Name < r.Fruits[j].Name
	})

	ranked := make([]CustomerSales, 0, len(customers))
	for _, c := range customers {
		ranked = append(ranked, *c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if c := ranked[i].Revenue.Cmp(ranked[j].Revenue); c != 0 {
			return c > 0
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > topCustomers {
		ranked = ranked[:topCustomers]
	}
	r.TopCustomers = append(r.TopCustomers, ranked...)
	return r
}
