package dashboard

import (
	"time"

	"mandi-backend/internal/apierr"
	"mandi-backend/internal/auth"
	"mandi-backend/internal/models"
	"mandi-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ChartPoint struct {
	Label     string          `json:"label"` // bucket start date
	Revenue   decimal.Decimal `json:"revenue"`
	Collected decimal.Decimal `json:"collected"`
	Pending   decimal.Decimal `json:"pending"`
}

type ChartResponse struct {
	Period      string       `json:"period"` // daily | weekly | monthly
	From        string       `json:"from"`
	To          string       `json:"to"`
	Points      []ChartPoint `json:"points"`
	GrandTotals ChartPoint   `json:"grand_totals"`
}

func defaultCount(period string) int {
	switch period {
	case "weekly":
		return 8
	case "monthly":
		return 12
	default:
		return 7
	}
}

// bucketStart truncates t to the start of its day, ISO week or month in loc.
func bucketStart(period string, t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	switch period {
	case "weekly":
		offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
		return day.AddDate(0, 0, -offset)
	case "monthly":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	default:
		return day
	}
}

func step(period string, t time.Time, n int) time.Time {
	switch period {
	case "weekly":
		return t.AddDate(0, 0, 7*n)
	case "monthly":
		return t.AddDate(0, n, 0)
	default:
		return t.AddDate(0, 0, n)
	}
}

// BuildChart buckets non-cancelled sales into count periods ending with the
// one that contains now. Empty buckets are kept so the series has no gaps.
func BuildChart(sales []models.SaleTransaction, period string, count int, now time.Time, loc *time.Location) ChartResponse {
	switch period {
	case "daily", "weekly", "monthly":
	default:
		period = "daily"
	}
	if count <= 0 {
		count = defaultCount(period)
	}

	last := bucketStart(period, now, loc)
	first := step(period, last, -(count - 1))

	points := make([]ChartPoint, count)
	index := make(map[time.Time]int, count)
	for i := 0; i < count; i++ {
		b := step(period, first, i)
		index[b] = i
		points[i] = ChartPoint{
			Label:     b.Format("2006-01-02"),
			Revenue:   decimal.Zero,
			Collected: decimal.Zero,
			Pending:   decimal.Zero,
		}
	}

	grand := ChartPoint{Label: "total", Revenue: decimal.Zero, Collected: decimal.Zero, Pending: decimal.Zero}
	for _, t := range sales {
		if t.Status == models.StatusCancelled {
			continue
		}
		i, ok := index[bucketStart(period, t.CreatedAt, loc)]
		if !ok {
			continue
		}
		p := &points[i]
		p.Revenue = p.Revenue.Add(t.TotalAmount)
		p.Collected = p.Collected.Add(t.PaidAmount)
		p.Pending = p.Revenue.Sub(p.Collected)
	}
	for _, p := range points {
		grand.Revenue = grand.Revenue.Add(p.Revenue)
		grand.Collected = grand.Collected.Add(p.Collected)
	}
	grand.Pending = grand.Revenue.Sub(grand.Collected)

	return ChartResponse{
		Period:      period,
		From:        first.Format("2006-01-02"),
		To:          step(period, last, 1).AddDate(0, 0, -1).Format("2006-01-02"),
		Points:      points,
		GrandTotals: grand,
	}
}

// GET /api/dashboard/chart?period=daily&count=7
func ChartHandler(st store.Store, loc *time.Location, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		period := c.Query("period", "daily")
		switch period {
		case "daily", "weekly", "monthly":
		default:
			return fiber.NewError(fiber.StatusBadRequest, "period must be daily, weekly or monthly")
		}
		count := c.QueryInt("count", defaultCount(period))
		if count <= 0 || count > 366 {
			return fiber.NewError(fiber.StatusBadRequest, "count must be between 1 and 366")
		}

		now := time.Now().In(loc)
		since := step(period, bucketStart(period, now, loc), -(count - 1))
		sales, err := st.ListSales(c.UserContext(), ownerID, store.SaleFilter{Since: &since})
		if err != nil {
			return apierr.From(log, err)
		}
		return c.JSON(BuildChart(sales, period, count, now, loc))
	}
}
