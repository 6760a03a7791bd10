package reports

import (
	"fmt"
	"time"

	"mandi-backend/internal/apierr"
	"mandi-backend/internal/auth"
	"mandi-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func load(c *fiber.Ctx, st store.Store, loc *time.Location, log *logrus.Logger) (Report, error) {
	ownerID, err := auth.ActorID(c)
	if err != nil {
		return Report{}, err
	}

	days := c.QueryInt("days", DefaultDays)
	if days <= 0 || days > MaxDays {
		return Report{}, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("days must be between 1 and %d", MaxDays))
	}

	now := time.Now()
	since := WindowStart(days, now, loc)
	sales, err := st.ListSales(c.UserContext(), ownerID, store.SaleFilter{Since: &since})
	if err != nil {
		return Report{}, apierr.From(log, err)
	}
	return Build(sales, days, now, loc), nil
}

// GET /api/reports?days=7
func ReportHandler(st store.Store, loc *time.Location, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := load(c, st, loc, log)
		if err != nil {
			return err
		}
		return c.JSON(r)
	}
}

// GET /api/reports/export?days=7
func ExportHandler(st store.Store, loc *time.Location, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := load(c, st, loc, log)
		if err != nil {
			return err
		}

		f, err := Workbook(r)
		if err != nil {
			log.WithError(err).Error("build report workbook")
			return fiber.NewError(fiber.StatusInternalServerError, "failed to build report")
		}
		defer f.Close()

		buf, err := f.WriteToBuffer()
		if err != nil {
			log.WithError(err).Error("write report workbook")
			return fiber.NewError(fiber.StatusInternalServerError, "failed to write report")
		}

		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=sales-report-%s-%s.xlsx", r.From, r.To))
		return c.Send(buf.Bytes())
	}
}
