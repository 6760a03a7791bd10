package sales

import (
	"strings"

	"mandi-backend/internal/apierr"
	"mandi-backend/internal/auth"
	"mandi-backend/internal/receipt"
	"mandi-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type SendReceiptRequest struct {
	Phone string `json:"phone"` // overrides the customer's phone when set
}

// GET /api/transactions/:id/receipt?format=text|html
func ReceiptHandler(st store.Store, f *receipt.Formatter, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		sale, err := st.GetSale(c.UserContext(), ownerID, c.Params("id"))
		if err != nil {
			return apierr.From(log, err)
		}

		switch c.Query("format", "text") {
		case "html":
			out, err := f.HTML(sale)
			if err != nil {
				return apierr.From(log, err)
			}
			c.Type("html", "utf-8")
			return c.SendString(out)
		case "text":
			c.Type("txt", "utf-8")
			return c.SendString(f.Text(sale))
		default:
			return fiber.NewError(fiber.StatusBadRequest, "format must be text or html")
		}
	}
}

// POST /api/transactions/:id/receipt/send
// Builds the WhatsApp link. The client opens it; nothing is sent from here.
func SendReceiptHandler(st store.Store, f *receipt.Formatter, d *receipt.Dispatcher, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		var body SendReceiptRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
			}
		}

		sale, err := st.GetSale(c.UserContext(), ownerID, c.Params("id"))
		if err != nil {
			return apierr.From(log, err)
		}

		phone := strings.TrimSpace(body.Phone)
		if phone == "" && sale.Customer != nil {
			phone = sale.Customer.PhoneNumber()
		}

		share, err := d.Share(phone, f.Text(sale))
		if err != nil {
			return apierr.From(log, err)
		}

		log.WithFields(logrus.Fields{
			"owner_id":   ownerID,
			"sale_id":    sale.ID,
			"receipt_id": receipt.ReceiptID(sale.ID),
		}).Info("receipt link prepared")
		return c.JSON(share)
	}
}
