package sales

import (
	"mandi-backend/internal/apierr"
	"mandi-backend/internal/auth"
	"mandi-backend/internal/ledger"
	"mandi-backend/internal/models"
	"mandi-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var validate = apierr.NewValidator()

type CreateSaleRequest struct {
	CustomerID      string             `json:"customer_id"` // empty or "cash-sale" for a walk-in
	FruitID         string             `json:"fruit_id" validate:"required"`
	FruitCategoryID *string            `json:"fruit_category_id"`
	Quantity        decimal.Decimal    `json:"quantity"`
	Rate            decimal.Decimal    `json:"rate"`
	PricingMode     models.PricingMode `json:"pricing_mode" validate:"omitempty,oneof=per_kg per_box"`
	PaidAmount      decimal.Decimal    `json:"paid_amount"`
	Notes           *string            `json:"notes" validate:"omitempty,max=1000"`
	NumberOfTrays   int                `json:"number_of_trays" validate:"gte=0"`
}

type PaymentRequest struct {
	PaidAmount *decimal.Decimal `json:"paid_amount" validate:"required"`
}

// POST /api/transactions
func CreateSaleHandler(svc *ledger.Service, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		var body CreateSaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return apierr.Validation(err)
		}

		res, err := svc.CreateSale(c.UserContext(), ownerID, ledger.SaleInput{
			CustomerID:      body.CustomerID,
			FruitID:         body.FruitID,
			FruitCategoryID: body.FruitCategoryID,
			Quantity:        body.Quantity,
			Rate:            body.Rate,
			PricingMode:     body.PricingMode,
			PaidAmount:      body.PaidAmount,
			Notes:           body.Notes,
			NumberOfTrays:   body.NumberOfTrays,
		})
		if err != nil {
			return apierr.From(log, err)
		}

		resp := fiber.Map{
			"transaction":      res.Sale,
			"customer_balance": res.Balance,
		}
		if res.Tray != nil {
			resp["tray_transaction"] = res.Tray
		}
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// GET /api/transactions?customer_id=&status=&limit=
func ListSalesHandler(st store.Store, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		status := models.TransactionStatus(c.Query("status"))
		if status != "" && !status.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "status must be pending, completed or cancelled")
		}
		limit := c.QueryInt("limit", 0)
		if limit < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "limit must not be negative")
		}

		list, err := st.ListSales(c.UserContext(), ownerID, store.SaleFilter{
			CustomerID: c.Query("customer_id"),
			Status:     status,
			Limit:      limit,
		})
		if err != nil {
			return apierr.From(log, err)
		}
		return c.JSON(list)
	}
}

// GET /api/transactions/:id
func GetSaleHandler(st store.Store, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		sale, err := st.GetSale(c.UserContext(), ownerID, c.Params("id"))
		if err != nil {
			return apierr.From(log, err)
		}
		return c.JSON(sale)
	}
}

// PUT /api/transactions/:id/payment
func UpdatePaymentHandler(svc *ledger.Service, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		var body PaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return apierr.Validation(err)
		}

		res, err := svc.UpdateSalePayment(c.UserContext(), ownerID, c.Params("id"), *body.PaidAmount)
		if err != nil {
			return apierr.From(log, err)
		}
		return c.JSON(fiber.Map{
			"transaction":      res.Sale,
			"balance_change":   res.Delta,
			"customer_balance": res.Balance,
			"changed":          res.Changed,
		})
	}
}

// POST /api/transactions/:id/cancel
func CancelSaleHandler(svc *ledger.Service, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		sale, err := svc.CancelSale(c.UserContext(), ownerID, c.Params("id"))
		if err != nil {
			return apierr.From(log, err)
		}
		return c.JSON(sale)
	}
}
