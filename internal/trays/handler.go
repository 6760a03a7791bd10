package trays

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

type CreateTrayRequest struct {
	CustomerID    string          `json:"customer_id" validate:"required"`
	TrayNumber    string          `json:"tray_number" validate:"required,max=50"`
	Weight        decimal.Decimal `json:"weight"`
	RatePerKg     decimal.Decimal `json:"rate_per_kg"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	NumberOfTrays int             `json:"number_of_trays" validate:"gte=0"`
	Notes         *string         `json:"notes" validate:"omitempty,max=1000"`
}

type UpdateTrayRequest struct {
	TrayNumber    string            `json:"tray_number" validate:"required,max=50"`
	Weight        decimal.Decimal   `json:"weight"`
	RatePerKg     decimal.Decimal   `json:"rate_per_kg"`
	PaidAmount    decimal.Decimal   `json:"paid_amount"`
	NumberOfTrays int               `json:"number_of_trays" validate:"gte=0"`
	Status        models.TrayStatus `json:"status" validate:"omitempty,oneof=available in_use maintenance"`
	Notes         *string           `json:"notes" validate:"omitempty,max=1000"`
}

type PaymentRequest struct {
	PaidAmount *decimal.Decimal `json:"paid_amount" validate:"required"`
}

type StatusRequest struct {
	Status models.TrayStatus `json:"status" validate:"required,oneof=available in_use maintenance"`
}

// POST /api/trays
func CreateTrayHandler(svc *ledger.Service, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		var body CreateTrayRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return apierr.Validation(err)
		}

		res, err := svc.CreateTray(c.UserContext(), ownerID, ledger.TrayInput{
			CustomerID:    body.CustomerID,
			TrayNumber:    body.TrayNumber,
			Weight:        body.Weight,
			RatePerKg:     body.RatePerKg,
			PaidAmount:    body.PaidAmount,
			NumberOfTrays: body.NumberOfTrays,
			Notes:         body.Notes,
		})
		if err != nil {
			return apierr.From(log, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"tray_transaction": res.Tray,
			"customer_balance": res.Balance,
		})
	}
}

// GET /api/trays?customer_id=&status=
func ListTraysHandler(st store.Store, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		status := models.TrayStatus(c.Query("status"))
		if status != "" && !status.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "status must be available, in_use or maintenance")
		}

		list, err := st.ListTrays(c.UserContext(), ownerID, store.TrayFilter{
			CustomerID: c.Query("customer_id"),
			Status:     status,
		})
		if err != nil {
			return apierr.From(log, err)
		}
		return c.JSON(list)
	}
}

// PUT /api/trays/:id
func UpdateTrayHandler(svc *ledger.Service, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		var body UpdateTrayRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return apierr.Validation(err)
		}

		res, err := svc.UpdateTray(c.UserContext(), ownerID, c.Params("id"), ledger.TrayUpdate{
			TrayNumber:    body.TrayNumber,
			Weight:        body.Weight,
			RatePerKg:     body.RatePerKg,
			PaidAmount:    body.PaidAmount,
			NumberOfTrays: body.NumberOfTrays,
			Status:        body.Status,
			Notes:         body.Notes,
		})
		if err != nil {
			return apierr.From(log, err)
		}
		return c.JSON(fiber.Map{
			"tray_transaction": res.Tray,
			"balance_change":   res.Delta,
			"customer_balance": res.Balance,
			"changed":          res.Changed,
		})
	}
}

// PUT /api/trays/:id/payment
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

		res, err := svc.UpdateTrayPayment(c.UserContext(), ownerID, c.Params("id"), *body.PaidAmount)
		if err != nil {
			return apierr.From(log, err)
		}
		return c.JSON(fiber.Map{
			"tray_transaction": res.Tray,
			"balance_change":   res.Delta,
			"customer_balance": res.Balance,
			"changed":          res.Changed,
		})
	}
}

// PUT /api/trays/:id/status
func UpdateStatusHandler(svc *ledger.Service, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		var body StatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "status must be available, in_use or maintenance")
		}

		tray, err := svc.UpdateTrayStatus(c.UserContext(), ownerID, c.Params("id"), body.Status)
		if err != nil {
			return apierr.From(log, err)
		}
		return c.JSON(tray)
	}
}
