package fruits

import (
	"strings"

	"mandi-backend/internal/apierr"
	"mandi-backend/internal/auth"
	"mandi-backend/internal/models"
	"mandi-backend/internal/realtime"
	"mandi-backend/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var validate = validator.New()

type FruitRequest struct {
	Name           string           `json:"name" validate:"required,max=100"`
	PricePerKg     decimal.Decimal  `json:"price_per_kg"`
	PricePerUnit   *decimal.Decimal `json:"price_per_unit"`
	Unit           models.Unit      `json:"unit"`
	AvailableStock decimal.Decimal  `json:"available_stock"`
}

func (r *FruitRequest) check() error {
	r.Name = strings.TrimSpace(r.Name)
	if err := validate.Struct(r); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if r.Unit == "" {
		r.Unit = models.UnitKg
	}
	if !r.Unit.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "unit must be kg, box, piece or dozen")
	}
	if r.PricePerKg.IsNegative() || (r.PricePerUnit != nil && r.PricePerUnit.IsNegative()) {
		return fiber.NewError(fiber.StatusBadRequest, "prices must not be negative")
	}
	if r.AvailableStock.IsNegative() {
		return fiber.NewError(fiber.StatusBadRequest, "available_stock must not be negative")
	}
	return nil
}

// publish announces a catalog change to every user; fruits have no owner.
func publish(c *fiber.Ctx, events realtime.Publisher, kind realtime.Kind, id string) {
	events.Publish(c.UserContext(), realtime.Event{
		Table:    realtime.TableFruits,
		Kind:     kind,
		OwnerID:  realtime.Broadcast,
		RecordID: id,
	})
}

// GET /api/fruits
func ListFruitsHandler(st store.Store, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := auth.ActorID(c); err != nil {
			return err
		}
		list, err := st.ListFruits(c.UserContext())
		if err != nil {
			return apierr.From(log, err)
		}
		return c.JSON(list)
	}
}

// GET /api/fruits/:id
func GetFruitHandler(st store.Store, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := auth.ActorID(c); err != nil {
			return err
		}
		fruit, err := st.GetFruit(c.UserContext(), c.Params("id"))
		if err != nil {
			return apierr.From(log, err)
		}
		return c.JSON(fruit)
	}
}

// POST /api/fruits
func CreateFruitHandler(st store.Store, events realtime.Publisher, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		var body FruitRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := body.check(); err != nil {
			return err
		}

		fruit := models.Fruit{
			Name:           body.Name,
			PricePerKg:     body.PricePerKg,
			PricePerUnit:   body.PricePerUnit,
			Unit:           body.Unit,
			AvailableStock: body.AvailableStock,
		}
		if err := st.CreateFruit(c.UserContext(), &fruit); err != nil {
			return apierr.From(log, err)
		}
		publish(c, events, realtime.KindInsert, fruit.ID)
		return c.Status(fiber.StatusCreated).JSON(fruit)
	}
}

// PUT /api/fruits/:id
func UpdateFruitHandler(st store.Store, events realtime.Publisher, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		var body FruitRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := body.check(); err != nil {
			return err
		}

		fruit := models.Fruit{
			ID:             c.Params("id"),
			Name:           body.Name,
			PricePerKg:     body.PricePerKg,
			PricePerUnit:   body.PricePerUnit,
			Unit:           body.Unit,
			AvailableStock: body.AvailableStock,
		}
		if err := st.UpdateFruit(c.UserContext(), &fruit); err != nil {
			return apierr.From(log, err)
		}
		publish(c, events, realtime.KindUpdate, fruit.ID)

		updated, err := st.GetFruit(c.UserContext(), fruit.ID)
		if err != nil {
			return apierr.From(log, err)
		}
		return c.JSON(updated)
	}
}

// DELETE /api/fruits/:id
// Refused while any sale still references the fruit.
func DeleteFruitHandler(st store.Store, events realtime.Publisher, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		if err := st.DeleteFruit(c.UserContext(), id); err != nil {
			return apierr.From(log, err)
		}
		publish(c, events, realtime.KindDelete, id)
		return c.JSON(fiber.Map{"message": "fruit deleted"})
	}
}
