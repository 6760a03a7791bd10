package fruits

import (
	"strings"

	"mandi-backend/internal/apierr"
	"mandi-backend/internal/auth"
	"mandi-backend/internal/models"
	"mandi-backend/internal/realtime"
	"mandi-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type CategoryRequest struct {
	Name           string           `json:"name" validate:"required,max=100"`
	PricePerKg     *decimal.Decimal `json:"price_per_kg"`
	PricePerUnit   *decimal.Decimal `json:"price_per_unit"`
	Unit           models.Unit      `json:"unit"`
	AvailableStock decimal.Decimal  `json:"available_stock"`
}

func (r *CategoryRequest) check() error {
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
	if (r.PricePerKg != nil && r.PricePerKg.IsNegative()) || (r.PricePerUnit != nil && r.PricePerUnit.IsNegative()) {
		return fiber.NewError(fiber.StatusBadRequest, "prices must not be negative")
	}
	if r.AvailableStock.IsNegative() {
		return fiber.NewError(fiber.StatusBadRequest, "available_stock must not be negative")
	}
	return nil
}

// GET /api/fruit-categories
// GET /api/fruits/:id/categories
func ListCategoriesHandler(st store.Store, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := auth.ActorID(c); err != nil {
			return err
		}

		fruitID := c.Params("id")
		if fruitID != "" {
			if _, err := st.GetFruit(c.UserContext(), fruitID); err != nil {
				return apierr.From(log, err)
			}
		}
		list, err := st.ListCategories(c.UserContext(), fruitID)
		if err != nil {
			return apierr.From(log, err)
		}
		return c.JSON(list)
	}
}

// POST /api/fruits/:id/categories
func CreateCategoryHandler(st store.Store, events realtime.Publisher, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		fruit, err := st.GetFruit(c.UserContext(), c.Params("id"))
		if err != nil {
			return apierr.From(log, err)
		}

		var body CategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := body.check(); err != nil {
			return err
		}

		cat := models.FruitCategory{
			FruitID:        fruit.ID,
			Name:           body.Name,
			PricePerKg:     body.PricePerKg,
			PricePerUnit:   body.PricePerUnit,
			Unit:           body.Unit,
			AvailableStock: body.AvailableStock,
		}
		if err := st.CreateCategory(c.UserContext(), &cat); err != nil {
			return apierr.From(log, err)
		}
		publish(c, events, realtime.KindUpdate, fruit.ID)
		return c.Status(fiber.StatusCreated).JSON(cat)
	}
}

// PUT /api/fruit-categories/:id
func UpdateCategoryHandler(st store.Store, events realtime.Publisher, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		var body CategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := body.check(); err != nil {
			return err
		}

		cat := models.FruitCategory{
			ID:             c.Params("id"),
			Name:           body.Name,
			PricePerKg:     body.PricePerKg,
			PricePerUnit:   body.PricePerUnit,
			Unit:           body.Unit,
			AvailableStock: body.AvailableStock,
		}
		if err := st.UpdateCategory(c.UserContext(), &cat); err != nil {
			return apierr.From(log, err)
		}

		updated, err := st.GetCategory(c.UserContext(), cat.ID)
		if err != nil {
			return apierr.From(log, err)
		}
		publish(c, events, realtime.KindUpdate, updated.FruitID)
		return c.JSON(updated)
	}
}

// DELETE /api/fruit-categories/:id
func DeleteCategoryHandler(st store.Store, events realtime.Publisher, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		cat, err := st.GetCategory(c.UserContext(), c.Params("id"))
		if err != nil {
			return apierr.From(log, err)
		}
		if err := st.DeleteCategory(c.UserContext(), cat.ID); err != nil {
			return apierr.From(log, err)
		}
		publish(c, events, realtime.KindUpdate, cat.FruitID)
		return c.JSON(fiber.Map{"message": "category deleted"})
	}
}
