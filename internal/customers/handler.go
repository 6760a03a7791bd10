package customers

import (
	"mandi-backend/internal/apierr"
	"mandi-backend/internal/auth"
	"mandi-backend/internal/ledger"
	"mandi-backend/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

var validate = validator.New()

type CustomerRequest struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Phone   *string `json:"phone" validate:"omitempty,max=30"`
	Address *string `json:"address" validate:"omitempty,max=500"`
}

type VisibilityRequest struct {
	Visible *bool `json:"visible" validate:"required"`
}

func (r CustomerRequest) input() ledger.CustomerInput {
	return ledger.CustomerInput{Name: r.Name, Phone: r.Phone, Address: r.Address}
}

// POST /api/customers
func CreateCustomerHandler(svc *ledger.Service, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}

		customer, err := svc.CreateCustomer(c.UserContext(), ownerID, body.input())
		if err != nil {
			return apierr.From(log, err)
		}
		return c.Status(fiber.StatusCreated).JSON(customer)
	}
}

// GET /api/customers?include_hidden=true
func ListCustomersHandler(st store.Store, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		list, err := st.ListCustomers(c.UserContext(), ownerID, store.CustomerFilter{
			IncludeHidden: c.QueryBool("include_hidden", false),
		})
		if err != nil {
			return apierr.From(log, err)
		}
		return c.JSON(list)
	}
}

// GET /api/customers/:id
func GetCustomerHandler(st store.Store, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		customer, err := st.GetCustomer(c.UserContext(), ownerID, c.Params("id"))
		if err != nil {
			return apierr.From(log, err)
		}
		return c.JSON(customer)
	}
}

// PUT /api/customers/:id
func UpdateCustomerHandler(svc *ledger.Service, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}

		customer, err := svc.UpdateCustomer(c.UserContext(), ownerID, c.Params("id"), body.input())
		if err != nil {
			return apierr.From(log, err)
		}
		return c.JSON(customer)
	}
}

// PUT /api/customers/:id/visibility
func SetVisibilityHandler(svc *ledger.Service, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		var body VisibilityRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "visible is required")
		}

		customer, err := svc.SetCustomerVisibility(c.UserContext(), ownerID, c.Params("id"), *body.Visible)
		if err != nil {
			return apierr.From(log, err)
		}
		return c.JSON(customer)
	}
}

// DELETE /api/customers/:id
// Removes the customer's sales and trays as well.
func DeleteCustomerHandler(svc *ledger.Service, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		res, err := svc.DeleteCustomer(c.UserContext(), ownerID, c.Params("id"))
		if err != nil {
			return apierr.From(log, err)
		}
		return c.JSON(fiber.Map{
			"message":       "customer deleted",
			"sales_deleted": res.SalesDeleted,
			"trays_deleted": res.TraysDeleted,
		})
	}
}
