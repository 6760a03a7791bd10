package customers

import (
	"mandi-backend/internal/apierr"
	"mandi-backend/internal/auth"
	"mandi-backend/internal/ledger"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// POST /api/ledger/reconcile?repair=true
func ReconcileHandler(svc *ledger.Service, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		report, err := svc.Reconcile(c.UserContext(), ownerID, c.QueryBool("repair", false))
		if err != nil {
			return apierr.From(log, err)
		}
		return c.JSON(report)
	}
}
