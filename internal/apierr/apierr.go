// Package apierr maps domain errors onto fiber errors so every handler
// answers the same failure with the same status code.
package apierr

import (
	"errors"

	"mandi-backend/internal/ledger"
	"mandi-backend/internal/receipt"
	"mandi-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// From converts err into a *fiber.Error. Unknown errors are logged and
// reported as 500 with a generic message.
func From(log *logrus.Logger, err error) error {
	if err == nil {
		return nil
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}

	var ve *ledger.ValidationError
	switch {
	case errors.As(err, &ve):
		return fiber.NewError(fiber.StatusBadRequest, ve.Error())
	case errors.Is(err, ledger.ErrNoActor):
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "record not found")
	case errors.Is(err, store.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, store.ErrInUse):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrOverpayment):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ledger.ErrCancelled), errors.Is(err, ledger.ErrInvalidTransition):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrReconcileBusy):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, receipt.ErrNoPhone), errors.Is(err, receipt.ErrInvalidPhone):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}

	log.WithError(err).Error("unhandled error")
	return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
}
