package audit

import (
	"mandi-backend/internal/auth"
	"mandi-backend/internal/models"
	"mandi-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type DiscrepancyResponse struct {
	ID              string          `json:"id"`
	CreatedAt       string          `json:"created_at"`
	CustomerID      string          `json:"customer_id"`
	CustomerName    string          `json:"customer_name"`
	StoredBalance   decimal.Decimal `json:"stored_balance"`
	ExpectedBalance decimal.Decimal `json:"expected_balance"`
	Difference      decimal.Decimal `json:"difference"`
	Source          string          `json:"source"`
	Details         string          `json:"details,omitempty"`
	Repaired        bool            `json:"repaired"`
}

func toResponse(d models.LedgerDiscrepancy) DiscrepancyResponse {
	return DiscrepancyResponse{
		ID:              d.ID,
		CreatedAt:       d.CreatedAt.Format("2006-01-02 15:04:05"),
		CustomerID:      d.CustomerID,
		CustomerName:    d.CustomerName,
		StoredBalance:   d.StoredBalance,
		ExpectedBalance: d.ExpectedBalance,
		Difference:      d.Difference,
		Source:          d.Source,
		Details:         d.Details,
		Repaired:        d.Repaired,
	}
}

// GET /api/ledger/discrepancies?customer_id=...
func ListDiscrepanciesHandler(st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ActorID(c)
		if err != nil {
			return err
		}

		rows, err := st.ListDiscrepancies(c.UserContext(), ownerID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list discrepancies")
		}

		customerID := c.Query("customer_id")
		resp := make([]DiscrepancyResponse, 0, len(rows))
		for _, d := range rows {
			if customerID != "" && d.CustomerID != customerID {
				continue
			}
			resp = append(resp, toResponse(d))
		}
		return c.JSON(resp)
	}
}
