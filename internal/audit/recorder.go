// Package audit keeps the record of ledger inconsistencies: customers whose
// stored balance disagreed with their transactions when reconciled.
package audit

import (
	"context"
	"fmt"

	"mandi-backend/internal/models"
	"mandi-backend/internal/store"

	"github.com/sirupsen/logrus"
)

type Recorder struct {
	log *logrus.Logger
}

func NewRecorder(log *logrus.Logger) *Recorder {
	return &Recorder{log: log}
}

// Write persists d through st (which may be a transaction) and logs it at
// error level with ledger_discrepancy=true.
func (r *Recorder) Write(ctx context.Context, st store.Store, d *models.LedgerDiscrepancy) error {
	entry := r.log.WithFields(logrus.Fields{
		"ledger_discrepancy": true,
		"owner_id":           d.OwnerID,
		"customer_id":        d.CustomerID,
		"stored_balance":     d.StoredBalance.StringFixed(2),
		"expected_balance":   d.ExpectedBalance.StringFixed(2),
		"difference":         d.Difference.StringFixed(2),
		"source":             d.Source,
		"repaired":           d.Repaired,
	})

	if err := st.RecordDiscrepancy(ctx, d); err != nil {
		entry.WithError(err).Error("ledger discrepancy could not be persisted")
		return fmt.Errorf("record discrepancy: %w", err)
	}
	entry.Error("ledger discrepancy")
	return nil
}
