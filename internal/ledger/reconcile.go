package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mandi-backend/internal/models"
	"mandi-backend/internal/store"

	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	reconcileLockTTL = 30 * time.Second
	sourceReconcile  = "reconcile"
)

type ReconcileReport struct {
	CustomersChecked int                        `json:"customers_checked"`
	Discrepancies    []models.LedgerDiscrepancy `json:"discrepancies"`
	Repaired         int                        `json:"repaired"`
}

// ExpectedBalances sums (total - paid) per customer over non-cancelled sales
// and trays that are not linked to a sale.
func ExpectedBalances(sales []models.SaleTransaction, trays []models.TrayTransaction) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for i := range sales {
		if sales[i].Status == models.StatusCancelled {
			continue
		}
		out[sales[i].CustomerID] = out[sales[i].CustomerID].Add(sales[i].Outstanding())
	}
	for i := range trays {
		if !trays[i].AffectsBalance() {
			continue
		}
		out[trays[i].CustomerID] = out[trays[i].CustomerID].Add(trays[i].Outstanding())
	}
	return out
}

// Reconcile recomputes every customer balance from its records and records a
// discrepancy for each mismatch. Balances and records are read from one
// snapshot. With repair set the stored balance is moved by the difference;
// a payment committed after the snapshot shifts stored and expected alike,
// so the difference still holds.
func (s *Service) Reconcile(ctx context.Context, ownerID string, repair bool) (*ReconcileReport, error) {
	if ownerID == "" {
		return nil, ErrNoActor
	}

	if s.locker != nil {
		lock, err := s.locker.Obtain(ctx, "lock:reconcile:"+ownerID, reconcileLockTTL, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, ErrReconcileBusy
		}
		if err != nil {
			return nil, fmt.Errorf("obtain reconcile lock: %w", err)
		}
		defer func() {
			if err := lock.Release(ctx); err != nil {
				s.log.WithError(err).Warn("failed to release reconcile lock")
			}
		}()
	}

	var (
		customers []models.Customer
		expected  map[string]decimal.Decimal
	)
	err := s.store.Snapshot(ctx, func(tx store.Store) error {
		var err error
		customers, err = tx.ListCustomers(ctx, ownerID, store.CustomerFilter{IncludeHidden: true})
		if err != nil {
			return err
		}
		sales, err := tx.ListSales(ctx, ownerID, store.SaleFilter{})
		if err != nil {
			return err
		}
		trays, err := tx.ListTrays(ctx, ownerID, store.TrayFilter{})
		if err != nil {
			return err
		}
		expected = ExpectedBalances(sales, trays)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	report := &ReconcileReport{
		CustomersChecked: len(customers),
		Discrepancies:    make([]models.LedgerDiscrepancy, 0),
	}
	for _, c := range customers {
		want := money(expected[c.ID])
		if c.Balance.Equal(want) {
			continue
		}

		d := &models.LedgerDiscrepancy{
			OwnerID:         ownerID,
			CustomerID:      c.ID,
			CustomerName:    c.Name,
			StoredBalance:   c.Balance,
			ExpectedBalance: want,
			Difference:      want.Sub(c.Balance),
			Source:          sourceReconcile,
		}
		err := s.store.Atomic(ctx, func(tx store.Store) error {
			if repair {
				if _, err := tx.IncrementBalance(ctx, ownerID, c.ID, d.Difference); err != nil {
					return err
				}
				d.Repaired = true
				d.Details = "balance moved by difference"
			}
			return s.audit.Write(ctx, tx, d)
		})
		if err != nil {
			return nil, fmt.Errorf("reconcile customer %s: %w", c.ID, err)
		}

		report.Discrepancies = append(report.Discrepancies, *d)
		if d.Repaired {
			report.Repaired++
		}
	}

	if report.Repaired > 0 {
		s.refreshCustomers(ctx, ownerID)
	}
	s.log.WithFields(logrus.Fields{
		"owner_id":      ownerID,
		"checked":       report.CustomersChecked,
		"discrepancies": len(report.Discrepancies),
		"repaired":      report.Repaired,
	}).Info("ledger reconciled")
	return report, nil
}
