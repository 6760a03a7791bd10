package ledger

import (
	"context"
	"fmt"
	"strings"

	"mandi-backend/internal/models"
	"mandi-backend/internal/realtime"
	"mandi-backend/internal/store"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// TrayUpdate replaces every editable field of a tray record. An empty Status
// keeps the current one.
type TrayUpdate struct {
	TrayNumber    string
	Weight        decimal.Decimal
	RatePerKg     decimal.Decimal
	PaidAmount    decimal.Decimal
	NumberOfTrays int
	Status        models.TrayStatus
	Notes         *string
}

func (in *TrayUpdate) validate() error {
	in.TrayNumber = strings.TrimSpace(in.TrayNumber)
	if in.TrayNumber == "" {
		return invalidf("tray_number", "is required")
	}
	if in.Status != "" && !in.Status.Valid() {
		return invalidf("status", "must be available, in_use or maintenance")
	}
	return checkTrayAmounts(&in.Weight, &in.RatePerKg, in.PaidAmount, &in.NumberOfTrays)
}

// UpdateTray rewrites a tray record and recomputes its total. A standalone
// tray moves the customer balance by the change in its outstanding amount;
// a tray linked to a sale leaves the balance to the sale.
func (s *Service) UpdateTray(ctx context.Context, ownerID, trayID string, in TrayUpdate) (*TrayPayment, error) {
	if ownerID == "" {
		return nil, ErrNoActor
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	total := money(in.Weight.Mul(in.RatePerKg))

	res := &TrayPayment{}
	balanceMoved := false
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		tray, err := tx.LockTray(ctx, ownerID, trayID)
		if err != nil {
			return err
		}
		paid, err := s.settlePaid(money(in.PaidAmount), total)
		if err != nil {
			return err
		}

		before := tray.Outstanding()
		next := *tray
		next.TrayNumber = in.TrayNumber
		next.Weight = in.Weight
		next.RatePerKg = in.RatePerKg
		next.TotalAmount = total
		next.PaidAmount = paid
		next.NumberOfTrays = in.NumberOfTrays
		next.Notes = in.Notes
		if in.Status != "" {
			next.Status = in.Status
		}
		if sameTray(tray, &next) {
			return nil
		}

		if err := tx.SaveTray(ctx, &next); err != nil {
			return fmt.Errorf("save tray: %w", err)
		}
		res.Changed = true

		delta := next.Outstanding().Sub(before)
		if !next.AffectsBalance() || delta.IsZero() {
			return nil
		}
		res.Delta = delta
		res.Balance, err = tx.IncrementBalance(ctx, ownerID, tray.CustomerID, delta)
		if err != nil {
			return fmt.Errorf("apply tray edit to balance: %w", err)
		}
		balanceMoved = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Changed {
		s.publish(ctx, ownerID, realtime.TableTrays, realtime.KindUpdate, trayID)
		s.log.WithFields(logrus.Fields{
			"owner_id": ownerID,
			"tray_id":  trayID,
			"total":    total.StringFixed(2),
			"delta":    res.Delta.StringFixed(2),
		}).Info("tray updated")
	}
	if balanceMoved {
		s.refreshCustomers(ctx, ownerID)
	}

	res.Tray, err = s.store.GetTray(ctx, ownerID, trayID)
	if err != nil {
		return nil, err
	}
	if !balanceMoved && res.Tray.Customer != nil {
		res.Balance = res.Tray.Customer.Balance
	}
	return res, nil
}

func sameTray(a, b *models.TrayTransaction) bool {
	notes := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	return a.TrayNumber == b.TrayNumber &&
		a.Weight.Equal(b.Weight) &&
		a.RatePerKg.Equal(b.RatePerKg) &&
		a.TotalAmount.Equal(b.TotalAmount) &&
		a.PaidAmount.Equal(b.PaidAmount) &&
		a.NumberOfTrays == b.NumberOfTrays &&
		a.Status == b.Status &&
		(a.Notes == nil) == (b.Notes == nil) &&
		notes(a.Notes) == notes(b.Notes)
}
