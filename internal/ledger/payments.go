package ledger

import (
	"context"
	"fmt"

	"mandi-backend/internal/models"
	"mandi-backend/internal/realtime"
	"mandi-backend/internal/store"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type SalePayment struct {
	Sale    *models.SaleTransaction
	Delta   decimal.Decimal // applied to the customer balance: previous paid - new paid
	Balance decimal.Decimal
	Changed bool
}

// UpdateSalePayment replaces a sale's paid amount and moves the customer
// balance by (previous - new). Status is re-derived, so lowering a completed
// sale's payment below its total returns it to pending.
func (s *Service) UpdateSalePayment(ctx context.Context, ownerID, saleID string, newPaid decimal.Decimal) (*SalePayment, error) {
	if ownerID == "" {
		return nil, ErrNoActor
	}
	if newPaid.IsNegative() {
		return nil, invalidf("paid_amount", "must not be negative")
	}
	newPaid = money(newPaid)

	res := &SalePayment{}
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		sale, err := tx.LockSale(ctx, ownerID, saleID)
		if err != nil {
			return err
		}
		if sale.Status == models.StatusCancelled {
			return ErrCancelled
		}

		paid, err := s.settlePaid(newPaid, sale.TotalAmount)
		if err != nil {
			return err
		}
		if paid.Equal(sale.PaidAmount) {
			return nil
		}

		res.Delta = sale.PaidAmount.Sub(paid)
		sale.PaidAmount = paid
		sale.Status = saleStatus(paid, sale.TotalAmount)
		if err := tx.SaveSalePayment(ctx, sale); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}

		res.Balance, err = tx.IncrementBalance(ctx, ownerID, sale.CustomerID, res.Delta)
		if err != nil {
			return fmt.Errorf("apply payment to balance: %w", err)
		}
		res.Changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Changed {
		s.publish(ctx, ownerID, realtime.TableSales, realtime.KindUpdate, saleID)
		s.refreshCustomers(ctx, ownerID)
		s.log.WithFields(logrus.Fields{
			"owner_id": ownerID,
			"sale_id":  saleID,
			"delta":    res.Delta.StringFixed(2),
		}).Info("sale payment updated")
	}

	res.Sale, err = s.store.GetSale(ctx, ownerID, saleID)
	if err != nil {
		return nil, err
	}
	if !res.Changed && res.Sale.Customer != nil {
		res.Balance = res.Sale.Customer.Balance
	}
	return res, nil
}

type TrayPayment struct {
	Tray    *models.TrayTransaction
	Delta   decimal.Decimal
	Balance decimal.Decimal
	Changed bool
}

// UpdateTrayPayment is the tray counterpart of UpdateSalePayment. Trays linked
// to a sale record the payment but leave the balance alone; the sale carries it.
func (s *Service) UpdateTrayPayment(ctx context.Context, ownerID, trayID string, newPaid decimal.Decimal) (*TrayPayment, error) {
	if ownerID == "" {
		return nil, ErrNoActor
	}
	if newPaid.IsNegative() {
		return nil, invalidf("paid_amount", "must not be negative")
	}
	newPaid = money(newPaid)

	res := &TrayPayment{}
	balanceMoved := false
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		tray, err := tx.LockTray(ctx, ownerID, trayID)
		if err != nil {
			return err
		}

		paid, err := s.settlePaid(newPaid, tray.TotalAmount)
		if err != nil {
			return err
		}
		if paid.Equal(tray.PaidAmount) {
			return nil
		}

		delta := tray.PaidAmount.Sub(paid)
		tray.PaidAmount = paid
		if err := tx.SaveTray(ctx, tray); err != nil {
			return fmt.Errorf("save tray payment: %w", err)
		}
		res.Changed = true

		if !tray.AffectsBalance() {
			return nil
		}
		res.Delta = delta
		res.Balance, err = tx.IncrementBalance(ctx, ownerID, tray.CustomerID, delta)
		if err != nil {
			return fmt.Errorf("apply tray payment to balance: %w", err)
		}
		balanceMoved = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Changed {
		s.publish(ctx, ownerID, realtime.TableTrays, realtime.KindUpdate, trayID)
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

// CancelSale moves a pending sale to cancelled and takes its outstanding
// amount off the customer balance. Completed and cancelled sales are final.
func (s *Service) CancelSale(ctx context.Context, ownerID, saleID string) (*models.SaleTransaction, error) {
	if ownerID == "" {
		return nil, ErrNoActor
	}

	err := s.store.Atomic(ctx, func(tx store.Store) error {
		sale, err := tx.LockSale(ctx, ownerID, saleID)
		if err != nil {
			return err
		}
		switch sale.Status {
		case models.StatusCancelled:
			return ErrCancelled
		case models.StatusPending:
		default:
			return fmt.Errorf("%w: only pending sales can be cancelled", ErrInvalidTransition)
		}

		out := sale.Outstanding()
		sale.Status = models.StatusCancelled
		if err := tx.SaveSalePayment(ctx, sale); err != nil {
			return fmt.Errorf("cancel sale: %w", err)
		}
		if !out.IsZero() {
			if _, err := tx.IncrementBalance(ctx, ownerID, sale.CustomerID, out.Neg()); err != nil {
				return fmt.Errorf("remove cancelled sale from balance: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, ownerID, realtime.TableSales, realtime.KindUpdate, saleID)
	s.refreshCustomers(ctx, ownerID)
	s.log.WithFields(logrus.Fields{"owner_id": ownerID, "sale_id": saleID}).Info("sale cancelled")

	return s.store.GetSale(ctx, ownerID, saleID)
}

// UpdateTrayStatus changes the physical state of a tray. It never touches the balance.
func (s *Service) UpdateTrayStatus(ctx context.Context, ownerID, trayID string, status models.TrayStatus) (*models.TrayTransaction, error) {
	if ownerID == "" {
		return nil, ErrNoActor
	}
	if !status.Valid() {
		return nil, invalidf("status", "must be available, in_use or maintenance")
	}

	changed := false
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		tray, err := tx.LockTray(ctx, ownerID, trayID)
		if err != nil {
			return err
		}
		if tray.Status == status {
			return nil
		}
		tray.Status = status
		changed = true
		return tx.SaveTray(ctx, tray)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publish(ctx, ownerID, realtime.TableTrays, realtime.KindUpdate, trayID)
	}
	return s.store.GetTray(ctx, ownerID, trayID)
}
