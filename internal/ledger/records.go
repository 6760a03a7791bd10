package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mandi-backend/internal/models"
	"mandi-backend/internal/realtime"
	"mandi-backend/internal/store"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// CashSaleID is the customer reference a client sends for a walk-in sale.
const CashSaleID = "cash-sale"

type SaleInput struct {
	CustomerID      string // empty or CashSaleID for a walk-in sale
	FruitID         string
	FruitCategoryID *string
	Quantity        decimal.Decimal
	Rate            decimal.Decimal
	PricingMode     models.PricingMode
	PaidAmount      decimal.Decimal
	Notes           *string
	NumberOfTrays   int // > 0 emits a linked tray record
}

func (in *SaleInput) IsCashSale() bool {
	id := strings.TrimSpace(in.CustomerID)
	return id == "" || id == CashSaleID
}

func (in *SaleInput) validate() error {
	if strings.TrimSpace(in.FruitID) == "" {
		return invalidf("fruit_id", "is required")
	}
	in.Quantity = measure(in.Quantity)
	in.Rate = money(in.Rate)
	if !in.Quantity.IsPositive() {
		return invalidf("quantity", "must be greater than zero")
	}
	if !in.Rate.IsPositive() {
		return invalidf("rate", "must be greater than zero")
	}
	if in.PaidAmount.IsNegative() {
		return invalidf("paid_amount", "must not be negative")
	}
	switch in.PricingMode {
	case "":
		in.PricingMode = models.PricingPerKg
	case models.PricingPerKg, models.PricingPerBox:
	default:
		return invalidf("pricing_mode", "must be per_kg or per_box")
	}
	if in.NumberOfTrays < 0 {
		return invalidf("number_of_trays", "must not be negative")
	}
	if in.FruitCategoryID != nil && strings.TrimSpace(*in.FruitCategoryID) == "" {
		in.FruitCategoryID = nil
	}
	return nil
}

type SaleResult struct {
	Sale    *models.SaleTransaction
	Tray    *models.TrayTransaction // linked tray, when one was emitted
	Balance decimal.Decimal         // customer balance after the write
}

// CreateSale validates and stores a sale, folds its outstanding amount into
// the customer's balance and, when trays were used, emits a linked tray record.
func (s *Service) CreateSale(ctx context.Context, ownerID string, in SaleInput) (*SaleResult, error) {
	if ownerID == "" {
		return nil, ErrNoActor
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	total := money(in.Quantity.Mul(in.Rate))
	paid, err := s.settlePaid(money(in.PaidAmount), total)
	if err != nil {
		return nil, err
	}
	cash := in.IsCashSale()

	var (
		sale        *models.SaleTransaction
		tray        *models.TrayTransaction
		balance     decimal.Decimal
		newCustomer bool
	)
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		fruit, err := tx.GetFruit(ctx, in.FruitID)
		if errors.Is(err, store.ErrNotFound) {
			return invalidf("fruit_id", "unknown fruit")
		}
		if err != nil {
			return err
		}
		if in.FruitCategoryID != nil {
			cat, err := tx.GetCategory(ctx, *in.FruitCategoryID)
			if errors.Is(err, store.ErrNotFound) || (err == nil && cat.FruitID != fruit.ID) {
				return invalidf("fruit_category_id", "category does not belong to this fruit")
			}
			if err != nil {
				return err
			}
		}

		var customer *models.Customer
		if cash {
			customer = &models.Customer{
				OwnerID: ownerID,
				Name:    models.CashSaleName,
				Balance: decimal.Zero,
				Visible: false,
			}
			if err := tx.CreateCustomer(ctx, customer); err != nil {
				return fmt.Errorf("create cash sale customer: %w", err)
			}
			newCustomer = true
		} else {
			customer, err = tx.GetCustomer(ctx, ownerID, in.CustomerID)
			if errors.Is(err, store.ErrNotFound) {
				return invalidf("customer_id", "unknown customer")
			}
			if err != nil {
				return err
			}
		}

		sale = &models.SaleTransaction{
			OwnerID:         ownerID,
			CustomerID:      customer.ID,
			FruitID:         fruit.ID,
			FruitCategoryID: in.FruitCategoryID,
			Quantity:        in.Quantity,
			Rate:            in.Rate,
			PricingMode:     in.PricingMode,
			TotalAmount:     total,
			PaidAmount:      paid,
			Status:          saleStatus(paid, total),
			Notes:           in.Notes,
		}
		if err := tx.CreateSale(ctx, sale); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		balance = customer.Balance
		if out := sale.Outstanding(); !out.IsZero() {
			balance, err = tx.IncrementBalance(ctx, ownerID, customer.ID, out)
			if err != nil {
				return fmt.Errorf("apply sale to balance: %w", err)
			}
		}

		if in.NumberOfTrays > 0 && !cash {
			note := fmt.Sprintf("Transaction ID: %s - %s (%skg)", sale.ID, fruit.Name, in.Quantity.String())
			saleID := sale.ID
			tray = &models.TrayTransaction{
				OwnerID:           ownerID,
				CustomerID:        customer.ID,
				TrayNumber:        fmt.Sprintf("TXN-%d", s.now().UnixMilli()),
				Weight:            in.Quantity,
				RatePerKg:         in.Rate,
				TotalAmount:       total,
				PaidAmount:        paid,
				NumberOfTrays:     in.NumberOfTrays,
				Status:            models.TrayInUse,
				SaleTransactionID: &saleID,
				Notes:             &note,
			}
			if err := tx.CreateTray(ctx, tray); err != nil {
				return fmt.Errorf("create linked tray: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if newCustomer {
		s.publish(ctx, ownerID, realtime.TableCustomers, realtime.KindInsert, sale.CustomerID)
	}
	s.publish(ctx, ownerID, realtime.TableSales, realtime.KindInsert, sale.ID)
	if tray != nil {
		s.publish(ctx, ownerID, realtime.TableTrays, realtime.KindInsert, tray.ID)
	}
	if !sale.Outstanding().IsZero() {
		s.refreshCustomers(ctx, ownerID)
	}

	s.log.WithFields(logrus.Fields{
		"owner_id":    ownerID,
		"sale_id":     sale.ID,
		"customer_id": sale.CustomerID,
		"total":       total.StringFixed(2),
		"paid":        paid.StringFixed(2),
		"cash_sale":   cash,
	}).Info("sale recorded")

	loaded, err := s.store.GetSale(ctx, ownerID, sale.ID)
	if err != nil {
		// Committed; return what we wrote rather than fail the request.
		loaded = sale
	}
	return &SaleResult{Sale: loaded, Tray: tray, Balance: balance}, nil
}

type TrayInput struct {
	CustomerID    string
	TrayNumber    string
	Weight        decimal.Decimal
	RatePerKg     decimal.Decimal
	PaidAmount    decimal.Decimal
	NumberOfTrays int
	Notes         *string
}

func (in *TrayInput) validate() error {
	if strings.TrimSpace(in.CustomerID) == "" {
		return invalidf("customer_id", "is required")
	}
	in.TrayNumber = strings.TrimSpace(in.TrayNumber)
	if in.TrayNumber == "" {
		return invalidf("tray_number", "is required")
	}
	return checkTrayAmounts(&in.Weight, &in.RatePerKg, in.PaidAmount, &in.NumberOfTrays)
}

// checkTrayAmounts rounds weight and rate to stored precision and defaults
// the tray count to one.
func checkTrayAmounts(weight, rate *decimal.Decimal, paid decimal.Decimal, count *int) error {
	*weight = measure(*weight)
	*rate = money(*rate)
	if !weight.IsPositive() {
		return invalidf("weight", "must be greater than zero")
	}
	if !rate.IsPositive() {
		return invalidf("rate_per_kg", "must be greater than zero")
	}
	if paid.IsNegative() {
		return invalidf("paid_amount", "must not be negative")
	}
	if *count < 0 {
		return invalidf("number_of_trays", "must not be negative")
	}
	if *count == 0 {
		*count = 1
	}
	return nil
}

type TrayResult struct {
	Tray    *models.TrayTransaction
	Balance decimal.Decimal
}

// CreateTray stores a standalone tray record and folds its outstanding amount
// into the customer's balance.
func (s *Service) CreateTray(ctx context.Context, ownerID string, in TrayInput) (*TrayResult, error) {
	if ownerID == "" {
		return nil, ErrNoActor
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	total := money(in.Weight.Mul(in.RatePerKg))
	paid, err := s.settlePaid(money(in.PaidAmount), total)
	if err != nil {
		return nil, err
	}

	var (
		tray    *models.TrayTransaction
		balance decimal.Decimal
	)
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		customer, err := tx.GetCustomer(ctx, ownerID, in.CustomerID)
		if errors.Is(err, store.ErrNotFound) {
			return invalidf("customer_id", "unknown customer")
		}
		if err != nil {
			return err
		}

		tray = &models.TrayTransaction{
			OwnerID:       ownerID,
			CustomerID:    customer.ID,
			TrayNumber:    in.TrayNumber,
			Weight:        in.Weight,
			RatePerKg:     in.RatePerKg,
			TotalAmount:   total,
			PaidAmount:    paid,
			NumberOfTrays: in.NumberOfTrays,
			Status:        models.TrayInUse,
			Notes:         in.Notes,
		}
		if err := tx.CreateTray(ctx, tray); err != nil {
			return fmt.Errorf("create tray: %w", err)
		}

		balance = customer.Balance
		if out := tray.Outstanding(); !out.IsZero() {
			balance, err = tx.IncrementBalance(ctx, ownerID, customer.ID, out)
			if err != nil {
				return fmt.Errorf("apply tray to balance: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, ownerID, realtime.TableTrays, realtime.KindInsert, tray.ID)
	if !tray.Outstanding().IsZero() {
		s.refreshCustomers(ctx, ownerID)
	}

	loaded, err := s.store.GetTray(ctx, ownerID, tray.ID)
	if err != nil {
		loaded = tray
	}
	return &TrayResult{Tray: loaded, Balance: balance}, nil
}
