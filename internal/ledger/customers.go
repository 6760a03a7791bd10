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

type CustomerInput struct {
	Name    string
	Phone   *string
	Address *string
}

func trimOptional(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func (in *CustomerInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalidf("name", "is required")
	}
	in.Phone = trimOptional(in.Phone)
	in.Address = trimOptional(in.Address)
	return nil
}

// CreateCustomer starts every customer visible with a zero balance.
func (s *Service) CreateCustomer(ctx context.Context, ownerID string, in CustomerInput) (*models.Customer, error) {
	if ownerID == "" {
		return nil, ErrNoActor
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	c := &models.Customer{
		OwnerID: ownerID,
		Name:    in.Name,
		Phone:   in.Phone,
		Address: in.Address,
		Balance: decimal.Zero,
		Visible: true,
	}
	if err := s.store.CreateCustomer(ctx, c); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	s.publish(ctx, ownerID, realtime.TableCustomers, realtime.KindInsert, c.ID)
	return c, nil
}

// UpdateCustomer edits the profile fields. Balance and visibility are untouched.
func (s *Service) UpdateCustomer(ctx context.Context, ownerID, id string, in CustomerInput) (*models.Customer, error) {
	if ownerID == "" {
		return nil, ErrNoActor
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	cur, err := s.store.GetCustomer(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	cur.Name = in.Name
	cur.Phone = in.Phone
	cur.Address = in.Address
	if err := s.store.UpdateCustomerProfile(ctx, cur); err != nil {
		return nil, err
	}
	s.publish(ctx, ownerID, realtime.TableCustomers, realtime.KindUpdate, id)
	return s.store.GetCustomer(ctx, ownerID, id)
}

func (s *Service) SetCustomerVisibility(ctx context.Context, ownerID, id string, visible bool) (*models.Customer, error) {
	if ownerID == "" {
		return nil, ErrNoActor
	}

	cur, err := s.store.GetCustomer(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if cur.Visible == visible {
		return cur, nil
	}
	cur.Visible = visible
	if err := s.store.UpdateCustomerProfile(ctx, cur); err != nil {
		return nil, err
	}
	s.publish(ctx, ownerID, realtime.TableCustomers, realtime.KindUpdate, id)
	return s.store.GetCustomer(ctx, ownerID, id)
}

type DeleteResult struct {
	SalesDeleted int64 `json:"sales_deleted"`
	TraysDeleted int64 `json:"trays_deleted"`
}

// DeleteCustomer removes the customer together with every sale and tray it
// owns. If any dependent delete fails nothing is removed.
func (s *Service) DeleteCustomer(ctx context.Context, ownerID, id string) (*DeleteResult, error) {
	if ownerID == "" {
		return nil, ErrNoActor
	}

	res := &DeleteResult{}
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		if _, err := tx.GetCustomer(ctx, ownerID, id); err != nil {
			return err
		}
		var err error
		if res.SalesDeleted, err = tx.DeleteSalesByCustomer(ctx, ownerID, id); err != nil {
			return fmt.Errorf("delete customer sales: %w", err)
		}
		if res.TraysDeleted, err = tx.DeleteTraysByCustomer(ctx, ownerID, id); err != nil {
			return fmt.Errorf("delete customer trays: %w", err)
		}
		if err := tx.DeleteCustomer(ctx, ownerID, id); err != nil {
			return fmt.Errorf("delete customer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, ownerID, realtime.TableCustomers, realtime.KindDelete, id)
	if res.SalesDeleted > 0 {
		s.publish(ctx, ownerID, realtime.TableSales, realtime.KindRefresh, "")
	}
	if res.TraysDeleted > 0 {
		s.publish(ctx, ownerID, realtime.TableTrays, realtime.KindRefresh, "")
	}
	s.log.WithFields(logrus.Fields{
		"owner_id":      ownerID,
		"customer_id":   id,
		"sales_deleted": res.SalesDeleted,
		"trays_deleted": res.TraysDeleted,
	}).Info("customer deleted")
	return res, nil
}
