package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mandi-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreSuite checks behaviour every Store adapter must share. Each subtest
// works under a fresh owner so adapters backed by a shared database stay
// isolated.
func runStoreSuite(t *testing.T, st Store) {
	ctx := context.Background()

	newFruit := func(t *testing.T) *models.Fruit {
		f := &models.Fruit{Name: "Fruit " + uuid.NewString()[:8], PricePerKg: decimal.NewFromInt(40), Unit: models.UnitKg}
		require.NoError(t, st.CreateFruit(ctx, f))
		return f
	}
	newCustomer := func(t *testing.T, owner, name string, visible bool) *models.Customer {
		c := &models.Customer{OwnerID: owner, Name: name, Balance: decimal.Zero, Visible: visible}
		require.NoError(t, st.CreateCustomer(ctx, c))
		return c
	}
	newSale := func(t *testing.T, owner, customerID, fruitID string, total, paid int64, status models.TransactionStatus) *models.SaleTransaction {
		s := &models.SaleTransaction{
			OwnerID:     owner,
			CustomerID:  customerID,
			FruitID:     fruitID,
			Quantity:    decimal.NewFromInt(1),
			Rate:        decimal.NewFromInt(total),
			PricingMode: models.PricingPerKg,
			TotalAmount: decimal.NewFromInt(total),
			PaidAmount:  decimal.NewFromInt(paid),
			Status:      status,
		}
		require.NoError(t, st.CreateSale(ctx, s))
		return s
	}

	t.Run("users", func(t *testing.T) {
		email := uuid.NewString() + "@example.com"
		u := &models.User{Name: "Meena", Email: email, PasswordHash: "x"}
		require.NoError(t, st.CreateUser(ctx, u))
		require.NotEmpty(t, u.ID)

		got, err := st.GetUserByEmail(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		got, err = st.GetUserByEmail(ctx, strings.ToUpper(email))
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		err = st.CreateUser(ctx, &models.User{Name: "Dup", Email: email, PasswordHash: "y"})
		assert.ErrorIs(t, err, ErrConflict)
		err = st.CreateUser(ctx, &models.User{Name: "Dup", Email: strings.ToUpper(email), PasswordHash: "y"})
		assert.ErrorIs(t, err, ErrConflict)

		_, err = st.GetUser(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("customers", func(t *testing.T) {
		owner := uuid.NewString()
		zed := newCustomer(t, owner, "Zed", true)
		newCustomer(t, owner, "Anil", true)
		newCustomer(t, owner, "Hidden", false)
		newCustomer(t, uuid.NewString(), "Other owner", true)

		list, err := st.ListCustomers(ctx, owner, CustomerFilter{})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Anil", list[0].Name)

		list, err = st.ListCustomers(ctx, owner, CustomerFilter{IncludeHidden: true})
		require.NoError(t, err)
		assert.Len(t, list, 3)

		_, err = st.GetCustomer(ctx, uuid.NewString(), zed.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		bal, err := st.IncrementBalance(ctx, owner, zed.ID, decimal.RequireFromString("120.50"))
		require.NoError(t, err)
		assert.True(t, bal.Equal(decimal.RequireFromString("120.5")))
		bal, err = st.IncrementBalance(ctx, owner, zed.ID, decimal.NewFromInt(-20))
		require.NoError(t, err)
		assert.True(t, bal.Equal(decimal.RequireFromString("100.5")))

		phone := "9876543210"
		zed.Name = "Zed Traders"
		zed.Phone = &phone
		zed.Balance = decimal.NewFromInt(999999)
		require.NoError(t, st.UpdateCustomerProfile(ctx, zed))

		got, err := st.GetCustomer(ctx, owner, zed.ID)
		require.NoError(t, err)
		assert.Equal(t, "Zed Traders", got.Name)
		assert.Equal(t, phone, got.PhoneNumber())
		assert.True(t, got.Balance.Equal(decimal.RequireFromString("100.5")), "profile update must not write balance")

		_, err = st.IncrementBalance(ctx, uuid.NewString(), zed.ID, decimal.NewFromInt(1))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("atomic rolls back", func(t *testing.T) {
		owner := uuid.NewString()
		c := newCustomer(t, owner, "Ravi", true)
		boom := errors.New("boom")

		err := st.Atomic(ctx, func(tx Store) error {
			if _, err := tx.IncrementBalance(ctx, owner, c.ID, decimal.NewFromInt(500)); err != nil {
				return err
			}
			if err := tx.CreateCustomer(ctx, &models.Customer{OwnerID: owner, Name: "Ghost", Visible: true}); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		got, err := st.GetCustomer(ctx, owner, c.ID)
		require.NoError(t, err)
		assert.True(t, got.Balance.IsZero())
		list, err := st.ListCustomers(ctx, owner, CustomerFilter{IncludeHidden: true})
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("snapshot ignores later commits", func(t *testing.T) {
		owner := uuid.NewString()
		c := newCustomer(t, owner, "Ravi", true)

		err := st.Snapshot(ctx, func(tx Store) error {
			before, err := tx.GetCustomer(ctx, owner, c.ID)
			if err != nil {
				return err
			}
			assert.True(t, before.Balance.IsZero())

			_, err = st.IncrementBalance(ctx, owner, c.ID, decimal.NewFromInt(10))
			require.NoError(t, err)

			after, err := tx.GetCustomer(ctx, owner, c.ID)
			if err != nil {
				return err
			}
			assert.True(t, after.Balance.IsZero(), "snapshot saw %s", after.Balance)
			return nil
		})
		require.NoError(t, err)

		got, err := st.GetCustomer(ctx, owner, c.ID)
		require.NoError(t, err)
		assert.True(t, got.Balance.Equal(decimal.NewFromInt(10)))
	})

	t.Run("sales", func(t *testing.T) {
		owner := uuid.NewString()
		fruit := newFruit(t)
		ravi := newCustomer(t, owner, "Ravi", true)
		sita := newCustomer(t, owner, "Sita", true)

		first := newSale(t, owner, ravi.ID, fruit.ID, 500, 200, models.StatusPending)
		newSale(t, owner, sita.ID, fruit.ID, 100, 100, models.StatusCompleted)
		last := newSale(t, owner, ravi.ID, fruit.ID, 80, 0, models.StatusPending)

		list, err := st.ListSales(ctx, owner, SaleFilter{})
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, last.ID, list[0].ID, "newest first")
		require.NotNil(t, list[0].Customer)
		require.NotNil(t, list[0].Fruit)
		assert.Equal(t, fruit.Name, list[0].Fruit.Name)

		list, err = st.ListSales(ctx, owner, SaleFilter{CustomerID: ravi.ID, Status: models.StatusPending})
		require.NoError(t, err)
		assert.Len(t, list, 2)
		list, err = st.ListSales(ctx, owner, SaleFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, list, 1)

		err = st.Atomic(ctx, func(tx Store) error {
			s, err := tx.LockSale(ctx, owner, first.ID)
			if err != nil {
				return err
			}
			s.PaidAmount = decimal.NewFromInt(500)
			s.Status = models.StatusCompleted
			return tx.SaveSalePayment(ctx, s)
		})
		require.NoError(t, err)
		got, err := st.GetSale(ctx, owner, first.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, got.Status)
		assert.True(t, got.PaidAmount.Equal(decimal.NewFromInt(500)))

		_, err = st.GetSale(ctx, uuid.NewString(), first.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		n, err := st.CountSalesByFruit(ctx, fruit.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		assert.ErrorIs(t, st.DeleteFruit(ctx, fruit.ID), ErrInUse)

		n, err = st.DeleteSalesByCustomer(ctx, owner, ravi.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		list, err = st.ListSales(ctx, owner, SaleFilter{})
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("categories", func(t *testing.T) {
		fruit := newFruit(t)
		cat := &models.FruitCategory{FruitID: fruit.ID, Name: "Premium", Unit: models.UnitKg}
		require.NoError(t, st.CreateCategory(ctx, cat))

		got, err := st.GetFruit(ctx, fruit.ID)
		require.NoError(t, err)
		require.Len(t, got.Categories, 1)
		assert.Equal(t, "Premium", got.Categories[0].Name)

		cats, err := st.ListCategories(ctx, fruit.ID)
		require.NoError(t, err)
		assert.Len(t, cats, 1)

		require.NoError(t, st.DeleteCategory(ctx, cat.ID))
		_, err = st.GetCategory(ctx, cat.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, st.DeleteFruit(ctx, fruit.ID))
		_, err = st.GetFruit(ctx, fruit.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("trays", func(t *testing.T) {
		owner := uuid.NewString()
		c := newCustomer(t, owner, "Ravi", true)
		tray := &models.TrayTransaction{
			OwnerID:       owner,
			CustomerID:    c.ID,
			TrayNumber:    "T-1",
			Weight:        decimal.NewFromInt(10),
			RatePerKg:     decimal.NewFromInt(5),
			TotalAmount:   decimal.NewFromInt(50),
			PaidAmount:    decimal.Zero,
			NumberOfTrays: 1,
			Status:        models.TrayInUse,
		}
		require.NoError(t, st.CreateTray(ctx, tray))

		err := st.Atomic(ctx, func(tx Store) error {
			locked, err := tx.LockTray(ctx, owner, tray.ID)
			if err != nil {
				return err
			}
			note := "returned"
			locked.TrayNumber = "T-1B"
			locked.Weight = decimal.NewFromInt(12)
			locked.TotalAmount = decimal.NewFromInt(60)
			locked.Status = models.TrayAvailable
			locked.PaidAmount = decimal.NewFromInt(50)
			locked.NumberOfTrays = 3
			locked.Notes = &note
			return tx.SaveTray(ctx, locked)
		})
		require.NoError(t, err)

		list, err := st.ListTrays(ctx, owner, TrayFilter{Status: models.TrayAvailable})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.True(t, list[0].PaidAmount.Equal(decimal.NewFromInt(50)))
		assert.True(t, list[0].TotalAmount.Equal(decimal.NewFromInt(60)))
		assert.True(t, list[0].Weight.Equal(decimal.NewFromInt(12)))
		assert.Equal(t, "T-1B", list[0].TrayNumber)
		assert.Equal(t, 3, list[0].NumberOfTrays)
		require.NotNil(t, list[0].Notes)
		assert.Equal(t, "returned", *list[0].Notes)

		n, err := st.DeleteTraysByCustomer(ctx, owner, c.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		require.NoError(t, st.DeleteCustomer(ctx, owner, c.ID))
		assert.ErrorIs(t, st.DeleteCustomer(ctx, owner, c.ID), ErrNotFound)
	})

	t.Run("discrepancies", func(t *testing.T) {
		owner := uuid.NewString()
		c := newCustomer(t, owner, "Ravi", true)
		d := &models.LedgerDiscrepancy{
			OwnerID:         owner,
			CustomerID:      c.ID,
			CustomerName:    c.Name,
			StoredBalance:   decimal.NewFromInt(10),
			ExpectedBalance: decimal.NewFromInt(0),
			Difference:      decimal.NewFromInt(-10),
			Source:          "test",
		}
		require.NoError(t, st.RecordDiscrepancy(ctx, d))

		list, err := st.ListDiscrepancies(ctx, owner)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, c.ID, list[0].CustomerID)
	})
}
