package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"mandi-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, NewMemoryStore())
}

func TestMemoryStoreStampsAreStrictlyIncreasing(t *testing.T) {
	st := NewMemoryStore()
	fixed := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	st.SetClock(func() time.Time { return fixed })

	ctx := context.Background()
	a := &models.Customer{OwnerID: "o", Name: "A", Visible: true}
	b := &models.Customer{OwnerID: "o", Name: "B", Visible: true}
	require.NoError(t, st.CreateCustomer(ctx, a))
	require.NoError(t, st.CreateCustomer(ctx, b))

	assert.Equal(t, fixed, a.CreatedAt)
	assert.True(t, b.CreatedAt.After(a.CreatedAt))
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	c := &models.Customer{OwnerID: "o", Name: "Ravi", Balance: decimal.Zero, Visible: true}
	require.NoError(t, st.CreateCustomer(ctx, c))

	got, err := st.GetCustomer(ctx, "o", c.ID)
	require.NoError(t, err)
	got.Balance = decimal.NewFromInt(1000)

	again, err := st.GetCustomer(ctx, "o", c.ID)
	require.NoError(t, err)
	assert.True(t, again.Balance.IsZero())
}

func TestMemoryStoreConcurrentIncrements(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	c := &models.Customer{OwnerID: "o", Name: "Ravi", Balance: decimal.Zero, Visible: true}
	require.NoError(t, st.CreateCustomer(ctx, c))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = st.Atomic(ctx, func(tx Store) error {
				_, err := tx.IncrementBalance(ctx, "o", c.ID, decimal.NewFromInt(2))
				return err
			})
		}()
	}
	wg.Wait()

	got, err := st.GetCustomer(ctx, "o", c.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(100)))
}
