// Package store is the persistence port. Handlers and the ledger receive a
// Store handle explicitly; GormStore backs it with Postgres and MemoryStore
// keeps everything in process for tests and local runs.
package store

import (
	"context"
	"errors"
	"time"

	"mandi-backend/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
	ErrInUse    = errors.New("record is referenced by transactions")
)

type CustomerFilter struct {
	IncludeHidden bool
}

type SaleFilter struct {
	CustomerID string
	Status     models.TransactionStatus
	Since      *time.Time // created_at >= Since
	Limit      int
}

type TrayFilter struct {
	CustomerID string
	Status     models.TrayStatus
}

type Store interface {
	// Atomic runs fn against a transactional view of the store. Every write
	// made through tx commits together or not at all.
	Atomic(ctx context.Context, fn func(tx Store) error) error
	// Snapshot runs fn against a read-only view fixed when it starts: commits
	// made meanwhile by others are not seen. Writes through tx are refused or
	// discarded.
	Snapshot(ctx context.Context, fn func(tx Store) error) error

	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateCustomer(ctx context.Context, c *models.Customer) error
	GetCustomer(ctx context.Context, ownerID, id string) (*models.Customer, error)
	ListCustomers(ctx context.Context, ownerID string, f CustomerFilter) ([]models.Customer, error)
	// UpdateCustomerProfile writes name, phone, address and visible. Never balance.
	UpdateCustomerProfile(ctx context.Context, c *models.Customer) error
	// IncrementBalance adds delta in a single statement and returns the new balance.
	IncrementBalance(ctx context.Context, ownerID, id string, delta decimal.Decimal) (decimal.Decimal, error)
	DeleteCustomer(ctx context.Context, ownerID, id string) error

	CreateFruit(ctx context.Context, f *models.Fruit) error
	GetFruit(ctx context.Context, id string) (*models.Fruit, error)
	ListFruits(ctx context.Context) ([]models.Fruit, error)
	UpdateFruit(ctx context.Context, f *models.Fruit) error
	DeleteFruit(ctx context.Context, id string) error

	CreateCategory(ctx context.Context, c *models.FruitCategory) error
	GetCategory(ctx context.Context, id string) (*models.FruitCategory, error)
	// ListCategories returns categories of fruitID, or of every fruit when empty.
	ListCategories(ctx context.Context, fruitID string) ([]models.FruitCategory, error)
	UpdateCategory(ctx context.Context, c *models.FruitCategory) error
	DeleteCategory(ctx context.Context, id string) error

	CreateSale(ctx context.Context, t *models.SaleTransaction) error
	// GetSale loads the sale with Customer, Fruit and FruitCategory attached.
	GetSale(ctx context.Context, ownerID, id string) (*models.SaleTransaction, error)
	// LockSale loads the sale row for update. Only meaningful inside Atomic.
	LockSale(ctx context.Context, ownerID, id string) (*models.SaleTransaction, error)
	ListSales(ctx context.Context, ownerID string, f SaleFilter) ([]models.SaleTransaction, error)
	// SaveSalePayment writes paid_amount and status.
	SaveSalePayment(ctx context.Context, t *models.SaleTransaction) error
	DeleteSalesByCustomer(ctx context.Context, ownerID, customerID string) (int64, error)
	CountSalesByFruit(ctx context.Context, fruitID string) (int64, error)

	CreateTray(ctx context.Context, t *models.TrayTransaction) error
	GetTray(ctx context.Context, ownerID, id string) (*models.TrayTransaction, error)
	LockTray(ctx context.Context, ownerID, id string) (*models.TrayTransaction, error)
	ListTrays(ctx context.Context, ownerID string, f TrayFilter) ([]models.TrayTransaction, error)
	// SaveTray writes every editable column: tray_number, weight, rate_per_kg,
	// total_amount, paid_amount, number_of_trays, status and notes.
	SaveTray(ctx context.Context, t *models.TrayTransaction) error
	DeleteTraysByCustomer(ctx context.Context, ownerID, customerID string) (int64, error)

	RecordDiscrepancy(ctx context.Context, d *models.LedgerDiscrepancy) error
	ListDiscrepancies(ctx context.Context, ownerID string) ([]models.LedgerDiscrepancy, error)
}
