package store

import (
	"context"
	"database/sql"
	"errors"

	"mandi-backend/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// Snapshot uses a read-only REPEATABLE READ transaction, so every statement
// in fn sees the same committed state. Called inside Atomic it becomes a
// savepoint and inherits the outer isolation.
func (s *GormStore) Snapshot(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
}

// invalid_text_representation: a malformed uuid in a lookup can't match a row.
const pgInvalidText = "22P02"

func translate(err error) error {
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	case errors.As(err, &pgErr) && pgErr.Code == pgInvalidText:
		return ErrNotFound
	}
	return err
}

func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// -------------------------
// Users
// -------------------------

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *GormStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// -------------------------
// Customers
// -------------------------

func (s *GormStore) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return translate(s.db.WithContext(ctx).Create(c).Error)
}

func (s *GormStore) GetCustomer(ctx context.Context, ownerID, id string) (*models.Customer, error) {
	var c models.Customer
	if err := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStore) ListCustomers(ctx context.Context, ownerID string, f CustomerFilter) ([]models.Customer, error) {
	q := s.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if !f.IncludeHidden {
		q = q.Where("visible = ?", true)
	}
	var out []models.Customer
	if err := q.Order("name asc, created_at asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) UpdateCustomerProfile(ctx context.Context, c *models.Customer) error {
	res := s.db.WithContext(ctx).Model(&models.Customer{}).
		Where("id = ? AND owner_id = ?", c.ID, c.OwnerID).
		Updates(map[string]interface{}{
			"name":    c.Name,
			"phone":   c.Phone,
			"address": c.Address,
			"visible": c.Visible,
		})
	return affected(res)
}

func (s *GormStore) IncrementBalance(ctx context.Context, ownerID, id string, delta decimal.Decimal) (decimal.Decimal, error) {
	res := s.db.WithContext(ctx).Model(&models.Customer{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Update("balance", gorm.Expr("balance + ?", delta))
	if err := affected(res); err != nil {
		return decimal.Zero, err
	}
	var c models.Customer
	if err := s.db.WithContext(ctx).Select("balance").Where("id = ?", id).First(&c).Error; err != nil {
		return decimal.Zero, translate(err)
	}
	return c.Balance, nil
}

func (s *GormStore) DeleteCustomer(ctx context.Context, ownerID, id string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.Customer{})
	return affected(res)
}

// -------------------------
// Fruits & categories
// -------------------------

func (s *GormStore) CreateFruit(ctx context.Context, f *models.Fruit) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(f).Error)
}

func (s *GormStore) GetFruit(ctx context.Context, id string) (*models.Fruit, error) {
	var f models.Fruit
	err := s.db.WithContext(ctx).
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("name asc") }).
		First(&f, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

func (s *GormStore) ListFruits(ctx context.Context) ([]models.Fruit, error) {
	var out []models.Fruit
	err := s.db.WithContext(ctx).
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("name asc") }).
		Order("name asc").Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) UpdateFruit(ctx context.Context, f *models.Fruit) error {
	res := s.db.WithContext(ctx).Model(&models.Fruit{}).Where("id = ?", f.ID).
		Updates(map[string]interface{}{
			"name":            f.Name,
			"price_per_kg":    f.PricePerKg,
			"price_per_unit":  f.PricePerUnit,
			"unit":            f.Unit,
			"available_stock": f.AvailableStock,
		})
	return affected(res)
}

func (s *GormStore) DeleteFruit(ctx context.Context, id string) error {
	n, err := s.CountSalesByFruit(ctx, id)
	if err != nil {
		return translate(err)
	}
	if n > 0 {
		return ErrInUse
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("fruit_id = ?", id).Delete(&models.FruitCategory{}).Error; err != nil {
			return err
		}
		return affected(tx.Where("id = ?", id).Delete(&models.Fruit{}))
	})
}

func (s *GormStore) CreateCategory(ctx context.Context, c *models.FruitCategory) error {
	return translate(s.db.WithContext(ctx).Create(c).Error)
}

func (s *GormStore) GetCategory(ctx context.Context, id string) (*models.FruitCategory, error) {
	var c models.FruitCategory
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStore) ListCategories(ctx context.Context, fruitID string) ([]models.FruitCategory, error) {
	q := s.db.WithContext(ctx)
	if fruitID != "" {
		q = q.Where("fruit_id = ?", fruitID)
	}
	var out []models.FruitCategory
	if err := q.Order("name asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) UpdateCategory(ctx context.Context, c *models.FruitCategory) error {
	res := s.db.WithContext(ctx).Model(&models.FruitCategory{}).Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"name":            c.Name,
			"price_per_kg":    c.PricePerKg,
			"price_per_unit":  c.PricePerUnit,
			"unit":            c.Unit,
			"available_stock": c.AvailableStock,
		})
	return affected(res)
}

func (s *GormStore) DeleteCategory(ctx context.Context, id string) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.SaleTransaction{}).Where("fruit_category_id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrInUse
	}
	return affected(s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.FruitCategory{}))
}

// -------------------------
// Sales
// -------------------------

func (s *GormStore) CreateSale(ctx context.Context, t *models.SaleTransaction) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(t).Error)
}

func (s *GormStore) withSaleRelations(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Customer").Preload("Fruit").Preload("FruitCategory")
}

func (s *GormStore) GetSale(ctx context.Context, ownerID, id string) (*models.SaleTransaction, error) {
	var t models.SaleTransaction
	if err := s.withSaleRelations(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *GormStore) LockSale(ctx context.Context, ownerID, id string) (*models.SaleTransaction, error) {
	var t models.SaleTransaction
	err := s.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND owner_id = ?", id, ownerID).First(&t).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *GormStore) ListSales(ctx context.Context, ownerID string, f SaleFilter) ([]models.SaleTransaction, error) {
	q := s.withSaleRelations(ctx).Where("owner_id = ?", ownerID)
	if f.CustomerID != "" {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Since != nil {
		q = q.Where("created_at >= ?", *f.Since)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []models.SaleTransaction
	if err := q.Order("created_at desc, id desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) SaveSalePayment(ctx context.Context, t *models.SaleTransaction) error {
	res := s.db.WithContext(ctx).Model(&models.SaleTransaction{}).
		Where("id = ? AND owner_id = ?", t.ID, t.OwnerID).
		Updates(map[string]interface{}{
			"paid_amount": t.PaidAmount,
			"status":      t.Status,
		})
	return affected(res)
}

func (s *GormStore) DeleteSalesByCustomer(ctx context.Context, ownerID, customerID string) (int64, error) {
	res := s.db.WithContext(ctx).Where("owner_id = ? AND customer_id = ?", ownerID, customerID).Delete(&models.SaleTransaction{})
	return res.RowsAffected, res.Error
}

func (s *GormStore) CountSalesByFruit(ctx context.Context, fruitID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.SaleTransaction{}).Where("fruit_id = ?", fruitID).Count(&n).Error
	return n, err
}

// -------------------------
// Trays
// -------------------------

func (s *GormStore) CreateTray(ctx context.Context, t *models.TrayTransaction) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(t).Error)
}

func (s *GormStore) GetTray(ctx context.Context, ownerID, id string) (*models.TrayTransaction, error) {
	var t models.TrayTransaction
	if err := s.db.WithContext(ctx).Preload("Customer").Where("id = ? AND owner_id = ?", id, ownerID).First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *GormStore) LockTray(ctx context.Context, ownerID, id string) (*models.TrayTransaction, error) {
	var t models.TrayTransaction
	err := s.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND owner_id = ?", id, ownerID).First(&t).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *GormStore) ListTrays(ctx context.Context, ownerID string, f TrayFilter) ([]models.TrayTransaction, error) {
	q := s.db.WithContext(ctx).Preload("Customer").Where("owner_id = ?", ownerID)
	if f.CustomerID != "" {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var out []models.TrayTransaction
	if err := q.Order("created_at desc, id desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) SaveTray(ctx context.Context, t *models.TrayTransaction) error {
	res := s.db.WithContext(ctx).Model(&models.TrayTransaction{}).
		Where("id = ? AND owner_id = ?", t.ID, t.OwnerID).
		Updates(map[string]interface{}{
			"tray_number":     t.TrayNumber,
			"weight":          t.Weight,
			"rate_per_kg":     t.RatePerKg,
			"total_amount":    t.TotalAmount,
			"paid_amount":     t.PaidAmount,
			"number_of_trays": t.NumberOfTrays,
			"status":          t.Status,
			"notes":           t.Notes,
		})
	return affected(res)
}

func (s *GormStore) DeleteTraysByCustomer(ctx context.Context, ownerID, customerID string) (int64, error) {
	res := s.db.WithContext(ctx).Where("owner_id = ? AND customer_id = ?", ownerID, customerID).Delete(&models.TrayTransaction{})
	return res.RowsAffected, res.Error
}

// -------------------------
// Discrepancies
// -------------------------

func (s *GormStore) RecordDiscrepancy(ctx context.Context, d *models.LedgerDiscrepancy) error {
	return s.db.WithContext(ctx).Create(d).Error
}

func (s *GormStore) ListDiscrepancies(ctx context.Context, ownerID string) ([]models.LedgerDiscrepancy, error) {
	var out []models.LedgerDiscrepancy
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

var _ Store = (*GormStore)(nil)
