package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"mandi-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryStore keeps all records in process. Each call holds one mutex, and
// Atomic runs against a copy that replaces the live data only on success.
type MemoryStore struct {
	mu    sync.Mutex
	d     *memData
	clock func() time.Time
}

type memData struct {
	users         map[string]models.User
	customers     map[string]models.Customer
	fruits        map[string]models.Fruit
	categories    map[string]models.FruitCategory
	sales         map[string]models.SaleTransaction
	trays         map[string]models.TrayTransaction
	discrepancies map[string]models.LedgerDiscrepancy
	lastStamp     time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		d: &memData{
			users:         map[string]models.User{},
			customers:     map[string]models.Customer{},
			fruits:        map[string]models.Fruit{},
			categories:    map[string]models.FruitCategory{},
			sales:         map[string]models.SaleTransaction{},
			trays:         map[string]models.TrayTransaction{},
			discrepancies: map[string]models.LedgerDiscrepancy{},
		},
		clock: time.Now,
	}
}

// SetClock replaces the time source used for created_at/updated_at stamps.
func (m *MemoryStore) SetClock(clock func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = clock
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (d *memData) clone() *memData {
	return &memData{
		users:         copyMap(d.users),
		customers:     copyMap(d.customers),
		fruits:        copyMap(d.fruits),
		categories:    copyMap(d.categories),
		sales:         copyMap(d.sales),
		trays:         copyMap(d.trays),
		discrepancies: copyMap(d.discrepancies),
		lastStamp:     d.lastStamp,
	}
}

func (m *MemoryStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	work := m.d.clone()
	if err := fn(&memTx{d: work, clock: m.clock}); err != nil {
		return err
	}
	m.d = work
	return nil
}

// Snapshot copies the data under the lock and runs fn on the copy without
// holding it.
func (m *MemoryStore) Snapshot(ctx context.Context, fn func(tx Store) error) error {
	m.mu.Lock()
	view := m.d.clone()
	m.mu.Unlock()
	return fn(&memTx{d: view, clock: m.clock})
}

func locked[T any](m *MemoryStore, fn func(tx *memTx) (T, error)) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(&memTx{d: m.d, clock: m.clock})
}

func lockedErr(m *MemoryStore, fn func(tx *memTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(&memTx{d: m.d, clock: m.clock})
}

func (m *MemoryStore) CreateUser(ctx context.Context, u *models.User) error {
	return lockedErr(m, func(tx *memTx) error { return tx.CreateUser(ctx, u) })
}

func (m *MemoryStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return locked(m, func(tx *memTx) (*models.User, error) { return tx.GetUser(ctx, id) })
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return locked(m, func(tx *memTx) (*models.User, error) { return tx.GetUserByEmail(ctx, email) })
}

func (m *MemoryStore) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return lockedErr(m, func(tx *memTx) error { return tx.CreateCustomer(ctx, c) })
}

func (m *MemoryStore) GetCustomer(ctx context.Context, ownerID, id string) (*models.Customer, error) {
	return locked(m, func(tx *memTx) (*models.Customer, error) { return tx.GetCustomer(ctx, ownerID, id) })
}

func (m *MemoryStore) ListCustomers(ctx context.Context, ownerID string, f CustomerFilter) ([]models.Customer, error) {
	return locked(m, func(tx *memTx) ([]models.Customer, error) { return tx.ListCustomers(ctx, ownerID, f) })
}

func (m *MemoryStore) UpdateCustomerProfile(ctx context.Context, c *models.Customer) error {
	return lockedErr(m, func(tx *memTx) error { return tx.UpdateCustomerProfile(ctx, c) })
}

func (m *MemoryStore) IncrementBalance(ctx context.Context, ownerID, id string, delta decimal.Decimal) (decimal.Decimal, error) {
	return locked(m, func(tx *memTx) (decimal.Decimal, error) { return tx.IncrementBalance(ctx, ownerID, id, delta) })
}

func (m *MemoryStore) DeleteCustomer(ctx context.Context, ownerID, id string) error {
	return lockedErr(m, func(tx *memTx) error { return tx.DeleteCustomer(ctx, ownerID, id) })
}

func (m *MemoryStore) CreateFruit(ctx context.Context, f *models.Fruit) error {
	return lockedErr(m, func(tx *memTx) error { return tx.CreateFruit(ctx, f) })
}

func (m *MemoryStore) GetFruit(ctx context.Context, id string) (*models.Fruit, error) {
	return locked(m, func(tx *memTx) (*models.Fruit, error) { return tx.GetFruit(ctx, id) })
}

func (m *MemoryStore) ListFruits(ctx context.Context) ([]models.Fruit, error) {
	return locked(m, func(tx *memTx) ([]models.Fruit, error) { return tx.ListFruits(ctx) })
}

func (m *MemoryStore) UpdateFruit(ctx context.Context, f *models.Fruit) error {
	return lockedErr(m, func(tx *memTx) error { return tx.UpdateFruit(ctx, f) })
}

func (m *MemoryStore) DeleteFruit(ctx context.Context, id string) error {
	return lockedErr(m, func(tx *memTx) error { return tx.DeleteFruit(ctx, id) })
}

func (m *MemoryStore) CreateCategory(ctx context.Context, c *models.FruitCategory) error {
	return lockedErr(m, func(tx *memTx) error { return tx.CreateCategory(ctx, c) })
}

func (m *MemoryStore) GetCategory(ctx context.Context, id string) (*models.FruitCategory, error) {
	return locked(m, func(tx *memTx) (*models.FruitCategory, error) { return tx.GetCategory(ctx, id) })
}

func (m *MemoryStore) ListCategories(ctx context.Context, fruitID string) ([]models.FruitCategory, error) {
	return locked(m, func(tx *memTx) ([]models.FruitCategory, error) { return tx.ListCategories(ctx, fruitID) })
}

func (m *MemoryStore) UpdateCategory(ctx context.Context, c *models.FruitCategory) error {
	return lockedErr(m, func(tx *memTx) error { return tx.UpdateCategory(ctx, c) })
}

func (m *MemoryStore) DeleteCategory(ctx context.Context, id string) error {
	return lockedErr(m, func(tx *memTx) error { return tx.DeleteCategory(ctx, id) })
}

func (m *MemoryStore) CreateSale(ctx context.Context, t *models.SaleTransaction) error {
	return lockedErr(m, func(tx *memTx) error { return tx.CreateSale(ctx, t) })
}

func (m *MemoryStore) GetSale(ctx context.Context, ownerID, id string) (*models.SaleTransaction, error) {
	return locked(m, func(tx *memTx) (*models.SaleTransaction, error) { return tx.GetSale(ctx, ownerID, id) })
}

func (m *MemoryStore) LockSale(ctx context.Context, ownerID, id string) (*models.SaleTransaction, error) {
	return locked(m, func(tx *memTx) (*models.SaleTransaction, error) { return tx.LockSale(ctx, ownerID, id) })
}

func (m *MemoryStore) ListSales(ctx context.Context, ownerID string, f SaleFilter) ([]models.SaleTransaction, error) {
	return locked(m, func(tx *memTx) ([]models.SaleTransaction, error) { return tx.ListSales(ctx, ownerID, f) })
}

func (m *MemoryStore) SaveSalePayment(ctx context.Context, t *models.SaleTransaction) error {
	return lockedErr(m, func(tx *memTx) error { return tx.SaveSalePayment(ctx, t) })
}

func (m *MemoryStore) DeleteSalesByCustomer(ctx context.Context, ownerID, customerID string) (int64, error) {
	return locked(m, func(tx *memTx) (int64, error) { return tx.DeleteSalesByCustomer(ctx, ownerID, customerID) })
}

func (m *MemoryStore) CountSalesByFruit(ctx context.Context, fruitID string) (int64, error) {
	return locked(m, func(tx *memTx) (int64, error) { return tx.CountSalesByFruit(ctx, fruitID) })
}

func (m *MemoryStore) CreateTray(ctx context.Context, t *models.TrayTransaction) error {
	return lockedErr(m, func(tx *memTx) error { return tx.CreateTray(ctx, t) })
}

func (m *MemoryStore) GetTray(ctx context.Context, ownerID, id string) (*models.TrayTransaction, error) {
	return locked(m, func(tx *memTx) (*models.TrayTransaction, error) { return tx.GetTray(ctx, ownerID, id) })
}

func (m *MemoryStore) LockTray(ctx context.Context, ownerID, id string) (*models.TrayTransaction, error) {
	return locked(m, func(tx *memTx) (*models.TrayTransaction, error) { return tx.LockTray(ctx, ownerID, id) })
}

func (m *MemoryStore) ListTrays(ctx context.Context, ownerID string, f TrayFilter) ([]models.TrayTransaction, error) {
	return locked(m, func(tx *memTx) ([]models.TrayTransaction, error) { return tx.ListTrays(ctx, ownerID, f) })
}

func (m *MemoryStore) SaveTray(ctx context.Context, t *models.TrayTransaction) error {
	return lockedErr(m, func(tx *memTx) error { return tx.SaveTray(ctx, t) })
}

func (m *MemoryStore) DeleteTraysByCustomer(ctx context.Context, ownerID, customerID string) (int64, error) {
	return locked(m, func(tx *memTx) (int64, error) { return tx.DeleteTraysByCustomer(ctx, ownerID, customerID) })
}

func (m *MemoryStore) RecordDiscrepancy(ctx context.Context, d *models.LedgerDiscrepancy) error {
	return lockedErr(m, func(tx *memTx) error { return tx.RecordDiscrepancy(ctx, d) })
}

func (m *MemoryStore) ListDiscrepancies(ctx context.Context, ownerID string) ([]models.LedgerDiscrepancy, error) {
	return locked(m, func(tx *memTx) ([]models.LedgerDiscrepancy, error) { return tx.ListDiscrepancies(ctx, ownerID) })
}

// -------------------------
// memTx: unlocked operations on one memData
// -------------------------

type memTx struct {
	d     *memData
	clock func() time.Time
}

// stamp returns a strictly increasing timestamp so created_at ordering is stable.
func (tx *memTx) stamp() time.Time {
	now := tx.clock().UTC()
	if !now.After(tx.d.lastStamp) {
		now = tx.d.lastStamp.Add(time.Microsecond)
	}
	tx.d.lastStamp = now
	return now
}

func (tx *memTx) stampCreate(created, updated *time.Time) {
	now := tx.stamp()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func (tx *memTx) Atomic(ctx context.Context, fn func(tx Store) error) error {
	return fn(tx)
}

func (tx *memTx) Snapshot(ctx context.Context, fn func(tx Store) error) error {
	return fn(tx)
}

func (tx *memTx) CreateUser(ctx context.Context, u *models.User) error {
	for _, existing := range tx.d.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrConflict
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	tx.stampCreate(&u.CreatedAt, &u.UpdatedAt)
	tx.d.users[u.ID] = *u
	return nil
}

func (tx *memTx) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, ok := tx.d.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (tx *memTx) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range tx.d.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (tx *memTx) CreateCustomer(ctx context.Context, c *models.Customer) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, ok := tx.d.customers[c.ID]; ok {
		return ErrConflict
	}
	tx.stampCreate(&c.CreatedAt, &c.UpdatedAt)
	tx.d.customers[c.ID] = *c
	return nil
}

func (tx *memTx) GetCustomer(ctx context.Context, ownerID, id string) (*models.Customer, error) {
	c, ok := tx.d.customers[id]
	if !ok || c.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (tx *memTx) ListCustomers(ctx context.Context, ownerID string, f CustomerFilter) ([]models.Customer, error) {
	out := make([]models.Customer, 0)
	for _, c := range tx.d.customers {
		if c.OwnerID != ownerID || (!f.IncludeHidden && !c.Visible) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (tx *memTx) UpdateCustomerProfile(ctx context.Context, c *models.Customer) error {
	cur, ok := tx.d.customers[c.ID]
	if !ok || cur.OwnerID != c.OwnerID {
		return ErrNotFound
	}
	cur.Name = c.Name
	cur.Phone = c.Phone
	cur.Address = c.Address
	cur.Visible = c.Visible
	cur.UpdatedAt = tx.stamp()
	tx.d.customers[c.ID] = cur
	return nil
}

func (tx *memTx) IncrementBalance(ctx context.Context, ownerID, id string, delta decimal.Decimal) (decimal.Decimal, error) {
	cur, ok := tx.d.customers[id]
	if !ok || cur.OwnerID != ownerID {
		return decimal.Zero, ErrNotFound
	}
	cur.Balance = cur.Balance.Add(delta)
	cur.UpdatedAt = tx.stamp()
	tx.d.customers[id] = cur
	return cur.Balance, nil
}

func (tx *memTx) DeleteCustomer(ctx context.Context, ownerID, id string) error {
	cur, ok := tx.d.customers[id]
	if !ok || cur.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(tx.d.customers, id)
	return nil
}

func (tx *memTx) CreateFruit(ctx context.Context, f *models.Fruit) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	tx.stampCreate(&f.CreatedAt, &f.UpdatedAt)
	stored := *f
	stored.Categories = nil
	tx.d.fruits[f.ID] = stored
	return nil
}

func (tx *memTx) GetFruit(ctx context.Context, id string) (*models.Fruit, error) {
	f, ok := tx.d.fruits[id]
	if !ok {
		return nil, ErrNotFound
	}
	f.Categories, _ = tx.ListCategories(ctx, id)
	return &f, nil
}

func (tx *memTx) ListFruits(ctx context.Context) ([]models.Fruit, error) {
	out := make([]models.Fruit, 0, len(tx.d.fruits))
	for _, f := range tx.d.fruits {
		f.Categories, _ = tx.ListCategories(ctx, f.ID)
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (tx *memTx) UpdateFruit(ctx context.Context, f *models.Fruit) error {
	cur, ok := tx.d.fruits[f.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Name = f.Name
	cur.PricePerKg = f.PricePerKg
	cur.PricePerUnit = f.PricePerUnit
	cur.Unit = f.Unit
	cur.AvailableStock = f.AvailableStock
	cur.UpdatedAt = tx.stamp()
	tx.d.fruits[f.ID] = cur
	return nil
}

func (tx *memTx) DeleteFruit(ctx context.Context, id string) error {
	if _, ok := tx.d.fruits[id]; !ok {
		return ErrNotFound
	}
	if n, _ := tx.CountSalesByFruit(ctx, id); n > 0 {
		return ErrInUse
	}
	for cid, c := range tx.d.categories {
		if c.FruitID == id {
			delete(tx.d.categories, cid)
		}
	}
	delete(tx.d.fruits, id)
	return nil
}

func (tx *memTx) CreateCategory(ctx context.Context, c *models.FruitCategory) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	tx.stampCreate(&c.CreatedAt, &c.UpdatedAt)
	tx.d.categories[c.ID] = *c
	return nil
}

func (tx *memTx) GetCategory(ctx context.Context, id string) (*models.FruitCategory, error) {
	c, ok := tx.d.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (tx *memTx) ListCategories(ctx context.Context, fruitID string) ([]models.FruitCategory, error) {
	out := make([]models.FruitCategory, 0)
	for _, c := range tx.d.categories {
		if fruitID == "" || c.FruitID == fruitID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (tx *memTx) UpdateCategory(ctx context.Context, c *models.FruitCategory) error {
	cur, ok := tx.d.categories[c.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Name = c.Name
	cur.PricePerKg = c.PricePerKg
	cur.PricePerUnit = c.PricePerUnit
	cur.Unit = c.Unit
	cur.AvailableStock = c.AvailableStock
	cur.UpdatedAt = tx.stamp()
	tx.d.categories[c.ID] = cur
	return nil
}

func (tx *memTx) DeleteCategory(ctx context.Context, id string) error {
	if _, ok := tx.d.categories[id]; !ok {
		return ErrNotFound
	}
	for _, s := range tx.d.sales {
		if s.FruitCategoryID != nil && *s.FruitCategoryID == id {
			return ErrInUse
		}
	}
	delete(tx.d.categories, id)
	return nil
}

func (tx *memTx) CreateSale(ctx context.Context, t *models.SaleTransaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	tx.stampCreate(&t.CreatedAt, &t.UpdatedAt)
	stored := *t
	stored.Customer, stored.Fruit, stored.FruitCategory = nil, nil, nil
	tx.d.sales[t.ID] = stored
	return nil
}

func (tx *memTx) attachSale(t models.SaleTransaction) models.SaleTransaction {
	if c, ok := tx.d.customers[t.CustomerID]; ok {
		t.Customer = &c
	}
	if f, ok := tx.d.fruits[t.FruitID]; ok {
		t.Fruit = &f
	}
	if t.FruitCategoryID != nil {
		if c, ok := tx.d.categories[*t.FruitCategoryID]; ok {
			t.FruitCategory = &c
		}
	}
	return t
}

func (tx *memTx) GetSale(ctx context.Context, ownerID, id string) (*models.SaleTransaction, error) {
	t, ok := tx.d.sales[id]
	if !ok || t.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	t = tx.attachSale(t)
	return &t, nil
}

func (tx *memTx) LockSale(ctx context.Context, ownerID, id string) (*models.SaleTransaction, error) {
	t, ok := tx.d.sales[id]
	if !ok || t.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (tx *memTx) ListSales(ctx context.Context, ownerID string, f SaleFilter) ([]models.SaleTransaction, error) {
	out := make([]models.SaleTransaction, 0)
	for _, t := range tx.d.sales {
		if t.OwnerID != ownerID {
			continue
		}
		if f.CustomerID != "" && t.CustomerID != f.CustomerID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Since != nil && t.CreatedAt.Before(*f.Since) {
			continue
		}
		out = append(out, tx.attachSale(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (tx *memTx) SaveSalePayment(ctx context.Context, t *models.SaleTransaction) error {
	cur, ok := tx.d.sales[t.ID]
	if !ok || cur.OwnerID != t.OwnerID {
		return ErrNotFound
	}
	cur.PaidAmount = t.PaidAmount
	cur.Status = t.Status
	cur.UpdatedAt = tx.stamp()
	tx.d.sales[t.ID] = cur
	return nil
}

func (tx *memTx) DeleteSalesByCustomer(ctx context.Context, ownerID, customerID string) (int64, error) {
	var n int64
	for id, t := range tx.d.sales {
		if t.OwnerID == ownerID && t.CustomerID == customerID {
			delete(tx.d.sales, id)
			n++
		}
	}
	return n, nil
}

func (tx *memTx) CountSalesByFruit(ctx context.Context, fruitID string) (int64, error) {
	var n int64
	for _, t := range tx.d.sales {
		if t.FruitID == fruitID {
			n++
		}
	}
	return n, nil
}

func (tx *memTx) CreateTray(ctx context.Context, t *models.TrayTransaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	tx.stampCreate(&t.CreatedAt, &t.UpdatedAt)
	stored := *t
	stored.Customer = nil
	tx.d.trays[t.ID] = stored
	return nil
}

func (tx *memTx) attachTray(t models.TrayTransaction) models.TrayTransaction {
	if c, ok := tx.d.customers[t.CustomerID]; ok {
		t.Customer = &c
	}
	return t
}

func (tx *memTx) GetTray(ctx context.Context, ownerID, id string) (*models.TrayTransaction, error) {
	t, ok := tx.d.trays[id]
	if !ok || t.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	t = tx.attachTray(t)
	return &t, nil
}

func (tx *memTx) LockTray(ctx context.Context, ownerID, id string) (*models.TrayTransaction, error) {
	t, ok := tx.d.trays[id]
	if !ok || t.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (tx *memTx) ListTrays(ctx context.Context, ownerID string, f TrayFilter) ([]models.TrayTransaction, error) {
	out := make([]models.TrayTransaction, 0)
	for _, t := range tx.d.trays {
		if t.OwnerID != ownerID {
			continue
		}
		if f.CustomerID != "" && t.CustomerID != f.CustomerID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		out = append(out, tx.attachTray(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (tx *memTx) SaveTray(ctx context.Context, t *models.TrayTransaction) error {
	cur, ok := tx.d.trays[t.ID]
	if !ok || cur.OwnerID != t.OwnerID {
		return ErrNotFound
	}
	cur.TrayNumber = t.TrayNumber
	cur.Weight = t.Weight
	cur.RatePerKg = t.RatePerKg
	cur.TotalAmount = t.TotalAmount
	cur.PaidAmount = t.PaidAmount
	cur.NumberOfTrays = t.NumberOfTrays
	cur.Status = t.Status
	cur.Notes = t.Notes
	cur.UpdatedAt = tx.stamp()
	tx.d.trays[t.ID] = cur
	return nil
}

func (tx *memTx) DeleteTraysByCustomer(ctx context.Context, ownerID, customerID string) (int64, error) {
	var n int64
	for id, t := range tx.d.trays {
		if t.OwnerID == ownerID && t.CustomerID == customerID {
			delete(tx.d.trays, id)
			n++
		}
	}
	return n, nil
}

func (tx *memTx) RecordDiscrepancy(ctx context.Context, d *models.LedgerDiscrepancy) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = tx.stamp()
	}
	tx.d.discrepancies[d.ID] = *d
	return nil
}

func (tx *memTx) ListDiscrepancies(ctx context.Context, ownerID string) ([]models.LedgerDiscrepancy, error) {
	out := make([]models.LedgerDiscrepancy, 0)
	for _, d := range tx.d.discrepancies {
		if d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*memTx)(nil)
)
