package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusCancelled TransactionStatus = "cancelled"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type PricingMode string

const (
	PricingPerKg  PricingMode = "per_kg"
	PricingPerBox PricingMode = "per_box"
)

// SaleTransaction - a sale of one fruit (optionally one category) to a customer
type SaleTransaction struct {
	ID              string            `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID         string            `gorm:"type:uuid;index;not null" json:"owner_id"`
	CustomerID      string            `gorm:"type:uuid;index;not null" json:"customer_id"`
	Customer        *Customer         `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	FruitID         string            `gorm:"type:uuid;index;not null" json:"fruit_id"`
	Fruit           *Fruit            `gorm:"foreignKey:FruitID" json:"fruit,omitempty"`
	FruitCategoryID *string           `gorm:"type:uuid;index" json:"fruit_category_id,omitempty"`
	FruitCategory   *FruitCategory    `gorm:"foreignKey:FruitCategoryID" json:"fruit_category,omitempty"`
	Quantity        decimal.Decimal   `gorm:"type:numeric(14,3);not null" json:"quantity"`
	Rate            decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"rate"`
	PricingMode     PricingMode       `gorm:"size:20;not null;default:'per_kg'" json:"pricing_mode"`
	TotalAmount     decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	PaidAmount      decimal.Decimal   `gorm:"type:numeric(14,2);not null;default:0" json:"paid_amount"`
	Status          TransactionStatus `gorm:"size:20;not null;index" json:"status"`
	Notes           *string           `gorm:"size:1000" json:"notes,omitempty"`
	CreatedAt       time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (t *SaleTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Outstanding is total - paid. Negative when over-paid.
func (t *SaleTransaction) Outstanding() decimal.Decimal {
	return t.TotalAmount.Sub(t.PaidAmount)
}

type TrayStatus string

const (
	TrayAvailable   TrayStatus = "available"
	TrayInUse       TrayStatus = "in_use"
	TrayMaintenance TrayStatus = "maintenance"
)

func (s TrayStatus) Valid() bool {
	switch s {
	case TrayAvailable, TrayInUse, TrayMaintenance:
		return true
	}
	return false
}

// TrayTransaction - returnable trays issued to a customer
type TrayTransaction struct {
	ID                string          `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID           string          `gorm:"type:uuid;index;not null" json:"owner_id"`
	CustomerID        string          `gorm:"type:uuid;index;not null" json:"customer_id"`
	Customer          *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	TrayNumber        string          `gorm:"size:50;not null" json:"tray_number"`
	Weight            decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"weight"`
	RatePerKg         decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"rate_per_kg"`
	TotalAmount       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	PaidAmount        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"paid_amount"`
	NumberOfTrays     int             `gorm:"not null;default:1" json:"number_of_trays"`
	Status            TrayStatus      `gorm:"size:20;not null;index" json:"status"`
	SaleTransactionID *string         `gorm:"type:uuid;index" json:"sale_transaction_id,omitempty"` // back-reference only, not a foreign key
	Notes             *string         `gorm:"size:1000" json:"notes,omitempty"`
	CreatedAt         time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (t *TrayTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

func (t *TrayTransaction) Outstanding() decimal.Decimal {
	return t.TotalAmount.Sub(t.PaidAmount)
}

// AffectsBalance reports whether this tray carries its own debt. Trays emitted
// alongside a sale mirror that sale's figures, which already sit in the balance.
func (t *TrayTransaction) AffectsBalance() bool {
	return t.SaleTransactionID == nil
}
