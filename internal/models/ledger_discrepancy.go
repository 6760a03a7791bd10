package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerDiscrepancy - a customer whose stored balance did not match its
// transactions, or a balance write that failed after its record write.
type LedgerDiscrepancy struct {
	ID              string          `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID         string          `gorm:"type:uuid;index;not null" json:"owner_id"`
	CustomerID      string          `gorm:"type:uuid;index;not null" json:"customer_id"`
	CustomerName    string          `gorm:"size:200" json:"customer_name"`
	StoredBalance   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"stored_balance"`
	ExpectedBalance decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"expected_balance"`
	Difference      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"difference"`
	Source          string          `gorm:"size:50;index" json:"source"` // reconcile | payment_update | ...
	Details         string          `gorm:"type:text" json:"details"`
	Repaired        bool            `gorm:"not null;default:false" json:"repaired"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (d *LedgerDiscrepancy) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
