package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CashSaleName is the display name of the placeholder customer created for
// walk-in sales.
const CashSaleName = "Cash Sale"

// Customer - a buyer with a running balance (positive = owed to the business)
type Customer struct {
	ID        string          `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID   string          `gorm:"type:uuid;index;not null" json:"owner_id"`
	Name      string          `gorm:"size:200;not null;index" json:"name"`
	Phone     *string         `gorm:"size:30" json:"phone,omitempty"`
	Address   *string         `gorm:"size:500" json:"address,omitempty"`
	Balance   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"balance"`
	Visible   bool            `gorm:"not null;default:true;index" json:"visible"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// PhoneNumber returns the phone on file or "".
func (c *Customer) PhoneNumber() string {
	if c.Phone == nil {
		return ""
	}
	return *c.Phone
}
