package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Unit string

const (
	UnitKg    Unit = "kg"
	UnitBox   Unit = "box"
	UnitPiece Unit = "piece"
	UnitDozen Unit = "dozen"
)

func (u Unit) Valid() bool {
	switch u {
	case UnitKg, UnitBox, UnitPiece, UnitDozen:
		return true
	}
	return false
}

// Fruit - an inventory item sold by weight or by packaging unit
type Fruit struct {
	ID             string           `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string           `gorm:"size:100;not null;index" json:"name"`
	PricePerKg     decimal.Decimal  `gorm:"type:numeric(14,2);not null" json:"price_per_kg"`
	PricePerUnit   *decimal.Decimal `gorm:"type:numeric(14,2)" json:"price_per_unit,omitempty"`
	Unit           Unit             `gorm:"size:20;not null;default:'kg'" json:"unit"`
	AvailableStock decimal.Decimal  `gorm:"type:numeric(14,3);not null;default:0" json:"available_stock"`
	Categories     []FruitCategory  `gorm:"foreignKey:FruitID;constraint:OnDelete:CASCADE" json:"categories,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (f *Fruit) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// FruitCategory - sub-variant of a fruit (grade, size) with its own pricing
type FruitCategory struct {
	ID             string           `gorm:"type:uuid;primaryKey" json:"id"`
	FruitID        string           `gorm:"type:uuid;index;not null" json:"fruit_id"`
	Name           string           `gorm:"size:100;not null" json:"name"`
	PricePerKg     *decimal.Decimal `gorm:"type:numeric(14,2)" json:"price_per_kg,omitempty"`
	PricePerUnit   *decimal.Decimal `gorm:"type:numeric(14,2)" json:"price_per_unit,omitempty"`
	Unit           Unit             `gorm:"size:20;not null;default:'kg'" json:"unit"`
	AvailableStock decimal.Decimal  `gorm:"type:numeric(14,3);not null;default:0" json:"available_stock"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (c *FruitCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
