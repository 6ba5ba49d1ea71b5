package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ListingType string

const (
	ListingForRent ListingType = "FOR_RENT"
	ListingForSale ListingType = "FOR_SALE"
	ListingBoth    ListingType = "BOTH"
)

type PropertyType string

const (
	PropertyApartment  PropertyType = "APARTMENT"
	PropertyHouse      PropertyType = "HOUSE"
	PropertyCondo      PropertyType = "CONDO"
	PropertyCommercial PropertyType = "COMMERCIAL"
	PropertyOther      PropertyType = "OTHER"
)

type Property struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement"`
	Title        string          `gorm:"size:200;not null"`
	Description  string          `gorm:"type:text"`
	Address      string          `gorm:"size:255;not null"`
	City         string          `gorm:"size:100;not null"`
	State        string          `gorm:"size:100;not null"`
	PropertyType PropertyType    `gorm:"column:property_type;size:32;not null"`
	ListingType  ListingType     `gorm:"column:listing_type;size:32;not null;default:FOR_RENT"`
	MonthlyRent  decimal.Decimal `gorm:"column:monthly_rent;type:decimal(12,2)"`
	SalePrice    decimal.Decimal `gorm:"column:sale_price;type:decimal(14,2)"`
	Available    bool            `gorm:"column:is_available;not null;default:true"`
	Active       bool            `gorm:"column:is_active;not null;default:true"`
	LandlordID   uint64          `gorm:"column:landlord_id;index;not null"`
	CreatedAt    time.Time       `gorm:"autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime"`
}

func (Property) TableName() string {
	return "properties"
}

// ForSale reports whether the listing admits a purchase at all.
func (p *Property) ForSale() bool {
	return p.ListingType != ListingForRent
}
