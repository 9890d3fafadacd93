package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/serialguard/serialguard-backend/pkg/enums"
)

// SaleDeal is a buyer-initiated request to acquire one or more products. The
// seller is either a registered account (SellerID) or an off-platform party
// captured by the snapshot fields. Deals are decided exactly once by an admin.
type SaleDeal struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Status      enums.DealStatus `gorm:"column:status;type:text;not null;default:pending"`
	BuyerID     uuid.UUID        `gorm:"column:buyer_id;type:uuid;not null;index"`
	SellerID    *uuid.UUID       `gorm:"column:seller_id;type:uuid;index"`
	TotalAmount decimal.Decimal  `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Description *string          `gorm:"column:description"`

	SellerName    *string `gorm:"column:seller_name"`
	SellerMobile  *string `gorm:"column:seller_mobile"`
	SellerIDCard  *string `gorm:"column:seller_id_card"`
	SellerAddress *string `gorm:"column:seller_address"`

	DecidedByID   *uuid.UUID `gorm:"column:decided_by_id;type:uuid"`
	DecidedAt     *time.Time `gorm:"column:decided_at"`
	DecisionNotes *string    `gorm:"column:decision_notes"`

	Items []DealItem `gorm:"foreignKey:DealID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// DealItem ties one product to a deal at an agreed price. Serial, name, and
// reference names are frozen at deal creation so the line survives later
// edits to the product row.
type DealItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DealID       uuid.UUID       `gorm:"column:deal_id;type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	SerialNumber string          `gorm:"column:serial_number;type:text;not null"`
	Name         string          `gorm:"column:name;not null"`
	BrandName    *string         `gorm:"column:brand_name"`
	CategoryName *string         `gorm:"column:category_name"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}
