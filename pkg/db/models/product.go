package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/serialguard/serialguard-backend/pkg/enums"
)

// Product is a serialized good registered against theft. The serial number is
// globally unique; the status column is only ever written through the status
// engine so every change lands in the status log.
type Product struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SerialNumber string              `gorm:"column:serial_number;type:text;not null;uniqueIndex:uq_products_serial_number"`
	Name         string              `gorm:"column:name;not null"`
	Description  *string             `gorm:"column:description"`
	Status       enums.ProductStatus `gorm:"column:status;type:text;not null;default:for_sale"`
	OwnerID      uuid.UUID           `gorm:"column:owner_id;type:uuid;not null;index"`
	CategoryID   *uuid.UUID          `gorm:"column:category_id;type:uuid"`
	BrandID      *uuid.UUID          `gorm:"column:brand_id;type:uuid"`
	RegisteredAt time.Time           `gorm:"column:registered_at;not null"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
