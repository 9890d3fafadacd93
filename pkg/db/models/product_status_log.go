package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/serialguard/serialguard-backend/pkg/enums"
)

// ProductStatusLog is the append-only audit trail of status changes. Rows are
// never updated or deleted. OldStatus is nil only for the registration entry.
type ProductStatusLog struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID   uuid.UUID            `gorm:"column:product_id;type:uuid;not null;index"`
	OldStatus   *enums.ProductStatus `gorm:"column:old_status;type:text"`
	NewStatus   enums.ProductStatus  `gorm:"column:new_status;type:text;not null"`
	ChangedByID *uuid.UUID           `gorm:"column:changed_by_id;type:uuid"`
	DealID      *uuid.UUID           `gorm:"column:deal_id;type:uuid"`
	Note        string               `gorm:"column:note;type:text;not null;default:''"`
	ChangedAt   time.Time            `gorm:"column:changed_at;not null"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
}
