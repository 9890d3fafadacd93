package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/serialguard/serialguard-backend/pkg/enums"
)

// ProductOwnership is the append-only audit trail of ownership transfers.
// PreviousOwnerID is nil only for the registration entry.
type ProductOwnership struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID       uuid.UUID             `gorm:"column:product_id;type:uuid;not null;index"`
	PreviousOwnerID *uuid.UUID            `gorm:"column:previous_owner_id;type:uuid"`
	NewOwnerID      uuid.UUID             `gorm:"column:new_owner_id;type:uuid;not null"`
	DealID          *uuid.UUID            `gorm:"column:deal_id;type:uuid"`
	Method          enums.OwnershipMethod `gorm:"column:method;type:text;not null"`
	TransferredAt   time.Time             `gorm:"column:transferred_at;not null"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
}
