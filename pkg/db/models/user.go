package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/serialguard/serialguard-backend/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID                 uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email              string           `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash       string           `gorm:"column:password_hash;not null"`
	FullName           string           `gorm:"column:full_name;not null"`
	Mobile             *string          `gorm:"column:mobile"`
	IDCardNumber       *string          `gorm:"column:id_card_number"`
	Address            *string          `gorm:"column:address"`
	Role               enums.UserRole   `gorm:"column:role;type:text;not null;default:user"`
	AdminTier          *enums.AdminTier `gorm:"column:admin_tier;type:text"`
	ShopkeeperApproved bool             `gorm:"column:shopkeeper_approved;not null;default:false"`
	HasSubscription    bool             `gorm:"column:has_subscription;not null;default:false"`
	IsActive           bool             `gorm:"column:is_active;not null;default:true"`
	LastLoginAt        *time.Time       `gorm:"column:last_login_at"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// Tier returns the user's admin tier, defaulting to LIMITED for admins with
// no explicit tier and empty for everyone else.
func (u User) Tier() enums.AdminTier {
	if u.Role != enums.UserRoleAdmin {
		return ""
	}
	if u.AdminTier == nil {
		return enums.AdminTierLimited
	}
	return *u.AdminTier
}
