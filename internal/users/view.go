package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/serialguard/serialguard-backend/pkg/db/models"
	"github.com/serialguard/serialguard-backend/pkg/enums"
)

// View is the API-safe projection of a user row.
type View struct {
	ID                 uuid.UUID        `json:"id"`
	Email              string           `json:"email"`
	FullName           string           `json:"full_name"`
	Mobile             *string          `json:"mobile,omitempty"`
	Role               enums.UserRole   `json:"role"`
	AdminTier          *enums.AdminTier `json:"admin_tier,omitempty"`
	ShopkeeperApproved bool             `json:"shopkeeper_approved"`
	HasSubscription    bool             `json:"has_subscription"`
	CreatedAt          time.Time        `json:"created_at"`
}

// FromModel maps a user row to its API view.
func FromModel(user *models.User) View {
	if user == nil {
		return View{}
	}
	return View{
		ID:                 user.ID,
		Email:              user.Email,
		FullName:           user.FullName,
		Mobile:             user.Mobile,
		Role:               user.Role,
		AdminTier:          user.AdminTier,
		ShopkeeperApproved: user.ShopkeeperApproved,
		HasSubscription:    user.HasSubscription,
		CreatedAt:          user.CreatedAt,
	}
}
