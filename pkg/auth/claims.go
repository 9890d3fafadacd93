package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/serialguard/serialguard-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID             uuid.UUID
	Role               enums.UserRole
	AdminTier          *enums.AdminTier
	ShopkeeperApproved bool
	JTI                string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID             uuid.UUID        `json:"user_id"`
	Role               enums.UserRole   `json:"role"`
	AdminTier          *enums.AdminTier `json:"admin_tier,omitempty"`
	ShopkeeperApproved bool             `json:"shopkeeper_approved,omitempty"`
	jwt.RegisteredClaims
}
