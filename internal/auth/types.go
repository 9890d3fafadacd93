package auth

import "github.com/serialguard/serialguard-backend/internal/users"

// RegisterRequest carries a new account signup.
type RegisterRequest struct {
	Email          string  `json:"email" validate:"required,email"`
	Password       string  `json:"password" validate:"required,min=8"`
	FullName       string  `json:"full_name" validate:"required"`
	Mobile         *string `json:"mobile,omitempty"`
	IDCardNumber   *string `json:"id_card_number,omitempty"`
	Address        *string `json:"address,omitempty"`
	WantShopkeeper bool    `json:"want_shopkeeper"`
}

// LoginRequest carries the credential pair.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest rotates a session using the expired access token and the
// refresh token issued alongside it.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPair is the session credential bundle returned to clients.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse bundles the session tokens with the authenticated user.
type LoginResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	User         users.View `json:"user"`
}

// RegisterResponse returns the created account.
type RegisterResponse struct {
	User users.View `json:"user"`
}
