package handler

import (
	"time"

	"agegate/internal/account/models"
)

// RegisterResponse is returned from POST /register.
type RegisterResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	BirthDate string `json:"birth_date"`
	CreatedAt string `json:"created_at"`
}

// FromUser maps a stored user onto the registration response body. The
// password hash never leaves the service layer.
func FromUser(user *models.User) RegisterResponse {
	return RegisterResponse{
		ID:        user.ID.String(),
		Username:  user.Username,
		Email:     user.Email,
		BirthDate: user.BirthDate.Format(birthDateLayout),
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

// TokenResponse is returned from POST /login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// AccessResponse is returned from GET /access when the policy grants access.
type AccessResponse struct {
	Access     string `json:"access"`
	MinimumAge int    `json:"minimum_age"`
}
