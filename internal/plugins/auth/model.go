// Package auth handles login, registration, profile updates, and password
// reset. Accounts live in the backend service; this package keeps the
// cookie session in sync with it and owns the short-lived reset tokens.
package auth

import (
	"time"
)

// User is the account as the backend reports it.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar,omitempty"`
	IsPremium bool   `json:"isPremium"`
}

// Account is a successful login or registration. AccessToken is empty
// when the backend requires email verification before the first login.
type Account struct {
	AccessToken string `json:"accessToken"`
	User        User   `json:"user"`
}

// --- Request DTOs (decrypted payloads) ---

// LoginRequest is the payload of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the payload of POST /api/auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileRequest is the payload of PUT /api/auth/profile.
type ProfileRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// ForgotPasswordRequest is the payload of POST /api/auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetTokenRequest is the payload of POST /api/auth/validate-reset-token.
type ResetTokenRequest struct {
	Token string `json:"token"`
}

// ResetPasswordRequest is the payload of POST /api/auth/reset-password.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// --- Service Input DTOs ---

// LoginInput is the validated input for Login.
type LoginInput struct {
	Email    string
	Password string
}

// RegisterInput is the validated input for Register.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// ProfileInput is the validated input for UpdateProfile.
type ProfileInput struct {
	Name   string
	Avatar string
}

// --- Password reset ---

// ResetToken is a stored reset token. Only the SHA-256 of the token is
// kept; the plaintext exists in the emailed link alone.
type ResetToken struct {
	TokenHash string
	Email     string
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
}

// TokenValidation is the outcome of ValidateResetToken. Error is a
// translation key, set when IsValid is false.
type TokenValidation struct {
	IsValid bool   `json:"isValid"`
	Email   string `json:"email,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Reset token outcomes.
const (
	errTokenInvalid = "auth.resetTokenInvalid"
	errTokenExpired = "auth.resetTokenExpired"
	errTokenUsed    = "auth.resetTokenUsed"
)
