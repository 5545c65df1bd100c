package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Caller is the resolved identity every service operation acts on behalf of.
type Caller struct {
	ID   string
	Role UserRole
}

// IsAdmin reports whether the caller holds the ADMIN role.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// SignupRequest registers a volunteer awaiting approval.
type SignupRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8"`
	FullName       string `json:"fullName" validate:"required,max=120"`
	State          string `json:"state" validate:"omitempty,max=80"`
	Specialization string `json:"specialization" validate:"omitempty,max=200"`
	Experience     string `json:"experience" validate:"omitempty,max=2000"`
	Motivation     string `json:"motivation" validate:"omitempty,max=2000"`
}

// LoginResponse returns the issued tokens and user info.
type LoginResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresIn    int64     `json:"expiresIn"`
	User         UserInfo  `json:"user"`
	IssuedAt     time.Time `json:"issuedAt"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// RefreshTokenResponse returns the refreshed tokens.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresIn    int64     `json:"expiresIn"`
	IssuedAt     time.Time `json:"issuedAt"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID             string         `json:"id"`
	Email          string         `json:"email"`
	FullName       string         `json:"fullName"`
	Role           UserRole       `json:"role"`
	ApprovalStatus ApprovalStatus `json:"approvalStatus"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Caller projects the claims onto a service-level identity.
func (c *JWTClaims) Caller() Caller {
	return Caller{ID: c.UserID, Role: c.Role}
}

// RefreshToken represents a persisted refresh token session.
type RefreshToken struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"userId"`
	Token     string     `db:"token" json:"-"`
	ExpiresAt time.Time  `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revokedAt,omitempty"`
	IPAddress string     `db:"ip_address" json:"ipAddress"`
	UserAgent string     `db:"user_agent" json:"userAgent"`
}
