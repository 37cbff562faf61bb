package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CreateUserRequest registers a member. BorrowLimit and BorrowDuration fall
// back to the role policy when omitted.
type CreateUserRequest struct {
	Name           string   `json:"name" binding:"required,min=1,max=255"`
	Email          string   `json:"email" binding:"required,email"`
	Role           UserRole `json:"role" binding:"required,libraryrole"`
	Password       string   `json:"password" binding:"omitempty,min=8"`
	BorrowLimit    *int     `json:"borrowLimit" binding:"omitempty,min=0"`
	BorrowDuration *int     `json:"borrowDuration" binding:"omitempty,min=0"`
}

type UpdateUserRequest struct {
	Name           *string   `json:"name" binding:"omitempty,min=1,max=255"`
	Email          *string   `json:"email" binding:"omitempty,email"`
	Role           *UserRole `json:"role" binding:"omitempty,libraryrole"`
	BorrowLimit    *int      `json:"borrowLimit" binding:"omitempty,min=0"`
	BorrowDuration *int      `json:"borrowDuration" binding:"omitempty,min=0"`
}

type BlockUserRequest struct {
	Days   int    `json:"days" binding:"required,min=1"`
	Reason string `json:"reason" binding:"required,max=255"`
}

type UserSearchRequest struct {
	Query string   `form:"query"`
	Role  UserRole `form:"role" binding:"omitempty,libraryrole"`
	Page  int      `form:"page,default=1" binding:"min=1"`
	Limit int      `form:"limit,default=20" binding:"min=1,max=100"`
}

func (r UserSearchRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}

type UserResponse struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Role           UserRole   `json:"role"`
	BorrowLimit    int        `json:"borrowLimit"`
	BorrowDuration int        `json:"borrowDuration"`
	ActiveLoans    int        `json:"activeLoans"`
	BlockedUntil   *time.Time `json:"blockedUntil"`
	BlockReason    string     `json:"blockReason,omitempty"`
	IsBlocked      bool       `json:"isBlocked"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	TokenType    string       `json:"tokenType"`
	ExpiresIn    int          `json:"expiresIn"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type JWTClaims struct {
	UserID int64    `json:"uid"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}

type RefreshTokenClaims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}
