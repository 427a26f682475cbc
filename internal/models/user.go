package models

import (
	"strconv"
	"time"

	"github.com/anonto42/inkwell/backend/internal/commenttree"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// User is a registered author (PostgreSQL)
type User struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Email          string         `json:"email" gorm:"uniqueIndex"`
	Avatar         string         `json:"avatar,omitempty"`
	Bio            string         `json:"bio,omitempty"`
	Password       string         `json:"-"`                                         // bcrypt hash
	FirebaseUID    *string        `json:"firebase_uid,omitempty" gorm:"uniqueIndex"` // nil for local accounts
	FollowersCount int            `json:"followers_count" gorm:"default:0"`
	FollowingCount int            `json:"following_count" gorm:"default:0"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

// UserCompact is the public summary of a user shown next to their content
type UserCompact struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar,omitempty"`
}

// ToCompact returns the public summary of the user
func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Avatar: u.Avatar}
}

// ToAuthor returns the author reference embedded into comments
func (u *User) ToAuthor() commenttree.AuthorRef {
	return commenttree.AuthorRef{
		ID:        UserIDString(u.ID),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Avatar:    u.Avatar,
	}
}

// UserIDString formats a user id the way it is stored in documents
func UserIDString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseUserID parses a user id stored in a document
func ParseUserID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

type CreateLocalUserRequest struct {
	FirstName string `json:"first_name" validate:"required,min=1,max=50"`
	LastName  string `json:"last_name" validate:"required,min=1,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Avatar    string `json:"avatar,omitempty" validate:"omitempty,url"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	FirstName string `json:"first_name,omitempty" validate:"omitempty,min=1,max=50"`
	LastName  string `json:"last_name,omitempty" validate:"omitempty,min=1,max=50"`
	Avatar    string `json:"avatar,omitempty" validate:"omitempty,url"`
	Bio       string `json:"bio,omitempty" validate:"omitempty,max=500"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
