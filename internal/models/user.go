package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the user's access level
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleHead  Role = "head"
)

// User is a citizen or a departmental staff account. The phone number is
// the external identifier citizens report complaints under.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name     string    `gorm:"size:200;not null" json:"name"`
	Phone    string    `gorm:"size:20;uniqueIndex;not null" json:"phone"`
	Email    string    `gorm:"size:100" json:"email"`
	Password string    `gorm:"not null" json:"-"`

	Role Role `gorm:"size:20;not null;default:'user'" json:"role"`

	// Department only applies to admin/head accounts
	Department string `gorm:"size:100;index" json:"department,omitempty"`

	IsActive    bool       `gorm:"default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsStaff reports whether the user can triage complaints
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleHead
}

type UserRegisterRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Phone    string `json:"phone" validate:"required,min=7,max=20"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type UserLoginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Phone       string     `json:"phone"`
	Email       string     `json:"email,omitempty"`
	Role        Role       `json:"role"`
	Department  string     `json:"department,omitempty"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	ExpiresIn    int64        `json:"expires_in,omitempty"`
}

func ToUserResponse(user *User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Phone:       user.Phone,
		Email:       user.Email,
		Role:        user.Role,
		Department:  user.Department,
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}
