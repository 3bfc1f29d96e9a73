package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles
const (
	RoleCustomer = "customer"
	RoleManager  = "manager"
	RoleOwner    = "owner"
)

// User storefront account
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	FullName     string    `gorm:"size:255" json:"full_name"`
	Role         string    `gorm:"size:50;not null;default:customer" json:"role"`
	IsOwner      bool      `gorm:"default:false" json:"is_owner"`
	IsVerified   bool      `gorm:"default:false" json:"is_verified"`
	Phone        string    `gorm:"size:50" json:"phone"`
	Address      string    `gorm:"size:255" json:"address"`
	City         string    `gorm:"size:100" json:"city"`
	Country      string    `gorm:"size:100" json:"country"`
	PostalCode   string    `gorm:"size:20" json:"postal_code"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName Specify table name
func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = NormalizeEmail(u.Email)
	return nil
}

// IsStaff reports whether the user may manage the catalog and orders.
func (u *User) IsStaff() bool {
	return u.Role == RoleManager || u.IsOwnerRole()
}

// IsOwnerRole reports owner privileges, either by role or by the owner flag.
func (u *User) IsOwnerRole() bool {
	return u.IsOwner || u.Role == RoleOwner
}

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailVerification one-time signup code
type EmailVerification struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;index;not null" json:"user_id"`
	Code      string    `gorm:"size:10;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	IsUsed    bool      `gorm:"default:false" json:"is_used"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName Specify table name
func (EmailVerification) TableName() string {
	return "email_verifications"
}

func (v *EmailVerification) BeforeCreate(*gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// Expired reports whether the code can no longer be redeemed at now.
func (v *EmailVerification) Expired(now time.Time) bool {
	return v.ExpiresAt.Before(now)
}
