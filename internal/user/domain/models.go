// Package domain contains the user entity. Users exist so lifecycle
// transitions can attribute actors and so company deletion is blocked
// while staff records remain; authentication itself lives elsewhere.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/billwise/billwise/internal/entity"
)

// Role is an ordered privilege level. The numeric ordering is REVERSED:
// a lower value means a higher privilege (Admin=1 outranks Employee=4).
// Always compare through AtLeast instead of raw < / >.
type Role int

const (
	RoleAdmin    Role = 1
	RoleOwner    Role = 2
	RoleManager  Role = 3
	RoleEmployee Role = 4
)

// AtLeast reports whether r carries at least the privilege of min.
func (r Role) AtLeast(min Role) bool {
	return r <= min
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleOwner:
		return "owner"
	case RoleManager:
		return "manager"
	case RoleEmployee:
		return "employee"
	default:
		return "unknown"
	}
}

type User struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID `gorm:"not null;index" json:"company_id"`

	FirstName    string `gorm:"not null" json:"first_name"`
	LastName     string `gorm:"not null" json:"last_name"`
	Email        string `gorm:"not null;index" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Phone        string `gorm:"type:text" json:"phone,omitempty"`

	Role            Role       `gorm:"not null;default:4" json:"role"`
	IsActive        bool       `gorm:"not null;default:true" json:"is_active"`
	IsEmailVerified bool       `gorm:"not null;default:false" json:"is_email_verified"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`

	entity.Meta
}

func (User) TableName() string { return "users" }

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsManager() bool {
	return u.Role.AtLeast(RoleManager)
}

func (u *User) CanLogin() bool {
	return u.IsActive && !u.IsDeleted
}

func (u *User) ChangeRole(role Role, now time.Time) {
	u.Role = role
	entity.Touch(&u.Meta, now)
}

func (u *User) RecordLogin(now time.Time) {
	t := now.UTC()
	u.LastLoginAt = &t
	entity.Touch(&u.Meta, now)
}

func (u *User) Deactivate(now time.Time) { u.IsActive = false; entity.Touch(&u.Meta, now) }
func (u *User) Activate(now time.Time)   { u.IsActive = true; entity.Touch(&u.Meta, now) }
