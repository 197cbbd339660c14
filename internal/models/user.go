package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string
type Role = UserRole // Alias for compatibility

const (
	RoleStudent       UserRole = "student"
	RoleLecturer      UserRole = "lecturer"
	RoleMainLecturer  UserRole = "main_lecturer"
	RoleAdministrator UserRole = "administrator"
)

// Valid reports whether the role is one of the four known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleLecturer, RoleMainLecturer, RoleAdministrator:
		return true
	}
	return false
}

type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	FullName string   `json:"full_name" gorm:"not null;size:100"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role     UserRole `json:"role" gorm:"size:32;index"`

	// Profile info
	AvatarURL *string `json:"avatar_url" gorm:"size:500"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// Principal is the authenticated actor of a request: the user id plus the
// role the resolver branches on. Role is fixed for the session.
type Principal struct {
	ID   string   `json:"id"`
	Role UserRole `json:"role"`
}
