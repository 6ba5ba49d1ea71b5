package model

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleLandlord Role = "LANDLORD"
	RoleTenant   Role = "TENANT"
)

// ParseRole rejects anything outside the closed set of roles.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(s)) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleLandlord:
		return RoleLandlord, nil
	case RoleTenant:
		return RoleTenant, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

type User struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Email     string    `gorm:"size:255;uniqueIndex;not null"`
	FirstName string    `gorm:"column:first_name;size:100;not null"`
	LastName  string    `gorm:"column:last_name;size:100;not null"`
	Role      Role      `gorm:"size:16;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
