package models

import (
	"strings"

	"github.com/yigit/studentmanagement/internal/pkg/apperrors"
)

// Role defines the user role
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

// IsValid reports whether r is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseRole converts user input into a Role. Matching is case-insensitive.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !role.IsValid() {
		return "", apperrors.ErrUnknownRole
	}
	return role, nil
}
