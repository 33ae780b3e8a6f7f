package models

import (
	"time"
)

// Column limits of the users table. Password is bounded by bcrypt, which hashes at most 72 bytes.
const (
	MaxUsernameLength   = 100
	MaxEmailLength      = 255
	MaxDepartmentLength = 255
	MaxPasswordBytes    = 72
)

// User defines the user model based on the 'users' table
type User struct {
	ID         int64     `json:"id" db:"id" example:"1"`
	Username   string    `json:"username" db:"username" example:"alice_brown"`
	Password   string    `json:"-" db:"password"` // bcrypt hash, never serialized
	Email      string    `json:"email" db:"email" example:"alice.brown@student.com"`
	Department string    `json:"department" db:"department" example:"Computer Science"`
	Role       Role      `json:"role" db:"role" example:"STUDENT"`
	TeacherID  *int64    `json:"-" db:"teacher_id"` // assigned teacher, students only
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`

	// AssignedTeacher is populated by reads that join the teacher row. No db tag.
	AssignedTeacher *TeacherSummary `json:"assignedTeacher"`
}

// TeacherSummary is the public projection of a student's assigned teacher
type TeacherSummary struct {
	ID         int64  `json:"id" example:"2"`
	Username   string `json:"username" example:"bob_wilson"`
	Email      string `json:"email" example:"bob.wilson@school.com"`
	Department string `json:"department" example:"Computer Science"`
	Role       Role   `json:"role" example:"TEACHER"`
}

// HasRole reports whether the user holds the given role
func (u *User) HasRole(role Role) bool {
	return u != nil && u.Role == role
}

// AssignTo points the student at teacher and refreshes the embedded summary
func (u *User) AssignTo(teacher *User) {
	id := teacher.ID
	u.TeacherID = &id
	u.AssignedTeacher = teacher.Summary()
}

// Unassign clears the assigned teacher reference
func (u *User) Unassign() {
	u.TeacherID = nil
	u.AssignedTeacher = nil
}

// Summary returns the TeacherSummary projection of u
func (u *User) Summary() *TeacherSummary {
	return &TeacherSummary{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Department: u.Department,
		Role:       u.Role,
	}
}
