package dto

// CreateUserRequest is the admin payload for creating a user
type CreateUserRequest struct {
	Username   string `json:"username" binding:"required,max=100"`
	Email      string `json:"email" binding:"required,email,max=255"`
	Password   string `json:"password" binding:"required,max=72"`
	Department string `json:"department" binding:"required,max=255"`
	Role       string `json:"role" binding:"required"`
}

// UpdateUserRequest is the admin payload for updating a user.
// An empty password keeps the stored hash.
type UpdateUserRequest struct {
	Username   string `json:"username" binding:"required,max=100"`
	Email      string `json:"email" binding:"required,email,max=255"`
	Password   string `json:"password" binding:"omitempty,max=72"`
	Department string `json:"department" binding:"required,max=255"`
	Role       string `json:"role" binding:"required"`
}
