package dto

// LoginRequest represents login credentials
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest represents a self-service registration request
type RegisterRequest struct {
	Username   string `json:"username" binding:"required,max=100"`
	Email      string `json:"email" binding:"required,email,max=255"`
	Password   string `json:"password" binding:"required,max=72"`
	Department string `json:"department" binding:"required,max=255"`
	Role       string `json:"role" binding:"required"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType" example:"Bearer"`
	ExpiresIn int64  `json:"expiresIn" example:"86400"`
	Username  string `json:"username" example:"admin"`
	Email     string `json:"email" example:"admin@example.com"`
	Role      string `json:"role" example:"ADMIN"`
}
