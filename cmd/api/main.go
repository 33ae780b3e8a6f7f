package main

import (
	"os"

	"github.com/yigit/studentmanagement/internal/pkg/logger"
)

// @title Student Management API
// @version 1.0
// @description User management for admins, teachers and students with JWT authentication and student to teacher assignment.

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
