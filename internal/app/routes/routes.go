package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/studentmanagement/internal/app/controllers"
	"github.com/yigit/studentmanagement/internal/app/models"
	"github.com/yigit/studentmanagement/internal/middleware"
)

// Handlers groups the controllers mounted by SetupRouter
type Handlers struct {
	Auth   *controllers.AuthController
	Admin  *controllers.AdminController
	User   *controllers.UserController
	Health *controllers.HealthController
}

// SetupRouter configures all application routes.
// metricsHandler may be nil, in which case /metrics is not mounted.
func SetupRouter(router *gin.Engine, h Handlers, authMiddleware *middleware.AuthMiddleware, metricsHandler http.Handler) {
	router.Use(authMiddleware.OptionalJWT())

	router.GET("/", h.Health.Root)
	router.GET("/health", h.Health.Health)
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	api := router.Group("/api")

	// --- Public Auth routes ---
	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
	}

	// --- Admin routes ---
	admin := api.Group("/admin")
	admin.Use(authMiddleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/users", h.Admin.ListUsers)
		admin.GET("/students", h.Admin.ListStudents)
		admin.GET("/students/unassigned", h.Admin.ListUnassignedStudents)
		admin.GET("/teachers", h.Admin.ListTeachers)
		admin.POST("/users", h.Admin.CreateUser)
		admin.PUT("/users/:id", h.Admin.UpdateUser)
		admin.DELETE("/users/:id", h.Admin.DeleteUser)
		admin.PUT("/assign/:studentId/to/:teacherId", h.Admin.AssignStudent)
		admin.PUT("/unassign/:studentId", h.Admin.UnassignStudent)
	}

	// --- Authenticated read-only routes ---
	authenticated := api.Group("")
	authenticated.Use(authMiddleware.RequireAuthenticated())
	{
		authenticated.GET("/users", h.User.ListUsers)
		authenticated.GET("/users/:id", h.User.GetUserByID)
		authenticated.GET("/students", h.User.ListStudents)
		authenticated.GET("/teachers", h.User.ListTeachers)
		authenticated.GET("/teachers/:id/students", h.User.ListStudentsOfTeacher)
	}
}
