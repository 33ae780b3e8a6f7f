package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/studentmanagement/internal/app/models"
	"github.com/yigit/studentmanagement/internal/app/models/dto"
	"github.com/yigit/studentmanagement/internal/app/services"
	"github.com/yigit/studentmanagement/internal/middleware"
	"github.com/yigit/studentmanagement/internal/pkg/helpers"
)

// UserController serves read-only user listings to any authenticated user
type UserController struct {
	userService services.UserService
}

// NewUserController creates a new user controller
func NewUserController(userService services.UserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

// ListUsers godoc
// @Summary List all users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.User}
// @Failure 401 {object} dto.ErrorResponse
// @Router /users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	users, err := c.userService.ListUsers(ctx.Request.Context())
	respondUsers(ctx, users, err)
}

// ListStudents godoc
// @Summary List all students
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.User}
// @Router /students [get]
func (c *UserController) ListStudents(ctx *gin.Context) {
	users, err := c.userService.ListUsersByRole(ctx.Request.Context(), models.RoleStudent)
	respondUsers(ctx, users, err)
}

// ListTeachers godoc
// @Summary List all teachers
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.User}
// @Router /teachers [get]
func (c *UserController) ListTeachers(ctx *gin.Context) {
	users, err := c.userService.ListUsersByRole(ctx.Request.Context(), models.RoleTeacher)
	respondUsers(ctx, users, err)
}

// GetUserByID retrieves user information by ID
// @Summary Get user by ID
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=models.User}
// @Failure 400 {object} dto.ErrorResponse "Invalid user ID"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id} [get]
func (c *UserController) GetUserByID(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	user, err := c.userService.GetUser(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user, ""))
}

// ListStudentsOfTeacher godoc
// @Summary List the students assigned to a teacher
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "Teacher ID"
// @Success 200 {object} dto.APIResponse{data=[]models.User}
// @Failure 400 {object} dto.ErrorResponse "User is not a teacher"
// @Failure 404 {object} dto.ErrorResponse "Teacher not found"
// @Router /teachers/{id}/students [get]
func (c *UserController) ListStudentsOfTeacher(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	users, err := c.userService.ListStudentsOfTeacher(ctx.Request.Context(), id)
	respondUsers(ctx, users, err)
}

func respondUsers(ctx *gin.Context, users []*models.User, err error) {
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(users, ""))
}
