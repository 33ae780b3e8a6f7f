package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/studentmanagement/internal/app/models"
	"github.com/yigit/studentmanagement/internal/app/models/dto"
	"github.com/yigit/studentmanagement/internal/app/services"
	"github.com/yigit/studentmanagement/internal/middleware"
	"github.com/yigit/studentmanagement/internal/pkg/helpers"
)

// AdminController exposes user management and assignment to administrators.
// Every failure is reported as 400 with a specific error code.
type AdminController struct {
	userService       services.UserService
	assignmentService services.AssignmentService
	logger            zerolog.Logger
}

// NewAdminController creates a new AdminController
func NewAdminController(userService services.UserService, assignmentService services.AssignmentService, logger zerolog.Logger) *AdminController {
	return &AdminController{
		userService:       userService,
		assignmentService: assignmentService,
		logger:            logger,
	}
}

// ListUsers godoc
// @Summary List all users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.User}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /admin/users [get]
func (c *AdminController) ListUsers(ctx *gin.Context) {
	users, err := c.userService.ListUsers(ctx.Request.Context())
	c.respondList(ctx, users, err)
}

// ListStudents godoc
// @Summary List all students
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.User}
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/students [get]
func (c *AdminController) ListStudents(ctx *gin.Context) {
	users, err := c.userService.ListUsersByRole(ctx.Request.Context(), models.RoleStudent)
	c.respondList(ctx, users, err)
}

// ListTeachers godoc
// @Summary List all teachers
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.User}
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/teachers [get]
func (c *AdminController) ListTeachers(ctx *gin.Context) {
	users, err := c.userService.ListUsersByRole(ctx.Request.Context(), models.RoleTeacher)
	c.respondList(ctx, users, err)
}

// ListUnassignedStudents godoc
// @Summary List students without a teacher
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.User}
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/students/unassigned [get]
func (c *AdminController) ListUnassignedStudents(ctx *gin.Context) {
	users, err := c.userService.ListUnassignedStudents(ctx.Request.Context())
	c.respondList(ctx, users, err)
}

// CreateUser godoc
// @Summary Create a user
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateUserRequest true "New user"
// @Success 201 {object} dto.APIResponse{data=models.User}
// @Failure 400 {object} dto.ErrorResponse "Invalid input, duplicate username or email"
// @Router /admin/users [post]
func (c *AdminController) CreateUser(ctx *gin.Context) {
	var req dto.CreateUserRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, err := c.userService.CreateUser(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("username", req.Username).Msg("Failed to create user")
		middleware.HandleBadRequestError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(user, "User created successfully"))
}

// UpdateUser godoc
// @Summary Update a user
// @Description Overwrites username, email, department and role. An empty password keeps the current one.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.UpdateUserRequest true "New values"
// @Success 200 {object} dto.APIResponse{data=models.User}
// @Failure 400 {object} dto.ErrorResponse "Invalid input, user not found or email taken"
// @Router /admin/users/{id} [put]
func (c *AdminController) UpdateUser(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleBadRequestError(ctx, err)
		return
	}

	var req dto.UpdateUserRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, err := c.userService.UpdateUser(ctx.Request.Context(), id, &req)
	if err != nil {
		c.logger.Warn().Err(err).Int64("userID", id).Msg("Failed to update user")
		middleware.HandleBadRequestError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user, "User updated successfully"))
}

// DeleteUser godoc
// @Summary Delete a user
// @Description Deleting a teacher first unassigns all of its students
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 400 {object} dto.ErrorResponse "User not found"
// @Router /admin/users/{id} [delete]
func (c *AdminController) DeleteUser(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleBadRequestError(ctx, err)
		return
	}

	if err := c.userService.DeleteUser(ctx.Request.Context(), id); err != nil {
		c.logger.Warn().Err(err).Int64("userID", id).Msg("Failed to delete user")
		middleware.HandleBadRequestError(ctx, err)
		return
	}

	const msg = "User deleted successfully"
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: msg}, msg))
}

// AssignStudent godoc
// @Summary Assign a student to a teacher
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param studentId path int true "Student ID"
// @Param teacherId path int true "Teacher ID"
// @Success 200 {object} dto.APIResponse{data=models.User}
// @Failure 400 {object} dto.ErrorResponse "User not found or invalid role"
// @Router /admin/assign/{studentId}/to/{teacherId} [put]
func (c *AdminController) AssignStudent(ctx *gin.Context) {
	studentID, err := helpers.ParseIDParam(ctx, "studentId")
	if err != nil {
		middleware.HandleBadRequestError(ctx, err)
		return
	}
	teacherID, err := helpers.ParseIDParam(ctx, "teacherId")
	if err != nil {
		middleware.HandleBadRequestError(ctx, err)
		return
	}

	student, err := c.assignmentService.Assign(ctx.Request.Context(), studentID, teacherID)
	if err != nil {
		c.logger.Warn().Err(err).Int64("studentID", studentID).Int64("teacherID", teacherID).Msg("Failed to assign student")
		middleware.HandleBadRequestError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(student, "Student assigned successfully"))
}

// UnassignStudent godoc
// @Summary Remove a student's teacher
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param studentId path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=models.User}
// @Failure 400 {object} dto.ErrorResponse "User not found or invalid role"
// @Router /admin/unassign/{studentId} [put]
func (c *AdminController) UnassignStudent(ctx *gin.Context) {
	studentID, err := helpers.ParseIDParam(ctx, "studentId")
	if err != nil {
		middleware.HandleBadRequestError(ctx, err)
		return
	}

	student, err := c.assignmentService.Unassign(ctx.Request.Context(), studentID)
	if err != nil {
		c.logger.Warn().Err(err).Int64("studentID", studentID).Msg("Failed to unassign student")
		middleware.HandleBadRequestError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(student, "Student unassigned successfully"))
}

func (c *AdminController) respondList(ctx *gin.Context, users []*models.User, err error) {
	if err != nil {
		middleware.HandleBadRequestError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(users, ""))
}
