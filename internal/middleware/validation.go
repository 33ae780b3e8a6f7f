package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/studentmanagement/internal/app/models/dto"
)

// BindJSON binds the request body into obj and runs its binding tags.
// On failure it writes a 400 with the validation messages and returns false.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		errorDetail := dto.HandleValidationError(err)
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return false
	}
	return true
}
