package helpers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/studentmanagement/internal/pkg/apperrors"
)

// ParseIDParam reads a positive int64 path parameter such as ":id".
func ParseIDParam(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", apperrors.ErrBadRequest, name, raw)
	}
	return id, nil
}
