package middleware

import (
	"errors"
	"net/http"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/yigit/studentmanagement/internal/app/models/dto"
	"github.com/yigit/studentmanagement/internal/pkg/apperrors"
)

// HandleAPIError writes err with the status that matches its category:
// 404 not found, 409 conflict, 400 invalid input or role, 401 auth, 403 forbidden, 500 otherwise.
func HandleAPIError(c *gin.Context, err error) {
	status, detail := classify(err)
	respondError(c, status, detail, err)
}

// HandleBadRequestError writes every failure as 400 with its specific error code.
// Used by the admin and auth routes. Unexpected failures keep SRV_001 and are logged as errors.
func HandleBadRequestError(c *gin.Context, err error) {
	status, detail := classify(err)
	if status >= http.StatusInternalServerError {
		logFailure(c, err, detail)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
}

func respondError(c *gin.Context, status int, detail *dto.ErrorDetail, err error) {
	if status >= http.StatusInternalServerError {
		logFailure(c, err, detail)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}

func logFailure(c *gin.Context, err error, detail *dto.ErrorDetail) {
	log.Error().Err(err).Str("method", c.Request.Method).Str("path", c.Request.URL.Path).Msg("Request failed")
	detail.WithSeverity(dto.ErrorSeverityCritical)
}

func classify(err error) (int, *dto.ErrorDetail) {
	switch {
	case errors.Is(err, apperrors.ErrResourceNotFound):
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, messageOf(err, "Resource not found")).
			WithSeverity(dto.ErrorSeverityWarning)
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, fieldFor(err, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, messageOf(err, "Resource already exists")))
	case errors.Is(err, apperrors.ErrInvalidRole):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeInvalidRole, messageOf(err, "Invalid role for this operation"))
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, "Invalid credentials")
	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")
	case errors.Is(err, apperrors.ErrTokenInvalid), errors.Is(err, apperrors.ErrInvalidFormat):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeForbidden, "Permission denied")
	case errors.Is(err, apperrors.ErrValidationFailed):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed").
			WithDetails(messageOf(err, "Validation failed"))
	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Bad request").WithDetails(err.Error())
	default:
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
	}
}

// messageOf returns the CustomError message in err's chain, capitalized, or fallback
func messageOf(err error, fallback string) string {
	var custom *apperrors.CustomError
	if errors.As(err, &custom) && custom.Message != "" {
		r, size := utf8.DecodeRuneInString(custom.Message)
		return string(unicode.ToUpper(r)) + custom.Message[size:]
	}
	return fallback
}

func fieldFor(err error, detail *dto.ErrorDetail) *dto.ErrorDetail {
	switch {
	case errors.Is(err, apperrors.ErrUsernameAlreadyExists):
		return detail.WithField("username")
	case errors.Is(err, apperrors.ErrEmailAlreadyExists):
		return detail.WithField("email")
	}
	return detail
}
