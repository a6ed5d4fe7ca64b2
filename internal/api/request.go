package api

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "optical-franchise/internal/common/errors"
	"optical-franchise/internal/common/validation"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ParseID reads a positive integer path parameter.
func ParseID(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError(
			fmt.Sprintf("Invalid %s", name),
			fmt.Sprintf("%q is not a positive integer", raw),
		)
	}
	return id, nil
}

// QueryID reads an optional positive integer query parameter. A missing
// parameter returns nil.
func QueryID(c *gin.Context, name string) (*int64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("Invalid %s", name),
			fmt.Sprintf("%q is not a positive integer", raw),
		)
	}
	return &id, nil
}

// BindJSON decodes the request body into dst and runs its binding rules.
// Field failures become VALIDATION_FAILED, anything else INVALID_REQUEST_BODY.
func BindJSON(c *gin.Context, dst interface{}) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}

	if _, ok := err.(validator.ValidationErrors); ok {
		result := validation.FromValidatorError(err)
		return apperrors.NewValidationError("Request validation failed", result.Summary()).
			WithMetadata("fields", result.Errors)
	}
	return apperrors.NewInvalidRequestBodyError(err)
}
