package utils

import (
	"github.com/gin-gonic/gin"
)

// Error codes carried in the "code" field of failed responses.
const (
	CodeInvalidRequest  = "invalid_request"
	CodeConversionError = "conversion_error"
	CodeModelError      = "model_error"
	CodeRateLimited     = "rate_limited"
	CodeUnavailable     = "unavailable"
	CodeInternal        = "internal_error"
)

type ErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// ErrorResponse writes a failure envelope and aborts the handler chain.
func ErrorResponse(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorBody{
		Success: false,
		Error:   message,
		Code:    code,
	})
}
