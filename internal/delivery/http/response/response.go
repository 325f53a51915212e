// Package response defines the JSON error body shared by every API route.
package response

import (
	"github.com/labstack/echo/v4"
)

// ErrorBody is the uniform failure shape: success is always false, error
// carries the human-readable message and code the machine-readable category.
type ErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// Error writes the uniform failure body.
func Error(c echo.Context, statusCode int, errorCode, message string) error {
	return c.JSON(statusCode, ErrorBody{
		Success: false,
		Error:   message,
		Code:    errorCode,
	})
}
