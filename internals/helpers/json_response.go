// file: internals/helpers/json_response.go
package helper

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

/* ===============================
   Error helpers (standard shape)
=================================*/

type ErrorResponse struct {
	Success   bool                `json:"success"`
	Error     string              `json:"error"`
	ErrorCode string              `json:"error_code,omitempty"`
	Errors    map[string][]string `json:"errors,omitempty"`
}

func statusToErrorCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusConflict:
		return "CONFLICT"
	case fiber.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		if status >= 500 {
			return "INTERNAL_ERROR"
		}
		return "ERROR"
	}
}

// JsonError: generic error (not validation)
func JsonError(c *fiber.Ctx, status int, message string) error {
	if status == 0 {
		status = fiber.StatusInternalServerError
	}
	if strings.TrimSpace(message) == "" {
		message = fiber.ErrInternalServerError.Message
	}
	return c.Status(status).JSON(ErrorResponse{
		Success:   false,
		Error:     message,
		ErrorCode: statusToErrorCode(status),
	})
}

// JsonErrorWithDetails: error plus extra top-level fields, e.g. {error, detail, booking_id}.
func JsonErrorWithDetails(c *fiber.Ctx, status int, message string, details fiber.Map) error {
	body := fiber.Map{
		"success":    false,
		"error":      message,
		"error_code": statusToErrorCode(status),
	}
	for k, v := range details {
		if k == "success" || k == "error" {
			continue
		}
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

// JsonValidationError: validator.v10 field errors → 400
func JsonValidationError(c *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	fieldErrors := make(map[string][]string, len(ve))
	for _, fe := range ve {
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		fieldErrors[fe.Field()] = append(fieldErrors[fe.Field()], msg)
	}
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Success:   false,
		Error:     "validation failed",
		ErrorCode: "VALIDATION_ERROR",
		Errors:    fieldErrors,
	})
}

// FiberErrorHandler keeps errors returned from middleware (fiber.NewError) in the same shape.
func FiberErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return JsonError(c, code, err.Error())
}

/* ===============================
   JSON responses (standard success)
=================================*/

// JsonList: list with pagination
func JsonList(c *fiber.Ctx, data any, meta Meta) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":    true,
		"message":    "ok",
		"data":       data,
		"pagination": meta,
	})
}

func JsonOK(c *fiber.Ctx, message string, data any) error {
	if strings.TrimSpace(message) == "" {
		message = "ok"
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func JsonCreated(c *fiber.Ctx, message string, data any) error {
	if strings.TrimSpace(message) == "" {
		message = "created"
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func JsonUpdated(c *fiber.Ctx, message string, data any) error {
	if strings.TrimSpace(message) == "" {
		message = "updated"
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func JsonDeleted(c *fiber.Ctx, message string, data any) error {
	if strings.TrimSpace(message) == "" {
		message = "deleted"
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}
