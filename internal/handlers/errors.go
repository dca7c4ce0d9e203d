package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/example/snowstore/internal/services"
)

// ErrorHandler maps service and transport errors to JSON responses.
// Unexpected errors are logged and reported without detail.
func ErrorHandler(c *fiber.Ctx, err error) error {
	resp := ErrorResponse{Success: false, Message: "internal server error"}
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	var ve *services.ValidationError
	switch {
	case errors.As(err, &fe):
		code, resp.Message = fe.Code, fe.Message
	case errors.As(err, &ve):
		code, resp.Message, resp.Field = fiber.StatusBadRequest, ve.Message, ve.Field
	case errors.Is(err, services.ErrNotFound):
		code, resp.Message = fiber.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrForbidden):
		code, resp.Message = fiber.StatusForbidden, err.Error()
	case errors.Is(err, services.ErrInvalidCredentials):
		code, resp.Message = fiber.StatusUnauthorized, err.Error()
	default:
		log.Printf("%s %s failed [%v]: %v", c.Method(), c.Path(), c.Locals("requestid"), err)
	}

	return c.Status(code).JSON(resp)
}
