package server

import (
	stderrors "errors"

	"github.com/gofiber/fiber/v2"

	apperrors "detox-form-api/internal/common/errors"
)

// envelope is the uniform response body. Every endpoint answers with it,
// success and failure alike.
type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Data    interface{}            `json:"data,omitempty"`
	Errors  []apperrors.FieldError `json:"errors,omitempty"`
}

func respondData(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(envelope{Success: true, Data: data})
}

func respondMessage(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(envelope{Success: true, Message: message, Data: data})
}

// respondError maps an internal error onto the envelope. Validation
// failures carry the per-field list, everything else just the message.
func respondError(c *fiber.Ctx, err error) error {
	var fields []apperrors.FieldError
	var ve *apperrors.ValidationError
	if stderrors.As(err, &ve) {
		fields = ve.Fields
	}

	se := apperrors.AsStandardError(err)
	return c.Status(apperrors.HTTPStatus(se.Code)).JSON(envelope{
		Success: false,
		Message: se.Message,
		Errors:  fields,
	})
}
