package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tasklink-app/tasklink-web/internal/upstream"
)

type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func validationFail(c *fiber.Ctx, errs FieldErrors) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": false,
		"message": "Validation error",
		"errors":  errs,
	})
}

func fail200(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func fail500(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// failUpstream maps an upstream failure to the inline form-level message the
// views render; nothing here is fatal to the process.
func failUpstream(c *fiber.Ctx, err error) error {
	var ue *upstream.Error
	if errors.As(err, &ue) {
		return fail200(c, ue.Message)
	}
	return fail500(c, "Erreur serveur")
}

// upstreamMessage extracts the user-facing message from an upstream failure.
func upstreamMessage(err error, fallback string) string {
	var ue *upstream.Error
	if errors.As(err, &ue) && ue.Message != "" {
		return ue.Message
	}
	return fallback
}

// envelope forwards an upstream response body to the browser unchanged.
func envelope(c *fiber.Ctx, env *upstream.Envelope) error {
	resp := fiber.Map{"success": true}
	if env.Message != "" {
		resp["message"] = env.Message
	}
	if len(env.Data) > 0 {
		resp["data"] = env.Data
	}
	return c.JSON(resp)
}
