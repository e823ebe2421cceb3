package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"cvbuilder/internal/payload"
	"cvbuilder/internal/resume"
	"cvbuilder/internal/session"
	u "cvbuilder/internal/utils"
)

// CVService exposes an editing session over HTTP.
type CVService struct {
	Session *session.Session
}

// NewCVService creates a CVService for sess.
func NewCVService(sess *session.Session) *CVService {
	return &CVService{Session: sess}
}

// valueRequest is the body of every single-value edit.
type valueRequest struct {
	Value string `json:"value"`
}

// parseValue reads {"value": ...}. An empty body counts as an empty value.
func parseValue(c *fiber.Ctx) (string, error) {
	var req valueRequest
	if len(c.Body()) == 0 {
		return "", nil
	}
	if err := c.BodyParser(&req); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}
	return req.Value, nil
}

func paramIndex(c *fiber.Ctx, key string) (int, error) {
	i, err := c.ParamsInt(key)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+key+": "+c.Params(key))
	}
	return i, nil
}

// toHTTPError maps domain errors onto HTTP status codes.
func toHTTPError(err error) error {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe
	case errors.Is(err, payload.ErrInvalidPayload),
		errors.Is(err, resume.ErrUnknownSection),
		errors.Is(err, resume.ErrUnknownField),
		errors.Is(err, resume.ErrFieldNotInSection):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, resume.ErrIndexOutOfRange),
		errors.Is(err, session.ErrNoPDF),
		errors.Is(err, session.ErrNoPreview):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrPrinterDisabled):
		return fiber.NewError(fiber.StatusNotImplemented, err.Error())
	}
	u.Error("Request failed", "error", err)
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
