package server

import (
	"errors"
	"strconv"

	"tastify/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten signals that the handler already wrote an error response
// and should just return nil up the chain.
var errResponseWritten = errors.New("response written")

// parseID extracts and validates a positive numeric path parameter. On
// failure it writes the 400 response itself and returns errResponseWritten.
func parseID(c *fiber.Ctx, param, label string) (uint, error) {
	raw := c.Params(param)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		appErr := models.NewValidationError("Invalid " + label)
		_ = models.RespondWithError(c, fiber.StatusBadRequest, appErr)
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// currentUserID returns the authenticated user's ID, or 0 when the request
// carries no identity (possible on OptionalAuth routes).
func currentUserID(c *fiber.Ctx) uint {
	if uid, ok := c.Locals("userID").(uint); ok {
		return uid
	}
	return 0
}

// parsePagination reads page/limit query parameters with defaults and a cap.
func parsePagination(c *fiber.Ctx) (page, limit int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("limit", 10)
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// serviceError maps a service-layer error to its HTTP response.
func serviceError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusForError(err), err)
}
