package server

import (
	"tastify/internal/models"
	"tastify/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type updateProfileRequest struct {
	Username     string `json:"username"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	ProfileImage string `json:"profileImage"`
}

// GetMyProfile returns the authenticated user's account.
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	user, err := s.userRepo.GetByID(c.UserContext(), userID)
	if err != nil {
		return serviceError(c, models.NewNotFoundError("User", userID))
	}
	return c.JSON(user)
}

// UpdateMyProfile applies a partial update to the authenticated user's
// display fields. Credentials are not editable here.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userRepo.GetByID(c.UserContext(), userID)
	if err != nil {
		return serviceError(c, models.NewNotFoundError("User", userID))
	}

	if req.Username != "" {
		if err := validation.ValidateUsername(req.Username); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
		user.Username = req.Username
	}
	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.ProfileImage != "" {
		user.ProfileImage = req.ProfileImage
	}

	if err := s.userRepo.Update(c.UserContext(), user); err != nil {
		return serviceError(c, models.NewInternalError(err))
	}
	return c.JSON(user)
}
