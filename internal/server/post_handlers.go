package server

import (
	"io"
	"log/slog"
	"mime/multipart"
	"strconv"

	"tastify/internal/middleware"
	"tastify/internal/models"
	"tastify/internal/notifications"
	"tastify/internal/observability"
	"tastify/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts returns one page of the feed, newest first. Accepts restaurant,
// userId, page and limit query parameters. Anonymous viewers get liked_by_me
// false everywhere; signed-in viewers get their own like state.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page, limit := parsePagination(c)

	var filterUserID uint
	if raw := c.Query("userId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid userId filter"))
		}
		filterUserID = uint(id)
	}

	result, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		Restaurant:    c.Query("restaurant"),
		UserID:        filterUserID,
		Page:          page,
		Limit:         limit,
		CurrentUserID: currentUserID(c),
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(result)
}

// GetPostDetails returns a post with its full comment list and derived counts.
func (s *Server) GetPostDetails(c *fiber.Ctx) error {
	postID, err := parseID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	details, err := s.postService.GetPostDetails(c.UserContext(), postID, currentUserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(details)
}

// CreatePost creates a review from a multipart form (restaurantName, text,
// rating, optional image file).
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := currentUserID(c)

	rating, ok := parseRatingField(c, c.FormValue("rating"), true)
	if !ok {
		return nil
	}

	imageURL, ok := s.saveUploadedImage(c)
	if !ok {
		return nil
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:         userID,
		RestaurantName: c.FormValue("restaurantName"),
		Text:           c.FormValue("text"),
		Rating:         rating,
		ImageURL:       imageURL,
	})
	if err != nil {
		return serviceError(c, err)
	}

	observability.PostsCreated.Inc()
	s.notifier.PublishEvent(c.UserContext(), notifications.EventPostCreated, map[string]interface{}{
		"postId": post.ID,
		"userId": userID,
	})

	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost applies a partial update to the caller's own post. Form fields
// left empty keep their stored values; an attached image replaces the slot.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	var rating *float64
	if raw := c.FormValue("rating"); raw != "" {
		val, ok := parseRatingField(c, raw, false)
		if !ok {
			return nil
		}
		rating = &val
	}

	imageURL, ok := s.saveUploadedImage(c)
	if !ok {
		return nil
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:         currentUserID(c),
		PostID:         postID,
		RestaurantName: c.FormValue("restaurantName"),
		Text:           c.FormValue("text"),
		Rating:         rating,
		ImageURL:       imageURL,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(post)
}

// DeletePost removes the caller's own post together with its comments and
// likes.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id", "post ID")
	if err != nil {
		return nil
	}
	userID := currentUserID(c)

	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{
		UserID: userID,
		PostID: postID,
	}); err != nil {
		return serviceError(c, err)
	}

	s.notifier.PublishEvent(c.UserContext(), notifications.EventPostDeleted, map[string]interface{}{
		"postId": postID,
		"userId": userID,
	})

	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// ToggleLike flips the caller's membership in the post's like set and returns
// the resulting state and total.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	postID, err := parseID(c, "id", "post ID")
	if err != nil {
		return nil
	}
	userID := currentUserID(c)

	result, err := s.postService.ToggleLike(c.UserContext(), userID, postID)
	if err != nil {
		return serviceError(c, err)
	}

	state := "unliked"
	if result.Liked {
		state = "liked"
	}
	observability.LikeToggles.WithLabelValues(state).Inc()
	s.notifier.PublishEvent(c.UserContext(), notifications.EventLikeToggled, map[string]interface{}{
		"postId": postID,
		"userId": userID,
		"liked":  result.Liked,
		"total":  result.TotalLikes,
	})

	return c.JSON(result)
}

// parseRatingField parses the rating form value. With required set, an empty
// value is rejected. Writes the 400 itself and returns ok=false on failure.
func parseRatingField(c *fiber.Ctx, raw string, required bool) (float64, bool) {
	if raw == "" {
		if required {
			_ = models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Rating is required"))
			return 0, false
		}
		return 0, true
	}
	rating, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Rating must be a number"))
		return 0, false
	}
	return rating, true
}

// saveUploadedImage stores the optional "image" multipart file and returns its
// public path. Returns ("", true) when no file was attached; writes the error
// response and returns ok=false on failure.
func (s *Server) saveUploadedImage(c *fiber.Ctx) (string, bool) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return "", true
	}

	content, err := readMultipartFile(fileHeader)
	if err != nil {
		_ = serviceError(c, models.NewInternalError(err))
		return "", false
	}

	path, err := s.files.Save(fileHeader.Filename, content)
	if err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "image upload rejected",
			slog.String("filename", fileHeader.Filename), slog.String("error", err.Error()))
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
		return "", false
	}
	return path, true
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
