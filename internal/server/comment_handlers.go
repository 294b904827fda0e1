package server

import (
	"tastify/internal/models"
	"tastify/internal/notifications"
	"tastify/internal/observability"
	"tastify/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createCommentRequest struct {
	PostID uint   `json:"postId"`
	Text   string `json:"text"`
}

type updateCommentRequest struct {
	Text string `json:"text"`
}

// CreateComment attaches a comment to an existing post.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req createCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.PostID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("postId is required"))
	}
	userID := currentUserID(c)

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID: userID,
		PostID: req.PostID,
		Text:   req.Text,
	})
	if err != nil {
		return serviceError(c, err)
	}

	observability.CommentsCreated.Inc()
	s.notifier.PublishEvent(c.UserContext(), notifications.EventCommentCreated, map[string]interface{}{
		"commentId": comment.ID,
		"postId":    req.PostID,
		"userId":    userID,
	})

	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetCommentsByPost lists all comments for a post, newest first.
func (s *Server) GetCommentsByPost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	comments, err := s.commentService.ListComments(c.UserContext(), postID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(comments)
}

// CountCommentsForPost returns the comment count without the comment bodies.
func (s *Server) CountCommentsForPost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	count, err := s.commentService.CountComments(c.UserContext(), postID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(count)
}

// UpdateComment replaces the text of the caller's own comment.
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "id", "comment ID")
	if err != nil {
		return nil
	}

	var req updateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		UserID:    currentUserID(c),
		CommentID: commentID,
		Text:      req.Text,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment removes the caller's own comment.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "id", "comment ID")
	if err != nil {
		return nil
	}

	if err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		UserID:    currentUserID(c),
		CommentID: commentID,
	}); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted"})
}
