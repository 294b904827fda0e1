package service

import (
	"context"
	"errors"
	"strings"

	"tastify/internal/cache"
	"tastify/internal/models"
	"tastify/internal/repository"

	"gorm.io/gorm"
)

const maxCommentLen = 10000

// CommentService owns comment creation, listing, counting and mutation.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type CreateCommentInput struct {
	UserID uint
	PostID uint
	Text   string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Text      string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

// CommentCount is the envelope for the count endpoint.
type CommentCount struct {
	PostID uint  `json:"postId"`
	Count  int64 `json:"count"`
}

// NewCommentService creates a CommentService backed by the given repositories.
func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo}
}

// CreateComment attaches a comment to an existing post. The post existence
// check rejects orphan comments at creation time.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthenticatedError("Authentication required")
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, models.NewValidationError("Text is required")
	}
	if len(in.Text) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}
	if _, err := s.postRepo.GetByID(ctx, in.PostID, 0); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", in.PostID)
		}
		return nil, models.NewInternalError(err)
	}

	comment := &models.Comment{
		PostID: in.PostID,
		UserID: in.UserID,
		Text:   in.Text,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}

	cache.InvalidateCommentCount(ctx, in.PostID)
	cache.InvalidatePostsList(ctx)

	// Reload with the author's display fields populated.
	return s.getComment(ctx, comment.ID)
}

// ListComments returns all comments for a post, newest first, with author
// display fields.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// CountComments returns the number of comments on a post without transferring
// the comment bodies. The count is served cache-aside and invalidated on every
// comment mutation.
func (s *CommentService) CountComments(ctx context.Context, postID uint) (*CommentCount, error) {
	var count int64
	err := cache.Aside(ctx, cache.CommentCountKey(postID), &count, cache.CommentCountTTL, func() error {
		var fetchErr error
		count, fetchErr = s.commentRepo.CountByPost(ctx, postID)
		return fetchErr
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &CommentCount{PostID: postID, Count: count}, nil
}

// UpdateComment replaces the comment text after the existence and ownership
// checks.
func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.getComment(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}

	if comment.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own comments")
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, models.NewValidationError("Text is required")
	}
	if len(in.Text) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	comment.Text = in.Text
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}

	return s.getComment(ctx, comment.ID)
}

// DeleteComment removes the comment after the existence and ownership checks.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.getComment(ctx, in.CommentID)
	if err != nil {
		return err
	}

	if comment.UserID != in.UserID {
		return models.NewForbiddenError("You can only delete your own comments")
	}

	if err := s.commentRepo.Delete(ctx, in.CommentID); err != nil {
		return models.NewInternalError(err)
	}

	cache.InvalidateCommentCount(ctx, comment.PostID)
	cache.InvalidatePostsList(ctx)
	return nil
}

func (s *CommentService) getComment(ctx context.Context, id uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Comment", id)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comment, nil
}
