// Package service implements the application's business logic on top of the
// repository layer: validation, ownership checks and view composition.
package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"tastify/internal/cache"
	"tastify/internal/models"
	"tastify/internal/repository"

	"gorm.io/gorm"
)

// PostService owns review creation, mutation, listing and the like toggle.
type PostService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
}

type CreatePostInput struct {
	UserID         uint
	RestaurantName string
	Text           string
	Rating         float64
	ImageURL       string
}

// UpdatePostInput carries a partial update. Empty strings and a nil Rating
// mean "keep the current value"; a non-empty ImageURL replaces the image slot.
type UpdatePostInput struct {
	UserID         uint
	PostID         uint
	RestaurantName string
	Text           string
	Rating         *float64
	ImageURL       string
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

type ListPostsInput struct {
	Restaurant    string
	UserID        uint
	Page          int
	Limit         int
	CurrentUserID uint
}

// PostPage is the list-view envelope: one page of posts plus pagination
// bookkeeping. New posts appearing during pagination may shift pages; that is
// accepted weak consistency, not a bug.
type PostPage struct {
	Posts       []*models.Post `json:"posts"`
	Total       int64          `json:"total"`
	CurrentPage int            `json:"currentPage"`
	TotalPages  int            `json:"totalPages"`
}

// PostDetails is the detail-view envelope: the post, its full comment list and
// the derived counts for the requesting viewer.
type PostDetails struct {
	Post          *models.Post      `json:"post"`
	Comments      []*models.Comment `json:"comments"`
	LikesCount    int               `json:"likesCount"`
	CommentsCount int               `json:"commentsCount"`
	LikedByMe     bool              `json:"likedByMe"`
}

// ToggleLikeResult reports the post-toggle membership state and set size.
type ToggleLikeResult struct {
	Liked      bool  `json:"liked"`
	TotalLikes int64 `json:"totalLikes"`
}

// NewPostService creates a PostService backed by the given repositories.
func NewPostService(postRepo repository.PostRepository, commentRepo repository.CommentRepository) *PostService {
	return &PostService{postRepo: postRepo, commentRepo: commentRepo}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthenticatedError("Authentication required")
	}
	if strings.TrimSpace(in.RestaurantName) == "" {
		return nil, models.NewValidationError("Restaurant name is required")
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, models.NewValidationError("Text is required")
	}
	if !models.ValidRating(in.Rating) {
		return nil, models.NewValidationError("Rating must be between 1 and 5 in half-step increments")
	}

	post := &models.Post{
		UserID:         in.UserID,
		RestaurantName: in.RestaurantName,
		Text:           in.Text,
		Rating:         in.Rating,
		ImageURL:       in.ImageURL,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}

	cache.InvalidatePostsList(ctx)

	// Reload with author and derived fields populated.
	return s.getPost(ctx, post.ID, in.UserID)
}

// GetPost returns a single post with derived fields for the given viewer.
func (s *PostService) GetPost(ctx context.Context, postID, currentUserID uint) (*models.Post, error) {
	return s.getPost(ctx, postID, currentUserID)
}

// GetPostDetails composes the detail view: post, full comment list (newest
// first, with author fields) and the three derived fields. CommentsCount is
// taken from the fetched list so it always matches what the client receives.
func (s *PostService) GetPostDetails(ctx context.Context, postID, currentUserID uint) (*PostDetails, error) {
	post, err := s.getPost(ctx, postID, currentUserID)
	if err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return &PostDetails{
		Post:          post,
		Comments:      comments,
		LikesCount:    post.LikesCount,
		CommentsCount: len(comments),
		LikedByMe:     post.LikedByMe,
	}, nil
}

// ListPosts returns one page of posts, newest first, with derived fields for
// the current viewer and the total/totalPages bookkeeping the client paginates
// by.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (*PostPage, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit < 1 {
		limit = 10
	}

	filter := repository.PostFilter{
		Restaurant: in.Restaurant,
		UserID:     in.UserID,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}

	// The anonymous, unfiltered first page is the hot path (the public feed);
	// serve it cache-aside. Viewer-specific pages bypass the cache because
	// liked_by_me differs per user.
	if in.CurrentUserID == 0 && in.Restaurant == "" && in.UserID == 0 && page == 1 {
		var cached PostPage
		err := cache.Aside(ctx, cache.PostsListKey(limit), &cached, cache.ListTTL, func() error {
			posts, total, fetchErr := s.postRepo.List(ctx, filter, 0)
			if fetchErr != nil {
				return fetchErr
			}
			cached = PostPage{
				Posts:       posts,
				Total:       total,
				CurrentPage: page,
				TotalPages:  totalPages(total, limit),
			}
			return nil
		})
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		return &cached, nil
	}

	posts, total, err := s.postRepo.List(ctx, filter, in.CurrentUserID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return &PostPage{
		Posts:       posts,
		Total:       total,
		CurrentPage: page,
		TotalPages:  totalPages(total, limit),
	}, nil
}

// UpdatePost applies a partial update after the existence and ownership
// checks. Omitted fields keep their previous values; a supplied image replaces
// the slot.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.getPost(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}

	if post.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}

	if in.RestaurantName != "" {
		post.RestaurantName = in.RestaurantName
	}
	if in.Text != "" {
		post.Text = in.Text
	}
	if in.Rating != nil {
		if !models.ValidRating(*in.Rating) {
			return nil, models.NewValidationError("Rating must be between 1 and 5 in half-step increments")
		}
		post.Rating = *in.Rating
	}
	if in.ImageURL != "" {
		post.ImageURL = in.ImageURL
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}

	cache.InvalidatePostsList(ctx)
	return s.getPost(ctx, post.ID, in.UserID)
}

// DeletePost removes the post after the existence and ownership checks.
// The repository cascades the deletion to the post's comments and likes.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.getPost(ctx, in.PostID, in.UserID)
	if err != nil {
		return err
	}

	if post.UserID != in.UserID {
		return models.NewForbiddenError("You can only delete your own posts")
	}

	if err := s.postRepo.Delete(ctx, in.PostID); err != nil {
		return models.NewInternalError(err)
	}

	cache.InvalidatePostsList(ctx)
	cache.InvalidateCommentCount(ctx, in.PostID)
	return nil
}

// ToggleLike flips the requester's membership in the post's like set and
// returns the post-toggle state. The add/remove primitives are atomic at the
// store layer, so two concurrent toggles by distinct users both land. Two
// concurrent toggles by the same user race by construction; the final state is
// one of the two valid states, never a torn one.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (*ToggleLikeResult, error) {
	if userID == 0 {
		return nil, models.NewUnauthenticatedError("Authentication required")
	}
	if _, err := s.getPost(ctx, postID, userID); err != nil {
		return nil, err
	}

	liked, err := s.postRepo.IsLiked(ctx, userID, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if liked {
		err = s.postRepo.Unlike(ctx, userID, postID)
	} else {
		err = s.postRepo.Like(ctx, userID, postID)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	total, err := s.postRepo.CountLikes(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	cache.InvalidatePostsList(ctx)

	return &ToggleLikeResult{Liked: !liked, TotalLikes: total}, nil
}

// getPost translates the repository's record-not-found into the API's 404.
func (s *PostService) getPost(ctx context.Context, postID, currentUserID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID, currentUserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Post", postID)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return post, nil
}

func totalPages(total int64, limit int) int {
	return int(math.Ceil(float64(total) / float64(limit)))
}
