package service

import (
	"context"
	"sync"
	"testing"

	"tastify/internal/models"
	"tastify/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type postRepoStub struct {
	createFn     func(context.Context, *models.Post) error
	getByIDFn    func(context.Context, uint, uint) (*models.Post, error)
	listFn       func(context.Context, repository.PostFilter, uint) ([]*models.Post, int64, error)
	updateFn     func(context.Context, *models.Post) error
	deleteFn     func(context.Context, uint) error
	isLikedFn    func(context.Context, uint, uint) (bool, error)
	likeFn       func(context.Context, uint, uint) error
	unlikeFn     func(context.Context, uint, uint) error
	countLikesFn func(context.Context, uint) (int64, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *postRepoStub) List(ctx context.Context, filter repository.PostFilter, currentUserID uint) ([]*models.Post, int64, error) {
	return s.listFn(ctx, filter, currentUserID)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	return s.isLikedFn(ctx, userID, postID)
}
func (s *postRepoStub) Like(ctx context.Context, userID, postID uint) error {
	return s.likeFn(ctx, userID, postID)
}
func (s *postRepoStub) Unlike(ctx context.Context, userID, postID uint) error {
	return s.unlikeFn(ctx, userID, postID)
}
func (s *postRepoStub) CountLikes(ctx context.Context, postID uint) (int64, error) {
	return s.countLikesFn(ctx, postID)
}

type commentRepoStub struct {
	createFn      func(context.Context, *models.Comment) error
	getByIDFn     func(context.Context, uint) (*models.Comment, error)
	listByPostFn  func(context.Context, uint) ([]*models.Comment, error)
	countByPostFn func(context.Context, uint) (int64, error)
	updateFn      func(context.Context, *models.Comment) error
	deleteFn      func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) CountByPost(ctx context.Context, postID uint) (int64, error) {
	return s.countByPostFn(ctx, postID)
}
func (s *commentRepoStub) Update(ctx context.Context, comment *models.Comment) error {
	return s.updateFn(ctx, comment)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(context.Context, *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, id, _ uint) (*models.Post, error) {
			return &models.Post{ID: id, UserID: 1}, nil
		},
		listFn: func(context.Context, repository.PostFilter, uint) ([]*models.Post, int64, error) {
			return nil, 0, nil
		},
		updateFn:     func(context.Context, *models.Post) error { return nil },
		deleteFn:     func(context.Context, uint) error { return nil },
		isLikedFn:    func(context.Context, uint, uint) (bool, error) { return false, nil },
		likeFn:       func(context.Context, uint, uint) error { return nil },
		unlikeFn:     func(context.Context, uint, uint) error { return nil },
		countLikesFn: func(context.Context, uint) (int64, error) { return 0, nil },
	}
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:      func(context.Context, *models.Comment) error { return nil },
		getByIDFn:     func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id, UserID: 1}, nil },
		listByPostFn:  func(context.Context, uint) ([]*models.Comment, error) { return nil, nil },
		countByPostFn: func(context.Context, uint) (int64, error) { return 0, nil },
		updateFn:      func(context.Context, *models.Comment) error { return nil },
		deleteFn:      func(context.Context, uint) error { return nil },
	}
}

func appCode(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := err.(*models.AppError)
	require.True(t, ok, "expected *models.AppError, got %T", err)
	return appErr.Code
}

func TestPostService_CreatePost_Validation(t *testing.T) {
	svc := NewPostService(noopPostRepo(), noopCommentRepo())
	ctx := context.Background()

	t.Run("unauthenticated", func(t *testing.T) {
		_, err := svc.CreatePost(ctx, CreatePostInput{RestaurantName: "Luigi's", Text: "great", Rating: 4})
		assert.Equal(t, models.CodeUnauthenticated, appCode(t, err))
	})

	t.Run("missing restaurant name", func(t *testing.T) {
		_, err := svc.CreatePost(ctx, CreatePostInput{UserID: 1, Text: "great", Rating: 4})
		assert.Equal(t, models.CodeValidation, appCode(t, err))
	})

	t.Run("missing text", func(t *testing.T) {
		_, err := svc.CreatePost(ctx, CreatePostInput{UserID: 1, RestaurantName: "Luigi's", Rating: 4})
		assert.Equal(t, models.CodeValidation, appCode(t, err))
	})

	t.Run("rating off the half-step grid", func(t *testing.T) {
		_, err := svc.CreatePost(ctx, CreatePostInput{UserID: 1, RestaurantName: "Luigi's", Text: "great", Rating: 4.2})
		assert.Equal(t, models.CodeValidation, appCode(t, err))
	})

	t.Run("rating out of range", func(t *testing.T) {
		_, err := svc.CreatePost(ctx, CreatePostInput{UserID: 1, RestaurantName: "Luigi's", Text: "great", Rating: 6})
		assert.Equal(t, models.CodeValidation, appCode(t, err))
	})
}

func TestPostService_CreatePost_Success(t *testing.T) {
	repo := noopPostRepo()
	repo.createFn = func(_ context.Context, post *models.Post) error {
		post.ID = 42
		return nil
	}
	repo.getByIDFn = func(_ context.Context, id, currentUserID uint) (*models.Post, error) {
		return &models.Post{ID: id, UserID: currentUserID, RestaurantName: "Luigi's", Rating: 4.5}, nil
	}
	svc := NewPostService(repo, noopCommentRepo())

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID:         7,
		RestaurantName: "Luigi's",
		Text:           "best carbonara in town",
		Rating:         4.5,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(42), post.ID)
	assert.Equal(t, "Luigi's", post.RestaurantName)
}

func TestPostService_ToggleLike_RoundTrip(t *testing.T) {
	// In-memory like set standing in for the likes table.
	liked := map[uint]bool{}
	repo := noopPostRepo()
	repo.isLikedFn = func(_ context.Context, userID, _ uint) (bool, error) { return liked[userID], nil }
	repo.likeFn = func(_ context.Context, userID, _ uint) error { liked[userID] = true; return nil }
	repo.unlikeFn = func(_ context.Context, userID, _ uint) error { delete(liked, userID); return nil }
	repo.countLikesFn = func(context.Context, uint) (int64, error) { return int64(len(liked)), nil }

	svc := NewPostService(repo, noopCommentRepo())
	ctx := context.Background()

	first, err := svc.ToggleLike(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, first.Liked)
	assert.Equal(t, int64(1), first.TotalLikes)

	second, err := svc.ToggleLike(ctx, 1, 10)
	require.NoError(t, err)
	assert.False(t, second.Liked)
	assert.Equal(t, int64(0), second.TotalLikes)
}

func TestPostService_ToggleLike_DistinctUsersAccumulate(t *testing.T) {
	liked := map[uint]bool{}
	repo := noopPostRepo()
	repo.isLikedFn = func(_ context.Context, userID, _ uint) (bool, error) { return liked[userID], nil }
	repo.likeFn = func(_ context.Context, userID, _ uint) error { liked[userID] = true; return nil }
	repo.countLikesFn = func(context.Context, uint) (int64, error) { return int64(len(liked)), nil }

	svc := NewPostService(repo, noopCommentRepo())
	ctx := context.Background()

	_, err := svc.ToggleLike(ctx, 1, 10)
	require.NoError(t, err)
	result, err := svc.ToggleLike(ctx, 2, 10)
	require.NoError(t, err)

	assert.True(t, result.Liked)
	assert.Equal(t, int64(2), result.TotalLikes)
}

func TestPostService_ToggleLike_SameUserConcurrentToggles(t *testing.T) {
	// Two simultaneous toggles by the same user race between the membership
	// read and the set write. The outcome is non-deterministic but bounded:
	// the final state is one of the two valid states (liked or not liked),
	// never a torn one such as a duplicate row or a negative count.
	liked := map[uint]bool{}
	var mu sync.Mutex

	repo := noopPostRepo()
	repo.isLikedFn = func(_ context.Context, userID, _ uint) (bool, error) {
		mu.Lock()
		defer mu.Unlock()
		return liked[userID], nil
	}
	repo.likeFn = func(_ context.Context, userID, _ uint) error {
		mu.Lock()
		defer mu.Unlock()
		liked[userID] = true // add-if-absent: idempotent like the ON CONFLICT insert
		return nil
	}
	repo.unlikeFn = func(_ context.Context, userID, _ uint) error {
		mu.Lock()
		defer mu.Unlock()
		delete(liked, userID) // remove-if-present: a miss is a no-op
		return nil
	}
	repo.countLikesFn = func(context.Context, uint) (int64, error) {
		mu.Lock()
		defer mu.Unlock()
		return int64(len(liked)), nil
	}

	svc := NewPostService(repo, noopCommentRepo())
	ctx := context.Background()

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ToggleLike(ctx, 1, 10)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	count := len(liked)
	assert.LessOrEqual(t, count, 1, "like set may hold the user at most once")
	if count == 1 {
		assert.True(t, liked[1])
	}
}

func TestPostService_ToggleLike_Errors(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		svc := NewPostService(noopPostRepo(), noopCommentRepo())
		_, err := svc.ToggleLike(context.Background(), 0, 10)
		assert.Equal(t, models.CodeUnauthenticated, appCode(t, err))
	})

	t.Run("post not found", func(t *testing.T) {
		repo := noopPostRepo()
		repo.getByIDFn = func(context.Context, uint, uint) (*models.Post, error) {
			return nil, gorm.ErrRecordNotFound
		}
		svc := NewPostService(repo, noopCommentRepo())
		_, err := svc.ToggleLike(context.Background(), 1, 999)
		assert.Equal(t, models.CodeNotFound, appCode(t, err))
	})
}

func TestPostService_UpdatePost_ChecksExistenceBeforeOwnership(t *testing.T) {
	// A request against a missing post must yield NOT_FOUND even when the
	// caller would not own it, so existence leaks nothing about ownership.
	repo := noopPostRepo()
	repo.getByIDFn = func(context.Context, uint, uint) (*models.Post, error) {
		return nil, gorm.ErrRecordNotFound
	}
	svc := NewPostService(repo, noopCommentRepo())

	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{UserID: 2, PostID: 999, Text: "new"})
	assert.Equal(t, models.CodeNotFound, appCode(t, err))
}

func TestPostService_UpdatePost_ForbiddenLeavesPostUntouched(t *testing.T) {
	updated := false
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
		return &models.Post{ID: id, UserID: 1}, nil
	}
	repo.updateFn = func(context.Context, *models.Post) error {
		updated = true
		return nil
	}
	svc := NewPostService(repo, noopCommentRepo())

	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{UserID: 2, PostID: 10, Text: "hijack"})
	assert.Equal(t, models.CodeForbidden, appCode(t, err))
	assert.False(t, updated, "update must not run for non-owners")
}

func TestPostService_UpdatePost_PartialMerge(t *testing.T) {
	var saved *models.Post
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
		if saved != nil {
			return saved, nil
		}
		return &models.Post{
			ID:             id,
			UserID:         1,
			RestaurantName: "Luigi's",
			Text:           "original text",
			Rating:         4,
			ImageURL:       "/uploads/old.jpg",
		}, nil
	}
	repo.updateFn = func(_ context.Context, post *models.Post) error {
		saved = post
		return nil
	}
	svc := NewPostService(repo, noopCommentRepo())

	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{
		UserID: 1,
		PostID: 10,
		Text:   "updated text",
	})
	require.NoError(t, err)
	require.NotNil(t, saved)

	assert.Equal(t, "updated text", saved.Text)
	assert.Equal(t, "Luigi's", saved.RestaurantName, "omitted field must keep its value")
	assert.Equal(t, 4.0, saved.Rating, "omitted rating must keep its value")
	assert.Equal(t, "/uploads/old.jpg", saved.ImageURL, "omitted image must keep its value")
}

func TestPostService_UpdatePost_RejectsInvalidRating(t *testing.T) {
	svc := NewPostService(noopPostRepo(), noopCommentRepo())
	bad := 4.2

	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{UserID: 1, PostID: 10, Rating: &bad})
	assert.Equal(t, models.CodeValidation, appCode(t, err))
}

func TestPostService_DeletePost(t *testing.T) {
	t.Run("forbidden for non-owner", func(t *testing.T) {
		deleted := false
		repo := noopPostRepo()
		repo.deleteFn = func(context.Context, uint) error {
			deleted = true
			return nil
		}
		svc := NewPostService(repo, noopCommentRepo())

		err := svc.DeletePost(context.Background(), DeletePostInput{UserID: 2, PostID: 10})
		assert.Equal(t, models.CodeForbidden, appCode(t, err))
		assert.False(t, deleted)
	})

	t.Run("owner can delete", func(t *testing.T) {
		var deletedID uint
		repo := noopPostRepo()
		repo.deleteFn = func(_ context.Context, id uint) error {
			deletedID = id
			return nil
		}
		svc := NewPostService(repo, noopCommentRepo())

		err := svc.DeletePost(context.Background(), DeletePostInput{UserID: 1, PostID: 10})
		require.NoError(t, err)
		assert.Equal(t, uint(10), deletedID)
	})
}

func TestPostService_ListPosts(t *testing.T) {
	var captured repository.PostFilter
	repo := noopPostRepo()
	repo.listFn = func(_ context.Context, filter repository.PostFilter, _ uint) ([]*models.Post, int64, error) {
		captured = filter
		return []*models.Post{{ID: 1}, {ID: 2}}, 25, nil
	}
	svc := NewPostService(repo, noopCommentRepo())

	page, err := svc.ListPosts(context.Background(), ListPostsInput{
		Page:          3,
		Limit:         10,
		CurrentUserID: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, 20, captured.Offset)
	assert.Equal(t, 10, captured.Limit)
	assert.Equal(t, int64(25), page.Total)
	assert.Equal(t, 3, page.CurrentPage)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Posts, 2)
}

func TestPostService_ListPosts_ClampsPagination(t *testing.T) {
	var captured repository.PostFilter
	repo := noopPostRepo()
	repo.listFn = func(_ context.Context, filter repository.PostFilter, _ uint) ([]*models.Post, int64, error) {
		captured = filter
		return nil, 0, nil
	}
	svc := NewPostService(repo, noopCommentRepo())

	page, err := svc.ListPosts(context.Background(), ListPostsInput{Page: -4, Limit: 0, CurrentUserID: 5})
	require.NoError(t, err)

	assert.Equal(t, 0, captured.Offset)
	assert.Equal(t, 10, captured.Limit)
	assert.Equal(t, 1, page.CurrentPage)
}

func TestPostService_GetPostDetails(t *testing.T) {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
		return &models.Post{ID: id, UserID: 1, LikesCount: 3, LikedByMe: true}, nil
	}
	comments := noopCommentRepo()
	comments.listByPostFn = func(context.Context, uint) ([]*models.Comment, error) {
		return []*models.Comment{{ID: 1}, {ID: 2}}, nil
	}
	svc := NewPostService(repo, comments)

	details, err := svc.GetPostDetails(context.Background(), 10, 5)
	require.NoError(t, err)

	assert.Equal(t, 3, details.LikesCount)
	assert.True(t, details.LikedByMe)
	// The count is derived from the fetched list so it always matches the
	// comments the client actually receives.
	assert.Equal(t, 2, details.CommentsCount)
	assert.Len(t, details.Comments, 2)
}
