package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	postsListKeyPrefix    = "posts:list:%d"
	commentCountKeyPrefix = "comments:count:%d"
)

const (
	// ListTTL bounds staleness of the anonymous feed first page.
	ListTTL = 1 * time.Minute
	// CommentCountTTL bounds staleness of per-post comment counts; counts are
	// also invalidated eagerly on every comment mutation.
	CommentCountTTL = 2 * time.Minute
)

// PostsListKey keys the anonymous first feed page by page size.
func PostsListKey(limit int) string {
	return fmt.Sprintf(postsListKeyPrefix, limit)
}

// CommentCountKey keys the comment count of a single post.
func CommentCountKey(postID uint) string {
	return fmt.Sprintf(commentCountKeyPrefix, postID)
}

// Invalidate removes a single key. Best-effort: a miss or a down cache is not
// an error.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidatePostsList drops every cached feed page variant.
func InvalidatePostsList(ctx context.Context) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, "posts:list:*", 0).Iterator()
	for iter.Next(ctx) {
		client.Del(ctx, iter.Val())
	}
}

// InvalidateCommentCount drops the cached comment count of a post.
func InvalidateCommentCount(ctx context.Context, postID uint) {
	Invalidate(ctx, CommentCountKey(postID))
}
