package inbound

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotAuthor       = errors.New("only the author may delete this")
	ErrInvalidParent   = errors.New("invalid parent comment")
)

type CreatePostRequest struct {
	Content        string  `json:"content" binding:"required"`
	LocationFilter *string `json:"location_filter"`
}

type CreateCommentRequest struct {
	Content  string  `json:"content" binding:"required"`
	ParentID *string `json:"parent_id"`
}

type Post struct {
	ID             string    `json:"id"`
	AuthorID       int64     `json:"author_id"`
	Content        string    `json:"content"`
	LocationFilter *string   `json:"location_filter"`
	CreatedAt      time.Time `json:"created_at"`
	LikesCount     int       `json:"likes_count"`
	Comments       []Comment `json:"comments"`
}

type Comment struct {
	ID         string    `json:"id"`
	PostID     string    `json:"post_id"`
	ParentID   *string   `json:"parent_id"`
	AuthorID   int64     `json:"author_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	LikesCount int       `json:"likes_count"`
}

type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

// ListPostsQuery narrows a feed listing. A nil or "all" location filter
// returns every post; a concrete location returns posts for that location
// plus globally-visible posts (no location). Limit defaults to 20 and is
// capped at 100.
type ListPostsQuery struct {
	LocationFilter *string
	Limit          int
	Offset         int
}

// FeedUseCase is the mutation surface of the social feed. Every successful
// mutation is followed by a matching real-time event.
type FeedUseCase interface {
	CreatePost(ctx context.Context, userID int64, req CreatePostRequest) (*Post, error)
	GetPosts(ctx context.Context, query ListPostsQuery) []Post
	DeletePost(ctx context.Context, userID int64, postID string) error
	TogglePostLike(ctx context.Context, userID int64, postID string) (*LikeResult, error)
	CreateComment(ctx context.Context, userID int64, postID string, req CreateCommentRequest) (*Comment, error)
	DeleteComment(ctx context.Context, userID int64, commentID string) error
	ToggleCommentLike(ctx context.Context, userID int64, commentID string) (*LikeResult, error)
}
