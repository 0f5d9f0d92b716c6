package facade

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-pickup-feed/internal/infrastructure/hub"
	"go-pickup-feed/internal/infrastructure/logger"
	"go-pickup-feed/internal/port/inbound"
	"go-pickup-feed/internal/port/outbound"
)

type postRecord struct {
	id             string
	authorID       int64
	content        string
	locationFilter *string
	createdAt      time.Time
	likedBy        map[int64]bool
	comments       []string // comment ids in creation order
}

type commentRecord struct {
	id        string
	postID    string
	parentID  *string
	authorID  int64
	content   string
	createdAt time.Time
	likedBy   map[int64]bool
}

// FeedApplicationService is an in-memory feed store. Each mutation commits
// under the store lock first and emits its event after the lock is released,
// so the fan-out path never runs inside the "transaction".
type FeedApplicationService struct {
	mu       sync.Mutex
	posts    map[string]*postRecord
	comments map[string]*commentRecord
	order    []string // post ids in creation order

	emitter outbound.EventEmitter
	logger  logger.Logger
}

var _ inbound.FeedUseCase = (*FeedApplicationService)(nil)

func NewFeedApplicationService(emitter outbound.EventEmitter, log logger.Logger) *FeedApplicationService {
	return &FeedApplicationService{
		posts:    make(map[string]*postRecord),
		comments: make(map[string]*commentRecord),
		emitter:  emitter,
		logger:   log.WithField("component", "feed"),
	}
}

func (s *FeedApplicationService) CreatePost(ctx context.Context, userID int64, req inbound.CreatePostRequest) (*inbound.Post, error) {
	var filter *string
	if req.LocationFilter != nil {
		v := *req.LocationFilter
		filter = &v
	}

	s.mu.Lock()
	rec := &postRecord{
		id:             uuid.NewString(),
		authorID:       userID,
		content:        req.Content,
		locationFilter: filter,
		createdAt:      time.Now().UTC(),
		likedBy:        make(map[int64]bool),
	}
	s.posts[rec.id] = rec
	s.order = append(s.order, rec.id)
	post := s.toPost(rec)
	s.mu.Unlock()

	s.logger.Infof("post %s created by user %d", post.ID, userID)
	s.emitter.Emit(ctx, hub.NewEvent(hub.TypePostCreated, post, &userID, post.LocationFilter))
	return post, nil
}

// GetPosts returns posts newest first. A concrete location filter keeps
// posts for that location plus posts with no location; "all" or no filter
// keeps everything.
func (s *FeedApplicationService) GetPosts(ctx context.Context, query inbound.ListPostsQuery) []inbound.Post {
	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// s.order is creation order, so walking it backwards yields newest
	// first even when timestamps collide.
	posts := make([]inbound.Post, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		rec := s.posts[s.order[i]]
		if !postVisible(rec.locationFilter, query.LocationFilter) {
			continue
		}
		posts = append(posts, *s.toPost(rec))
	}

	if offset >= len(posts) {
		return []inbound.Post{}
	}
	posts = posts[offset:]
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts
}

func postVisible(postLocation, wanted *string) bool {
	if wanted == nil || *wanted == "all" {
		return true
	}
	return postLocation == nil || *postLocation == *wanted
}

func (s *FeedApplicationService) DeletePost(ctx context.Context, userID int64, postID string) error {
	s.mu.Lock()
	rec, ok := s.posts[postID]
	if !ok {
		s.mu.Unlock()
		return inbound.ErrPostNotFound
	}
	if rec.authorID != userID {
		s.mu.Unlock()
		return inbound.ErrNotAuthor
	}

	for _, commentID := range rec.comments {
		delete(s.comments, commentID)
	}
	delete(s.posts, postID)
	for i, id := range s.order {
		if id == postID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	scope := rec.locationFilter
	s.mu.Unlock()

	s.logger.Infof("post %s deleted by user %d", postID, userID)
	s.emitter.Emit(ctx, hub.NewEvent(hub.TypePostDeleted,
		map[string]any{"post_id": postID}, &userID, scope))
	return nil
}

func (s *FeedApplicationService) TogglePostLike(ctx context.Context, userID int64, postID string) (*inbound.LikeResult, error) {
	s.mu.Lock()
	rec, ok := s.posts[postID]
	if !ok {
		s.mu.Unlock()
		return nil, inbound.ErrPostNotFound
	}

	liked := !rec.likedBy[userID]
	if liked {
		rec.likedBy[userID] = true
	} else {
		delete(rec.likedBy, userID)
	}
	result := &inbound.LikeResult{Liked: liked, LikesCount: len(rec.likedBy)}
	scope := rec.locationFilter
	s.mu.Unlock()

	s.emitter.Emit(ctx, hub.NewEvent(hub.TypePostLikeToggled, map[string]any{
		"post_id":     postID,
		"liked":       result.Liked,
		"likes_count": result.LikesCount,
	}, &userID, scope))
	return result, nil
}

func (s *FeedApplicationService) CreateComment(ctx context.Context, userID int64, postID string, req inbound.CreateCommentRequest) (*inbound.Comment, error) {
	s.mu.Lock()
	post, ok := s.posts[postID]
	if !ok {
		s.mu.Unlock()
		return nil, inbound.ErrPostNotFound
	}
	if req.ParentID != nil {
		parent, ok := s.comments[*req.ParentID]
		if !ok || parent.postID != postID {
			s.mu.Unlock()
			return nil, inbound.ErrInvalidParent
		}
	}

	rec := &commentRecord{
		id:        uuid.NewString(),
		postID:    postID,
		parentID:  req.ParentID,
		authorID:  userID,
		content:   req.Content,
		createdAt: time.Now().UTC(),
		likedBy:   make(map[int64]bool),
	}
	s.comments[rec.id] = rec
	post.comments = append(post.comments, rec.id)
	comment := s.toComment(rec)
	scope := post.locationFilter
	s.mu.Unlock()

	s.logger.Infof("comment %s created on post %s by user %d", comment.ID, postID, userID)
	s.emitter.Emit(ctx, hub.NewEvent(hub.TypeCommentCreated, comment, &userID, scope))
	return comment, nil
}

func (s *FeedApplicationService) DeleteComment(ctx context.Context, userID int64, commentID string) error {
	s.mu.Lock()
	rec, ok := s.comments[commentID]
	if !ok {
		s.mu.Unlock()
		return inbound.ErrCommentNotFound
	}
	if rec.authorID != userID {
		s.mu.Unlock()
		return inbound.ErrNotAuthor
	}

	delete(s.comments, commentID)
	var scope *string
	if post, ok := s.posts[rec.postID]; ok {
		scope = post.locationFilter
		for i, id := range post.comments {
			if id == commentID {
				post.comments = append(post.comments[:i], post.comments[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()

	s.logger.Infof("comment %s deleted by user %d", commentID, userID)
	s.emitter.Emit(ctx, hub.NewEvent(hub.TypeCommentDeleted,
		map[string]any{"comment_id": commentID, "post_id": rec.postID}, &userID, scope))
	return nil
}

func (s *FeedApplicationService) ToggleCommentLike(ctx context.Context, userID int64, commentID string) (*inbound.LikeResult, error) {
	s.mu.Lock()
	rec, ok := s.comments[commentID]
	if !ok {
		s.mu.Unlock()
		return nil, inbound.ErrCommentNotFound
	}

	liked := !rec.likedBy[userID]
	if liked {
		rec.likedBy[userID] = true
	} else {
		delete(rec.likedBy, userID)
	}
	result := &inbound.LikeResult{Liked: liked, LikesCount: len(rec.likedBy)}
	var scope *string
	if post, ok := s.posts[rec.postID]; ok {
		scope = post.locationFilter
	}
	s.mu.Unlock()

	s.emitter.Emit(ctx, hub.NewEvent(hub.TypeCommentLikeToggled, map[string]any{
		"comment_id":  commentID,
		"post_id":     rec.postID,
		"liked":       result.Liked,
		"likes_count": result.LikesCount,
	}, &userID, scope))
	return result, nil
}

// toPost builds the DTO; caller must hold s.mu.
func (s *FeedApplicationService) toPost(rec *postRecord) *inbound.Post {
	post := &inbound.Post{
		ID:             rec.id,
		AuthorID:       rec.authorID,
		Content:        rec.content,
		LocationFilter: rec.locationFilter,
		CreatedAt:      rec.createdAt,
		LikesCount:     len(rec.likedBy),
		Comments:       make([]inbound.Comment, 0, len(rec.comments)),
	}
	for _, id := range rec.comments {
		if c, ok := s.comments[id]; ok {
			post.Comments = append(post.Comments, *s.toComment(c))
		}
	}
	return post
}

func (s *FeedApplicationService) toComment(rec *commentRecord) *inbound.Comment {
	return &inbound.Comment{
		ID:         rec.id,
		PostID:     rec.postID,
		ParentID:   rec.parentID,
		AuthorID:   rec.authorID,
		Content:    rec.content,
		CreatedAt:  rec.createdAt,
		LikesCount: len(rec.likedBy),
	}
}
