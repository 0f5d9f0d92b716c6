package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"go-pickup-feed/internal/infrastructure/logger"
	"go-pickup-feed/internal/port/inbound"
)

// FeedHandler exposes the social-feed mutations. Each successful mutation
// emits a real-time event through the hub from inside the use case.
type FeedHandler struct {
	feed   inbound.FeedUseCase
	logger logger.Logger
}

func NewFeedHandler(feed inbound.FeedUseCase, log logger.Logger) *FeedHandler {
	return &FeedHandler{
		feed:   feed,
		logger: log.WithField("handler", "feed"),
	}
}

func (h *FeedHandler) GetPosts(c *gin.Context) {
	var query inbound.ListPostsQuery
	if v, ok := c.GetQuery("location_filter"); ok && v != "" {
		query.LocationFilter = &v
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		query.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		query.Offset = offset
	}

	c.JSON(http.StatusOK, h.feed.GetPosts(c.Request.Context(), query))
}

func (h *FeedHandler) CreatePost(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req inbound.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post format"})
		return
	}

	post, err := h.feed.CreatePost(c.Request.Context(), userID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *FeedHandler) DeletePost(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.feed.DeletePost(c.Request.Context(), userID, c.Param("post_id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

func (h *FeedHandler) TogglePostLike(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	result, err := h.feed.TogglePostLike(c.Request.Context(), userID, c.Param("post_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *FeedHandler) CreateComment(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req inbound.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment format"})
		return
	}

	comment, err := h.feed.CreateComment(c.Request.Context(), userID, c.Param("post_id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *FeedHandler) DeleteComment(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.feed.DeleteComment(c.Request.Context(), userID, c.Param("comment_id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}

func (h *FeedHandler) ToggleCommentLike(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	result, err := h.feed.ToggleCommentLike(c.Request.Context(), userID, c.Param("comment_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// userID reads the acting user from the user_id query parameter. The
// upstream deployment authenticates requests before they reach this service.
func (h *FeedHandler) userID(c *gin.Context) (int64, bool) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	return userID, true
}

func (h *FeedHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, inbound.ErrPostNotFound), errors.Is(err, inbound.ErrCommentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, inbound.ErrNotAuthor):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, inbound.ErrInvalidParent):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Errorf("feed mutation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
