package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/comment-system/backend/internal/models"
	"github.com/emilythestrangee/comment-system/backend/internal/services"
)

type CommentHandler struct {
	service *services.CommentService
}

func NewCommentHandler(service *services.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

// GetComments returns one page of comments, optionally filtered by parent
func (h *CommentHandler) GetComments(c *gin.Context) {
	parent, hasParent := c.GetQuery("parentComment")
	params, err := services.ParseListParams(c.Query("page"), c.Query("limit"), c.Query("sort"), parent, hasParent)
	if err != nil {
		fail(c, err)
		return
	}

	page, err := h.service.GetComments(c.Request.Context(), params)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, page)
}

func (h *CommentHandler) GetComment(c *gin.Context) {
	comment, err := h.service.GetComment(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, gin.H{"comment": comment.View()})
}

// GetReplies returns the direct replies of a comment, newest first
func (h *CommentHandler) GetReplies(c *gin.Context) {
	params, err := services.ParseListParams(c.Query("page"), c.Query("limit"), "", "", false)
	if err != nil {
		fail(c, err)
		return
	}

	page, err := h.service.GetReplies(c.Request.Context(), c.Param("id"), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, page)
}

// CreateComment creates a top-level comment or a reply
func (h *CommentHandler) CreateComment(c *gin.Context) {
	authorID, exists := extractUserID(c)
	if !exists {
		unauthenticated(c)
		return
	}

	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, bindError(err))
		return
	}

	comment, err := h.service.CreateComment(c.Request.Context(), authorID, input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment.View()})
}

// UpdateComment edits the content of the caller's own comment
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	userID, exists := extractUserID(c)
	if !exists {
		unauthenticated(c)
		return
	}

	var input models.UpdateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, bindError(err))
		return
	}

	comment, err := h.service.UpdateComment(c.Request.Context(), c.Param("id"), userID, input)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, gin.H{"comment": comment.View()})
}

// DeleteComment deletes the caller's own comment and its direct replies
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	userID, exists := extractUserID(c)
	if !exists {
		unauthenticated(c)
		return
	}

	if err := h.service.DeleteComment(c.Request.Context(), c.Param("id"), userID); err != nil {
		fail(c, err)
		return
	}
	respond(c, gin.H{"message": "Comment deleted successfully"})
}

func (h *CommentHandler) LikeComment(c *gin.Context) {
	h.vote(c, h.service.Like)
}

func (h *CommentHandler) DislikeComment(c *gin.Context) {
	h.vote(c, h.service.Dislike)
}

func (h *CommentHandler) vote(c *gin.Context, toggle func(ctx context.Context, id, userID string) (*models.Comment, error)) {
	userID, exists := extractUserID(c)
	if !exists {
		unauthenticated(c)
		return
	}

	comment, err := toggle(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, gin.H{"comment": comment.View()})
}
