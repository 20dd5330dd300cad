package handler

import (
	"net/http"

	"mapportal/internal/microservices/http-api/dto"
	"mapportal/internal/microservices/http-api/middleware"
	"mapportal/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentService service.CommentService
}

func NewCommentHandler(commentService service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// RegisterRoutes registers the public comment routes
func (h *CommentHandler) RegisterRoutes(maps *gin.RouterGroup) {
	maps.GET("/:id/comments", h.List)
}

// RegisterProtectedRoutes registers the comment routes behind AuthMiddleware
func (h *CommentHandler) RegisterProtectedRoutes(maps *gin.RouterGroup) {
	maps.POST("/:id/comments", h.Create)
	maps.PUT("/:id/comments/:comment_id", h.Update)
	maps.DELETE("/:id/comments/:comment_id", h.Delete)
}

// Create POST /api/maps/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	mapID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.CreateCommentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	comment, err := h.commentService.CreateComment(c.Request.Context(), middleware.UserID(c), mapID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// Update PUT /api/maps/:id/comments/:comment_id
func (h *CommentHandler) Update(c *gin.Context) {
	mapID, ok := pathID(c, "id")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return
	}

	var req dto.UpdateCommentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	comment, err := h.commentService.UpdateComment(c.Request.Context(), mapID, commentID, middleware.UserID(c), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Delete DELETE /api/maps/:id/comments/:comment_id
func (h *CommentHandler) Delete(c *gin.Context) {
	mapID, ok := pathID(c, "id")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return
	}

	if err := h.commentService.DeleteComment(c.Request.Context(), mapID, commentID, middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List GET /api/maps/:id/comments?sort_by=created_at&sort_order=desc&page=1&page_size=20
func (h *CommentHandler) List(c *gin.Context) {
	mapID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var q dto.CommentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err.Error())
		return
	}

	comments, err := h.commentService.GetMapComments(c.Request.Context(), mapID, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}
