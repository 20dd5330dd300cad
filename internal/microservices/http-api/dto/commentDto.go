package dto

import (
	"time"

	"mapportal/internal/microservices/http-api/models"
)

// CreateCommentDTO for creating a comment
type CreateCommentDTO struct {
	Content string `json:"content" binding:"required,min=1,max=5000"`
}

// UpdateCommentDTO for updating a comment
type UpdateCommentDTO struct {
	Content string `json:"content" binding:"required,min=1,max=5000"`
}

// CommentQuery is bound from the comment listing query string.
type CommentQuery struct {
	SortBy    *string `form:"sort_by"`
	SortOrder *string `form:"sort_order"`
	Page      *int    `form:"page"`
	PageSize  *int    `form:"page_size"`
}

type CommentResponse struct {
	ID        int64       `json:"id"`
	UserID    string      `json:"user_id"`
	MapID     int64       `json:"map_id"`
	Content   string      `json:"content"`
	Author    UserProfile `json:"author"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// FromModelToCommentResponse converts a Comment model to CommentResponse DTO
func FromModelToCommentResponse(comment *models.Comment) *CommentResponse {
	return &CommentResponse{
		ID:        comment.ID,
		UserID:    comment.UserID,
		MapID:     comment.MapID,
		Content:   comment.Content,
		Author:    FromModelToUserProfile(comment.User),
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}
}

// PaginatedCommentResponse for returning paginated comments
type PaginatedCommentResponse struct {
	Items      []CommentResponse `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// NewPaginatedCommentResponse creates a paginated comment response
func NewPaginatedCommentResponse(items []CommentResponse, total int64, page, pageSize int) *PaginatedCommentResponse {
	return &PaginatedCommentResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: TotalPages(total, pageSize),
	}
}
