package dto

import (
	"time"

	"mapportal/internal/microservices/http-api/models"
)

// CreateRatingDTO for creating or updating a rating. The 1..5 range is
// enforced by the service so every caller gets the same error.
type CreateRatingDTO struct {
	Rating int `json:"rating" binding:"required"`
}

type RatingResponse struct {
	ID        int64       `json:"id"`
	UserID    string      `json:"user_id"`
	MapID     int64       `json:"map_id"`
	Rating    int         `json:"rating"`
	User      UserProfile `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// FromModelToRatingResponse converts a Rating model to RatingResponse DTO
func FromModelToRatingResponse(rating *models.Rating) *RatingResponse {
	return &RatingResponse{
		ID:        rating.ID,
		UserID:    rating.UserID,
		MapID:     rating.MapID,
		Rating:    rating.Rating,
		User:      FromModelToUserProfile(rating.User),
		CreatedAt: rating.CreatedAt,
		UpdatedAt: rating.UpdatedAt,
	}
}

// SubmitRatingResult carries whether the submission inserted a new row.
type SubmitRatingResult struct {
	Rating  *RatingResponse
	Created bool
}

// PaginatedRatingResponse for returning paginated ratings
type PaginatedRatingResponse struct {
	Items      []RatingResponse `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// NewPaginatedRatingResponse creates a paginated rating response
func NewPaginatedRatingResponse(items []RatingResponse, total int64, page, pageSize int) *PaginatedRatingResponse {
	return &PaginatedRatingResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: TotalPages(total, pageSize),
	}
}
