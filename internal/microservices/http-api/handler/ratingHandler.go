package handler

import (
	"net/http"

	"mapportal/internal/microservices/http-api/dto"
	"mapportal/internal/microservices/http-api/middleware"
	"mapportal/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type RatingHandler struct {
	ratingService   service.RatingService
	defaultPageSize int
}

func NewRatingHandler(ratingService service.RatingService, defaultPageSize int) *RatingHandler {
	return &RatingHandler{
		ratingService:   ratingService,
		defaultPageSize: defaultPageSize,
	}
}

// RegisterRoutes registers the public rating routes
func (h *RatingHandler) RegisterRoutes(maps *gin.RouterGroup) {
	maps.GET("/:id/ratings", h.List)
}

// RegisterProtectedRoutes registers the rating routes behind AuthMiddleware
func (h *RatingHandler) RegisterProtectedRoutes(maps *gin.RouterGroup) {
	maps.POST("/:id/ratings", h.Submit)
	maps.GET("/:id/ratings/me", h.GetUserRating)
}

// Submit creates or updates the caller's rating for a map
// POST /api/maps/:id/ratings
func (h *RatingHandler) Submit(c *gin.Context) {
	mapID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.CreateRatingDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.ratingService.SubmitRating(c.Request.Context(), middleware.UserID(c), mapID, req.Rating)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result.Rating)
}

// GetUserRating retrieves the current user's rating for a map
// GET /api/maps/:id/ratings/me
func (h *RatingHandler) GetUserRating(c *gin.Context) {
	mapID, ok := pathID(c, "id")
	if !ok {
		return
	}

	rating, err := h.ratingService.GetUserRating(c.Request.Context(), middleware.UserID(c), mapID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rating)
}

// List retrieves a page of ratings for a map
// GET /api/maps/:id/ratings?page=1&page_size=20
func (h *RatingHandler) List(c *gin.Context) {
	mapID, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	pageSize, ok := queryInt(c, "page_size", h.defaultPageSize)
	if !ok {
		return
	}

	ratings, err := h.ratingService.GetMapRatings(c.Request.Context(), mapID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ratings)
}
