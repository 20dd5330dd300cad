package service

import (
	"context"
	"log/slog"
	"math"

	"mapportal/internal/metrics"
	"mapportal/internal/microservices/http-api/dto"
	"mapportal/internal/microservices/http-api/models"
	"mapportal/internal/microservices/http-api/repository"
)

type RatingService interface {
	SubmitRating(ctx context.Context, userID string, mapID int64, value int) (*dto.SubmitRatingResult, error)
	GetUserRating(ctx context.Context, userID string, mapID int64) (*dto.RatingResponse, error)
	GetMapRatings(ctx context.Context, mapID int64, page, pageSize int) (*dto.PaginatedRatingResponse, error)
}

type ratingService struct {
	ratingRepo repository.RatingRepository
	mapRepo    *repository.MapRepo
	paging     Pagination
	log        *slog.Logger
}

func NewRatingService(ratingRepo repository.RatingRepository, mapRepo *repository.MapRepo, paging Pagination, log *slog.Logger) RatingService {
	return &ratingService{
		ratingRepo: ratingRepo,
		mapRepo:    mapRepo,
		paging:     paging,
		log:        log,
	}
}

// SubmitRating creates or overwrites the caller's rating for a map. The map's
// cached average and count are recomputed before this returns.
func (s *ratingService) SubmitRating(ctx context.Context, userID string, mapID int64, value int) (*dto.SubmitRatingResult, error) {
	// reject before any write is attempted
	if value < models.MinRating || value > models.MaxRating {
		return nil, invalidArgument("rating must be between %d and %d", models.MinRating, models.MaxRating)
	}

	rating, created, err := s.ratingRepo.Submit(ctx, userID, mapID, value)
	if err != nil {
		err = storageError(err, "map")
		s.log.Error("submit rating failed", "map_id", mapID, "user_id", userID, "error", err)
		return nil, err
	}

	metrics.RecordRating(created)
	s.log.Info("rating submitted", "map_id", mapID, "user_id", userID, "rating", value, "created", created)
	return &dto.SubmitRatingResult{
		Rating:  dto.FromModelToRatingResponse(rating),
		Created: created,
	}, nil
}

// GetUserRating retrieves a user's rating for a specific map
func (s *ratingService) GetUserRating(ctx context.Context, userID string, mapID int64) (*dto.RatingResponse, error) {
	if err := requireMap(ctx, s.mapRepo, mapID); err != nil {
		return nil, err
	}
	rating, err := s.ratingRepo.GetByUserAndMap(ctx, userID, mapID)
	if err != nil {
		return nil, storageError(err, "rating")
	}
	return dto.FromModelToRatingResponse(rating), nil
}

// GetMapRatings retrieves all ratings for a map with pagination
func (s *ratingService) GetMapRatings(ctx context.Context, mapID int64, page, pageSize int) (*dto.PaginatedRatingResponse, error) {
	if err := validatePage(page, pageSize, s.paging.MaxPageSize); err != nil {
		return nil, err
	}
	if err := requireMap(ctx, s.mapRepo, mapID); err != nil {
		return nil, err
	}

	ratings, total, err := s.ratingRepo.GetByMap(ctx, mapID, page, pageSize)
	if err != nil {
		return nil, storageError(err, "rating")
	}

	ratingResponses := make([]dto.RatingResponse, 0, len(ratings))
	for i := range ratings {
		ratingResponses = append(ratingResponses, *dto.FromModelToRatingResponse(&ratings[i]))
	}
	return dto.NewPaginatedRatingResponse(ratingResponses, total, page, pageSize), nil
}

func validatePage(page, pageSize, maxPageSize int) error {
	if page < 1 {
		return invalidArgument("page must be at least 1")
	}
	if pageSize < 1 || pageSize > maxPageSize {
		return invalidArgument("page_size must be between 1 and %d", maxPageSize)
	}
	// the row offset (page-1)*pageSize has to fit in an int
	if page-1 > math.MaxInt/pageSize {
		return invalidArgument("page is too large for page_size %d", pageSize)
	}
	return nil
}
