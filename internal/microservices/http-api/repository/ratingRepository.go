package repository

import (
	"context"
	"errors"
	"fmt"

	"mapportal/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	lockingUpdate = clause.Locking{Strength: "UPDATE"}
	lockingShare  = clause.Locking{Strength: "SHARE"}
)

var (
	ErrMapNotFound  = errors.New("map not found")
	ErrUserNotFound = errors.New("user not found")
)

type RatingRepository interface {
	Submit(ctx context.Context, userID string, mapID int64, value int) (rating *models.Rating, created bool, err error)
	Recompute(ctx context.Context, mapID int64) error
	GetByUserAndMap(ctx context.Context, userID string, mapID int64) (*models.Rating, error)
	GetByMap(ctx context.Context, mapID int64, page, pageSize int) ([]models.Rating, int64, error)
}

type ratingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

// Submit inserts or overwrites the (user, map) rating and recomputes the map's
// cached statistics in the same transaction. The user row is locked before the
// map row; account deletion takes the same order.
func (r *ratingRepository) Submit(ctx context.Context, userID string, mapID int64, value int) (*models.Rating, bool, error) {
	var rating models.Rating
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}
		if err := lockMaps(tx, mapID); err != nil {
			return err
		}

		err := tx.Where("user_id = ? AND map_id = ?", userID, mapID).First(&rating).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			rating = models.Rating{UserID: userID, MapID: mapID, Rating: value}
			if err := tx.Omit(clause.Associations).Create(&rating).Error; err != nil {
				return translateError(err)
			}
			created = true
		case err != nil:
			return err
		default:
			// Save always advances updated_at, also when the value is unchanged
			rating.Rating = value
			if err := tx.Omit(clause.Associations).Save(&rating).Error; err != nil {
				return err
			}
		}

		return recompute(tx, mapID)
	})
	if err != nil {
		return nil, false, err
	}

	// reload with the rater's profile for the response
	if err := r.db.WithContext(ctx).Preload("User", selectProfile).First(&rating, rating.ID).Error; err != nil {
		return nil, false, err
	}
	return &rating, created, nil
}

// Recompute re-derives the cached statistics for one map. A map that no
// longer exists is left alone.
func (r *ratingRepository) Recompute(ctx context.Context, mapID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockMaps(tx, mapID); err != nil {
			if errors.Is(err, ErrMapNotFound) {
				return nil
			}
			return err
		}
		return recompute(tx, mapID)
	})
}

func (r *ratingRepository) GetByUserAndMap(ctx context.Context, userID string, mapID int64) (*models.Rating, error) {
	var rating models.Rating
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND map_id = ?", userID, mapID).
		Preload("User", selectProfile).
		First(&rating).Error
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// GetByMap retrieves all ratings for a specific map with pagination
func (r *ratingRepository) GetByMap(ctx context.Context, mapID int64, page, pageSize int) ([]models.Rating, int64, error) {
	var ratings []models.Rating
	var total int64

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Rating{}).Where("map_id = ?", mapID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := db.Where("map_id = ?", mapID).
		Preload("User", selectProfile).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&ratings).Error
	if err != nil {
		return nil, 0, err
	}

	return ratings, total, nil
}

// recompute scans every rating of mapID and writes rating_count and
// average_rating back. Must run inside a transaction holding the map lock.
func recompute(tx *gorm.DB, mapID int64) error {
	var values []int
	if err := tx.Model(&models.Rating{}).Where("map_id = ?", mapID).Pluck("rating", &values).Error; err != nil {
		return fmt.Errorf("scan ratings: %w", err)
	}

	sum := 0
	for _, v := range values {
		sum += v
	}

	// UpdateColumns leaves updated_at alone; zero rows affected means the map is gone
	err := tx.Model(&models.Map{}).Where("id = ?", mapID).UpdateColumns(map[string]interface{}{
		"rating_count":   len(values),
		"average_rating": RoundedAverage(sum, len(values)),
	}).Error
	if err != nil {
		return fmt.Errorf("write rating stats: %w", err)
	}
	return nil
}

// RoundedAverage returns sum/count rounded half-up to two decimals, or 0 when
// count is 0. The quotient is taken in integer hundredths so ties such as
// 1.125 always round to 1.13.
func RoundedAverage(sum, count int) float64 {
	if count <= 0 {
		return 0
	}
	s, n := int64(sum), int64(count)
	hundredths := (200*s + n) / (2 * n)
	return float64(hundredths) / 100
}

// lockMaps takes row locks on the given maps in ascending id order. It returns
// ErrMapNotFound if any of them is missing.
func lockMaps(tx *gorm.DB, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	var locked []models.Map
	err := tx.Clauses(lockingUpdate).
		Select("id").
		Where("id IN ?", ids).
		Order("id").
		Find(&locked).Error
	if err != nil {
		return err
	}
	if len(locked) != len(uniqueIDs(ids)) {
		return ErrMapNotFound
	}
	return nil
}

func lockUser(tx *gorm.DB, userID string) error {
	var u models.User
	err := tx.Clauses(lockingShare).Select("id").Where("id = ?", userID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}

// selectProfile limits a preloaded user to the public profile columns.
func selectProfile(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username")
}

func uniqueIDs(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
