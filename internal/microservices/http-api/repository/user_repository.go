package repository

import (
	"context"
	"errors"
	"fmt"

	"mapportal/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Delete(ctx context.Context, id string) (fileRefs []string, err error)
}

// userRepository is the GORM implementation of UserRepository.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository in a GORM implementation
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	// return nil on error so a zero-value user is never mistaken for a match
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes the user together with everything they own: their maps
// (and those maps' ratings and comments) and their ratings and comments on
// other maps. Maps that lose a rating are re-aggregated before commit. The
// returned file references belong to the deleted maps and are the caller's
// to remove from storage.
func (r *userRepository) Delete(ctx context.Context, id string) ([]string, error) {
	var refs []string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// exclusive user lock first; blocks in-flight rating submissions by this user
		var u models.User
		err := tx.Clauses(lockingUpdate).Select("id").Where("id = ?", id).First(&u).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}

		var owned []models.Map
		if err := tx.Select("id", "file_path", "preview_image_path").Where("creator_id = ?", id).Find(&owned).Error; err != nil {
			return fmt.Errorf("list owned maps: %w", err)
		}
		ownedIDs := make([]int64, 0, len(owned))
		for _, m := range owned {
			ownedIDs = append(ownedIDs, m.ID)
			refs = append(refs, m.FilePath)
			if m.PreviewImagePath != nil {
				refs = append(refs, *m.PreviewImagePath)
			}
		}

		var rated []int64
		q := tx.Model(&models.Rating{}).Where("user_id = ?", id)
		if len(ownedIDs) > 0 {
			q = q.Where("map_id NOT IN ?", ownedIDs)
		}
		if err := q.Distinct("map_id").Pluck("map_id", &rated).Error; err != nil {
			return fmt.Errorf("list rated maps: %w", err)
		}
		if err := lockMaps(tx, rated...); err != nil && !errors.Is(err, ErrMapNotFound) {
			return err
		}

		for _, child := range []interface{}{&models.Rating{}, &models.Comment{}} {
			del := tx.Where("user_id = ?", id)
			if len(ownedIDs) > 0 {
				del = tx.Where("user_id = ? OR map_id IN ?", id, ownedIDs)
			}
			if err := del.Delete(child).Error; err != nil {
				return fmt.Errorf("delete owned records: %w", err)
			}
		}
		if err := tx.Where("creator_id = ?", id).Delete(&models.Map{}).Error; err != nil {
			return fmt.Errorf("delete owned maps: %w", err)
		}
		if err := tx.Delete(&models.User{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}

		for _, mapID := range rated {
			if err := recompute(tx, mapID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}
