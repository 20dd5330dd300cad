package repository

import (
	"context"

	"mapportal/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, commentID int64) error
	GetByID(ctx context.Context, commentID int64) (*models.Comment, error)
	GetByMap(ctx context.Context, mapID int64, sortColumn string, desc bool, offset, limit int) ([]models.Comment, int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create a new comment
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
}

// Update an existing comment
func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(comment).Error
}

// Delete a comment by id; ownership is checked by the service
func (r *commentRepository) Delete(ctx context.Context, commentID int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Comment{}, commentID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetByID retrieves a comment by its ID
func (r *commentRepository) GetByID(ctx context.Context, commentID int64) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).Where("id = ?", commentID).
		Preload("User", selectProfile).
		First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetByMap retrieves a page of comments for a map ordered by sortColumn, id
func (r *commentRepository) GetByMap(ctx context.Context, mapID int64, sortColumn string, desc bool, offset, limit int) ([]models.Comment, int64, error) {
	var comments []models.Comment
	var total int64

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Comment{}).Where("map_id = ?", mapID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Where("map_id = ?", mapID).
		Preload("User", selectProfile).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: sortColumn}, Desc: desc},
			{Column: clause.Column{Name: "id"}, Desc: desc},
		}}).
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}
