package repository

import (
	"context"
	"fmt"
	"strings"

	"mapportal/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MapFilter holds the optional listing predicates. Nil fields apply no
// constraint; all set fields are combined with AND.
type MapFilter struct {
	TerrainType *string
	Size        *int
	PlayerCount *int
	MinRating   *float64
	Author      *string
	CreatorID   *string
	Search      *string
}

// MapQuery is a validated listing request. SortColumn must be a real column
// of the maps table; the service owns the whitelist.
type MapQuery struct {
	Filter     MapFilter
	SortColumn string
	Descending bool
	Offset     int
	Limit      int
}

// summaryColumns is the listing projection: no generation parameters.
var summaryColumns = []string{
	"id", "name", "shortname", "author", "terrain_type", "size", "player_count",
	"maxplayers", "average_rating", "rating_count", "download_count",
	"preview_image_path", "created_at", "creator_id",
}

// detailPreviewLimit bounds the ratings and comments embedded in a map detail.
const detailPreviewLimit = 20

type MapRepo struct {
	db *gorm.DB
}

func NewMapRepo(db *gorm.DB) *MapRepo {
	return &MapRepo{db: db}
}

// List returns one page of maps matching q together with the total number of
// matches, which does not depend on Offset or Limit.
func (r *MapRepo) List(ctx context.Context, q MapQuery) ([]models.Map, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Map{}).Scopes(filterScopes(q.Filter)...).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count maps: %w", err)
	}

	list := make([]models.Map, 0, q.Limit)
	if total == 0 || int64(q.Offset) >= total {
		return list, total, nil
	}

	// id breaks ties on the sort column so pages never overlap
	order := clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Table: clause.CurrentTable, Name: q.SortColumn}, Desc: q.Descending},
		{Column: clause.Column{Table: clause.CurrentTable, Name: "id"}, Desc: q.Descending},
	}}

	err := r.db.WithContext(ctx).
		Model(&models.Map{}).
		Select(summaryColumns).
		Scopes(filterScopes(q.Filter)...).
		Preload("Creator", selectProfile).
		Order(order).
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&list).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list maps: %w", err)
	}
	return list, total, nil
}

// GetByID loads the full map with its creator profile and the most recent
// ratings and comments.
func (r *MapRepo) GetByID(ctx context.Context, id int64) (*models.Map, error) {
	var m models.Map
	latest := func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at DESC").Order("id DESC").Limit(detailPreviewLimit)
	}
	err := r.db.WithContext(ctx).
		Preload("Creator", selectProfile).
		Preload("Ratings", latest).
		Preload("Ratings.User", selectProfile).
		Preload("Comments", latest).
		Preload("Comments.User", selectProfile).
		First(&m, id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Exists is a cheap existence probe used before non-locking writes.
func (r *MapRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Map{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MapRepo) Create(ctx context.Context, m *models.Map) error {
	// cached statistics always start from zero
	m.DownloadCount, m.AverageRating, m.RatingCount = 0, 0, 0
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		return fmt.Errorf("create map: %w", translateError(err))
	}
	return nil
}

func (r *MapRepo) SetPreviewImage(ctx context.Context, id int64, path string) error {
	err := r.db.WithContext(ctx).Model(&models.Map{}).Where("id = ?", id).Update("preview_image_path", path).Error
	if err != nil {
		return fmt.Errorf("set preview image: %w", err)
	}
	return nil
}

// IncrementDownloads adds exactly one to download_count and returns the
// fields needed to serve the file. The increment is a single UPDATE so
// concurrent downloads never lose counts.
func (r *MapRepo) IncrementDownloads(ctx context.Context, id int64) (*models.Map, error) {
	var m models.Map
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Map{}).
			Where("id = ?", id).
			UpdateColumn("download_count", gorm.Expr("download_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Select("id", "shortname", "version", "file_path", "download_count").First(&m, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func filterScopes(f MapFilter) []func(*gorm.DB) *gorm.DB {
	scopes := make([]func(*gorm.DB) *gorm.DB, 0, 7)
	if f.TerrainType != nil {
		scopes = append(scopes, equals("terrain_type", *f.TerrainType))
	}
	if f.Size != nil {
		scopes = append(scopes, equals("size", *f.Size))
	}
	if f.PlayerCount != nil {
		scopes = append(scopes, equals("player_count", *f.PlayerCount))
	}
	if f.MinRating != nil {
		minRating := *f.MinRating
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("average_rating >= ?", minRating)
		})
	}
	if f.Author != nil {
		p := containsPattern(*f.Author)
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where(`LOWER(author) LIKE ? ESCAPE '\'`, p)
		})
	}
	if f.CreatorID != nil {
		scopes = append(scopes, equals("creator_id", *f.CreatorID))
	}
	if f.Search != nil && strings.TrimSpace(*f.Search) != "" {
		p := containsPattern(*f.Search)
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\')`, p, p)
		})
	}
	return scopes
}

func equals(column string, value interface{}) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: column}, Value: value})
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a lower-cased LIKE pattern matching s anywhere,
// with the LIKE wildcards in s escaped.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
