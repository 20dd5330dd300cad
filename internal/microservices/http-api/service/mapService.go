package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"mapportal/internal/metrics"
	"mapportal/internal/microservices/http-api/dto"
	"mapportal/internal/microservices/http-api/models"
	"mapportal/internal/microservices/http-api/repository"
	"mapportal/internal/storage"
)

// sortColumns maps the public sort keys onto maps columns.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"rating":     "average_rating",
	"downloads":  "download_count",
	"name":       "name",
}

const (
	defaultSortBy    = "created_at"
	defaultSortOrder = "desc"
	maxSearchLength  = 100
)

// Pagination bounds for listings. Values outside them are rejected.
type Pagination struct {
	DefaultPageSize int
	MaxPageSize     int
}

// UploadInput is a validated upload: metadata plus the open file streams.
type UploadInput struct {
	CreatorID string
	Map       *models.Map
	Filename  string
	File      io.Reader
	Preview   io.Reader // optional
}

type MapService interface {
	List(ctx context.Context, q dto.MapQuery) (*dto.MapListResponse, error)
	GetByID(ctx context.Context, id int64) (*dto.MapDetailResponse, error)
	Download(ctx context.Context, id int64) (*dto.MapDownload, error)
	Upload(ctx context.Context, in UploadInput) (*dto.MapResponse, error)
}

type mapService struct {
	repo   *repository.MapRepo
	users  repository.UserRepository
	files  storage.Store
	paging Pagination
	log    *slog.Logger
}

func NewMapService(r *repository.MapRepo, users repository.UserRepository, files storage.Store, paging Pagination, log *slog.Logger) MapService {
	return &mapService{repo: r, users: users, files: files, paging: paging, log: log}
}

// List validates q completely before touching the store.
func (s *mapService) List(ctx context.Context, q dto.MapQuery) (*dto.MapListResponse, error) {
	query, page, pageSize, err := s.buildQuery(q)
	if err != nil {
		return nil, err
	}

	items, total, err := s.repo.List(ctx, query)
	if err != nil {
		s.log.Error("list maps failed", "error", err)
		return nil, storageError(err, "map")
	}
	metrics.ListQueriesTotal.WithLabelValues(sortKey(q.SortBy)).Inc()

	summaries := make([]dto.MapSummaryResponse, 0, len(items))
	for _, m := range items {
		summaries = append(summaries, dto.FromModelToSummary(m))
	}
	return &dto.MapListResponse{
		Items:      summaries,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: dto.TotalPages(total, pageSize),
	}, nil
}

func (s *mapService) buildQuery(q dto.MapQuery) (repository.MapQuery, int, int, error) {
	var query repository.MapQuery

	column, ok := sortColumns[sortKey(q.SortBy)]
	if !ok {
		return query, 0, 0, invalidArgument("sort_by must be one of created_at, rating, downloads, name")
	}
	order := defaultSortOrder
	if q.SortOrder != nil {
		order = *q.SortOrder
	}
	if order != "asc" && order != "desc" {
		return query, 0, 0, invalidArgument("sort_order must be asc or desc")
	}

	page := 1
	if q.Page != nil {
		page = *q.Page
	}
	pageSize := s.paging.DefaultPageSize
	switch {
	case q.PageSize != nil:
		pageSize = *q.PageSize
	case q.Limit != nil:
		pageSize = *q.Limit
	}
	if err := validatePage(page, pageSize, s.paging.MaxPageSize); err != nil {
		return query, 0, 0, err
	}

	filter, err := buildFilter(q)
	if err != nil {
		return query, 0, 0, err
	}

	query = repository.MapQuery{
		Filter:     filter,
		SortColumn: column,
		Descending: order == "desc",
		Offset:     (page - 1) * pageSize,
		Limit:      pageSize,
	}
	return query, page, pageSize, nil
}

// buildFilter drops empty string parameters and range-checks the rest.
func buildFilter(q dto.MapQuery) (repository.MapFilter, error) {
	var f repository.MapFilter

	if t := nonEmpty(q.TerrainType); t != nil {
		if !models.ValidTerrainType(*t) {
			return f, invalidArgument("terrain_type must be one of %s", strings.Join(models.TerrainTypes, ", "))
		}
		f.TerrainType = t
	}
	if q.Size != nil {
		if !models.ValidMapSize(*q.Size) {
			return f, invalidArgument("size must be one of %v", models.MapSizes)
		}
		f.Size = q.Size
	}
	if q.PlayerCount != nil {
		if *q.PlayerCount < models.MinPlayerCount || *q.PlayerCount > models.MaxPlayerCount {
			return f, invalidArgument("player_count must be between %d and %d", models.MinPlayerCount, models.MaxPlayerCount)
		}
		f.PlayerCount = q.PlayerCount
	}
	if q.MinRating != nil {
		if math.IsNaN(*q.MinRating) || *q.MinRating < 0 || *q.MinRating > models.MaxRating {
			return f, invalidArgument("min_rating must be between 0 and %d", models.MaxRating)
		}
		f.MinRating = q.MinRating
	}
	f.Author = nonEmpty(q.Author)
	f.CreatorID = nonEmpty(q.CreatorID)
	if s := nonEmpty(q.Search); s != nil {
		if utf8.RuneCountInString(*s) > maxSearchLength {
			return f, invalidArgument("search must be at most %d characters", maxSearchLength)
		}
		f.Search = s
	}
	return f, nil
}

func sortKey(sortBy *string) string {
	if sortBy == nil {
		return defaultSortBy
	}
	return *sortBy
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

// requireMap fails with ErrNotFound unless the map exists.
func requireMap(ctx context.Context, repo *repository.MapRepo, mapID int64) error {
	ok, err := repo.Exists(ctx, mapID)
	if err != nil {
		return storageError(err, "map")
	}
	if !ok {
		return notFound("map")
	}
	return nil
}

func (s *mapService) GetByID(ctx context.Context, id int64) (*dto.MapDetailResponse, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "map")
	}
	detail := dto.FromModelToDetail(*m)
	return &detail, nil
}

// Download counts the download and resolves the stored package. The counter
// is incremented even if the file later turns out to be missing on disk.
func (s *mapService) Download(ctx context.Context, id int64) (*dto.MapDownload, error) {
	m, err := s.repo.IncrementDownloads(ctx, id)
	if err != nil {
		return nil, storageError(err, "map")
	}
	metrics.DownloadsTotal.Inc()

	path, err := s.files.Path(m.FilePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Warn("map file missing", "map_id", id, "file", m.FilePath)
			return nil, notFound("map file")
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	ext := filepath.Ext(m.FilePath)
	if ext == "" {
		ext = ".sd7"
	}
	return &dto.MapDownload{
		Path:     path,
		Filename: fmt.Sprintf("%s_%s%s", m.Shortname, m.Version, ext),
	}, nil
}

// Upload stores the package, inserts the map and then attaches the optional
// preview. The stored package is removed again when the insert fails; a
// failed preview only gets logged.
func (s *mapService) Upload(ctx context.Context, in UploadInput) (*dto.MapResponse, error) {
	m := in.Map
	if !models.ValidMapSize(m.Size) {
		return nil, invalidArgument("size must be one of %v", models.MapSizes)
	}
	if !models.ValidTerrainType(m.TerrainType) {
		return nil, invalidArgument("terrain_type must be one of %s", strings.Join(models.TerrainTypes, ", "))
	}
	if m.PlayerCount < models.MinPlayerCount || m.PlayerCount > models.MaxPlayerCount {
		return nil, invalidArgument("player_count must be between %d and %d", models.MinPlayerCount, models.MaxPlayerCount)
	}

	creator, err := s.users.FindByID(ctx, in.CreatorID)
	if err != nil {
		return nil, storageError(err, "user")
	}

	ref, err := s.files.SaveMap(in.Filename, in.File)
	if err != nil {
		// size and type rejections pass through for the handler to classify
		if errors.Is(err, storage.ErrUnsupportedType) || errors.Is(err, storage.ErrTooLarge) {
			return nil, err
		}
		s.log.Error("store map file failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	m.CreatorID = creator.ID
	m.FilePath = ref
	if err := s.repo.Create(ctx, m); err != nil {
		if derr := s.files.Delete(ref); derr != nil {
			s.log.Error("remove orphaned map file failed", "file", ref, "error", derr)
		}
		s.log.Error("create map failed", "error", err)
		return nil, storageError(err, "map")
	}

	if in.Preview != nil {
		if err := s.attachPreview(ctx, m, in.Preview); err != nil {
			s.log.Warn("preview image not saved", "map_id", m.ID, "error", err)
		}
	}

	metrics.UploadsTotal.Inc()
	s.log.Info("map uploaded", "map_id", m.ID, "creator_id", creator.ID)

	m.Creator = *creator
	resp := dto.FromModelToMapResponse(*m)
	return &resp, nil
}

func (s *mapService) attachPreview(ctx context.Context, m *models.Map, r io.Reader) error {
	ref, err := s.files.SavePreview(m.ID, r)
	if err != nil {
		return err
	}
	if err := s.repo.SetPreviewImage(ctx, m.ID, ref); err != nil {
		_ = s.files.Delete(ref)
		return err
	}
	m.PreviewImagePath = &ref
	return nil
}
