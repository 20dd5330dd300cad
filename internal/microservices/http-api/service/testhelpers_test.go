package service

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"mapportal/database"
	"mapportal/internal/microservices/http-api/models"
	"mapportal/internal/microservices/http-api/repository"
	"mapportal/internal/storage"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var discardLog = slog.New(slog.NewTextHandler(io.Discard, nil))

var testPaging = Pagination{DefaultPageSize: 20, MaxPageSize: 100}

// fixture wires every service against one in-memory store.
type fixture struct {
	db       *gorm.DB
	files    *storage.FileStore
	users    repository.UserRepository
	maps     MapService
	ratings  RatingService
	comments CommentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:", discardLog)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { database.Close(db) })

	files, err := storage.NewFileStore(t.TempDir(), 1<<20, []string{".sd7"})
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	mapRepo := repository.NewMapRepo(db)
	return &fixture{
		db:       db,
		files:    files,
		users:    userRepo,
		maps:     NewMapService(mapRepo, userRepo, files, testPaging, discardLog),
		ratings:  NewRatingService(repository.NewRatingRepository(db), mapRepo, testPaging, discardLog),
		comments: NewCommentService(repository.NewCommentRepository(db), mapRepo, testPaging, discardLog),
	}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", Password: "x", IsActive: true}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) mapRow(t *testing.T, creator *models.User, name string, mutate ...func(*models.Map)) *models.Map {
	t.Helper()
	m := newMap(name)
	m.CreatorID = creator.ID
	m.FilePath = fmt.Sprintf("maps/%s.sd7", name)
	for _, fn := range mutate {
		fn(m)
	}
	require.NoError(t, f.db.Omit("Creator", "Ratings", "Comments").Create(m).Error)
	return m
}

func (f *fixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

// newMap returns valid upload metadata without creator or file.
func newMap(name string) *models.Map {
	return &models.Map{
		Name:           name,
		Shortname:      name,
		Author:         "Tester",
		Version:        "1.0",
		MapX:           16,
		MapY:           16,
		MaxPlayers:     8,
		Gravity:        100,
		TidalStrength:  100,
		MaxMetal:       100,
		Size:           1024,
		TerrainType:    "continental",
		PlayerCount:    8,
		StartPositions: "corners",
	}
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func floatPtr(f float64) *float64 { return &f }
