package repository

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"mapportal/database"
	"mapportal/internal/microservices/http-api/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := database.Open("sqlite", ":memory:", log)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { database.Close(db) })
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", Password: "x", IsActive: true}
	require.NoError(t, db.Create(u).Error)
	return u
}

// seedMap inserts a minimal valid map; mutate adjusts fields before insert.
func seedMap(t *testing.T, db *gorm.DB, creator *models.User, name string, mutate ...func(*models.Map)) *models.Map {
	t.Helper()
	m := &models.Map{
		Name:           name,
		Shortname:      name,
		Author:         "Tester",
		Version:        "1.0",
		CreatorID:      creator.ID,
		MapX:           16,
		MapY:           16,
		MaxPlayers:     8,
		Size:           1024,
		TerrainType:    "continental",
		PlayerCount:    8,
		StartPositions: "corners",
		FilePath:       fmt.Sprintf("maps/%s.sd7", name),
	}
	for _, fn := range mutate {
		fn(m)
	}
	require.NoError(t, db.Omit("Creator", "Ratings", "Comments").Create(m).Error)
	return m
}

func reloadMap(t *testing.T, db *gorm.DB, id int64) models.Map {
	t.Helper()
	var m models.Map
	require.NoError(t, db.First(&m, id).Error)
	return m
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func floatPtr(f float64) *float64 { return &f }
