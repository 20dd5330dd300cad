package database

import (
	"io"
	"log/slog"
	"testing"

	"mapportal/internal/config"
	"mapportal/internal/microservices/http-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_pragma=foreign_keys(1)", sqliteDSN(":memory:"))
	assert.Equal(t, "file:x?mode=memory&_pragma=foreign_keys(1)", sqliteDSN("file:x?mode=memory"))
	assert.Equal(t, "a.db?_pragma=foreign_keys(0)", sqliteDSN("a.db?_pragma=foreign_keys(0)"))
}

func TestConnectDB_SqliteMigrates(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{DBDriver: "sqlite", DatabaseURL: ":memory:"}

	db, err := ConnectDB(cfg, log)
	require.NoError(t, err)
	defer Close(db)

	for _, m := range models.AllModels() {
		assert.True(t, db.Migrator().HasTable(m))
	}
	assert.True(t, db.Migrator().HasIndex(&models.Rating{}, "idx_ratings_user_map"))
	assert.True(t, db.Migrator().HasIndex(&models.Map{}, "idx_maps_size_terrain"))
	assert.True(t, db.Migrator().HasIndex(&models.Map{}, "idx_maps_rating"))
}

func TestOpen_UnknownDriver(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := Open("mysql", "whatever", log)
	assert.ErrorContains(t, err, "unsupported database driver")
}
