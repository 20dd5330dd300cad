package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"mapportal/internal/microservices/http-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundedAverage(t *testing.T) {
	tests := []struct {
		sum, count int
		want       float64
	}{
		{0, 0, 0},
		{8, 2, 4},
		{12, 3, 4},
		{10, 3, 3.33},
		{11, 3, 3.67},
		{5, 4, 1.25},
		{9, 8, 1.13}, // 1.125 rounds half up
		{7, 6, 1.17},
		{5, 1, 5},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.sum, tt.count), func(t *testing.T) {
			assert.Equal(t, tt.want, RoundedAverage(tt.sum, tt.count))
		})
	}
}

func TestSubmit_Scenario(t *testing.T) {
	db := newTestDB(t)
	repo := NewRatingRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner")
	a, b, c := seedUser(t, db, "alice"), seedUser(t, db, "bob"), seedUser(t, db, "carol")
	m := seedMap(t, db, owner, "duel")

	_, created, err := repo.Submit(ctx, a.ID, m.ID, 3)
	require.NoError(t, err)
	assert.True(t, created)
	_, _, err = repo.Submit(ctx, b.ID, m.ID, 5)
	require.NoError(t, err)

	got := reloadMap(t, db, m.ID)
	assert.Equal(t, 4.0, got.AverageRating)
	assert.Equal(t, int64(2), got.RatingCount)

	_, _, err = repo.Submit(ctx, c.ID, m.ID, 4)
	require.NoError(t, err)
	got = reloadMap(t, db, m.ID)
	assert.Equal(t, 4.0, got.AverageRating)
	assert.Equal(t, int64(3), got.RatingCount)

	// alice replaces her 3 with a 1: {1, 5, 4}
	rating, created, err := repo.Submit(ctx, a.ID, m.ID, 1)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, rating.Rating)
	assert.Equal(t, "alice", rating.User.Username)

	got = reloadMap(t, db, m.ID)
	assert.Equal(t, 3.33, got.AverageRating)
	assert.Equal(t, int64(3), got.RatingCount)

	var rows int64
	require.NoError(t, db.Model(&models.Rating{}).Where("map_id = ?", m.ID).Count(&rows).Error)
	assert.Equal(t, int64(3), rows)
}

func TestSubmit_MissingMapWritesNothing(t *testing.T) {
	db := newTestDB(t)
	repo := NewRatingRepository(db)
	u := seedUser(t, db, "alice")

	_, _, err := repo.Submit(context.Background(), u.ID, 999, 4)
	assert.ErrorIs(t, err, ErrMapNotFound)

	var rows int64
	require.NoError(t, db.Model(&models.Rating{}).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestSubmit_MissingUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewRatingRepository(db)
	m := seedMap(t, db, seedUser(t, db, "owner"), "duel")

	_, _, err := repo.Submit(context.Background(), "7f1c1f0e-0000-4000-8000-000000000000", m.ID, 4)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, int64(0), reloadMap(t, db, m.ID).RatingCount)
}

func TestSubmit_ConcurrentRatersAllCounted(t *testing.T) {
	db := newTestDB(t)
	repo := NewRatingRepository(db)
	m := seedMap(t, db, seedUser(t, db, "owner"), "busy")

	const raters = 10
	users := make([]*models.User, raters)
	sum := 0
	for i := range users {
		users[i] = seedUser(t, db, fmt.Sprintf("rater%d", i))
		sum += i%5 + 1
	}

	var wg sync.WaitGroup
	errs := make(chan error, raters)
	for i, u := range users {
		wg.Add(1)
		go func(userID string, value int) {
			defer wg.Done()
			_, _, err := repo.Submit(context.Background(), userID, m.ID, value)
			errs <- err
		}(u.ID, i%5+1)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got := reloadMap(t, db, m.ID)
	assert.Equal(t, int64(raters), got.RatingCount)
	assert.Equal(t, RoundedAverage(sum, raters), got.AverageRating)
}

func TestRecompute(t *testing.T) {
	db := newTestDB(t)
	repo := NewRatingRepository(db)
	ctx := context.Background()
	owner := seedUser(t, db, "owner")
	m := seedMap(t, db, owner, "drift")

	// stale cache written behind the aggregator's back
	require.NoError(t, db.Model(&models.Map{}).Where("id = ?", m.ID).
		UpdateColumns(map[string]interface{}{"average_rating": 5, "rating_count": 9}).Error)

	require.NoError(t, repo.Recompute(ctx, m.ID))
	got := reloadMap(t, db, m.ID)
	assert.Zero(t, got.AverageRating)
	assert.Zero(t, got.RatingCount)

	t.Run("missing map is a no-op", func(t *testing.T) {
		assert.NoError(t, repo.Recompute(ctx, 12345))
	})
}

func TestGetByUserAndMap(t *testing.T) {
	db := newTestDB(t)
	repo := NewRatingRepository(db)
	ctx := context.Background()
	u := seedUser(t, db, "alice")
	m := seedMap(t, db, u, "duel")

	_, err := repo.GetByUserAndMap(ctx, u.ID, m.ID)
	assert.Error(t, err)

	_, _, err = repo.Submit(ctx, u.ID, m.ID, 2)
	require.NoError(t, err)
	r, err := repo.GetByUserAndMap(ctx, u.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Rating)
	assert.Empty(t, r.User.Email)
}

func TestGetByMap_Paginates(t *testing.T) {
	db := newTestDB(t)
	repo := NewRatingRepository(db)
	ctx := context.Background()
	m := seedMap(t, db, seedUser(t, db, "owner"), "duel")
	for i := 0; i < 5; i++ {
		u := seedUser(t, db, fmt.Sprintf("r%d", i))
		_, _, err := repo.Submit(ctx, u.ID, m.ID, 3)
		require.NoError(t, err)
	}

	page, total, err := repo.GetByMap(ctx, m.ID, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page, 2)

	last, _, err := repo.GetByMap(ctx, m.ID, 3, 2)
	require.NoError(t, err)
	assert.Len(t, last, 1)
}
