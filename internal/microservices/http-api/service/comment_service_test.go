package service

import (
	"context"
	"math"
	"strings"
	"testing"

	"mapportal/internal/microservices/http-api/dto"
	"mapportal/internal/microservices/http-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	writer := f.user(t, "writer")
	m := f.mapRow(t, writer, "talk")

	c, err := f.comments.CreateComment(ctx, writer.ID, m.ID, "great map")
	require.NoError(t, err)
	assert.Equal(t, "great map", c.Content)
	assert.Equal(t, "writer", c.Author.Username)

	_, err = f.comments.CreateComment(ctx, writer.ID, 999, "hello")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateComment_ValidatesContent(t *testing.T) {
	f := newFixture(t)
	writer := f.user(t, "writer")
	m := f.mapRow(t, writer, "talk")

	for _, content := range []string{"", "   ", strings.Repeat("é", maxCommentLength+1)} {
		_, err := f.comments.CreateComment(context.Background(), writer.ID, m.ID, content)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
	assert.Zero(t, f.count(t, &models.Comment{}))

	// the limit counts characters, not bytes
	_, err := f.comments.CreateComment(context.Background(), writer.ID, m.ID, strings.Repeat("é", maxCommentLength))
	assert.NoError(t, err)
}

func TestUpdateAndDeleteComment_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	writer, other := f.user(t, "writer"), f.user(t, "other")
	m := f.mapRow(t, writer, "talk")
	elsewhere := f.mapRow(t, writer, "quiet")

	c, err := f.comments.CreateComment(ctx, writer.ID, m.ID, "v1")
	require.NoError(t, err)

	_, err = f.comments.UpdateComment(ctx, m.ID, c.ID, other.ID, "hijack")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.comments.UpdateComment(ctx, elsewhere.ID, c.ID, writer.ID, "wrong map")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.comments.DeleteComment(ctx, m.ID, c.ID, other.ID), ErrForbidden)

	updated, err := f.comments.UpdateComment(ctx, m.ID, c.ID, writer.ID, "v2")
	require.NoError(t, err)
	assert.Equal(t, "v2", updated.Content)

	require.NoError(t, f.comments.DeleteComment(ctx, m.ID, c.ID, writer.ID))
	assert.ErrorIs(t, f.comments.DeleteComment(ctx, m.ID, c.ID, writer.ID), ErrNotFound)
}

func TestGetMapComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	writer := f.user(t, "writer")
	m := f.mapRow(t, writer, "talk")
	for _, text := range []string{"one", "two", "three"} {
		_, err := f.comments.CreateComment(ctx, writer.ID, m.ID, text)
		require.NoError(t, err)
	}

	page, err := f.comments.GetMapComments(ctx, m.ID, dto.CommentQuery{PageSize: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "three", page.Items[0].Content)

	asc, err := f.comments.GetMapComments(ctx, m.ID, dto.CommentQuery{SortOrder: strPtr("asc")})
	require.NoError(t, err)
	assert.Equal(t, "one", asc.Items[0].Content)

	_, err = f.comments.GetMapComments(ctx, m.ID, dto.CommentQuery{SortBy: strPtr("content")})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = f.comments.GetMapComments(ctx, m.ID, dto.CommentQuery{Page: intPtr(0)})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = f.comments.GetMapComments(ctx, m.ID, dto.CommentQuery{Page: intPtr(math.MaxInt)})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = f.comments.GetMapComments(ctx, 999, dto.CommentQuery{})
	assert.ErrorIs(t, err, ErrNotFound)
}
