package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"mapportal/internal/microservices/http-api/dto"
	"mapportal/internal/microservices/http-api/models"
	"mapportal/internal/microservices/http-api/repository"
)

var commentSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
}

const maxCommentLength = 5000

type CommentService interface {
	CreateComment(ctx context.Context, userID string, mapID int64, content string) (*dto.CommentResponse, error)
	UpdateComment(ctx context.Context, mapID, commentID int64, userID string, content string) (*dto.CommentResponse, error)
	DeleteComment(ctx context.Context, mapID, commentID int64, userID string) error
	GetMapComments(ctx context.Context, mapID int64, q dto.CommentQuery) (*dto.PaginatedCommentResponse, error)
}

type commentService struct {
	commentRepo repository.CommentRepository
	mapRepo     *repository.MapRepo
	paging      Pagination
	log         *slog.Logger
}

func NewCommentService(commentRepo repository.CommentRepository, mapRepo *repository.MapRepo, paging Pagination, log *slog.Logger) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		mapRepo:     mapRepo,
		paging:      paging,
		log:         log,
	}
}

// CreateComment creates a new comment for a map
func (s *commentService) CreateComment(ctx context.Context, userID string, mapID int64, content string) (*dto.CommentResponse, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}
	if err := requireMap(ctx, s.mapRepo, mapID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		UserID:  userID,
		MapID:   mapID,
		Content: content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, storageError(err, "comment")
	}

	// Reload with user data
	comment, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, storageError(err, "comment")
	}
	s.log.Info("comment created", "comment_id", comment.ID, "map_id", mapID, "user_id", userID)
	return dto.FromModelToCommentResponse(comment), nil
}

// UpdateComment replaces the content of a comment owned by userID
func (s *commentService) UpdateComment(ctx context.Context, mapID, commentID int64, userID string, content string) (*dto.CommentResponse, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}
	comment, err := s.ownedComment(ctx, mapID, commentID, userID)
	if err != nil {
		return nil, err
	}

	comment.Content = content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, storageError(err, "comment")
	}
	return dto.FromModelToCommentResponse(comment), nil
}

// DeleteComment removes a comment owned by userID
func (s *commentService) DeleteComment(ctx context.Context, mapID, commentID int64, userID string) error {
	if _, err := s.ownedComment(ctx, mapID, commentID, userID); err != nil {
		return err
	}
	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return storageError(err, "comment")
	}
	s.log.Info("comment deleted", "comment_id", commentID, "map_id", mapID, "user_id", userID)
	return nil
}

// GetMapComments retrieves a page of comments for a map
func (s *commentService) GetMapComments(ctx context.Context, mapID int64, q dto.CommentQuery) (*dto.PaginatedCommentResponse, error) {
	sortBy := "created_at"
	if q.SortBy != nil {
		sortBy = *q.SortBy
	}
	column, ok := commentSortColumns[sortBy]
	if !ok {
		return nil, invalidArgument("sort_by must be created_at or updated_at")
	}
	order := defaultSortOrder
	if q.SortOrder != nil {
		order = *q.SortOrder
	}
	if order != "asc" && order != "desc" {
		return nil, invalidArgument("sort_order must be asc or desc")
	}
	page, pageSize := 1, s.paging.DefaultPageSize
	if q.Page != nil {
		page = *q.Page
	}
	if q.PageSize != nil {
		pageSize = *q.PageSize
	}
	if err := validatePage(page, pageSize, s.paging.MaxPageSize); err != nil {
		return nil, err
	}
	if err := requireMap(ctx, s.mapRepo, mapID); err != nil {
		return nil, err
	}

	comments, total, err := s.commentRepo.GetByMap(ctx, mapID, column, order == "desc", (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, storageError(err, "comment")
	}

	commentResponses := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		commentResponses = append(commentResponses, *dto.FromModelToCommentResponse(&comments[i]))
	}
	return dto.NewPaginatedCommentResponse(commentResponses, total, page, pageSize), nil
}

// ownedComment loads a comment of mapID and checks that userID wrote it.
func (s *commentService) ownedComment(ctx context.Context, mapID, commentID int64, userID string) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, storageError(err, "comment")
	}
	if comment.MapID != mapID {
		return nil, notFound("comment")
	}
	if comment.UserID != userID {
		return nil, fmt.Errorf("%w: only the author may change this comment", ErrForbidden)
	}
	return comment, nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return invalidArgument("content must not be empty")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return invalidArgument("content must be at most %d characters", maxCommentLength)
	}
	return nil
}
